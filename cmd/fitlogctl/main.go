// fitlogctl is the maintenance CLI for the fitness tracker database.
// Usage: go run ./cmd/fitlogctl --help
package main

import "lg/fitness-tracker-api/internal/cli"

func main() {
	cli.Execute()
}
