package ingest

import (
	_ "embed"
	"encoding/json"
)

//go:embed example.json
var example []byte

// Schema describes the import format with a complete example document.
type Schema struct {
	Description string          `json:"description"`
	Example     json.RawMessage `json:"example"`
}

func ExampleSchema() Schema {
	return Schema{
		Description: "Daily log JSON format for import",
		Example:     json.RawMessage(example),
	}
}
