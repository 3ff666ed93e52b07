package main

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"lg/fitness-tracker-api/internal/models"
	"lg/fitness-tracker-api/internal/numfield"
)

// patch collects column updates for a partial update. Only fields the client
// sent are added, so "not provided" stays distinct from an explicit null.
type patch struct {
	cols map[string]any
	err  error // first validation error
}

func newPatch() *patch {
	return &patch{cols: map[string]any{}}
}

// str sets col when the field was sent. Empty strings are stored as NULL.
func (p *patch) str(col string, v *string) {
	if v == nil {
		return
	}
	p.cols[col] = nullable(emptyToNil(*v))
}

// required sets col when sent, rejecting an empty value.
func (p *patch) required(col, field string, v *string) {
	if v == nil {
		return
	}
	if *v == "" {
		p.fail(fmt.Errorf("%s must not be empty", field))
		return
	}
	p.cols[col] = *v
}

// truthyFloat follows the import's coercion: 0, "" and null clear the column.
func (p *patch) truthyFloat(col, field string, v numfield.Value) {
	if !v.Present() {
		return
	}
	f, err := v.TruthyFloat()
	if err != nil {
		p.fail(fmt.Errorf("%s: %w", field, err))
		return
	}
	p.cols[col] = nullable(f)
}

func (p *patch) truthyInt(col, field string, v numfield.Value) {
	if !v.Present() {
		return
	}
	n, err := v.TruthyInt()
	if err != nil {
		p.fail(fmt.Errorf("%s: %w", field, err))
		return
	}
	p.cols[col] = nullable(n)
}

func (p *patch) date(col, field string, v *string) {
	if v == nil {
		return
	}
	d, err := models.ParseDate(*v)
	if err != nil {
		p.fail(fmt.Errorf("%s: %w", field, err))
		return
	}
	p.cols[col] = d
}

func (p *patch) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}

func (p *patch) empty() bool { return len(p.cols) == 0 }

// nullable turns a nil pointer into an untyped nil for map-based updates.
func nullable[T any](v *T) any {
	if v == nil {
		return nil
	}
	return *v
}

// emptyToNil maps "" to NULL, the same way the import stores optional text.
func emptyToNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// bindJSON binds the body into dst and writes the 400 itself on failure.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
