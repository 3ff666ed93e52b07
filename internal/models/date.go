package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// DateOnly wraps time.Time to serialize as "YYYY-MM-DD" in JSON and in the
// database. Values are always midnight UTC.
type DateOnly struct{ time.Time }

// NewDate truncates t to its calendar date in t's own location.
func NewDate(t time.Time) DateOnly {
	return DateOnly{time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts "YYYY-MM-DD" or a full RFC 3339 timestamp, keeping only
// the date part.
func ParseDate(s string) (DateOnly, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return DateOnly{t}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return DateOnly{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return NewDate(t), nil
}

func (d DateOnly) String() string {
	return d.Time.Format(DateLayout)
}

func (d DateOnly) AddDays(n int) DateOnly {
	return DateOnly{d.Time.AddDate(0, 0, n)}
}

func (d DateOnly) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *DateOnly) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	parsed, err := ParseDate(strings.Trim(string(b), `"`))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value stores dates as text so that equality and range comparisons behave
// the same on PostgreSQL date columns and SQLite text columns.
func (d DateOnly) Value() (driver.Value, error) {
	return d.String(), nil
}

// Scan accepts what the drivers hand back for a date column: time.Time from
// pgx, and either time.Time or text from SQLite.
func (d *DateOnly) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		d.Time = time.Time{}
		return nil
	case time.Time:
		*d = NewDate(v)
		return nil
	case string:
		parsed, err := ParseDate(firstDateToken(v))
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case []byte:
		return d.Scan(string(v))
	default:
		return fmt.Errorf("cannot scan %T into DateOnly", src)
	}
}

func (DateOnly) GormDataType() string {
	return "date"
}

// firstDateToken trims "2026-03-01 00:00:00+00:00" style values down to the date.
func firstDateToken(s string) string {
	if len(s) > len(DateLayout) && s[len(DateLayout)] == ' ' {
		return s[:len(DateLayout)]
	}
	return s
}
