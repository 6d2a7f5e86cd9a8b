package field

import (
	"errors"
	"fmt"
)

// ErrSchema is the sentinel matched by every SchemaError.
var ErrSchema = errors.New("schema error")

// A SchemaError reports a malformed component type definition.
type SchemaError struct {
	Type     string
	Category string
	Field    string
	Reason   string
}

func (e *SchemaError) Error() string {
	where := e.Type
	if e.Category != "" {
		where += " " + e.Category
	}

	if e.Field != "" {
		where += fmt.Sprintf(" %q", e.Field)
	}

	return fmt.Sprintf("schema error in %s: %s", where, e.Reason)
}

// Unwrap makes SchemaError match ErrSchema.
func (e *SchemaError) Unwrap() error {
	return ErrSchema
}
