package engine

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSchema is matched by every schema failure.
var ErrSchema = errors.New("schema error")

// SchemaError reports identifier columns missing from a wide table.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error: missing identifier columns: %s", strings.Join(e.Missing, ", "))
}

func (e *SchemaError) Unwrap() error { return ErrSchema }
