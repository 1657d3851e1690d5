package planner

import (
	"fmt"
	"strings"
)

// SchemaViolation reports a generated payload that does not match its shape.
// Fields lists every offending field, not just the first.
type SchemaViolation struct {
	Shape  Shape
	Reason string
	Fields []string
}

func (e *SchemaViolation) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("%s schema violation: %s", e.Shape, e.Reason)
	}
	return fmt.Sprintf("%s schema violation: %s: %s", e.Shape, e.Reason, strings.Join(e.Fields, "; "))
}

// Names reports whether field is among the violations.
func (e *SchemaViolation) Names(field string) bool {
	for _, f := range e.Fields {
		if f == field || strings.HasPrefix(f, field+" ") || strings.HasPrefix(f, field+":") {
			return true
		}
	}
	return false
}

// PersistenceError wraps a storage failure from a save operation.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
