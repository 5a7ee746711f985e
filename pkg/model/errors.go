package model

import "fmt"

// InvalidEntryError is raised at construction time when an Entry fails
// basic shape validation (spec.md §4.1, §7 InvalidEntry).
type InvalidEntryError struct {
	Field  string
	Reason string
}

func (e *InvalidEntryError) Error() string {
	return fmt.Sprintf("invalid entry: field %q: %s", e.Field, e.Reason)
}
