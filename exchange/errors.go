package exchange

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sarchlab/hydrocouple/ndarray"
)

// ErrKey is matched by every KeyError.
var ErrKey = errors.New("field key mismatch")

// A KeyError reports fields that were expected but not given, or given but
// never declared.
type KeyError struct {
	Component  string
	Variant    string
	Kind       string
	Missing    []string
	Undeclared []string
}

func (e *KeyError) Error() string {
	var parts []string

	if len(e.Missing) > 0 {
		parts = append(parts, "missing "+strings.Join(e.Missing, ", "))
	}

	if len(e.Undeclared) > 0 {
		parts = append(parts, "undeclared "+strings.Join(e.Undeclared, ", "))
	}

	component := e.Component
	if e.Variant != "" {
		component += " (" + e.Variant + ")"
	}

	return fmt.Sprintf("%s %s: %s", component, e.Kind,
		strings.Join(parts, "; "))
}

// Unwrap makes KeyError match ErrKey.
func (e *KeyError) Unwrap() error {
	return ErrKey
}

// Transfers maps field names to values.
type Transfers map[string]*ndarray.Array

// Names returns the sorted field names.
func (t Transfers) Names() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// CheckDeclared verifies that got holds exactly the declared names. kind
// names the category in the error, for example "inward" or "output".
func CheckDeclared(
	component, kind string,
	declared []string,
	got Transfers,
) error {
	want := make(map[string]bool, len(declared))
	for _, name := range declared {
		want[name] = true
	}

	e := &KeyError{Component: component, Kind: kind}

	for _, name := range declared {
		if v, ok := got[name]; !ok || v == nil {
			e.Missing = append(e.Missing, name)
		}
	}

	for _, name := range got.Names() {
		if !want[name] {
			e.Undeclared = append(e.Undeclared, name)
		}
	}

	if len(e.Missing) > 0 || len(e.Undeclared) > 0 {
		return e
	}

	return nil
}
