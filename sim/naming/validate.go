package naming

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidName is returned when a name does not follow the naming
// convention.
var ErrInvalidName = errors.New("invalid name")

// ValidateName checks that a name follows the naming convention used for
// component types, peer roles, and fields.
//
//  1. It must not be empty.
//  2. It must start with a lower-case letter.
//  3. It may only contain lower-case letters, digits, and underscores.
//  4. It must not end with an underscore or contain two in a row.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name must not be empty", ErrInvalidName)
	}

	if name[0] < 'a' || name[0] > 'z' {
		return fmt.Errorf("%w: %q must start with a lower-case letter",
			ErrInvalidName, name)
	}

	for _, c := range name {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
		case c == '_':
		default:
			return fmt.Errorf("%w: %q must not contain %q",
				ErrInvalidName, name, c)
		}
	}

	if strings.HasSuffix(name, "_") || strings.Contains(name, "__") {
		return fmt.Errorf("%w: %q has a misplaced underscore",
			ErrInvalidName, name)
	}

	return nil
}

// NameMustBeValid panics if the name does not follow the naming convention.
func NameMustBeValid(name string) {
	if err := ValidateName(name); err != nil {
		panic(err.Error())
	}
}

// BuildName builds a dotted name from a parent name and an element name.
func BuildName(parentName, elementName string) string {
	if parentName == "" {
		return elementName
	}

	return parentName + "." + elementName
}
