package field

import "fmt"

// Category is the role a field plays in a component's interface.
type Category int

// The field categories a component type can declare.
const (
	Inward Category = iota
	Outward
	Input
	Parameter
	Constant
	State
	Output
)

// Categories lists every category in declaration order.
var Categories = []Category{
	Inward, Outward, Input, Parameter, Constant, State, Output,
}

// String returns the lower-case name of the category.
func (c Category) String() string {
	switch c {
	case Inward:
		return "inward"
	case Outward:
		return "outward"
	case Input:
		return "input"
	case Parameter:
		return "parameter"
	case Constant:
		return "constant"
	case State:
		return "state"
	case Output:
		return "output"
	default:
		return fmt.Sprintf("Category(%d)", int(c))
	}
}

// Kind tells how an input varies over time.
type Kind string

// The input kinds.
const (
	Dynamic      Kind = "dynamic"
	Static       Kind = "static"
	Climatologic Kind = "climatologic"
)

// climatologicLengths maps named climatologic frequencies to the number of
// values they hold per calendar year.
var climatologicLengths = map[string]int{
	"seasonal":    4,
	"monthly":     12,
	"day_of_year": 366,
}
