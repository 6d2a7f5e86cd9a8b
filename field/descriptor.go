package field

import "github.com/sarchlab/hydrocouple/ndarray"

// A Division is one extra axis of a state array. Its length is either given
// directly or read from a constant of the component.
type Division struct {
	Count    int
	Constant string
}

// Divisions builds fixed-length divisions.
func Divisions(counts ...int) []Division {
	d := make([]Division, len(counts))
	for i, c := range counts {
		d[i] = Division{Count: c}
	}

	return d
}

// DivisionFrom builds a division whose length is the value of a constant.
func DivisionFrom(constant string) Division {
	return Division{Constant: constant}
}

// DefaultOf is a helper to set Descriptor.DefaultValue inline.
func DefaultOf(v float64) *float64 {
	return &v
}

// A Descriptor declares one field of a component type. Only the attributes
// relevant to the category of the field are considered.
type Descriptor struct {
	Name        string
	Units       string
	Description string

	// Inputs.
	Kind      Kind
	Frequency string

	// Inwards and outwards.
	From   string
	To     []string
	Method string

	// States.
	Divisions []Division
	Order     ndarray.Order

	// Constants.
	DefaultValue *float64

	// Outwards and outputs.
	Routed bool
}

// Declaration lists the descriptors of a component type per category.
type Declaration struct {
	Inwards    []Descriptor
	Outwards   []Descriptor
	Inputs     []Descriptor
	Parameters []Descriptor
	Constants  []Descriptor
	States     []Descriptor
	Outputs    []Descriptor
}

func (d Declaration) of(c Category) []Descriptor {
	switch c {
	case Inward:
		return d.Inwards
	case Outward:
		return d.Outwards
	case Input:
		return d.Inputs
	case Parameter:
		return d.Parameters
	case Constant:
		return d.Constants
	case State:
		return d.States
	case Output:
		return d.Outputs
	}

	return nil
}
