// Package field declares the interface of component types: the inward and
// outward transfers, inputs, parameters, constants, states, and outputs each
// type exchanges, together with their units and layout.
package field

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/sarchlab/hydrocouple/ndarray"
	"github.com/sarchlab/hydrocouple/sim/naming"
	"go.uber.org/multierr"
)

// DefaultRoles are the peer roles every schema knows about.
var DefaultRoles = []string{"surfacelayer", "subsurface", "openwater", "ocean"}

type options struct {
	roles []string
}

// An Option customizes schema construction.
type Option func(*options)

// WithRoles adds peer roles that inwards and outwards may refer to.
func WithRoles(roles ...string) Option {
	return func(o *options) {
		o.roles = append(o.roles, roles...)
	}
}

// A Schema is the validated, read-only interface of a component type. It is
// built once per type and shared by every instance.
type Schema struct {
	typeName string
	role     string
	roles    map[string]bool
	fields   map[Category][]Descriptor
}

// NewSchema validates a declaration and builds a schema from it. Every
// problem found is reported; the returned error combines one SchemaError per
// problem.
func NewSchema(
	typeName, role string,
	decl Declaration,
	opts ...Option,
) (*Schema, error) {
	o := options{roles: append([]string{}, DefaultRoles...)}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Schema{
		typeName: typeName,
		role:     role,
		roles:    make(map[string]bool),
		fields:   make(map[Category][]Descriptor),
	}

	for _, r := range o.roles {
		s.roles[r] = true
	}

	var err error

	if nameErr := naming.ValidateName(typeName); nameErr != nil {
		err = multierr.Append(err, s.schemaError("", "", nameErr.Error()))
	}

	if !s.roles[role] {
		err = multierr.Append(err, s.schemaError("", "",
			fmt.Sprintf("unknown role %q", role)))
	}

	for _, c := range Categories {
		descs := make([]Descriptor, 0, len(decl.of(c)))
		for _, d := range decl.of(c) {
			descs = append(descs, normalize(c, d))
		}

		s.fields[c] = descs
	}

	for _, c := range Categories {
		err = multierr.Append(err, s.validateCategory(c))
	}

	if err != nil {
		return nil, err
	}

	return s, nil
}

func normalize(c Category, d Descriptor) Descriptor {
	d.To = append([]string(nil), d.To...)
	d.Divisions = append([]Division(nil), d.Divisions...)

	if d.DefaultValue != nil {
		v := *d.DefaultValue
		d.DefaultValue = &v
	}

	switch c {
	case Input:
		if d.Kind == "" {
			d.Kind = Dynamic
		}
	case State:
		if len(d.Divisions) == 0 {
			d.Divisions = Divisions(1)
		}
	case Inward, Outward:
		if canonical, ok := CanonicalMethod(d.Method); ok {
			d.Method = canonical
		}
	}

	return d
}

func (s *Schema) schemaError(c string, name, reason string) error {
	return &SchemaError{
		Type:     s.typeName,
		Category: c,
		Field:    name,
		Reason:   reason,
	}
}

func (s *Schema) validateCategory(c Category) error {
	var err error

	seen := make(map[string]bool)

	for _, d := range s.fields[c] {
		fail := func(reason string) {
			err = multierr.Append(err, s.schemaError(c.String(), d.Name, reason))
		}

		if nameErr := naming.ValidateName(d.Name); nameErr != nil {
			fail(nameErr.Error())
		}

		if seen[d.Name] {
			fail("duplicated name")
		}
		seen[d.Name] = true

		if d.Units == "" {
			fail("units missing")
		}

		if d.Routed && c != Outward && c != Output {
			fail("only outwards and outputs can be routed")
		}

		switch c {
		case Inward:
			s.validateInward(d, fail)
		case Outward:
			s.validateOutward(d, fail)
		case Input:
			validateInput(d, fail)
		case Constant:
			if d.DefaultValue == nil {
				fail("default value missing")
			}
		case State:
			s.validateState(d, fail)
		}
	}

	return err
}

func (s *Schema) validateInward(d Descriptor, fail func(string)) {
	if d.From == "" {
		fail("source missing")
	} else if !s.roles[d.From] {
		fail(fmt.Sprintf("unknown source role %q", d.From))
	}

	validateMethod(d, fail)
}

func (s *Schema) validateOutward(d Descriptor, fail func(string)) {
	if len(d.To) == 0 {
		fail("at least one destination required")
	}

	for _, to := range d.To {
		if !s.roles[to] {
			fail(fmt.Sprintf("unknown destination role %q", to))
		}
	}

	validateMethod(d, fail)
}

func validateMethod(d Descriptor, fail func(string)) {
	if d.Method == "" {
		fail("aggregation method missing")
		return
	}

	if _, ok := CanonicalMethod(d.Method); !ok {
		fail(fmt.Sprintf("unknown aggregation method %q", d.Method))
	}
}

func validateInput(d Descriptor, fail func(string)) {
	switch d.Kind {
	case Dynamic, Static:
		if d.Frequency != "" {
			fail("frequency only applies to climatologic inputs")
		}
	case Climatologic:
		if _, err := FrequencyLength(d.Frequency); err != nil {
			fail(err.Error())
		}
	default:
		fail(fmt.Sprintf("invalid kind %q", d.Kind))
	}
}

func (s *Schema) validateState(d Descriptor, fail func(string)) {
	for _, div := range d.Divisions {
		switch {
		case div.Constant != "":
			if _, ok := s.Lookup(Constant, div.Constant); !ok {
				fail(fmt.Sprintf(
					"no constant %q to use for divisions", div.Constant))
			}
		case div.Count <= 0:
			fail("divisions must be greater than zero")
		}
	}

	if d.Order != ndarray.RowMajor && d.Order != ndarray.ColumnMajor {
		fail(fmt.Sprintf("invalid layout order %v", d.Order))
	}
}

// FrequencyLength returns the number of values a climatologic input holds
// for the given frequency: a named frequency or a positive integer.
func FrequencyLength(freq string) (int, error) {
	if n, ok := climatologicLengths[freq]; ok {
		return n, nil
	}

	n, err := strconv.Atoi(freq)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid climatologic frequency %q", freq)
	}

	return n, nil
}

// TypeName returns the name of the component type.
func (s *Schema) TypeName() string {
	return s.typeName
}

// Role returns the peer role of the component type, such as "surfacelayer".
func (s *Schema) Role() string {
	return s.role
}

// Roles returns the sorted peer roles the schema accepts.
func (s *Schema) Roles() []string {
	roles := make([]string, 0, len(s.roles))
	for r := range s.roles {
		roles = append(roles, r)
	}

	sort.Strings(roles)

	return roles
}

// Descriptors returns the descriptors of a category in declaration order.
func (s *Schema) Descriptors(c Category) []Descriptor {
	return append([]Descriptor(nil), s.fields[c]...)
}

// Names returns the field names of a category in declaration order.
func (s *Schema) Names(c Category) []string {
	names := make([]string, 0, len(s.fields[c]))
	for _, d := range s.fields[c] {
		names = append(names, d.Name)
	}

	return names
}

// Lookup finds a descriptor by category and name.
func (s *Schema) Lookup(c Category, name string) (Descriptor, bool) {
	for _, d := range s.fields[c] {
		if d.Name == name {
			return d, true
		}
	}

	return Descriptor{}, false
}

// Len returns the number of fields declared in a category.
func (s *Schema) Len(c Category) int {
	return len(s.fields[c])
}

// ConstantDefaults returns the default value of every declared constant.
func (s *Schema) ConstantDefaults() map[string]float64 {
	defaults := make(map[string]float64)
	for _, d := range s.fields[Constant] {
		defaults[d.Name] = *d.DefaultValue
	}

	return defaults
}

// ResolveDivisions returns the extra axes of every state given the constant
// values in use. Divisions of length one do not add an axis.
func (s *Schema) ResolveDivisions(
	constants map[string]float64,
) (map[string][]int, error) {
	resolved := make(map[string][]int)

	for _, d := range s.fields[State] {
		axes := []int{}

		for _, div := range d.Divisions {
			n := div.Count
			if div.Constant != "" {
				v, ok := constants[div.Constant]
				if !ok {
					return nil, s.schemaError(State.String(), d.Name,
						fmt.Sprintf("constant %q not set", div.Constant))
				}
				n = int(v)
			}

			if n <= 0 {
				return nil, s.schemaError(State.String(), d.Name,
					"divisions must be greater than zero")
			}

			if n > 1 {
				axes = append(axes, n)
			}
		}

		resolved[d.Name] = axes
	}

	return resolved, nil
}

// WithStateOrder returns a copy of the schema in which every state uses the
// given layout order. Variants backed by column-major routines declare their
// states this way.
func (s *Schema) WithStateOrder(order ndarray.Order) *Schema {
	c := &Schema{
		typeName: s.typeName,
		role:     s.role,
		roles:    s.roles,
		fields:   make(map[Category][]Descriptor),
	}

	for cat, descs := range s.fields {
		c.fields[cat] = append([]Descriptor(nil), descs...)
	}

	for i := range c.fields[State] {
		c.fields[State][i].Order = order
	}

	return c
}

// String lists the declared fields and their units.
func (s *Schema) String() string {
	var b strings.Builder

	for _, c := range Categories {
		if len(s.fields[c]) == 0 {
			continue
		}

		fmt.Fprintf(&b, "    %ss:\n", c)
		for _, d := range s.fields[c] {
			fmt.Fprintf(&b, "        %s [%s]\n", d.Name, d.Units)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}
