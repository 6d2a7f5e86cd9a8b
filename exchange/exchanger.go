// Package exchange moves transfer fields between coupled components and
// aggregates the contributions of several sources into one inward.
package exchange

import (
	"sort"

	"github.com/sarchlab/hydrocouple/field"
	"github.com/sarchlab/hydrocouple/ndarray"
)

type contribution struct {
	role  string
	to    []string
	value *ndarray.Array
}

// An Exchanger keeps the latest outwards of every component and builds the
// inwards of each component from them.
type Exchanger struct {
	// field name -> source instance -> contribution
	published map[string]map[string]contribution
}

// NewExchanger creates an empty exchanger.
func NewExchanger() *Exchanger {
	return &Exchanger{
		published: make(map[string]map[string]contribution),
	}
}

// Publish records the outwards of a component instance, replacing what it
// published before. The outwards must match the declared ones exactly.
func (e *Exchanger) Publish(
	source string,
	schema *field.Schema,
	outwards Transfers,
) error {
	err := CheckDeclared(source, "outward", schema.Names(field.Outward), outwards)
	if err != nil {
		return err
	}

	for _, d := range schema.Descriptors(field.Outward) {
		if e.published[d.Name] == nil {
			e.published[d.Name] = make(map[string]contribution)
		}

		e.published[d.Name][source] = contribution{
			role:  schema.Role(),
			to:    d.To,
			value: outwards[d.Name].Clone(),
		}
	}

	return nil
}

// Collect builds the inwards of a component. Each inward aggregates, with
// its declared method, the values published under its name by components of
// its source role that send to the role of the collecting component.
func (e *Exchanger) Collect(
	component string,
	schema *field.Schema,
) (Transfers, error) {
	inwards := make(Transfers)
	missing := &KeyError{Component: component, Kind: "inward"}

	for _, d := range schema.Descriptors(field.Inward) {
		contributions := e.contributionsTo(d, schema.Role())
		if len(contributions) == 0 {
			missing.Missing = append(missing.Missing, d.Name)
			continue
		}

		reducer, err := LookupReducer(d.Method)
		if err != nil {
			return nil, err
		}

		value, err := reducer(contributions)
		if err != nil {
			return nil, err
		}

		inwards[d.Name] = value
	}

	if len(missing.Missing) > 0 {
		return nil, missing
	}

	return inwards, nil
}

func (e *Exchanger) contributionsTo(
	d field.Descriptor,
	role string,
) []*ndarray.Array {
	bySource := e.published[d.Name]

	sources := make([]string, 0, len(bySource))
	for source, c := range bySource {
		if c.role == d.From && sendsTo(c.to, role) {
			sources = append(sources, source)
		}
	}

	sort.Strings(sources)

	values := make([]*ndarray.Array, len(sources))
	for i, source := range sources {
		values[i] = bySource[source].value
	}

	return values
}

func sendsTo(to []string, role string) bool {
	for _, r := range to {
		if r == role {
			return true
		}
	}

	return false
}

// Withdraw forgets everything a component instance published.
func (e *Exchanger) Withdraw(source string) {
	for _, bySource := range e.published {
		delete(bySource, source)
	}
}
