package field

import (
	"fmt"
	"math/big"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/sarchlab/hydrocouple/ndarray"
	"github.com/zclconf/go-cty/cty"
)

// A Manifest is a component type declared in an HCL file.
type Manifest struct {
	Name                  string
	Role                  string
	SolverHistory         int
	RequiresLandSeaMask   bool
	RequiresFlowDirection bool
	Schema                *Schema
}

type manifestFile struct {
	Components []*hclComponent `hcl:"component,block"`
}

type hclComponent struct {
	Name                  string `hcl:"name,label"`
	Category              string `hcl:"category"`
	SolverHistory         *int   `hcl:"solver_history,optional"`
	RequiresLandSeaMask   bool   `hcl:"requires_land_sea_mask,optional"`
	RequiresFlowDirection bool   `hcl:"requires_flow_direction,optional"`

	Inwards    []*hclField `hcl:"inward,block"`
	Outwards   []*hclField `hcl:"outward,block"`
	Inputs     []*hclField `hcl:"input,block"`
	Parameters []*hclField `hcl:"parameter,block"`
	Constants  []*hclField `hcl:"constant,block"`
	States     []*hclField `hcl:"state,block"`
	Outputs    []*hclField `hcl:"output,block"`
}

type hclField struct {
	Name         string         `hcl:"name,label"`
	Units        string         `hcl:"units,optional"`
	Description  string         `hcl:"description,optional"`
	Kind         string         `hcl:"kind,optional"`
	Frequency    string         `hcl:"frequency,optional"`
	From         string         `hcl:"from,optional"`
	To           []string       `hcl:"to,optional"`
	Method       string         `hcl:"method,optional"`
	Divisions    hcl.Expression `hcl:"divisions,optional"`
	Order        string         `hcl:"order,optional"`
	DefaultValue *float64       `hcl:"default_value,optional"`
	Routed       bool           `hcl:"routed,optional"`
}

// LoadManifest reads and parses an HCL manifest file.
func LoadManifest(path string) ([]Manifest, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	return ParseManifest(src, path)
}

// ParseManifest parses HCL source declaring one or more component blocks and
// validates the schema of each.
func ParseManifest(src []byte, filename string) ([]Manifest, error) {
	parser := hclparse.NewParser()

	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, diags
	}

	root := &manifestFile{}

	diags = gohcl.DecodeBody(file.Body, nil, root)
	if diags.HasErrors() {
		return nil, diags
	}

	manifests := make([]Manifest, 0, len(root.Components))

	for _, c := range root.Components {
		m, err := c.toManifest()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}

		manifests = append(manifests, m)
	}

	return manifests, nil
}

func (c *hclComponent) toManifest() (Manifest, error) {
	m := Manifest{
		Name:                  c.Name,
		Role:                  c.Category,
		SolverHistory:         1,
		RequiresLandSeaMask:   c.RequiresLandSeaMask,
		RequiresFlowDirection: c.RequiresFlowDirection,
	}

	if c.SolverHistory != nil {
		m.SolverHistory = *c.SolverHistory
	}

	if m.SolverHistory < 0 {
		return Manifest{}, &SchemaError{
			Type:   c.Name,
			Reason: "solver history cannot be negative",
		}
	}

	var decl Declaration

	groups := []struct {
		blocks []*hclField
		target *[]Descriptor
	}{
		{c.Inwards, &decl.Inwards},
		{c.Outwards, &decl.Outwards},
		{c.Inputs, &decl.Inputs},
		{c.Parameters, &decl.Parameters},
		{c.Constants, &decl.Constants},
		{c.States, &decl.States},
		{c.Outputs, &decl.Outputs},
	}

	for _, g := range groups {
		for _, f := range g.blocks {
			d, err := f.toDescriptor()
			if err != nil {
				return Manifest{}, &SchemaError{
					Type:   c.Name,
					Field:  f.Name,
					Reason: err.Error(),
				}
			}

			*g.target = append(*g.target, d)
		}
	}

	schema, err := NewSchema(c.Name, c.Category, decl)
	if err != nil {
		return Manifest{}, err
	}

	m.Schema = schema

	return m, nil
}

func (f *hclField) toDescriptor() (Descriptor, error) {
	order, err := ndarray.ParseOrder(f.Order)
	if err != nil {
		return Descriptor{}, err
	}

	divisions, err := decodeDivisions(f.Divisions)
	if err != nil {
		return Descriptor{}, err
	}

	return Descriptor{
		Name:         f.Name,
		Units:        f.Units,
		Description:  f.Description,
		Kind:         Kind(f.Kind),
		Frequency:    f.Frequency,
		From:         f.From,
		To:           f.To,
		Method:       f.Method,
		Divisions:    divisions,
		Order:        order,
		DefaultValue: f.DefaultValue,
		Routed:       f.Routed,
	}, nil
}

// decodeDivisions accepts a single division or a list of them, where each
// division is a whole number or the name of a constant.
func decodeDivisions(expr hcl.Expression) ([]Division, error) {
	if expr == nil {
		return nil, nil
	}

	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, diags
	}

	if val.IsNull() {
		return nil, nil
	}

	if !val.CanIterateElements() {
		d, err := decodeDivision(val)
		if err != nil {
			return nil, err
		}

		return []Division{d}, nil
	}

	var divisions []Division

	it := val.ElementIterator()
	for it.Next() {
		_, v := it.Element()

		d, err := decodeDivision(v)
		if err != nil {
			return nil, err
		}

		divisions = append(divisions, d)
	}

	return divisions, nil
}

func decodeDivision(v cty.Value) (Division, error) {
	if v.IsNull() || !v.IsKnown() {
		return Division{}, fmt.Errorf("divisions cannot be null")
	}

	switch v.Type() {
	case cty.String:
		return DivisionFrom(v.AsString()), nil
	case cty.Number:
		n, acc := v.AsBigFloat().Int64()
		if acc != big.Exact {
			return Division{}, fmt.Errorf("divisions must be whole numbers")
		}

		return Division{Count: int(n)}, nil
	default:
		return Division{}, fmt.Errorf(
			"divisions must be numbers or constant names, got %s",
			v.Type().FriendlyName())
	}
}
