package model

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/0xdezzy/tabgraph/property"
)

// Definitions is the YAML document describing a set of schemas:
//
//	models:
//	  - label: Person
//	    primary_key: uuid
//	    properties:
//	      - {name: uuid, kind: string, not_null: true}
//	      - {name: age, kind: integer, cast: true}
//	      - {name: tags, kind: list, elem: string, cast: true, default: []}
type Definitions struct {
	Models []SchemaDefinition `yaml:"models"`
}

// SchemaDefinition describes one schema.
type SchemaDefinition struct {
	Label      string               `yaml:"label"`
	PrimaryKey string               `yaml:"primary_key"`
	Properties []PropertyDefinition `yaml:"properties"`
}

// PropertyDefinition describes one property descriptor.
type PropertyDefinition struct {
	Name    string `yaml:"name"`
	Kind    string `yaml:"kind"`
	Elem    string `yaml:"elem"`
	Cast    bool   `yaml:"cast"`
	NotNull bool   `yaml:"not_null"`
	Default any    `yaml:"default"`
	Key     string `yaml:"key"`
}

// Descriptor builds the property descriptor.
func (p PropertyDefinition) Descriptor() (*property.Descriptor, error) {
	kind, err := property.ParseKind(p.Kind)
	if err != nil {
		return nil, fmt.Errorf("property %q: %w", p.Name, err)
	}

	var d *property.Descriptor
	switch kind {
	case property.KindString:
		d = property.String(p.Name)
	case property.KindInteger:
		d = property.Integer(p.Name)
	case property.KindFloat:
		d = property.Float(p.Name)
	case property.KindBool:
		d = property.Bool(p.Name)
	case property.KindList:
		elem, err := property.ParseKind(p.Elem)
		if err != nil || !elem.Scalar() {
			return nil, fmt.Errorf("property %q: list needs a scalar elem kind, got %q", p.Name, p.Elem)
		}
		d = property.List(p.Name, elem)
	}

	if p.Cast {
		d.Cast()
	}
	if p.NotNull {
		d.NotNull()
	}
	if p.Default != nil {
		d.Default(normalizeYAML(p.Default))
	}
	if p.Key != "" {
		d.Key(p.Key)
	}
	return d, nil
}

// Schema builds the schema.
func (s SchemaDefinition) Schema() (*Schema, error) {
	props := make([]*property.Descriptor, 0, len(s.Properties))
	for _, p := range s.Properties {
		d, err := p.Descriptor()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidSchema, s.Label, err)
		}
		props = append(props, d)
	}
	return New(s.Label, s.PrimaryKey, props...)
}

// LoadSchemas decodes YAML definitions and builds their schemas, keyed by label.
func LoadSchemas(r io.Reader) (map[string]*Schema, error) {
	var defs Definitions
	if err := yaml.NewDecoder(r).Decode(&defs); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode schemas: %w", err)
	}
	out := make(map[string]*Schema, len(defs.Models))
	for _, def := range defs.Models {
		s, err := def.Schema()
		if err != nil {
			return nil, err
		}
		if _, ok := out[s.Label()]; ok {
			return nil, fmt.Errorf("%w: label %q defined twice", ErrInvalidSchema, s.Label())
		}
		out[s.Label()] = s
	}
	return out, nil
}

// normalizeYAML converts decoded YAML scalars to property runtime types.
func normalizeYAML(v any) any {
	switch x := v.(type) {
	case int:
		return int64(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = normalizeYAML(e)
		}
		return out
	default:
		return v
	}
}
