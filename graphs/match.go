package graphs

import (
	"fmt"
	"math"
	"reflect"
)

// Op is a predicate comparison operator.
type Op int

const (
	// OpEq matches a property equal to the predicate value.
	OpEq Op = iota
	// OpIn matches a property equal to one of the predicate values.
	OpIn
)

// Predicate constrains a single node property.
type Predicate struct {
	Key    string
	Op     Op
	Value  any   // OpEq
	Values []any // OpIn
}

// Eq returns a predicate matching nodes whose property key equals v.
func Eq(key string, v any) Predicate {
	return Predicate{Key: key, Op: OpEq, Value: v}
}

// In returns a predicate matching nodes whose property key is one of values.
func In(key string, values []any) Predicate {
	return Predicate{Key: key, Op: OpIn, Values: values}
}

// Matches reports whether the property map satisfies the predicate.
func (p Predicate) Matches(props map[string]any) bool {
	v, ok := props[p.Key]
	if !ok || v == nil {
		return false
	}
	switch p.Op {
	case OpEq:
		return ValuesEqual(v, p.Value)
	case OpIn:
		for _, candidate := range p.Values {
			if ValuesEqual(v, candidate) {
				return true
			}
		}
	}
	return false
}

// NodeMatch selects nodes by label and property predicates.
type NodeMatch struct {
	// Label restricts the match to nodes carrying it. Required.
	Label string

	// Predicates are combined with AND.
	Predicates []Predicate

	// Limit caps the number of results when positive.
	Limit int
}

// Matches reports whether n is selected.
func (m NodeMatch) Matches(n *Node) bool {
	if !n.HasLabel(m.Label) {
		return false
	}
	for _, p := range m.Predicates {
		if !p.Matches(n.Properties) {
			return false
		}
	}
	return true
}

// RelationshipMatch selects relationships by type and endpoints.
type RelationshipMatch struct {
	// Type restricts the match to one relationship type. Empty matches all.
	Type string

	// Start and End, when set, must be bound nodes the relationship starts or
	// ends at.
	Start *Node
	End   *Node

	// Touching, when not empty, restricts the match to relationships with an
	// endpoint among the nodes. With Inner set both endpoints must be among them.
	Touching []*Node
	Inner    bool

	Limit int
}

// TouchingIDs returns the element ids of the Touching nodes.
func (m RelationshipMatch) TouchingIDs() []string {
	ids := make([]string, 0, len(m.Touching))
	for _, n := range m.Touching {
		if n != nil && n.ID != "" {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

// Matches reports whether r is selected.
func (m RelationshipMatch) Matches(r *Relationship) bool {
	if m.Type != "" && r.Type != m.Type {
		return false
	}
	if m.Start != nil && r.Start.ID != m.Start.ID {
		return false
	}
	if m.End != nil && r.End.ID != m.End.ID {
		return false
	}
	if len(m.Touching) == 0 {
		return true
	}
	ids := make(map[string]struct{}, len(m.Touching))
	for _, id := range m.TouchingIDs() {
		ids[id] = struct{}{}
	}
	_, start := ids[r.Start.ID]
	_, end := ids[r.End.ID]
	if m.Inner {
		return start && end
	}
	return start || end
}

// ValuesEqual compares two property values the way graph databases do:
// numbers compare by exact value regardless of their Go type, everything else
// by deep equality. An integer equals a float only when the float holds
// exactly that integer.
func ValuesEqual(a, b any) bool {
	na, aNum := number(a)
	nb, bNum := number(b)
	if aNum || bNum {
		return aNum && bNum && na == nb
	}
	return reflect.DeepEqual(a, b)
}

// MatchKey returns a comparable key for v such that values equal under
// ValuesEqual share a key. NaN has no key.
func MatchKey(v any) (any, bool) {
	if n, ok := number(v); ok {
		return n, true
	}
	if v == nil || isNaN(v) {
		return nil, false
	}
	if reflect.TypeOf(v).Comparable() {
		return v, true
	}
	return fmt.Sprintf("%T:%v", v, v), true
}

func isNaN(v any) bool {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Float32 || rv.Kind() == reflect.Float64 {
		return math.IsNaN(rv.Float())
	}
	return false
}

// number normalizes a numeric value without losing precision. Integers in
// the int64 range, including integral floats, become int64; larger unsigned
// integers become uint64; other floats stay float64.
func number(v any) (any, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u <= math.MaxInt64 {
			return int64(u), true
		}
		return u, true
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		switch {
		case math.IsNaN(f):
			return nil, false
		case f != math.Trunc(f) || math.IsInf(f, 0):
			return f, true
		case f >= -(1<<63) && f < 1<<63:
			return int64(f), true
		case f >= 0 && f < 1<<64:
			return uint64(f), true
		}
		return f, true
	}
	return nil, false
}
