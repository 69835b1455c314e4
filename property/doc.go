// Package property implements typed, nullable and optionally castable property
// descriptors for graph node models.
//
// A Descriptor declares the kind of value a node property holds. Every value
// read from or written to a model instance passes through the descriptor:
//
//	uuid := property.Integer("uuid").NotNull()
//	title := property.String("title").Cast()
//	tags := property.List("tags", property.KindString).Cast()
//
//	v, err := title.Write(42)  // "42", nil
//	_, err = uuid.Write(nil)   // errors.Is(err, property.ErrNotNull)
//	_, err = tags.Write([]any{"a", 1}) // []any{"a", "1"}, nil
//
// Supported kinds and their Go runtime types:
//
//	KindString  string
//	KindInteger int64
//	KindFloat   float64
//	KindBool    bool
//	KindList    any slice whose elements have the element kind's runtime type
//
// Kind checks are exact: an int is not a KindInteger value unless the
// descriptor casts.
//
// Tabular sources usually encode a missing cell as a floating NaN. Castable
// descriptors treat a NaN written to a non-float property as nil, and NotNull
// descriptors reject NaN the same way they reject nil.
//
// The checks are available as pure functions as well (KindOf, Validate,
// Coerce) for callers that keep values outside of a model instance.
package property
