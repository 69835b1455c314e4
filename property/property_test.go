package property

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value any
		want  Kind
	}{
		{"nil", nil, KindInvalid},
		{"string", "a", KindString},
		{"int64", int64(1), KindInteger},
		{"int", 1, KindInvalid},
		{"float64", 1.5, KindFloat},
		{"float32", float32(1.5), KindInvalid},
		{"bool", true, KindBool},
		{"bytes", []byte("a"), KindInvalid},
		{"any slice", []any{1, "a"}, KindList},
		{"string slice", []string{"a"}, KindList},
		{"array", [2]int64{1, 2}, KindList},
		{"map", map[string]any{}, KindInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.value))
		})
	}
}

func TestParseKind(t *testing.T) {
	t.Parallel()

	for name, want := range map[string]Kind{
		"string": KindString, "STR": KindString, "int": KindInteger, "integer": KindInteger,
		"double": KindFloat, "float": KindFloat, "boolean": KindBool, " list ": KindList,
	} {
		got, err := ParseKind(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := ParseKind("date")
	assert.Error(t, err)
}

func TestScalarRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		desc  *Descriptor
		value any
	}{
		{String("s"), "hello"},
		{String("s").Cast(), ""},
		{Integer("i"), int64(-7)},
		{Integer("i").Cast().NotNull(), int64(math.MaxInt64)},
		{Float("f"), 3.25},
		{Float("f").Cast(), math.Inf(1)},
		{Bool("b"), false},
		{Bool("b").NotNull(), true},
	}
	for _, tt := range tests {
		t.Run(tt.desc.Kind().String(), func(t *testing.T) {
			stored, err := tt.desc.Write(tt.value)
			require.NoError(t, err)
			got, err := tt.desc.Read(stored)
			require.NoError(t, err)
			assert.Equal(t, tt.value, got)
		})
	}
}

func TestWriteWithoutCastRejectsOtherKinds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		desc  *Descriptor
		value any
	}{
		{String("s"), 42},
		{Integer("i"), 42}, // int, not int64
		{Integer("i"), "42"},
		{Float("f"), int64(1)},
		{Bool("b"), "true"},
	}
	for _, tt := range tests {
		_, err := tt.desc.Write(tt.value)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidType)
		assert.True(t, IsInvalidValue(err))

		var ive *InvalidValueError
		require.True(t, errors.As(err, &ive))
		assert.Equal(t, tt.desc.Name(), ive.Property)
		assert.Equal(t, -1, ive.Index)
		assert.Nil(t, ive.Err)
	}
}

func TestWriteCasts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		desc  *Descriptor
		value any
		want  any
	}{
		{"int to string", String("s").Cast(), 42, "42"},
		{"float to string", String("s").Cast(), 2.5, "2.5"},
		{"bool to string", String("s").Cast(), true, "true"},
		{"stringer to string", String("s").Cast(), time.Second, "1s"},
		{"bytes to string", String("s").Cast(), []byte("raw"), "raw"},
		{"int to integer", Integer("i").Cast(), 42, int64(42)},
		{"uint8 to integer", Integer("i").Cast(), uint8(7), int64(7)},
		{"float truncates", Integer("i").Cast(), -3.9, int64(-3)},
		{"string to integer", Integer("i").Cast(), " 12 ", int64(12)},
		{"bool to integer", Integer("i").Cast(), true, int64(1)},
		{"int to float", Float("f").Cast(), 3, 3.0},
		{"string to float", Float("f").Cast(), "1e3", 1000.0},
		{"float32 to float", Float("f").Cast(), float32(0.5), 0.5},
		{"string to bool", Bool("b").Cast(), "TRUE", true},
		{"zero to bool", Bool("b").Cast(), 0, false},
		{"float to bool", Bool("b").Cast(), 0.1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.desc.Write(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriteCastFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		desc  *Descriptor
		value any
	}{
		{"word to integer", Integer("i").Cast(), "abc"},
		{"inf to integer", Integer("i").Cast(), math.Inf(-1)},
		{"uint overflow", Integer("i").Cast(), uint64(math.MaxUint64)},
		{"word to bool", Bool("b").Cast(), "maybe"},
		{"map to float", Float("f").Cast(), map[string]int{}},
		{"slice to integer", Integer("i").Cast(), []int64{1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.desc.Write(tt.value)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidType)

			var ive *InvalidValueError
			require.ErrorAs(t, err, &ive)
			assert.NotNil(t, ive.Err)
		})
	}
}

func TestNaNWithCastEqualsNil(t *testing.T) {
	t.Parallel()

	for _, d := range []*Descriptor{
		String("s").Cast(),
		Integer("i").Cast(),
		Bool("b").Cast(),
		List("l", KindInteger).Cast(),
	} {
		fromNaN, err := d.Write(math.NaN())
		require.NoError(t, err, d.Kind())
		fromNil, err := d.Write(nil)
		require.NoError(t, err, d.Kind())
		assert.Equal(t, fromNil, fromNaN, d.Kind())
		assert.Nil(t, fromNaN)
	}

	// NaN is a valid float and is stored as is.
	got, err := Float("f").Cast().Write(math.NaN())
	require.NoError(t, err)
	assert.True(t, IsNaN(got))
}

func TestNotNull(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		desc  *Descriptor
		value any
	}{
		{"nil string", String("s").NotNull(), nil},
		{"nil cast integer", Integer("i").Cast().NotNull(), nil},
		{"nan cast integer", Integer("i").Cast().NotNull(), math.NaN()},
		{"nan float", Float("f").NotNull(), math.NaN()},
		{"nil list", List("l", KindString).NotNull(), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.desc.Write(tt.value)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrNotNull)
			assert.True(t, IsNotNull(err))
			assert.False(t, IsInvalidValue(err))
		})
	}

	got, err := Integer("i").NotNull().Write(int64(0))
	require.NoError(t, err)
	assert.Equal(t, int64(0), got)
}

func TestNotNullKindCheckFirst(t *testing.T) {
	t.Parallel()

	// NaN written to a non-casting integer fails the kind check before the null check.
	_, err := Integer("i").NotNull().Write(math.NaN())
	assert.ErrorIs(t, err, ErrInvalidType)
	assert.False(t, IsNotNull(err))
}

func TestReadDetectsBypassedSetter(t *testing.T) {
	t.Parallel()

	d := Integer("age")
	got, err := d.Read(nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = d.Read("forty")
	assert.ErrorIs(t, err, ErrInvalidType)

	_, err = d.Read(40)
	assert.ErrorIs(t, err, ErrInvalidType)
}

func TestListWrite(t *testing.T) {
	t.Parallel()

	t.Run("matching elements round trip", func(t *testing.T) {
		d := List("tags", KindString)
		in := []string{"a", "b"}
		stored, err := d.Write(in)
		require.NoError(t, err)
		got, err := d.Read(stored)
		require.NoError(t, err)
		assert.Equal(t, in, got)
	})

	t.Run("cast elements into new list", func(t *testing.T) {
		d := List("tags", KindString).Cast()
		stored, err := d.Write([]any{"a", 1, true})
		require.NoError(t, err)
		assert.Equal(t, []any{"a", "1", "true"}, stored)
		_, err = d.Read(stored)
		require.NoError(t, err)
	})

	t.Run("one uncastable element fails", func(t *testing.T) {
		d := List("scores", KindInteger).Cast()
		_, err := d.Write([]any{int64(1), "two", 3})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidType)

		var ive *InvalidValueError
		require.ErrorAs(t, err, &ive)
		assert.Equal(t, 1, ive.Index)
		assert.Equal(t, KindInteger, ive.Kind)
		assert.Contains(t, err.Error(), "element 1")
	})

	t.Run("mismatch without cast names index", func(t *testing.T) {
		d := List("scores", KindInteger)
		_, err := d.Write([]any{int64(1), int64(2), 3})
		var ive *InvalidValueError
		require.ErrorAs(t, err, &ive)
		assert.Equal(t, 2, ive.Index)
	})

	t.Run("non list container fails before elements", func(t *testing.T) {
		for _, d := range []*Descriptor{List("l", KindString), List("l", KindString).Cast()} {
			_, err := d.Write("abc")
			var ive *InvalidValueError
			require.ErrorAs(t, err, &ive)
			assert.Equal(t, -1, ive.Index)
			assert.Equal(t, KindList, ive.Kind)
		}
	})

	t.Run("nil element fails", func(t *testing.T) {
		_, err := List("l", KindFloat).Cast().Write([]any{1.0, nil})
		assert.ErrorIs(t, err, ErrInvalidType)
	})

	t.Run("read checks elements", func(t *testing.T) {
		_, err := List("l", KindBool).Read([]any{true, "false"})
		assert.ErrorIs(t, err, ErrInvalidType)
	})
}

func TestListRequiresScalarElement(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { List("nested", KindList) })
}

func TestCoerce(t *testing.T) {
	t.Parallel()

	v, err := Coerce(KindInteger, nil)
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = Coerce(KindList, []any{})
	assert.Error(t, err)

	_, err = Coerce(KindInteger, 1e300)
	assert.Error(t, err)
}

func TestDescriptorAccessors(t *testing.T) {
	t.Parallel()

	d := List("tags", KindString).Cast().NotNull().Default([]any{}).Key("tag_list")
	assert.Equal(t, "tags", d.Name())
	assert.Equal(t, KindList, d.Kind())
	assert.Equal(t, KindString, d.Elem())
	assert.True(t, d.Casts())
	assert.True(t, d.IsNotNull())
	assert.Equal(t, "tag_list", d.StorageKey())
	def, ok := d.DefaultValue()
	assert.True(t, ok)
	assert.Equal(t, []any{}, def)

	plain := String("name")
	assert.Equal(t, "name", plain.StorageKey())
	_, ok = plain.DefaultValue()
	assert.False(t, ok)
}
