package property

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	errOverflow    = errors.New("value out of int64 range")
	errNotFinite   = errors.New("cannot convert non-finite float to integer")
	errUnsupported = errors.New("unsupported source type")
)

// Coerce constructs a value of kind k from v. Lists are not handled here, see
// Descriptor.Write. A nil v is returned unchanged.
func Coerce(k Kind, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch k {
	case KindString:
		return toString(v), nil
	case KindInteger:
		return toInteger(v)
	case KindFloat:
		return toFloat(v)
	case KindBool:
		return toBool(v)
	default:
		return nil, fmt.Errorf("cannot cast to %s", k)
	}
}

func toString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	case fmt.Stringer:
		return s.String()
	case bool:
		return strconv.FormatBool(s)
	case float64:
		return strconv.FormatFloat(s, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(s), 'g', -1, 32)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case int32:
		return strconv.FormatInt(int64(s), 10)
	case int16:
		return strconv.FormatInt(int64(s), 10)
	case int8:
		return strconv.FormatInt(int64(s), 10)
	case uint:
		return strconv.FormatUint(uint64(s), 10)
	case uint64:
		return strconv.FormatUint(s, 10)
	case uint32:
		return strconv.FormatUint(uint64(s), 10)
	case uint16:
		return strconv.FormatUint(uint64(s), 10)
	case uint8:
		return strconv.FormatUint(uint64(s), 10)
	default:
		return fmt.Sprint(v)
	}
}

func toInteger(v any) (any, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case uint:
		return fromUint(uint64(n))
	case uint64:
		return fromUint(n)
	case uint32:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint8:
		return int64(n), nil
	case float64:
		return fromFloat(n)
	case float32:
		return fromFloat(float64(n))
	case bool:
		if n {
			return int64(1), nil
		}
		return int64(0), nil
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return nil, err
		}
		return i, nil
	default:
		return nil, fmt.Errorf("%w %T", errUnsupported, v)
	}
}

func fromUint(u uint64) (any, error) {
	if u > math.MaxInt64 {
		return nil, errOverflow
	}
	return int64(u), nil
}

func fromFloat(f float64) (any, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, errNotFinite
	}
	t := math.Trunc(f)
	if t < math.MinInt64 || t >= math.MaxInt64 {
		return nil, errOverflow
	}
	return int64(t), nil
}

func toFloat(v any) (any, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int16:
		return float64(n), nil
	case int8:
		return float64(n), nil
	case uint:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case uint32:
		return float64(n), nil
	case uint16:
		return float64(n), nil
	case uint8:
		return float64(n), nil
	case bool:
		if n {
			return 1.0, nil
		}
		return 0.0, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return nil, err
		}
		return f, nil
	default:
		return nil, fmt.Errorf("%w %T", errUnsupported, v)
	}
}

func toBool(v any) (any, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		if err != nil {
			return nil, err
		}
		return parsed, nil
	case float64:
		return b != 0, nil
	case float32:
		return b != 0, nil
	}
	i, err := toInteger(v)
	if err != nil {
		return nil, fmt.Errorf("%w %T", errUnsupported, v)
	}
	return i.(int64) != 0, nil
}
