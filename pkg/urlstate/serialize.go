package urlstate

import (
	"encoding/json"
	"strconv"
	"strings"
)

// DefaultDehydrator returns the dehydrator used when a definition has none.
// Strings are passed through, numbers and booleans use strconv, []string is
// comma separated and everything else is JSON.
func DefaultDehydrator[T any]() func(T) string {
	return func(v T) string {
		switch val := any(v).(type) {
		case string:
			return val
		case int:
			return strconv.Itoa(val)
		case int64:
			return strconv.FormatInt(val, 10)
		case int32:
			return strconv.FormatInt(int64(val), 10)
		case uint:
			return strconv.FormatUint(uint64(val), 10)
		case uint64:
			return strconv.FormatUint(val, 10)
		case float64:
			return strconv.FormatFloat(val, 'g', -1, 64)
		case float32:
			return strconv.FormatFloat(float64(val), 'g', -1, 32)
		case bool:
			return strconv.FormatBool(val)
		case []string:
			return strings.Join(val, ",")
		default:
			b, err := json.Marshal(v)
			if err != nil {
				return ""
			}
			return string(b)
		}
	}
}

// DefaultHydrator returns the inverse of DefaultDehydrator. Input that does
// not parse yields the zero value, which the default validator rejects.
func DefaultHydrator[T any]() func(string) T {
	return func(s string) T {
		var zero T
		var out any

		switch any(zero).(type) {
		case string:
			out = s
		case int:
			i, err := strconv.Atoi(s)
			if err != nil {
				return zero
			}
			out = i
		case int64:
			i, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return zero
			}
			out = i
		case int32:
			i, err := strconv.ParseInt(s, 10, 32)
			if err != nil {
				return zero
			}
			out = int32(i)
		case uint:
			u, err := strconv.ParseUint(s, 10, 0)
			if err != nil {
				return zero
			}
			out = uint(u)
		case uint64:
			u, err := strconv.ParseUint(s, 10, 64)
			if err != nil {
				return zero
			}
			out = u
		case float64:
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return zero
			}
			out = f
		case float32:
			f, err := strconv.ParseFloat(s, 32)
			if err != nil {
				return zero
			}
			out = float32(f)
		case bool:
			b, err := strconv.ParseBool(s)
			if err != nil {
				return zero
			}
			out = b
		case []string:
			if s == "" {
				return zero
			}
			out = strings.Split(s, ",")
		default:
			var val T
			if err := json.Unmarshal([]byte(s), &val); err != nil {
				return zero
			}
			return val
		}
		return out.(T)
	}
}
