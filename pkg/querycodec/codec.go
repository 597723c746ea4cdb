// Package querycodec decodes and encodes URL query strings while keeping the
// order in which keys first appear.
//
// net/url.Values is a plain map, so a round trip through it reorders keys.
// Encoded locations are shared links, and reordering them on every commit
// would produce spurious history entries, so this package keeps keys in
// insertion order:
//
//	v := querycodec.Decode("?val=cat&type=3")
//	v.Set("val", "ferret")
//	querycodec.Encode(v) // "val=ferret&type=3"
package querycodec

import (
	"net/url"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Values is an ordered mapping from query keys to one or more values.
// A key mapped to a nil slice is a null entry and is skipped by Encode.
type Values struct {
	m *orderedmap.OrderedMap[string, []string]
}

// New returns an empty Values.
func New() *Values {
	return &Values{m: orderedmap.New[string, []string]()}
}

// Decode parses a query string. A leading "?" is ignored, empty segments are
// skipped, repeated keys collect into one ordered entry, and malformed percent
// escapes are kept as written instead of failing the whole parse.
func Decode(raw string) *Values {
	v := New()
	raw = strings.TrimPrefix(raw, "?")
	if raw == "" {
		return v
	}

	for _, segment := range strings.Split(raw, "&") {
		if segment == "" {
			continue
		}
		key, value, _ := strings.Cut(segment, "=")
		key = unescape(key)
		if key == "" {
			continue
		}
		v.Add(key, unescape(value))
	}
	return v
}

// Encode serializes v as "k=v" pairs joined by "&" in insertion order.
// Null entries are omitted and repeated values are written as repeated keys.
func Encode(v *Values) string {
	if v == nil {
		return ""
	}
	var b strings.Builder
	for pair := v.m.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value == nil {
			continue
		}
		key := escape(pair.Key)
		for _, item := range pair.Value {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(key)
			b.WriteByte('=')
			b.WriteString(escape(item))
		}
	}
	return b.String()
}

// Canonical re-encodes raw so that two spellings of the same query compare equal.
func Canonical(raw string) string {
	return Encode(Decode(raw))
}

// Get returns the first value for key.
func (v *Values) Get(key string) (string, bool) {
	values, ok := v.m.Get(key)
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// All returns every value recorded for key.
func (v *Values) All(key string) []string {
	values, _ := v.m.Get(key)
	out := make([]string, len(values))
	copy(out, values)
	return out
}

// Has reports whether key is present and not null.
func (v *Values) Has(key string) bool {
	values, ok := v.m.Get(key)
	return ok && values != nil
}

// Set replaces the values for key. An existing key keeps its position.
func (v *Values) Set(key, value string) {
	v.m.Set(key, []string{value})
}

// Add appends value to key, creating the key at the end if needed.
func (v *Values) Add(key, value string) {
	values, _ := v.m.Get(key)
	v.m.Set(key, append(values, value))
}

// SetNull marks key as null so that Encode drops it.
func (v *Values) SetNull(key string) {
	v.m.Set(key, nil)
}

// Del removes key.
func (v *Values) Del(key string) {
	v.m.Delete(key)
}

// Keys returns the keys in insertion order, null entries included.
func (v *Values) Keys() []string {
	keys := make([]string, 0, v.m.Len())
	for pair := v.m.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Len returns the number of keys.
func (v *Values) Len() int {
	return v.m.Len()
}

// Clone returns a deep copy.
func (v *Values) Clone() *Values {
	out := New()
	for pair := v.m.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value == nil {
			out.m.Set(pair.Key, nil)
			continue
		}
		values := make([]string, len(pair.Value))
		copy(values, pair.Value)
		out.m.Set(pair.Key, values)
	}
	return out
}

// Map flattens v to first values, the shape the rest of the ecosystem expects.
func (v *Values) Map() map[string]string {
	out := make(map[string]string, v.m.Len())
	for pair := v.m.Oldest(); pair != nil; pair = pair.Next() {
		if len(pair.Value) > 0 {
			out[pair.Key] = pair.Value[0]
		}
	}
	return out
}

func unescape(s string) string {
	s = strings.ReplaceAll(s, "+", " ")
	if !strings.Contains(s, "%") {
		return s
	}
	decoded, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return decoded
}

// escape percent-encodes like encodeURIComponent: spaces become %20, and
// only unreserved characters are left as is.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
