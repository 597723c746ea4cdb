package server

import (
	"encoding/json"
	"sort"

	"github.com/vango-dev/urlstate/pkg/urlstate"
)

// Field is an untyped entry of a Catalog. Create fields with Define.
type Field interface {
	// Key returns the query key the field binds.
	Key() string

	bind(s *urlstate.Scope) boundField
}

// boundField is a field bound into one session's scope.
type boundField interface {
	key() string
	value() any
	setJSON(raw json.RawMessage) error
	clear()
	close()
}

// Define wraps a typed definition as a catalog field.
func Define[T any](def urlstate.Definition[T]) Field {
	return typedField[T]{def: def}
}

type typedField[T any] struct {
	def urlstate.Definition[T]
}

func (f typedField[T]) Key() string {
	return f.def.Key
}

func (f typedField[T]) bind(s *urlstate.Scope) boundField {
	return &typedBinding[T]{b: urlstate.Bind(s, f.def)}
}

type typedBinding[T any] struct {
	b *urlstate.Binding[T]
}

func (t *typedBinding[T]) key() string { return t.b.Key() }
func (t *typedBinding[T]) value() any  { return t.b.Get() }
func (t *typedBinding[T]) clear()      { t.b.Clear() }
func (t *typedBinding[T]) close()      { t.b.Close() }

// setJSON decodes raw as T and sets it. A value that does not decode is
// reported to the caller and leaves the binding untouched.
func (t *typedBinding[T]) setJSON(raw json.RawMessage) error {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	t.b.Set(v)
	return nil
}

// Catalog is the set of fields every session binds.
type Catalog struct {
	fields map[string]Field
}

// NewCatalog creates a catalog from fields. A later field replaces an
// earlier one with the same key.
func NewCatalog(fields ...Field) *Catalog {
	c := &Catalog{fields: make(map[string]Field, len(fields))}
	for _, f := range fields {
		c.fields[f.Key()] = f
	}
	return c
}

// Keys returns the catalog's keys in sorted order.
func (c *Catalog) Keys() []string {
	keys := make([]string, 0, len(c.fields))
	for k := range c.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Lookup returns the field for key.
func (c *Catalog) Lookup(key string) (Field, bool) {
	f, ok := c.fields[key]
	return f, ok
}

func (c *Catalog) bind(s *urlstate.Scope) map[string]boundField {
	out := make(map[string]boundField, len(c.fields))
	for k, f := range c.fields {
		out[k] = f.bind(s)
	}
	return out
}

// SearchCatalog returns the demo catalog of a product search page: a free
// text query, a sort order, a page number and a list of tags.
func SearchCatalog() *Catalog {
	return NewCatalog(
		Define(urlstate.Definition[string]{Key: "q"}),
		Define(urlstate.Definition[string]{
			Key:       "sort",
			Default:   "relevance",
			Validator: urlstate.OneOf("relevance", "price", "newest"),
		}),
		Define(urlstate.Definition[int]{
			Key:       "page",
			Default:   1,
			Validator: urlstate.Predicate[int](func(n int) bool { return n > 0 }),
		}),
		Define(urlstate.Definition[[]string]{Key: "tags"}),
	)
}
