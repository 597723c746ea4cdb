package urlstate

import "github.com/vango-dev/urlstate/pkg/querycodec"

// Definition describes one URL-backed value.
type Definition[T any] struct {
	// Key is the query parameter name.
	Key string

	// Default is used when the key is absent or its value is invalid.
	// A value that dehydrates to the same string as Default is never
	// written to the URL.
	Default T

	// Hydrate converts the raw query value. Default: DefaultHydrator.
	Hydrate func(string) T

	// Dehydrate converts a value for the URL. Default: DefaultDehydrator.
	Dehydrate func(T) string

	// Validator rejects values that must fall back to Default.
	// If nil, any non-zero value is accepted.
	Validator Validator[T]
}

func (d Definition[T]) normalize() Definition[T] {
	if d.Hydrate == nil {
		d.Hydrate = DefaultHydrator[T]()
	}
	if d.Dehydrate == nil {
		d.Dehydrate = DefaultDehydrator[T]()
	}
	return d
}

// sanitize returns v if it passes validation, Default otherwise.
func (d Definition[T]) sanitize(v T) T {
	if validate(d.Validator, v) {
		return v
	}
	return d.Default
}

// isDefault reports whether v has the same URL representation as Default.
func (d Definition[T]) isDefault(v T) bool {
	return d.Dehydrate(v) == d.Dehydrate(d.Default)
}

// Read returns the value def holds in the encoded location search: the key's
// first value (or "" when absent), hydrated and validated, or def.Default
// when the hydrated value is rejected.
func Read[T any](search string, def Definition[T]) T {
	def = def.normalize()
	return read(querycodec.Decode(search), def)
}

func read[T any](values *querycodec.Values, def Definition[T]) T {
	// An absent key hydrates from "". The default hydrators yield a zero
	// value there, which the validator rejects in favor of Default.
	raw, _ := values.Get(def.Key)
	return def.sanitize(def.Hydrate(raw))
}
