package urlstate

import "reflect"

// Validator decides whether a hydrated or explicitly set value is acceptable.
// A nil Validator accepts any non-zero value.
type Validator[T any] interface {
	Valid(v T) bool
}

// OneOf accepts only the listed values, compared by deep equality.
func OneOf[T any](values ...T) Validator[T] {
	allowed := make([]T, len(values))
	copy(allowed, values)
	return setValidator[T]{allowed: allowed}
}

type setValidator[T any] struct {
	allowed []T
}

func (s setValidator[T]) Valid(v T) bool {
	for _, a := range s.allowed {
		if reflect.DeepEqual(a, v) {
			return true
		}
	}
	return false
}

// Predicate adapts a function to Validator.
type Predicate[T any] func(v T) bool

// Valid calls p.
func (p Predicate[T]) Valid(v T) bool {
	return p(v)
}

// truthy is the check used when no validator is set: the zero value of T
// ("" , 0, false, nil) is rejected, anything else passes.
func truthy[T any](v T) bool {
	return !reflect.ValueOf(&v).Elem().IsZero()
}

func validate[T any](validator Validator[T], v T) bool {
	if validator == nil {
		return truthy(v)
	}
	return validator.Valid(v)
}
