package classify

import "strings"

// rule pairs a result tag with the predicate that selects it.
type rule[T any, F any] struct {
	tag   T
	match func(F) bool
}

func firstMatch[T any, F any](rules []rule[T, F], fields F) (T, bool) {
	for _, r := range rules {
		if r.match(fields) {
			return r.tag, true
		}
	}
	var zero T
	return zero, false
}

func containsAny(value string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(value, needle) {
			return true
		}
	}
	return false
}
