package config

import "iter"

// UniqueList is an insertion-ordered set: a slice for order plus an index for
// membership.
type UniqueList[T comparable] struct {
	values []T
	index  map[T]struct{}
}

func NewUniqueList[T comparable](values ...T) *UniqueList[T] {
	l := &UniqueList[T]{index: make(map[T]struct{}, len(values))}
	for _, v := range values {
		l.Append(v)
	}
	return l
}

// Append adds v unless it is already present and reports whether it was added.
func (l *UniqueList[T]) Append(v T) bool {
	if l.index == nil {
		l.index = make(map[T]struct{})
	}
	if _, ok := l.index[v]; ok {
		return false
	}
	l.index[v] = struct{}{}
	l.values = append(l.values, v)
	return true
}

func (l *UniqueList[T]) Contains(v T) bool {
	_, ok := l.index[v]
	return ok
}

func (l *UniqueList[T]) Len() int {
	if l == nil {
		return 0
	}
	return len(l.values)
}

// At returns the i-th value, or the zero value and false when out of range.
func (l *UniqueList[T]) At(i int) (T, bool) {
	if i < 0 || i >= len(l.values) {
		var zero T
		return zero, false
	}
	return l.values[i], true
}

// Values returns a copy in insertion order.
func (l *UniqueList[T]) Values() []T {
	out := make([]T, len(l.values))
	copy(out, l.values)
	return out
}

func (l *UniqueList[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		if l == nil {
			return
		}
		for i, v := range l.values {
			if !yield(i, v) {
				return
			}
		}
	}
}
