// Package set defines a generic set type.
package set

import (
	"fmt"
	"iter"
	"strings"
)

// Set is a generic set of comparable elements.
//
// The zero value is an empty set ready for use.
type Set[T comparable] struct {
	items map[T]struct{}
}

// Of returns a new set with the given elements.
func Of[T comparable](vals ...T) Set[T] {
	var s Set[T]
	s.Add(vals...)
	return s
}

// Collect returns a new set with the elements of a sequence.
func Collect[T comparable](seq iter.Seq[T]) Set[T] {
	var s Set[T]
	for v := range seq {
		s.Add(v)
	}
	return s
}

// Add adds elements to the set.
func (s *Set[T]) Add(vals ...T) {
	if s.items == nil {
		s.items = make(map[T]struct{}, len(vals))
	}
	for _, v := range vals {
		s.items[v] = struct{}{}
	}
}

// Delete removes elements from the set.
// Elements not in the set are ignored.
func (s *Set[T]) Delete(vals ...T) {
	for _, v := range vals {
		delete(s.items, v)
	}
}

// Clear removes all elements.
func (s *Set[T]) Clear() {
	clear(s.items)
}

// Contains reports whether an element is in the set.
func (s Set[T]) Contains(v T) bool {
	_, ok := s.items[v]
	return ok
}

// Size returns the number of elements.
func (s Set[T]) Size() int {
	return len(s.items)
}

// All returns an iterator over all elements in undefined order.
func (s Set[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for v := range s.items {
			if !yield(v) {
				return
			}
		}
	}
}

// Slice returns the elements as a new slice in undefined order.
func (s Set[T]) Slice() []T {
	r := make([]T, 0, len(s.items))
	for v := range s.items {
		r = append(r, v)
	}
	return r
}

// Clone returns a shallow copy.
func (s Set[T]) Clone() Set[T] {
	var n Set[T]
	n.Add(s.Slice()...)
	return n
}

// Equal reports whether two sets contain the same elements.
func (s Set[T]) Equal(other Set[T]) bool {
	if s.Size() != other.Size() {
		return false
	}
	for v := range s.items {
		if !other.Contains(v) {
			return false
		}
	}
	return true
}

func (s Set[T]) String() string {
	var b strings.Builder
	b.WriteString("{")
	first := true
	for v := range s.items {
		if !first {
			b.WriteString(" ")
		}
		fmt.Fprint(&b, v)
		first = false
	}
	b.WriteString("}")
	return b.String()
}

// Union returns a new set with the elements of both sets.
func Union[T comparable](s1, s2 Set[T]) Set[T] {
	n := s1.Clone()
	n.Add(s2.Slice()...)
	return n
}

// Intersect returns a new set with the elements found in both sets.
func Intersect[T comparable](s1, s2 Set[T]) Set[T] {
	var n Set[T]
	for v := range s1.items {
		if s2.Contains(v) {
			n.Add(v)
		}
	}
	return n
}

// Difference returns a new set with the elements of s1 that are not in s2.
func Difference[T comparable](s1, s2 Set[T]) Set[T] {
	var n Set[T]
	for v := range s1.items {
		if !s2.Contains(v) {
			n.Add(v)
		}
	}
	return n
}
