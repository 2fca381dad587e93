// Package cull implements visibility-driven triangle removal: per-triangle
// classification against a set of observers, the mesh-wide pass, one-ring
// seam dilation and reconstruction of the reduced mesh.
package cull

import "slices"

// Set is a set of global triangle indices.
type Set map[int]struct{}

// NewSet returns a set holding the given indices.
func NewSet(indices ...int) Set {
	s := make(Set, len(indices))
	for _, i := range indices {
		s[i] = struct{}{}
	}
	return s
}

// Add inserts i.
func (s Set) Add(i int) {
	s[i] = struct{}{}
}

// Has reports whether i is present.
func (s Set) Has(i int) bool {
	_, ok := s[i]
	return ok
}

// Len returns the number of indices.
func (s Set) Len() int {
	return len(s)
}

// Clone returns an independent copy.
func (s Set) Clone() Set {
	c := make(Set, len(s))
	for i := range s {
		c[i] = struct{}{}
	}
	return c
}

// Merge adds every index of other to s.
func (s Set) Merge(other Set) {
	for i := range other {
		s[i] = struct{}{}
	}
}

// Sorted returns the indices in ascending order.
func (s Set) Sorted() []int {
	out := make([]int, 0, len(s))
	for i := range s {
		out = append(out, i)
	}
	slices.Sort(out)
	return out
}

// Equal reports whether s and other hold the same indices.
func (s Set) Equal(other Set) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if !other.Has(i) {
			return false
		}
	}
	return true
}
