package cloneutil

import "slices"

// Ptr returns a pointer to a copy of *src, or nil.
func Ptr[T any](src *T) *T {
	if src == nil {
		return nil
	}
	v := *src
	return &v
}

// Slice returns a copy of src that shares no backing array; nil stays nil.
func Slice[T any](src []T) []T {
	if src == nil {
		return nil
	}
	return slices.Clone(src)
}
