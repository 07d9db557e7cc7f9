package util

import (
	"iter"
)

// FlatMap yields every element of f(a) for each a of slice, in order
func FlatMap[A, B any](slice []A, f func(A) iter.Seq[B]) iter.Seq[B] {
	return func(yield func(B) bool) {
		for _, a := range slice {
			for b := range f(a) {
				if !yield(b) {
					return
				}
			}
		}
	}
}

// First returns the first element of seq, if there is one
func First[A any](seq iter.Seq[A]) (first A, ok bool) {
	for elem := range seq {
		return elem, true
	}
	return first, false
}
