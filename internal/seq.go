// Package internal holds sequence helpers shared by the chip8 packages.
package internal

import (
	"iter"
)

// Chain yields the pairs of each sequence in turn, stopping early when the
// consumer does.
func Chain[K any, V any](seqs ...iter.Seq2[K, V]) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, seq := range seqs {
			for key, value := range seq {
				if !yield(key, value) {
					return
				}
			}
		}
	}
}
