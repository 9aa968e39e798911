// Package repository holds per-player rating state for a simulation pass.
package repository

// Option applies a configuration option to the PlayerStore.
type Option func(*PlayerStore)

// WithCapacity presizes the player map. Tennis histories hold a few
// thousand distinct players per decade.
func WithCapacity(n int) Option {
	return func(s *PlayerStore) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// WithInitialRating sets the rating every dimension starts from.
func WithInitialRating(r float64) Option {
	return func(s *PlayerStore) {
		s.initial = r
	}
}
