package params

import "github.com/okian/surfelo/internal/domain/rating"

// Option applies a configuration option to Generate.
type Option func(*generator)

// WithSeed sets the random seed used to draw matrix entries.
func WithSeed(seed int64) Option {
	return func(g *generator) {
		g.seed = seed
	}
}

// WithKFactors overrides the broadcast K-factor with one per candidate.
// Generate fails when the slice length differs from the candidate count.
func WithKFactors(ks []rating.KFactor) Option {
	return func(g *generator) {
		if len(ks) > 0 {
			g.perCandidate = append([]rating.KFactor(nil), ks...)
		}
	}
}
