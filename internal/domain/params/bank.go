// Package params holds the Parameter Bank: the candidate parameter settings
// evaluated side by side by the batch runner.
package params

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/okian/surfelo/internal/domain/model"
	"github.com/okian/surfelo/internal/domain/rating"
)

// NumEntries is the number of entries in an influence matrix.
const NumEntries = model.NumSurfaces * model.NumSurfaces

// Default search space and step-size schedule.
const (
	DefaultLowerBound = 0.0
	DefaultUpperBound = 1.5
	defaultSeed       = 42
)

// DefaultKFactor is the shared K-factor used when none is configured.
var DefaultKFactor = rating.KFactor{A: 0.4789, B: 4.0214, C: 0.2523} //nolint:gochecknoglobals // value type default

// Candidate is one parameter setting identified by its index in the bank.
type Candidate struct {
	Index int
	rating.Params
}

// Bounds are the per-entry sampling ranges, row-major.
type Bounds struct {
	Lower [NumEntries]float64
	Upper [NumEntries]float64
}

// DefaultBounds samples every entry from [0, 1.5).
func DefaultBounds() Bounds {
	var b Bounds
	for i := range b.Lower {
		b.Lower[i] = DefaultLowerBound
		b.Upper[i] = DefaultUpperBound
	}
	return b
}

// NewBounds validates and copies nine lower and nine upper bounds.
func NewBounds(lower, upper []float64) (Bounds, error) {
	var b Bounds
	if len(lower) != NumEntries || len(upper) != NumEntries {
		return b, fmt.Errorf("%w: need %d lower and %d upper bounds, got %d and %d",
			ErrInvalidBounds, NumEntries, NumEntries, len(lower), len(upper))
	}
	copy(b.Lower[:], lower)
	copy(b.Upper[:], upper)
	return b, b.Validate()
}

// Validate reports the first entry whose lower bound exceeds its upper bound.
func (b Bounds) Validate() error {
	for i := range b.Lower {
		lo, hi := b.Lower[i], b.Upper[i]
		if math.IsNaN(lo) || math.IsNaN(hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0) {
			return fmt.Errorf("%w: entry %d is not finite", ErrInvalidBounds, i)
		}
		if lo > hi {
			return fmt.Errorf("%w: entry %d lower %g exceeds upper %g", ErrInvalidBounds, i, lo, hi)
		}
	}
	return nil
}

// Bank is an immutable set of candidates. Replace it wholesale to change it.
type Bank struct {
	candidates []Candidate
	params     []rating.Params
}

// NewBank builds a bank from explicit parameter settings, indexed in order.
func NewBank(ps ...rating.Params) *Bank {
	b := &Bank{
		candidates: make([]Candidate, len(ps)),
		params:     make([]rating.Params, len(ps)),
	}
	for i, p := range ps {
		b.candidates[i] = Candidate{Index: i, Params: p}
		b.params[i] = p
	}
	return b
}

type generator struct {
	seed         int64
	perCandidate []rating.KFactor
}

// Generate draws n candidates. Every matrix entry is sampled independently
// and uniformly from [lower, upper) with a generator seeded explicitly, so
// the same seed always yields the same bank. The K-factor k is shared by
// every candidate unless WithKFactors overrides it.
func Generate(n int, k rating.KFactor, bounds Bounds, opts ...Option) (*Bank, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCount, n)
	}
	if err := bounds.Validate(); err != nil {
		return nil, err
	}
	g := &generator{seed: defaultSeed}
	for _, opt := range opts {
		opt(g)
	}
	ks := make([]rating.KFactor, n)
	for i := range ks {
		ks[i] = k
	}
	if g.perCandidate != nil {
		if len(g.perCandidate) != n {
			return nil, fmt.Errorf("%w: got %d k-factors for %d candidates", ErrInvalidKFactor, len(g.perCandidate), n)
		}
		copy(ks, g.perCandidate)
	}
	for i, kf := range ks {
		if !(kf.B > 0) {
			return nil, fmt.Errorf("%w: candidate %d has b=%g", ErrInvalidKFactor, i, kf.B)
		}
	}

	rng := rand.New(rand.NewSource(g.seed)) //nolint:gosec // reproducible search, not security sensitive
	ps := make([]rating.Params, n)
	for c := range ps {
		var flat [NumEntries]float64
		for e := range flat {
			flat[e] = bounds.Lower[e] + rng.Float64()*(bounds.Upper[e]-bounds.Lower[e])
		}
		m, _ := rating.MatrixFromSlice(flat[:])
		ps[c] = rating.Params{A: m, K: ks[c]}
	}
	return NewBank(ps...), nil
}

// Len returns the number of candidates.
func (b *Bank) Len() int { return len(b.candidates) }

// Candidate returns the candidate at index i.
func (b *Bank) Candidate(i int) Candidate { return b.candidates[i] }

// Candidates returns a copy of all candidates in index order.
func (b *Bank) Candidates() []Candidate {
	return append([]Candidate(nil), b.candidates...)
}

// Params returns the parameter settings in index order. The slice is shared
// and must not be modified.
func (b *Bank) Params() []rating.Params { return b.params }

// Identity is the surface-only matrix: surfaces evolve independently.
func Identity() rating.Matrix {
	var m rating.Matrix
	for i := range m {
		m[i][i] = 1
	}
	return m
}

// AllOnes is the surface-agnostic matrix: every match moves every surface.
func AllOnes() rating.Matrix {
	var m rating.Matrix
	for i := range m {
		for j := range m[i] {
			m[i][j] = 1
		}
	}
	return m
}
