// Package rating implements the surface-aware Elo update rule.
//
// Each player carries one rating per surface. A match on surface j moves
// every dimension i of both players by A[i][j] scaled by the loser-side
// sigmoid of that dimension's rating gap and by a K-factor that decays with
// the player's match count.
package rating

import (
	"math"

	"github.com/okian/surfelo/internal/domain/model"
)

// Probability bounds keep -log(p) finite when ratings saturate the sigmoid.
const (
	minProbability = math.SmallestNonzeroFloat64
	maxProbability = 1 - 1.0/(1<<53)
)

// Vector holds one rating per surface, indexed by model.Surface.
type Vector [model.NumSurfaces]float64

// Neutral is the rating every player starts from.
func Neutral() Vector { return Vector{1, 1, 1} }

// Matrix is the cross-surface influence matrix. A[i][j] is the update speed
// applied to rating dimension i when the match is played on surface j.
type Matrix [model.NumSurfaces][model.NumSurfaces]float64

// Column returns A · e_j, the per-dimension update speeds for surface s.
func (m Matrix) Column(s model.Surface) Vector {
	j := s.Index()
	return Vector{m[0][j], m[1][j], m[2][j]}
}

// Flatten returns the matrix entries in row-major order.
func (m Matrix) Flatten() [model.NumSurfaces * model.NumSurfaces]float64 {
	var out [model.NumSurfaces * model.NumSurfaces]float64
	for i := range m {
		for j := range m[i] {
			out[i*model.NumSurfaces+j] = m[i][j]
		}
	}
	return out
}

// MatrixFromSlice builds a matrix from nine row-major entries. It reports
// false when the slice has the wrong length.
func MatrixFromSlice(v []float64) (Matrix, bool) {
	var m Matrix
	if len(v) != model.NumSurfaces*model.NumSurfaces {
		return m, false
	}
	for k, x := range v {
		m[k/model.NumSurfaces][k%model.NumSurfaces] = x
	}
	return m, true
}

// KFactor is the step-size schedule K(n) = A / (B + n)^C.
type KFactor struct {
	A float64
	B float64
	C float64
}

// At evaluates K for a player with n prior matches.
func (k KFactor) At(n int) float64 {
	return k.A / math.Pow(k.B+float64(n), k.C)
}

// Params is one candidate parameter setting.
type Params struct {
	A Matrix
	K KFactor
}

// Sigmoid is the logistic function, branching on the sign of z so exp never
// overflows.
func Sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// ClampProbability pins p into the open interval (0, 1).
func ClampProbability(p float64) float64 {
	switch {
	case math.IsNaN(p):
		return 0.5
	case p < minProbability:
		return minProbability
	case p > maxProbability:
		return maxProbability
	default:
		return p
	}
}

// Delta applies the update rule for a single candidate. x and y are the
// pre-match ratings of winner and loser, n1 and n2 their pre-match counts.
// It returns the winner's win probability on the played surface and the
// additive deltas for both players.
func Delta(x, y Vector, n1, n2 int, s model.Surface, p Params) (prob float64, winner, loser Vector) {
	j := s.Index()
	speed := p.A.Column(s)
	kw := p.K.At(n1)
	kl := p.K.At(n2)
	for i := range x {
		diff := x[i] - y[i]
		if i == j {
			prob = Sigmoid(diff)
		}
		z := speed[i] * Sigmoid(-diff)
		winner[i] = kw * z
		loser[i] = -kl * z
	}
	return ClampProbability(prob), winner, loser
}

// Step holds the per-candidate output of Update. Buffers are reused across
// matches to keep the batch pass allocation free.
type Step struct {
	Prob   []float64
	Winner []Vector
	Loser  []Vector
}

// NewStep allocates buffers for n candidates.
func NewStep(n int) *Step {
	return &Step{
		Prob:   make([]float64, n),
		Winner: make([]Vector, n),
		Loser:  make([]Vector, n),
	}
}

// Update evaluates the rule for every candidate at once. x[c] and y[c] are
// the winner's and loser's ratings under candidate c. Inputs are not
// modified; results are written into out, which must have len(params) slots.
func Update(x, y []Vector, n1, n2 int, s model.Surface, params []Params, out *Step) {
	for c := range params {
		out.Prob[c], out.Winner[c], out.Loser[c] = Delta(x[c], y[c], n1, n2, s, params[c])
	}
}
