// Package model contains domain models passed between layers.
package model

import "strings"

// NumSurfaces is the number of rating dimensions tracked per player.
const NumSurfaces = 3

// Surface identifies the court a match was played on. Its value doubles as
// the index of the matching rating dimension.
type Surface int

// Rating dimensions, in vector order.
const (
	Clay Surface = iota
	Grass
	Hard
)

// Surfaces lists every surface in rating-vector order.
var Surfaces = [NumSurfaces]Surface{Clay, Grass, Hard} //nolint:gochecknoglobals // fixed enumeration

// ParseSurface normalizes a free-text surface name. Anything that is not
// clay or hard (carpet, blank, typos) folds into Grass.
func ParseSurface(name string) Surface {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "clay":
		return Clay
	case "hard":
		return Hard
	default:
		return Grass
	}
}

// String returns the canonical surface name.
func (s Surface) String() string {
	switch s {
	case Clay:
		return "Clay"
	case Hard:
		return "Hard"
	default:
		return "Grass"
	}
}

// Indicator returns the one-hot vector selecting this surface.
func (s Surface) Indicator() [NumSurfaces]float64 {
	var v [NumSurfaces]float64
	v[s.Index()] = 1
	return v
}

// Index returns the rating-vector index, folding out-of-range values into Grass.
func (s Surface) Index() int {
	if s < Clay || s > Hard {
		return int(Grass)
	}
	return int(s)
}

// Match is one completed match as supplied by the data loader.
// Records are consumed in non-decreasing season order, keeping file order
// within a season.
type Match struct {
	Winner  string  // winner identity (player name)
	Loser   string  // loser identity
	Surface Surface // normalized surface
	Season  int     // season/year the match belongs to
}
