// Package repository holds per-player rating state for a simulation pass.
package repository

import (
	"context"

	"github.com/okian/surfelo/internal/domain/model"
	"github.com/okian/surfelo/internal/domain/rating"
)

// Entry represents a player leaderboard row for one candidate and surface.
type Entry struct {
	Rank    int
	Player  string
	Rating  float64
	Matches int
}

// PlayerState is a player's match count and one rating vector per candidate.
// The count is shared by all candidates since they see the same matches.
type PlayerState struct {
	Count   int
	Ratings []rating.Vector
}

// Store provides read/write access to player state during a pass.
type Store interface {
	// Get returns the player's count and a copy of its ratings, or neutral
	// defaults when the player has not been seen.
	Get(player string) (int, []rating.Vector)
	// Set replaces the player's state.
	Set(player string, count int, ratings []rating.Vector) error
	// ResetAll reinitializes every known player to defaults.
	ResetAll()
	// Len returns the number of players tracked.
	Len() int

	// Rank returns a player's position on the leaderboard of one candidate
	// and surface. Returns ErrNotFound if the player is unknown.
	Rank(ctx context.Context, player string, candidate int, surface model.Surface) (Entry, error)
	// TopN returns the best n players for one candidate and surface.
	TopN(ctx context.Context, candidate int, surface model.Surface, n int) ([]Entry, error)
}
