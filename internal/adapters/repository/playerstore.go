// Package repository holds per-player rating state for a simulation pass.
package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/okian/surfelo/internal/domain/model"
	"github.com/okian/surfelo/internal/domain/rating"
	"github.com/okian/surfelo/pkg/metrics"
)

// Leaderboard ordering: rating DESC, then player name ASC (deterministic).

const (
	defaultCapacity      = 4096
	defaultInitialRating = 1.0
)

// PlayerStore is a map-backed Store. It is owned by a single pass and is not
// safe for concurrent use; parallel passes each build their own.
type PlayerStore struct {
	candidates int
	capacity   int
	initial    float64
	byID       map[string]*PlayerState
}

// NewPlayerStore creates a store holding one rating vector per candidate.
func NewPlayerStore(candidates int, opts ...Option) *PlayerStore {
	s := &PlayerStore{
		candidates: candidates,
		capacity:   defaultCapacity,
		initial:    defaultInitialRating,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.byID = make(map[string]*PlayerState, s.capacity)
	return s
}

// Candidates returns the number of rating vectors kept per player.
func (s *PlayerStore) Candidates() int { return s.candidates }

func (s *PlayerStore) fresh() []rating.Vector {
	r := make([]rating.Vector, s.candidates)
	s.neutralize(r)
	return r
}

func (s *PlayerStore) neutralize(r []rating.Vector) {
	for c := range r {
		for i := range r[c] {
			r[c][i] = s.initial
		}
	}
}

// Load returns the live state for player, creating it with defaults on first
// appearance. The pointer stays valid across ResetAll.
func (s *PlayerStore) Load(player string) *PlayerState {
	if st, ok := s.byID[player]; ok {
		return st
	}
	st := &PlayerState{Ratings: s.fresh()}
	s.byID[player] = st
	return st
}

// Get implements Store.Get. It never inserts.
func (s *PlayerStore) Get(player string) (int, []rating.Vector) {
	st, ok := s.byID[player]
	if !ok {
		return 0, s.fresh()
	}
	return st.Count, append([]rating.Vector(nil), st.Ratings...)
}

// Set implements Store.Set.
func (s *PlayerStore) Set(player string, count int, ratings []rating.Vector) error {
	if len(ratings) != s.candidates {
		return fmt.Errorf("%w: got %d, want %d", ErrRatingsLength, len(ratings), s.candidates)
	}
	st := s.Load(player)
	st.Count = count
	copy(st.Ratings, ratings)
	return nil
}

// ResetAll implements Store.ResetAll. Known players keep their slots so the
// next pass does not reallocate.
func (s *PlayerStore) ResetAll() {
	for _, st := range s.byID {
		st.Count = 0
		s.neutralize(st.Ratings)
	}
}

// Len implements Store.Len.
func (s *PlayerStore) Len() int { return len(s.byID) }

// Rank implements Store.Rank.
func (s *PlayerStore) Rank(ctx context.Context, player string, candidate int, surface model.Surface) (Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	if candidate < 0 || candidate >= s.candidates {
		metrics.RecordErrorByComponent("repository", "candidate_out_of_range")
		return Entry{}, fmt.Errorf("%w: %d", ErrCandidateOutOfRange, candidate)
	}
	if _, ok := s.byID[player]; !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return Entry{}, ErrNotFound
	}

	all := s.collectAll(candidate, surface)
	sortEntries(all)
	assignRanksWithTies(all)

	for _, e := range all {
		if e.Player == player {
			return e, nil
		}
	}
	return Entry{}, ErrNotFound
}

// TopN implements Store.TopN.
func (s *PlayerStore) TopN(ctx context.Context, candidate int, surface model.Surface, n int) ([]Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}
	if candidate < 0 || candidate >= s.candidates {
		metrics.RecordErrorByComponent("repository", "candidate_out_of_range")
		return nil, fmt.Errorf("%w: %d", ErrCandidateOutOfRange, candidate)
	}

	all := s.collectAll(candidate, surface)
	sortEntries(all)
	assignRanksWithTies(all)
	if len(all) > n {
		all = all[:n]
	}
	return all, nil
}

// collectAll lists every player's rating for one candidate and surface, unordered.
func (s *PlayerStore) collectAll(candidate int, surface model.Surface) []Entry {
	out := make([]Entry, 0, len(s.byID))
	dim := surface.Index()
	for id, st := range s.byID {
		out = append(out, Entry{
			Player:  id,
			Rating:  st.Ratings[candidate][dim],
			Matches: st.Count,
		})
	}
	return out
}

// sortEntries sorts entries by rating (descending) and player (ascending).
func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Rating != entries[j].Rating {
			return entries[i].Rating > entries[j].Rating
		}
		return entries[i].Player < entries[j].Player
	})
}

// assignRanksWithTies assigns dense ranks: equal ratings share a rank and
// the next distinct rating takes the following one.
func assignRanksWithTies(entries []Entry) {
	currentRank := 0
	for i := range entries {
		if i == 0 || entries[i].Rating != entries[i-1].Rating {
			currentRank++
		}
		entries[i].Rank = currentRank
	}
}
