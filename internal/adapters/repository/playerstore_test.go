package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/surfelo/internal/domain/model"
	"github.com/okian/surfelo/internal/domain/rating"
)

func TestPlayerStore_GetDefaults(t *testing.T) {
	store := NewPlayerStore(3)

	count, ratings := store.Get("Nadal")
	if count != 0 {
		t.Errorf("expected count 0, got %d", count)
	}
	if len(ratings) != 3 {
		t.Fatalf("expected 3 rating vectors, got %d", len(ratings))
	}
	for c, v := range ratings {
		if v != (rating.Vector{1, 1, 1}) {
			t.Errorf("candidate %d: expected neutral ratings, got %v", c, v)
		}
	}

	// Get must not insert.
	if store.Len() != 0 {
		t.Errorf("expected empty store after Get, got %d players", store.Len())
	}
}

func TestPlayerStore_SetAndGet(t *testing.T) {
	store := NewPlayerStore(2)

	want := []rating.Vector{{1.2, 0.8, 1.1}, {0.9, 1.4, 1.0}}
	if err := store.Set("Federer", 5, want); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	count, got := store.Get("Federer")
	if count != 5 {
		t.Errorf("expected count 5, got %d", count)
	}
	for c := range want {
		if got[c] != want[c] {
			t.Errorf("candidate %d: expected %v, got %v", c, want[c], got[c])
		}
	}

	// The returned slice is a copy.
	got[0][0] = 99
	if _, again := store.Get("Federer"); again[0][0] == 99 {
		t.Error("Get leaked internal state")
	}

	if err := store.Set("Federer", 1, want[:1]); !errors.Is(err, ErrRatingsLength) {
		t.Errorf("expected ErrRatingsLength, got %v", err)
	}
}

func TestPlayerStore_LoadCreatesOnce(t *testing.T) {
	store := NewPlayerStore(1)

	a := store.Load("Djokovic")
	a.Count = 3
	b := store.Load("Djokovic")
	if a != b {
		t.Error("expected the same state pointer on repeated loads")
	}
	if b.Count != 3 {
		t.Errorf("expected count 3, got %d", b.Count)
	}
	if store.Len() != 1 {
		t.Errorf("expected 1 player, got %d", store.Len())
	}
}

func TestPlayerStore_ResetAll(t *testing.T) {
	store := NewPlayerStore(2)

	st := store.Load("Murray")
	st.Count = 10
	st.Ratings[1] = rating.Vector{3, 2, 1}
	_ = store.Set("Wawrinka", 4, []rating.Vector{{0, 0, 0}, {5, 5, 5}})

	store.ResetAll()

	for _, p := range []string{"Murray", "Wawrinka"} {
		count, ratings := store.Get(p)
		if count != 0 {
			t.Errorf("%s: expected count 0 after reset, got %d", p, count)
		}
		for c, v := range ratings {
			if v != (rating.Vector{1, 1, 1}) {
				t.Errorf("%s candidate %d: expected neutral ratings, got %v", p, c, v)
			}
		}
	}
	if store.Len() != 2 {
		t.Errorf("expected known players to be kept, got %d", store.Len())
	}
	if store.Load("Murray") != st {
		t.Error("expected reset to keep state slots in place")
	}
}

func TestPlayerStore_InitialRatingOption(t *testing.T) {
	store := NewPlayerStore(1, WithInitialRating(0), WithCapacity(16))
	_, ratings := store.Get("anyone")
	if ratings[0] != (rating.Vector{}) {
		t.Errorf("expected zero ratings, got %v", ratings[0])
	}
}

func TestPlayerStore_Leaderboard(t *testing.T) {
	ctx := context.Background()
	store := NewPlayerStore(2)

	players := []struct {
		name string
		hard float64
		clay float64
	}{
		{"alpha", 1.5, 0.2},
		{"bravo", 2.5, 0.9},
		{"charlie", 1.5, 3.0},
		{"delta", 0.7, 1.0},
	}
	for i, p := range players {
		ratings := []rating.Vector{{1, 1, 1}, {p.clay, 1, p.hard}}
		if err := store.Set(p.name, i+1, ratings); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	top, err := store.TopN(ctx, 1, model.Hard, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantOrder := []string{"bravo", "alpha", "charlie"}
	wantRanks := []int{1, 2, 2}
	if len(top) != len(wantOrder) {
		t.Fatalf("expected %d entries, got %d", len(wantOrder), len(top))
	}
	for i, e := range top {
		if e.Player != wantOrder[i] {
			t.Errorf("position %d: expected %s, got %s", i, wantOrder[i], e.Player)
		}
		if e.Rank != wantRanks[i] {
			t.Errorf("position %d: expected rank %d, got %d", i, wantRanks[i], e.Rank)
		}
	}

	entry, err := store.Rank(ctx, "charlie", 1, model.Clay)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.Rank != 1 || entry.Rating != 3.0 || entry.Matches != 3 {
		t.Errorf("unexpected clay entry for charlie: %+v", entry)
	}

	// Candidate 0 is all neutral: every player ties at rank 1.
	flat, err := store.TopN(ctx, 0, model.Grass, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, e := range flat {
		if e.Rank != 1 {
			t.Errorf("expected tied rank 1, got %d for %s", e.Rank, e.Player)
		}
	}
	if flat[0].Player != "alpha" {
		t.Errorf("expected name tie-break to put alpha first, got %s", flat[0].Player)
	}
}

func TestPlayerStore_LeaderboardErrors(t *testing.T) {
	ctx := context.Background()
	store := NewPlayerStore(1)
	store.Load("solo")

	if _, err := store.TopN(ctx, 0, model.Clay, 0); !errors.Is(err, ErrInvalidLimit) {
		t.Errorf("expected ErrInvalidLimit, got %v", err)
	}
	if _, err := store.TopN(ctx, 1, model.Clay, 5); !errors.Is(err, ErrCandidateOutOfRange) {
		t.Errorf("expected ErrCandidateOutOfRange, got %v", err)
	}
	if _, err := store.Rank(ctx, "ghost", 0, model.Clay); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.Rank(ctx, "solo", -1, model.Clay); !errors.Is(err, ErrCandidateOutOfRange) {
		t.Errorf("expected ErrCandidateOutOfRange, got %v", err)
	}
}
