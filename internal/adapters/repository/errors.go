// Package repository holds per-player rating state for a simulation pass.
package repository

import "errors"

// Sentinel errors for this package.
var (
	ErrNotFound            = errors.New("player not found")
	ErrInvalidLimit        = errors.New("invalid leaderboard limit")
	ErrCandidateOutOfRange = errors.New("candidate index out of range")
	ErrRatingsLength       = errors.New("ratings length does not match candidate count")
)
