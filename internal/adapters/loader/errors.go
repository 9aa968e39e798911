package loader

import "errors"

var (
	// ErrNoSeasons is returned when no season file exists in the configured range.
	ErrNoSeasons = errors.New("no season files found")
	// ErrMalformedRecord is returned for a row that cannot be turned into a match.
	ErrMalformedRecord = errors.New("malformed match record")
	// ErrMissingColumn is returned when a season file lacks a required header.
	ErrMissingColumn = errors.New("missing column")
	// ErrInvalidRange is returned when the first season is after the last.
	ErrInvalidRange = errors.New("invalid season range")
)
