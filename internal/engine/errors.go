package engine

import "errors"

// Sentinel errors for this package. These allow errors.Is from callers.
var (
	ErrEmptyEvaluationWindow = errors.New("no matches on or after the evaluation season")
	ErrNoCandidates          = errors.New("no candidate parameter settings")
	ErrUnknownMetric         = errors.New("unknown metric")
)
