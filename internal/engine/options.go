package engine

import "github.com/okian/surfelo/pkg/logger"

// Option applies a configuration option to the Runner.
type Option func(*Runner)

// WithLogger sets a custom logger for the runner.
func WithLogger(l logger.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithWorkers sets how many candidate shards are simulated concurrently.
func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithCancelCheckInterval sets how many matches pass between context checks.
func WithCancelCheckInterval(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.checkEvery = n
		}
	}
}
