package loader

import (
	"io/fs"
	"os"

	"github.com/okian/surfelo/pkg/logger"
)

// Option configures a Loader.
type Option func(*Loader)

// WithDataDir reads season files from dir on the local filesystem.
func WithDataDir(dir string) Option {
	return func(l *Loader) {
		l.fsys = os.DirFS(dir)
		l.dir = dir
	}
}

// WithFS reads season files from fsys.
func WithFS(fsys fs.FS) Option {
	return func(l *Loader) {
		if fsys != nil {
			l.fsys = fsys
		}
	}
}

// WithFilePattern sets the per-season file name; it must contain one %d verb.
func WithFilePattern(pattern string) Option {
	return func(l *Loader) {
		if pattern != "" {
			l.pattern = pattern
		}
	}
}

// WithSeasons sets the inclusive season range to load.
func WithSeasons(first, last int) Option {
	return func(l *Loader) {
		l.first = first
		l.last = last
	}
}

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(l *Loader) {
		if log != nil {
			l.logger = log
		}
	}
}
