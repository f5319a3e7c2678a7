package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/jonwraymond/queryops/observe"
	"github.com/jonwraymond/queryops/resilience"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Options selects and configures a backend.
type Options struct {
	// Type is one of the Backend* names.
	// Default: BackendFile
	Type string

	// Path is the file or database path for file and sqlite backends.
	Path string

	// RedisURL is the connection URL for the redis backend.
	RedisURL string

	// DefaultTTL applies to legacy file records without a ttl.
	// Default: 1h
	DefaultTTL time.Duration

	// Clock stamps and expires entries.
	// Default: resilience.SystemClock
	Clock resilience.Clock

	// Logger receives backend warnings.
	// Default: observe.NopLogger()
	Logger observe.Logger
}

// Open constructs the backend named by opts.Type. Backends holding external
// resources implement io.Closer.
func Open(ctx context.Context, opts Options) (Cache, error) {
	if opts.Logger == nil {
		opts.Logger = observe.NopLogger()
	}
	logger := opts.Logger.With(observe.Field{Key: "cache.backend", Value: opts.Type})

	switch opts.Type {
	case BackendMemory:
		return NewMemoryCache(opts.Clock), nil
	case BackendFile, "":
		c, err := OpenFileCache(opts.Path, FileOptions{
			Clock:      opts.Clock,
			Logger:     logger,
			DefaultTTL: opts.DefaultTTL,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	case BackendSQLite:
		c, err := OpenSQLiteCache(ctx, opts.Path, SQLiteOptions{Clock: opts.Clock, Logger: logger})
		if err != nil {
			return nil, err
		}
		return c, nil
	case BackendRedis:
		c, err := NewRedisCache(ctx, opts.RedisURL, RedisOptions{Logger: logger})
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Type)
	}
}
