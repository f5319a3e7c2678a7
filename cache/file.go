package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jonwraymond/queryops/observe"
	"github.com/jonwraymond/queryops/resilience"
)

// FileOptions configures a FileCache.
type FileOptions struct {
	// Clock stamps and expires entries.
	// Default: resilience.SystemClock
	Clock resilience.Clock

	// Logger receives load and persist warnings.
	// Default: observe.NopLogger()
	Logger observe.Logger

	// DefaultTTL applies to stored records that carry no ttl.
	// Default: 1h
	DefaultTTL time.Duration
}

// FileCache keeps entries in memory and mirrors them to a JSON file of the
// form {"<key>": {"answer": "...", "ts": <unix seconds>, "ttl": <seconds>}}.
//
// The file is read once on open and rewritten atomically after every
// mutation. A missing or unreadable file starts the cache empty.
type FileCache struct {
	mu      sync.RWMutex
	path    string
	entries map[string]Entry
	clock   resilience.Clock
	logger  observe.Logger
}

type fileRecord struct {
	Answer string  `json:"answer"`
	TS     float64 `json:"ts"`
	TTL    float64 `json:"ttl,omitempty"`
}

// OpenFileCache loads path into a new FileCache.
func OpenFileCache(path string, opts FileOptions) (*FileCache, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrInvalidPath
	}
	if opts.Clock == nil {
		opts.Clock = resilience.SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = observe.NopLogger()
	}
	if opts.DefaultTTL <= 0 {
		opts.DefaultTTL = time.Hour
	}

	c := &FileCache{
		path:    path,
		entries: make(map[string]Entry),
		clock:   opts.Clock,
		logger:  opts.Logger.With(observe.Field{Key: "cache.path", Value: path}),
	}
	c.load(opts.DefaultTTL)
	return c, nil
}

func (c *FileCache) load(defaultTTL time.Duration) {
	ctx := context.Background()

	data, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		c.logger.Warn(ctx, "cache file not found, starting empty")
		return
	}
	if err != nil {
		c.logger.Warn(ctx, "cache file unreadable, starting empty", observe.Field{Key: "error", Value: err})
		return
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return
	}

	var records map[string]fileRecord
	if err := json.Unmarshal(data, &records); err != nil {
		c.logger.Warn(ctx, "cache file corrupted, starting empty", observe.Field{Key: "error", Value: err})
		return
	}

	for key, r := range records {
		if ValidateKey(key) != nil || r.Answer == "" {
			continue
		}
		ttl := defaultTTL
		if r.TTL > 0 {
			ttl = secondsToDuration(r.TTL)
		}
		c.entries[key] = Entry{
			Value:    r.Answer,
			StoredAt: time.Unix(0, int64(r.TS*float64(time.Second))),
			TTL:      ttl,
		}
	}
}

// Path returns the backing file path.
func (c *FileCache) Path() string {
	return c.path
}

// Get retrieves a value. An expired entry is removed and the file rewritten.
func (c *FileCache) Get(ctx context.Context, key string) (string, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return "", false
	}
	if !entry.Expired(c.clock.Now()) {
		return entry.Value, true
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.entries[key]; ok && cur.Expired(c.clock.Now()) {
		delete(c.entries, key)
		if err := c.persistLocked(); err != nil {
			c.logger.Warn(ctx, "cache persist failed", observe.Field{Key: "error", Value: err})
		}
	}
	return "", false
}

// Set stores a value and rewrites the file. TTL <= 0 means no caching.
func (c *FileCache) Set(_ context.Context, key string, value string, ttl time.Duration) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if ttl <= 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = Entry{
		Value:    value,
		StoredAt: c.clock.Now(),
		TTL:      ttl,
	}
	return c.persistLocked()
}

// Delete removes a value. Idempotent - no error on miss.
func (c *FileCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; !ok {
		return nil
	}
	delete(c.entries, key)
	return c.persistLocked()
}

// Clear drops every entry and rewrites the file.
func (c *FileCache) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]Entry)
	return c.persistLocked()
}

// Stats reports the number of stored and stale entries.
func (c *FileCache) Stats(_ context.Context) (Stats, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return countEntries("file", c.entries, c.clock.Now()), nil
}

// persistLocked writes entries to a temp file in the same directory and
// renames it over path. Callers hold c.mu.
func (c *FileCache) persistLocked() error {
	records := make(map[string]fileRecord, len(c.entries))
	for key, e := range c.entries {
		records[key] = fileRecord{
			Answer: e.Value,
			TS:     float64(e.StoredAt.UnixNano()) / float64(time.Second),
			TTL:    e.TTL.Seconds(),
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("cache: encode %s: %w", c.path, err)
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cache: create dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(c.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("cache: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("cache: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("cache: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, c.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("cache: replace %s: %w", c.path, err)
	}
	return nil
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

var (
	_ Cache   = (*FileCache)(nil)
	_ Clearer = (*FileCache)(nil)
	_ Statser = (*FileCache)(nil)
)
