package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/KaramelBytes/mess-cli/internal/analysis"
	"github.com/KaramelBytes/mess-cli/internal/mess"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Key identifies a prepared reference: the file as it is on disk plus the
// options it was read with. A rewritten file gets a new key.
type Key struct {
	Path    string
	Size    int64
	ModTime int64
	Options string
}

// KeyFor stats path and builds its cache key.
func KeyFor(path string, opt analysis.Options) (Key, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Key{}, fmt.Errorf("resolve path: %w", err)
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return Key{}, fmt.Errorf("stat reference: %w", err)
	}
	return Key{
		Path:    abs,
		Size:    fi.Size(),
		ModTime: fi.ModTime().UnixNano(),
		Options: fmt.Sprintf("%+v", opt),
	}, nil
}

// Entry is a reference frame with its prepared model.
type Entry struct {
	Frame *analysis.Frame
	Model *mess.Reference
}

// References is an LRU cache of prepared reference models.
type References struct {
	mu     sync.Mutex
	cache  *lru.Cache[Key, Entry]
	hits   int
	misses int
}

// New creates a cache holding up to capacity references.
func New(capacity int) (*References, error) {
	c, err := lru.New[Key, Entry](capacity)
	if err != nil {
		return nil, fmt.Errorf("new lru: %w", err)
	}
	return &References{cache: c}, nil
}

// Get returns the prepared reference for key.
func (r *References) Get(key Key) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.cache.Get(key)
	if ok {
		r.hits++
	} else {
		r.misses++
	}
	return e, ok
}

// Add stores a prepared reference.
func (r *References) Add(key Key, e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cache.Add(key, e)
}

// Load returns the cached reference for path, calling prepare and caching
// its result on a miss. The boolean reports a cache hit.
func (r *References) Load(path string, opt analysis.Options, prepare func() (Entry, error)) (Entry, bool, error) {
	key, err := KeyFor(path, opt)
	if err != nil {
		return Entry{}, false, err
	}
	if e, ok := r.Get(key); ok {
		return e, true, nil
	}
	e, err := prepare()
	if err != nil {
		return Entry{}, false, err
	}
	r.Add(key, e)
	return e, false, nil
}

// Len returns the number of cached references.
func (r *References) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.cache.Len()
}

// Stats returns hit and miss counts.
func (r *References) Stats() (hits, misses int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.hits, r.misses
}
