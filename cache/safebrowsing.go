// Package cache implements the lookup result caches used by the filtering
// engine collaborators.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/bluele/gcache"
)

// hashPrefixLength is the number of the host hash bytes that make up the
// lookup key.  Short prefixes keep the keys unlinkable to the exact host.
const hashPrefixLength = 4

// DefaultSafebrowsingCacheSize is the number of entries the safebrowsing
// cache holds unless configured otherwise.
const DefaultSafebrowsingCacheSize = 10 * 1000

// HashPrefix returns the lookup key for a host: the hex form of the first
// bytes of its SHA256 hash.
func HashPrefix(host string) string {
	sum := sha256.Sum256([]byte(host))

	return hex.EncodeToString(sum[:hashPrefixLength])
}

// Safebrowsing is a size-capped cache of safebrowsing lookup results.  The
// key is the hash prefix of a host and the value is the name of the
// safebrowsing list the host was found in, or an empty string when the host
// is known to be clean.  Entries live for the whole session, eviction is
// LRU-based.
type Safebrowsing struct {
	// mu serializes Persist and Load against each other and the mutating
	// calls.  Plain Get/Set rely on the underlying cache's own locking.
	mu sync.Mutex

	cache gcache.Cache
	size  int
}

// NewSafebrowsing creates a new safebrowsing result cache with the specified
// maximum size.
func NewSafebrowsing(size int) *Safebrowsing {
	if size <= 0 {
		size = DefaultSafebrowsingCacheSize
	}

	return &Safebrowsing{
		cache: gcache.New(size).LRU().Build(),
		size:  size,
	}
}

// Get returns the cached list name for the host hash prefix.  found reports
// whether a lookup result for this prefix is cached at all, since a cached
// empty list name marks a known-clean host.
func (s *Safebrowsing) Get(prefix string) (list string, found bool) {
	v, err := s.cache.Get(prefix)
	if err != nil {
		// gcache returns an error on a miss.
		return "", false
	}

	list, _ = v.(string)

	return list, true
}

// Set caches the lookup result for the host hash prefix.
func (s *Safebrowsing) Set(prefix, list string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// The error is always nil without a serialization function.
	_ = s.cache.Set(prefix, list)
}

// Len returns the number of cached entries.
func (s *Safebrowsing) Len() int {
	return s.cache.Len(true)
}

// Cleanup drops all the cached entries.
func (s *Safebrowsing) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache.Purge()
}

// Persist serializes the cache contents into a JSON snapshot.
func (s *Safebrowsing) Persist() (data []byte, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := map[string]string{}
	for k, v := range s.cache.GetALL(true) {
		key, okKey := k.(string)
		val, okVal := v.(string)
		if okKey && okVal {
			entries[key] = val
		}
	}

	return json.Marshal(entries)
}

// Load restores the cache contents from a JSON snapshot produced by Persist.
// A corrupted payload resets the cache to empty, and the error is returned
// for the caller to log.
func (s *Safebrowsing) Load(data []byte) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := map[string]string{}
	err = json.Unmarshal(data, &entries)
	if err != nil {
		s.cache.Purge()

		return errors.Annotate(err, "loading safebrowsing cache: %w")
	}

	for k, v := range entries {
		_ = s.cache.Set(k, v)
	}

	return nil
}
