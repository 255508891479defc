package cache

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/bluele/gcache"
)

// DefaultTrustTTL is how long a document stays trusted after the user chose
// to proceed to it.
const DefaultTrustTTL = 40 * time.Minute

// defaultTrustedCacheSize caps the number of hosts the trusted-documents
// cache can hold.
const defaultTrustedCacheSize = 1000

// TrustedDocuments remembers the hosts whose warning pages the user has
// dismissed.  Each entry expires after the configured TTL, so the warning
// reappears eventually.
type TrustedDocuments struct {
	// mu serializes Persist and Load against the mutating calls.
	mu sync.Mutex

	cache gcache.Cache
	ttl   time.Duration
}

// NewTrustedDocuments creates a new trusted-documents cache.  Non-positive
// ttl means [DefaultTrustTTL].
func NewTrustedDocuments(ttl time.Duration) *TrustedDocuments {
	if ttl <= 0 {
		ttl = DefaultTrustTTL
	}

	return &TrustedDocuments{
		cache: gcache.New(defaultTrustedCacheSize).LRU().Build(),
		ttl:   ttl,
	}
}

// Trust marks the host as trusted for the cache's TTL.
func (t *TrustedDocuments) Trust(host string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	// The error is always nil without a serialization function.
	_ = t.cache.SetWithExpire(host, time.Now().Add(t.ttl), t.ttl)
}

// IsTrusted returns true when the host is currently trusted.
func (t *TrustedDocuments) IsTrusted(host string) bool {
	return t.cache.Has(host)
}

// Cleanup drops all the cached entries.
func (t *TrustedDocuments) Cleanup() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.cache.Purge()
}

// Persist serializes the cache contents into a JSON snapshot.  Expiration
// times are stored so that Load can skip the entries that have expired in
// the meantime.
func (t *TrustedDocuments) Persist() (data []byte, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entries := map[string]time.Time{}
	for k, v := range t.cache.GetALL(true) {
		host, okKey := k.(string)
		expires, okVal := v.(time.Time)
		if okKey && okVal {
			entries[host] = expires
		}
	}

	return json.Marshal(entries)
}

// Load restores the cache contents from a JSON snapshot produced by Persist.
// A corrupted payload resets the cache to empty, and the error is returned
// for the caller to log.
func (t *TrustedDocuments) Load(data []byte) (err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entries := map[string]time.Time{}
	err = json.Unmarshal(data, &entries)
	if err != nil {
		t.cache.Purge()

		return errors.Annotate(err, "loading trusted documents cache: %w")
	}

	now := time.Now()
	for host, expires := range entries {
		left := expires.Sub(now)
		if left <= 0 {
			continue
		}

		_ = t.cache.SetWithExpire(host, expires, left)
	}

	return nil
}
