// Package identity derives content hashes used as merge keys.
//
// The engine only depends on the Hasher interface; SHA256 is the default
// oracle and hashes the RFC 8785 canonical JSON form of its input, so two
// entities with the same fields in a different key order hash the same.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"

	"github.com/gowebpki/jcs"

	"github.com/agentstation/custody/pkg/constants"
	"github.com/agentstation/custody/pkg/errors"
	"github.com/agentstation/custody/pkg/observation"
)

// Hasher returns a stable content hash for a JSON-compatible value.
// Implementations must be pure: equal inputs yield equal hashes.
type Hasher interface {
	Hash(v any) (string, error)
}

// HasherFunc adapts a function to the Hasher interface.
type HasherFunc func(v any) (string, error)

// Hash implements Hasher.
func (f HasherFunc) Hash(v any) (string, error) {
	return f(v)
}

// SHA256 hashes canonical JSON with SHA-256 and returns lowercase hex.
type SHA256 struct{}

// NewSHA256 returns the default oracle.
func NewSHA256() SHA256 {
	return SHA256{}
}

// Hash implements Hasher.
func (SHA256) Hash(v any) (string, error) {
	canonical, err := Canonical(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// Canonical encodes v as RFC 8785 canonical JSON.
func Canonical(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.WrapParse("json", "", err)
	}
	canonical, err := jcs.Transform(data)
	if err != nil {
		return nil, errors.WrapParse("json", "", err)
	}
	return canonical, nil
}

// CachingHasher memoizes another Hasher keyed by the JSON encoding of the
// input. It is safe for concurrent use; lookups only take a read lock.
type CachingHasher struct {
	next    Hasher
	limit   int
	mu      sync.RWMutex
	entries map[string]string
}

// DefaultCacheLimit bounds the number of memoized hashes.
const DefaultCacheLimit = 100_000

// NewCachingHasher wraps next. A limit <= 0 uses DefaultCacheLimit; when the
// cache is full it is reset rather than evicting entry by entry.
func NewCachingHasher(next Hasher, limit int) *CachingHasher {
	if next == nil {
		next = NewSHA256()
	}
	if limit <= 0 {
		limit = DefaultCacheLimit
	}
	return &CachingHasher{
		next:    next,
		limit:   limit,
		entries: make(map[string]string),
	}
}

// Hash implements Hasher.
func (c *CachingHasher) Hash(v any) (string, error) {
	key, err := json.Marshal(v)
	if err != nil {
		return "", errors.WrapParse("json", "", err)
	}

	c.mu.RLock()
	hash, ok := c.entries[string(key)]
	c.mu.RUnlock()
	if ok {
		return hash, nil
	}

	hash, err = c.next.Hash(v)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	if len(c.entries) >= c.limit {
		c.entries = make(map[string]string)
	}
	c.entries[string(key)] = hash
	c.mu.Unlock()

	return hash, nil
}

// Len returns the number of memoized hashes.
func (c *CachingHasher) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Project returns the subset of m named by fields. Missing fields are left out.
func Project(m map[string]any, fields []string) map[string]any {
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		if v, ok := observation.Lookup(m, f); ok {
			out[f] = v
		}
	}
	return out
}

// EntityHash hashes the projection of an entity. When the projection is empty
// the whole entity (without its stored hash) is hashed instead.
func EntityHash(h Hasher, e observation.Entity, projection []string) (string, error) {
	projected := Project(e, projection)
	if len(projected) == 0 {
		return h.Hash(map[string]any(e.Without(constants.FieldIDHash)))
	}
	return h.Hash(projected)
}

// ObservationHash returns the stored identity hash of obs or derives one from
// its id fields. It returns "" without error when neither is available.
func ObservationHash(h Hasher, obs observation.Observation) (string, error) {
	if id := obs.IDHash(); id != "" {
		return id, nil
	}
	fields := obs.IDFields()
	if len(fields) == 0 {
		return "", nil
	}
	projected := Project(obs, fields)
	if len(projected) == 0 {
		return "", nil
	}
	return h.Hash(projected)
}
