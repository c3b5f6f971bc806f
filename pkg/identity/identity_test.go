package identity_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/custody/pkg/identity"
	"github.com/agentstation/custody/pkg/observation"
)

func TestSHA256IsOrderIndependent(t *testing.T) {
	h := identity.NewSHA256()

	a, err := h.Hash(map[string]any{"type": "video", "term": "v1"})
	require.NoError(t, err)
	b, err := h.Hash(map[string]any{"term": "v1", "type": "video"})
	require.NoError(t, err)
	c, err := h.Hash(map[string]any{"term": "v2", "type": "video"})
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}

func TestSHA256NumberCanonicalization(t *testing.T) {
	h := identity.NewSHA256()

	intHash, err := h.Hash(map[string]any{"term": []any{36, 35}})
	require.NoError(t, err)
	floatHash, err := h.Hash(map[string]any{"term": []any{36.0, 35.0}})
	require.NoError(t, err)

	assert.Equal(t, intHash, floatHash)
}

func TestSHA256RejectsUnencodable(t *testing.T) {
	_, err := identity.NewSHA256().Hash(map[string]any{"ch": make(chan int)})
	assert.Error(t, err)
}

func TestCachingHasher(t *testing.T) {
	calls := 0
	var mu sync.Mutex
	counting := identity.HasherFunc(func(v any) (string, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return identity.NewSHA256().Hash(v)
	})

	c := identity.NewCachingHasher(counting, 2)

	first, err := c.Hash(map[string]any{"term": "a"})
	require.NoError(t, err)
	second, err := c.Hash(map[string]any{"term": "a"})
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)

	_, _ = c.Hash(map[string]any{"term": "b"})
	assert.Equal(t, 2, c.Len())

	// full cache resets
	_, _ = c.Hash(map[string]any{"term": "c"})
	assert.Equal(t, 1, c.Len())
}

func TestCachingHasherConcurrent(t *testing.T) {
	c := identity.NewCachingHasher(nil, 0)
	want, err := identity.NewSHA256().Hash(map[string]any{"term": "x"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := c.Hash(map[string]any{"term": "x"})
			assert.NoError(t, err)
			assert.Equal(t, want, got)
		}()
	}
	wg.Wait()
}

func TestCachingHasherPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	c := identity.NewCachingHasher(identity.HasherFunc(func(any) (string, error) { return "", boom }), 0)
	_, err := c.Hash("x")
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, c.Len())
}

func TestEntityHash(t *testing.T) {
	h := identity.NewSHA256()
	projection := []string{"type", "term"}

	a, err := identity.EntityHash(h, observation.Entity{"type": "video", "term": "v1", "href": "x"}, projection)
	require.NoError(t, err)
	b, err := identity.EntityHash(h, observation.Entity{"type": "video", "term": "v1", "href": "y"}, projection)
	require.NoError(t, err)
	assert.Equal(t, a, b, "fields outside the projection do not change identity")

	// empty projection hashes the whole entity, ignoring a stored hash
	c, err := identity.EntityHash(h, observation.Entity{"note": "n", "_sc_id_hash": "old"}, projection)
	require.NoError(t, err)
	d, err := identity.EntityHash(h, observation.Entity{"note": "n"}, projection)
	require.NoError(t, err)
	assert.Equal(t, c, d)
}

func TestObservationHash(t *testing.T) {
	h := identity.NewSHA256()

	stored, err := identity.ObservationHash(h, observation.Observation{"_sc_id_hash": "abc"})
	require.NoError(t, err)
	assert.Equal(t, "abc", stored)

	derived, err := identity.ObservationHash(h, observation.Observation{
		"_sc_id_fields": []any{"id"},
		"id":            "42",
	})
	require.NoError(t, err)
	want, _ := h.Hash(map[string]any{"id": "42"})
	assert.Equal(t, want, derived)

	none, err := identity.ObservationHash(h, observation.Observation{"id": "42"})
	require.NoError(t, err)
	assert.Empty(t, none)
}
