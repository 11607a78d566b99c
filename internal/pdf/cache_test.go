package pdf

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-shiplabel/internal/testpdf"
)

func TestResultCache_Eviction(t *testing.T) {
	c := NewResultCache(2)
	a, b, d := &ParseResult{Pages: 1}, &ParseResult{Pages: 2}, &ParseResult{Pages: 3}

	c.Put("a", a)
	c.Put("b", b)
	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Same(t, a, got)

	// b is now least recently used
	c.Put("d", d)
	assert.Equal(t, 2, c.Len())
	_, ok = c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("d")
	assert.True(t, ok)

	st := c.Stats()
	assert.Equal(t, CacheStats{Size: 2, Capacity: 2, Hits: 3, Misses: 1, HitRate: 0.75}, st)
}

func TestResultCache_Update(t *testing.T) {
	c := NewResultCache(1)
	c.Put("a", &ParseResult{Pages: 1})
	c.Put("a", &ParseResult{Pages: 2})
	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 2, got.Pages)
	assert.Equal(t, 1, c.Len())
}

func TestResultCache_Disabled(t *testing.T) {
	c := NewResultCache(0)
	assert.Nil(t, c)
	c.Put("a", &ParseResult{})
	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, CacheStats{}, c.Stats())
}

func TestDigest(t *testing.T) {
	assert.Equal(t, Digest([]byte("x")), Digest([]byte("x")))
	assert.NotEqual(t, Digest([]byte("x")), Digest([]byte("y")))
	assert.Len(t, Digest(nil), 64)
}

func TestService_ParseCached(t *testing.T) {
	s, err := NewService(ServiceConfig{InputDirectory: t.TempDir(), CacheSize: 4})
	require.NoError(t, err)

	data := testpdf.ShippingLabel()
	first, err := s.Parse(context.Background(), data)
	require.NoError(t, err)
	second, err := s.Parse(context.Background(), data)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, int64(1), s.CacheStats().Hits)

	uncached := newTestService(t, t.TempDir())
	first, err = uncached.Parse(context.Background(), data)
	require.NoError(t, err)
	second, err = uncached.Parse(context.Background(), data)
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Equal(t, first.Label, second.Label)
}

func TestService_ParseFailureNotCached(t *testing.T) {
	s, err := NewService(ServiceConfig{InputDirectory: t.TempDir(), CacheSize: 4})
	require.NoError(t, err)

	_, err = s.Parse(context.Background(), []byte("not a pdf"))
	require.Error(t, err)
	assert.Equal(t, 0, s.CacheStats().Size)
}
