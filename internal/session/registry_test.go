package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestRegistry() *Registry {
	return NewRegistry(func(id string) *Session {
		return New(id, &fakeParser{}, fakeRenderer{}, fakeExporter{})
	})
}

func TestRegistry_Get(t *testing.T) {
	r := newTestRegistry()

	a := r.Get("")
	assert.Equal(t, DefaultID, a.ID())
	assert.Same(t, a, r.Get(DefaultID))

	b := r.Get("tab-2")
	assert.NotSame(t, a, b)
	assert.Equal(t, []string{DefaultID, "tab-2"}, r.IDs())
}

func TestRegistry_CreateLookupDelete(t *testing.T) {
	r := newTestRegistry()

	s := r.Create()
	assert.Len(t, s.ID(), 36)

	got, ok := r.Lookup(s.ID())
	assert.True(t, ok)
	assert.Same(t, s, got)

	assert.True(t, r.Delete(s.ID()))
	assert.False(t, r.Delete(s.ID()))
	_, ok = r.Lookup(s.ID())
	assert.False(t, ok)
}
