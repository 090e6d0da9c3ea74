package response

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStore_PutGet(t *testing.T) {
	s := NewStore()
	s.Put("/tmp/a.http", "body-a")
	s.Put("/tmp/b.http", "body-b")

	assert.Equal(t, "body-a", s.Get("/tmp/a.http"))
	assert.Equal(t, "body-b", s.Get("/tmp/b.http"))
	assert.True(t, s.Has("/tmp/a.http"))
	assert.False(t, s.Has("/tmp/c.http"))
}

func TestStore_OverwriteKeepsLatest(t *testing.T) {
	s := NewStore()
	s.Put("/tmp/a.http", "first")
	s.Put("/tmp/a.http", "second")
	assert.Equal(t, "second", s.Get("/tmp/a.http"))
}

func TestStore_GetMissingPanics(t *testing.T) {
	s := NewStore()
	assert.Panics(t, func() { s.Get("/tmp/missing.http") })
}

func TestResponse_Success(t *testing.T) {
	assert.True(t, Response{Status: 200}.Success())
	assert.True(t, Response{Status: 299}.Success())
	assert.False(t, Response{Status: 199}.Success())
	assert.False(t, Response{Status: 404}.Success())
	assert.False(t, Response{Status: 500}.Success())
}
