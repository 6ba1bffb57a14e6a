package chat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Tyrowin/gochat-rooms/internal/chat"
)

func TestRegistry(t *testing.T) {
	r := chat.NewRegistry()

	r.Register("a")
	p, ok := r.Get("a")
	assert.True(t, ok)
	assert.False(t, p.HasNickname())

	r.SetNickname("a", "Alice")
	r.SetNickname("b", "Bob")
	r.SetNickname("a", "Alicia")
	r.Register("a")

	p, _ = r.Get("a")
	assert.Equal(t, "Alicia", p.Nickname)
	assert.Equal(t, []string{"a", "b"}, r.IDs())
	assert.Equal(t, 2, r.Len())

	r.Remove("a")
	r.Remove("a")
	_, ok = r.Get("a")
	assert.False(t, ok)
	assert.Equal(t, []string{"b"}, r.IDs())
}

func TestRegistryGetReturnsCopy(t *testing.T) {
	r := chat.NewRegistry()
	r.SetNickname("a", "Alice")

	p, _ := r.Get("a")
	p.Nickname = "Mallory"

	p, _ = r.Get("a")
	assert.Equal(t, "Alice", p.Nickname)
}
