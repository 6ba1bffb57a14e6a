package chat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/gochat-rooms/internal/chat"
)

func TestDirectoryCreate(t *testing.T) {
	d := chat.NewDirectory()

	assert.True(t, d.Create("lobby", "", 0))
	assert.False(t, d.Create("lobby", "pw", 5), "existing name must not be replaced")

	r, ok := d.Get("lobby")
	require.True(t, ok)
	assert.Empty(t, r.Password)
	assert.Zero(t, r.MaxMembers)
	assert.Empty(t, r.Admin)
	assert.Zero(t, r.Len())

	_, ok = d.Get("missing")
	assert.False(t, ok)
}

func TestDirectoryNegativeCapacityIsUnbounded(t *testing.T) {
	d := chat.NewDirectory()
	require.True(t, d.Create("r", "", -3))

	r, _ := d.Get("r")
	assert.False(t, r.Full())
	assert.Nil(t, d.Summaries()[0].MaxUsers)
}

func TestDirectoryRemoveIfEmpty(t *testing.T) {
	d := chat.NewDirectory()
	require.True(t, d.Create("empty", "", 0))
	assert.True(t, d.RemoveIfEmpty("empty"))
	assert.False(t, d.RemoveIfEmpty("empty"))
	assert.Zero(t, d.Len())
	assert.Empty(t, d.Summaries())
}

func TestDirectorySummariesOrderAndShape(t *testing.T) {
	d := chat.NewDirectory()
	require.True(t, d.Create("b", "secret", 4))
	require.True(t, d.Create("a", "", 0))
	require.True(t, d.Create("c", "", 2))
	require.True(t, d.RemoveIfEmpty("a"))

	got := d.Summaries()
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].Name)
	assert.True(t, got[0].HasPassword)
	require.NotNil(t, got[0].MaxUsers)
	assert.Equal(t, 4, *got[0].MaxUsers)
	assert.Equal(t, "c", got[1].Name)
	assert.False(t, got[1].HasPassword)

	// Every call builds a new snapshot.
	*got[0].MaxUsers = 99
	assert.Equal(t, 4, *d.Summaries()[0].MaxUsers)
}

func TestRoomPasswordAndCapacity(t *testing.T) {
	d := chat.NewDirectory()
	require.True(t, d.Create("open", "", 0))
	require.True(t, d.Create("closed", "pw", 1))

	open, _ := d.Get("open")
	assert.True(t, open.CheckPassword(""))
	assert.True(t, open.CheckPassword("anything"))

	closed, _ := d.Get("closed")
	assert.False(t, closed.CheckPassword(""))
	assert.False(t, closed.CheckPassword("PW"))
	assert.True(t, closed.CheckPassword("pw"))
	assert.False(t, closed.Full())
}
