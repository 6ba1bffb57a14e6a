package server

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEnvelope(t *testing.T) {
	env, err := decodeEnvelope([]byte(`{"event":"join room","data":{"roomName":"lobby","password":"pw"}}`))
	require.NoError(t, err)
	assert.Equal(t, "join room", env.Event)

	var p joinRoomPayload
	require.NoError(t, decodeData(env.Data, &p))
	assert.Equal(t, joinRoomPayload{RoomName: "lobby", Password: "pw"}, p)

	for _, raw := range []string{``, `nope`, `[]`, `{"data":1}`, `{"event":"  "}`} {
		_, err := decodeEnvelope([]byte(raw))
		assert.True(t, errors.Is(err, errBadPayload), "input %q", raw)
	}
}

func TestDecodeDataRequiresData(t *testing.T) {
	var p chatPayload
	assert.ErrorIs(t, decodeData(nil, &p), errBadPayload)
	assert.ErrorIs(t, decodeData(json.RawMessage(`{"room":1}`), &p), errBadPayload)
}

func TestDecodeNicknameForms(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
		err  bool
	}{
		{"bare string", `"Alice"`, "Alice", false},
		{"object", `{"nickname":"Bob"}`, "Bob", false},
		{"padded string", `  "Carol"`, "Carol", false},
		{"number", `7`, "", true},
		{"wrong field type", `{"nickname":true}`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeNickname(json.RawMessage(tt.data))
			if tt.err {
				assert.ErrorIs(t, err, errBadPayload)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeRoomNameForms(t *testing.T) {
	got, err := decodeRoomName(json.RawMessage(`"lobby"`))
	require.NoError(t, err)
	assert.Equal(t, "lobby", got)

	got, err = decodeRoomName(json.RawMessage(`{"roomName":"den"}`))
	require.NoError(t, err)
	assert.Equal(t, "den", got)

	_, err = decodeRoomName(nil)
	assert.ErrorIs(t, err, errBadPayload)
}

func TestKickPayloadFieldNames(t *testing.T) {
	var p kickPayload
	require.NoError(t, decodeData(json.RawMessage(`{"roomName":"r","userId":"u-1"}`), &p))
	assert.Equal(t, kickPayload{RoomName: "r", UserID: "u-1"}, p)
}

func TestIsExpectedCloseError(t *testing.T) {
	assert.True(t, isExpectedCloseError(nil))
	assert.True(t, isExpectedCloseError(errors.New("write tcp: use of closed network connection")))
	assert.True(t, isExpectedCloseError(errors.New("websocket: close sent")))
	assert.True(t, isExpectedCloseError(errors.New("write: broken pipe")))
	assert.False(t, isExpectedCloseError(errors.New("boom")))
}
