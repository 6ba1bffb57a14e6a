// Package server carries the chat protocol over WebSocket: it owns the
// connections, decodes client frames into engine calls, and writes engine
// events back out.
package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Envelope is the frame format in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type nicknamePayload struct {
	Nickname string `json:"nickname"`
}

type createRoomPayload struct {
	RoomName string `json:"roomName"`
	Password string `json:"password"`
	MaxUsers int    `json:"maxUsers"`
}

type joinRoomPayload struct {
	RoomName string `json:"roomName"`
	Password string `json:"password"`
}

type roomPayload struct {
	RoomName string `json:"roomName"`
}

type chatPayload struct {
	Room string `json:"room"`
	Msg  string `json:"msg"`
}

type kickPayload struct {
	RoomName string `json:"roomName"`
	UserID   string `json:"userId"`
}

var errBadPayload = errors.New("malformed payload")

func decodeEnvelope(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", errBadPayload, err)
	}
	if strings.TrimSpace(env.Event) == "" {
		return Envelope{}, fmt.Errorf("%w: missing event name", errBadPayload)
	}
	return env, nil
}

func decodeData(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: missing data", errBadPayload)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", errBadPayload, err)
	}
	return nil
}

// decodeNickname accepts either {"nickname": "..."} or a bare JSON string.
func decodeNickname(data json.RawMessage) (string, error) {
	if isJSONString(data) {
		var s string
		err := decodeData(data, &s)
		return s, err
	}
	var p nicknamePayload
	err := decodeData(data, &p)
	return p.Nickname, err
}

// decodeRoomName accepts either {"roomName": "..."} or a bare JSON string.
func decodeRoomName(data json.RawMessage) (string, error) {
	if isJSONString(data) {
		var s string
		err := decodeData(data, &s)
		return s, err
	}
	var p roomPayload
	err := decodeData(data, &p)
	return p.RoomName, err
}

func isJSONString(data json.RawMessage) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && trimmed[0] == '"'
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
