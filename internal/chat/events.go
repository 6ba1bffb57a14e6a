package chat

// Inbound event names, as sent by clients.
const (
	EventSetNickname = "set nickname"
	EventCreateRoom  = "create room"
	EventJoinRoom    = "join room"
	EventLeaveRoom   = "leave room"
	EventChatMessage = "chat message"
	EventKickUser    = "kick user"
	EventGetUsers    = "get users"
)

// Outbound event names. EventChatMessage is shared by both directions.
const (
	EventUpdateRooms      = "update rooms"
	EventRoomJoined       = "room joined"
	EventRoomNotFound     = "room not found"
	EventWrongPassword    = "wrong password"
	EventRoomFull         = "room full"
	EventUserJoined       = "user joined"
	EventUserLeft         = "user left"
	EventNewAdmin         = "new admin"
	EventKicked           = "kicked"
	EventUserList         = "user list"
	EventNicknameRequired = "nickname required"
	EventError            = "error"
)

// Event is a single outbound notification. Data is nil for events that carry
// no payload.
type Event struct {
	Name string `json:"event"`
	Data any    `json:"data,omitempty"`
}

// RoomSummary is one entry of the "update rooms" payload. MaxUsers is nil for
// rooms without a capacity limit and encodes as JSON null.
type RoomSummary struct {
	Name         string `json:"name"`
	HasPassword  bool   `json:"hasPassword"`
	CurrentUsers int    `json:"currentUsers"`
	MaxUsers     *int   `json:"maxUsers"`
}

// RoomJoined confirms a successful join to the joining connection.
type RoomJoined struct {
	RoomName string `json:"roomName"`
	IsAdmin  bool   `json:"isAdmin"`
}

// ChatMessage is delivered to every member of the room it was sent to.
type ChatMessage struct {
	Nickname string `json:"nickname"`
	Msg      string `json:"msg"`
	IsAdmin  bool   `json:"isAdmin"`
}

// Member is one entry of the "user list" payload.
type Member struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
	IsAdmin  bool   `json:"isAdmin"`
}

// ErrorPayload accompanies EventError.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes carried by EventError.
const (
	CodeBadRequest      = "bad_request"
	CodeUnknownEvent    = "unknown_event"
	CodeInvalidNickname = "invalid_nickname"
	CodeInvalidRoomName = "invalid_room_name"
)

func errorEvent(code, message string) Event {
	return Event{Name: EventError, Data: ErrorPayload{Code: code, Message: message}}
}
