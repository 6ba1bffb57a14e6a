package chat

import "errors"

// Errors returned by Engine operations. Every one of them has already been
// turned into a client notification (or deliberately suppressed) by the time
// the caller sees it, so callers only need them for logging and tests.
var (
	ErrUnknownConnection = errors.New("unknown connection")
	ErrNicknameRequired  = errors.New("nickname required")
	ErrInvalidNickname   = errors.New("invalid nickname")
	ErrInvalidRoomName   = errors.New("invalid room name")
	ErrRoomNotFound      = errors.New("room not found")
	ErrWrongPassword     = errors.New("wrong password")
	ErrRoomFull          = errors.New("room full")
	ErrNotMember         = errors.New("not a member of room")
	ErrNotAdmin          = errors.New("not room admin")
)
