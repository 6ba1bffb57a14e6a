package chat

import "time"

// ChangeKind names a room or membership transition.
type ChangeKind string

const (
	ChangeRoomCreated   ChangeKind = "room.created"
	ChangeRoomDestroyed ChangeKind = "room.destroyed"
	ChangeMemberJoined  ChangeKind = "member.joined"
	ChangeMemberLeft    ChangeKind = "member.left"
	ChangeMemberKicked  ChangeKind = "member.kicked"
	ChangeAdminChanged  ChangeKind = "admin.changed"
)

// Change is one journal record. ConnID and Nickname describe the member the
// change is about: the joiner, the leaver, the kicked user or the new admin.
type Change struct {
	Kind     ChangeKind `json:"kind"`
	Room     string     `json:"room"`
	ConnID   string     `json:"connId,omitempty"`
	Nickname string     `json:"nickname,omitempty"`
	At       time.Time  `json:"at"`
}

// Journal receives every committed transition, in order, while the Engine
// lock is held. Implementations must not block or call back into the Engine.
type Journal interface {
	Record(Change)
}

type nopJournal struct{}

func (nopJournal) Record(Change) {}
