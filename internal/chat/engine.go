// Package chat implements room membership and event fan-out for the chat
// server: who is connected, which rooms exist, who is in them, who administers
// them, and which connections hear about each change.
package chat

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

const (
	defaultMaxNicknameLength = 32
	defaultMaxRoomNameLength = 64
)

// Options configures an Engine. Zero values select defaults.
type Options struct {
	Logger            *slog.Logger
	Journal           Journal
	MaxNicknameLength int
	MaxRoomNameLength int
}

// Stats is a point-in-time count of engine state.
type Stats struct {
	Rooms       int `json:"rooms"`
	Connections int `json:"connections"`
	Members     int `json:"members"`
}

// Engine owns the connection registry and the room directory and is the only
// thing that mutates them. Every exported method runs under one mutex, so all
// state changes and deliveries caused by one client action are atomic with
// respect to every other action.
type Engine struct {
	mu      sync.Mutex
	conns   *Registry
	rooms   *Directory
	out     dispatcher
	journal Journal
	logger  *slog.Logger

	maxNickname int
	maxRoomName int
}

// NewEngine creates an Engine that delivers events through out.
func NewEngine(out Sender, opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	journal := opts.Journal
	if journal == nil {
		journal = nopJournal{}
	}
	maxNickname := opts.MaxNicknameLength
	if maxNickname <= 0 {
		maxNickname = defaultMaxNicknameLength
	}
	maxRoomName := opts.MaxRoomNameLength
	if maxRoomName <= 0 {
		maxRoomName = defaultMaxRoomNameLength
	}

	conns := NewRegistry()
	return &Engine{
		conns:       conns,
		rooms:       NewDirectory(),
		out:         dispatcher{out: out, conns: conns, logger: logger},
		journal:     journal,
		logger:      logger,
		maxNickname: maxNickname,
		maxRoomName: maxRoomName,
	}
}

// Connect registers a new connection without a nickname.
func (e *Engine) Connect(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.conns.Register(id)
	e.logger.Debug("connection registered", "conn", id, "connections", e.conns.Len())
}

// SetNickname attaches a nickname to the connection and sends it the current
// room list.
func (e *Engine) SetNickname(id, nickname string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.conns.Get(id); !ok {
		return ErrUnknownConnection
	}

	nickname = strings.TrimSpace(nickname)
	if nickname == "" || utf8.RuneCountInString(nickname) > e.maxNickname {
		e.out.toConn(id, errorEvent(CodeInvalidNickname,
			fmt.Sprintf("nickname must be 1 to %d characters", e.maxNickname)))
		return ErrInvalidNickname
	}

	e.conns.SetNickname(id, nickname)
	e.out.toConn(id, Event{Name: EventUpdateRooms, Data: e.rooms.Summaries()})
	e.logger.Debug("nickname set", "conn", id, "nickname", nickname)
	return nil
}

// CreateOrJoin creates the room if the name is unused and then joins it.
// password and maxMembers only take effect when the room is created here;
// maxMembers <= 0 means no capacity limit.
func (e *Engine) CreateOrJoin(id, room, password string, maxMembers int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, name, err := e.prepareJoin(id, room)
	if err != nil {
		return err
	}

	created := e.rooms.Create(name, password, maxMembers)
	if created {
		e.record(ChangeRoomCreated, name, p)
		e.logger.Info("room created",
			"room", name,
			"by", p.Nickname,
			"password", password != "",
			"max_members", maxMembers)
	}

	if err := e.join(p, name, password); err != nil {
		if created {
			e.removeIfEmpty(name)
		}
		return err
	}
	return nil
}

// Join adds the connection to an existing room, leaving any room it is
// currently in.
func (e *Engine) Join(id, room, password string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, name, err := e.prepareJoin(id, room)
	if err != nil {
		return err
	}
	return e.join(p, name, password)
}

// Leave removes the connection from the room, electing a new admin or
// destroying the room as needed.
func (e *Engine) Leave(id, room string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.conns.Get(id)
	if !ok {
		return ErrUnknownConnection
	}
	r, ok := e.rooms.Get(room)
	if !ok {
		return ErrRoomNotFound
	}
	if !r.Has(id) {
		return ErrNotMember
	}

	e.depart(r, p)
	e.broadcastRooms()
	return nil
}

// Kick removes target from the room. Only the room's admin may kick; any
// other request is dropped without notifying anyone.
func (e *Engine) Kick(requester, room, target string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.conns.Get(requester); !ok {
		return ErrUnknownConnection
	}
	r, ok := e.rooms.Get(room)
	if !ok || !r.IsAdmin(requester) {
		return ErrNotAdmin
	}
	tp, ok := e.conns.Get(target)
	if !ok || !r.Has(target) {
		return ErrNotMember
	}

	wasAdmin := r.IsAdmin(target)
	r.remove(target)
	e.record(ChangeMemberKicked, r.Name, tp)
	e.logger.Info("member kicked", "room", r.Name, "target", tp.Nickname, "by", requester)

	e.out.toConn(target, Event{Name: EventKicked, Data: r.Name})
	e.out.toRoom(r, Event{Name: EventUserLeft, Data: tp.Nickname})
	e.settle(r, wasAdmin)
	e.broadcastRooms()
	return nil
}

// Disconnect runs the leave sequence for every room the connection is in and
// forgets the connection. Unknown connections are ignored, which makes late
// actions from an already-disconnected client harmless.
func (e *Engine) Disconnect(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.conns.Get(id)
	if !ok {
		return
	}

	rooms := e.rooms.RoomsOf(id)
	// Forget the connection first so the broadcasts below do not target it.
	e.conns.Remove(id)
	for _, r := range rooms {
		e.depart(r, p)
		e.broadcastRooms()
	}
	e.logger.Debug("connection removed", "conn", id, "rooms_left", len(rooms), "connections", e.conns.Len())
}

// Chat delivers text to every member of the room, sender included. Messages
// from non-members are dropped silently.
func (e *Engine) Chat(id, room, text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.conns.Get(id)
	if !ok {
		return ErrUnknownConnection
	}
	r, ok := e.rooms.Get(room)
	if !ok || !r.Has(id) {
		return ErrNotMember
	}

	e.out.toRoom(r, Event{Name: EventChatMessage, Data: ChatMessage{
		Nickname: p.Nickname,
		Msg:      text,
		IsAdmin:  r.IsAdmin(id),
	}})
	return nil
}

// ListMembers sends the requester the member list of the room, in join
// order. Nothing is sent for an unknown room.
func (e *Engine) ListMembers(id, room string) ([]Member, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.conns.Get(id); !ok {
		return nil, ErrUnknownConnection
	}
	r, ok := e.rooms.Get(room)
	if !ok {
		return nil, ErrRoomNotFound
	}

	members := make([]Member, 0, r.Len())
	for _, mid := range r.members {
		mp, _ := e.conns.Get(mid)
		members = append(members, Member{ID: mid, Nickname: mp.Nickname, IsAdmin: r.IsAdmin(mid)})
	}
	e.out.toConn(id, Event{Name: EventUserList, Data: members})
	return members, nil
}

// Rooms returns the current room list.
func (e *Engine) Rooms() []RoomSummary {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rooms.Summaries()
}

// Stats returns current counts.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := Stats{Rooms: e.rooms.Len(), Connections: e.conns.Len()}
	for _, r := range e.rooms.rooms {
		s.Members += r.Len()
	}
	return s
}

// prepareJoin validates a join request. The caller holds e.mu.
func (e *Engine) prepareJoin(id, room string) (Profile, string, error) {
	p, ok := e.conns.Get(id)
	if !ok {
		return Profile{}, "", ErrUnknownConnection
	}

	// Room names are keys as given; only blank names are rejected.
	name := room
	if strings.TrimSpace(name) == "" || utf8.RuneCountInString(name) > e.maxRoomName {
		e.out.toConn(id, errorEvent(CodeInvalidRoomName,
			fmt.Sprintf("room name must be 1 to %d characters", e.maxRoomName)))
		return Profile{}, "", ErrInvalidRoomName
	}

	if !p.HasNickname() {
		e.out.toConn(id, Event{Name: EventNicknameRequired})
		return Profile{}, "", ErrNicknameRequired
	}
	return p, name, nil
}

func (e *Engine) join(p Profile, name, password string) error {
	r, ok := e.rooms.Get(name)
	if !ok {
		e.out.toConn(p.ID, Event{Name: EventRoomNotFound})
		return ErrRoomNotFound
	}

	if r.Has(p.ID) {
		e.out.toConn(p.ID, Event{Name: EventRoomJoined, Data: RoomJoined{RoomName: name, IsAdmin: r.IsAdmin(p.ID)}})
		return nil
	}
	if !r.CheckPassword(password) {
		e.out.toConn(p.ID, Event{Name: EventWrongPassword})
		return ErrWrongPassword
	}
	if r.Full() {
		e.out.toConn(p.ID, Event{Name: EventRoomFull})
		return ErrRoomFull
	}

	// The room list broadcast below also covers the room being left.
	for _, prev := range e.rooms.RoomsOf(p.ID) {
		e.depart(prev, p)
	}

	r.add(p.ID)
	e.record(ChangeMemberJoined, name, p)
	first := r.Len() == 1
	if first {
		r.Admin = p.ID
		e.record(ChangeAdminChanged, name, p)
	}
	e.logger.Debug("member joined", "room", name, "nickname", p.Nickname, "members", r.Len())

	e.out.toConn(p.ID, Event{Name: EventRoomJoined, Data: RoomJoined{RoomName: name, IsAdmin: first}})
	e.out.toRoom(r, Event{Name: EventUserJoined, Data: p.Nickname})
	e.broadcastRooms()
	if first {
		e.out.toConn(p.ID, Event{Name: EventNewAdmin, Data: p.Nickname})
	}
	return nil
}

// depart removes p from r, tells the remaining members, and then either
// destroys the room or hands admin to a successor. It does not broadcast the
// room list.
func (e *Engine) depart(r *Room, p Profile) {
	wasAdmin := r.IsAdmin(p.ID)
	r.remove(p.ID)
	e.record(ChangeMemberLeft, r.Name, p)
	e.logger.Debug("member left", "room", r.Name, "nickname", p.Nickname, "members", r.Len())

	e.out.toRoom(r, Event{Name: EventUserLeft, Data: p.Nickname})
	e.settle(r, wasAdmin)
}

func (e *Engine) settle(r *Room, wasAdmin bool) {
	if e.removeIfEmpty(r.Name) {
		return
	}
	if !wasAdmin {
		return
	}

	next, _ := r.successor()
	r.Admin = next
	np, _ := e.conns.Get(next)
	e.record(ChangeAdminChanged, r.Name, np)
	e.logger.Info("admin changed", "room", r.Name, "admin", np.Nickname)
	e.out.toRoom(r, Event{Name: EventNewAdmin, Data: np.Nickname})
}

func (e *Engine) removeIfEmpty(name string) bool {
	if !e.rooms.RemoveIfEmpty(name) {
		return false
	}
	e.record(ChangeRoomDestroyed, name, Profile{})
	e.logger.Info("room destroyed", "room", name)
	return true
}

func (e *Engine) broadcastRooms() {
	e.out.toAll(Event{Name: EventUpdateRooms, Data: e.rooms.Summaries()})
}

func (e *Engine) record(kind ChangeKind, room string, p Profile) {
	e.journal.Record(Change{
		Kind:     kind,
		Room:     room,
		ConnID:   p.ID,
		Nickname: p.Nickname,
		At:       time.Now(),
	})
}
