package chat

import "time"

// Room is a named chat channel. Members are kept in join order, which is
// also the admin succession order.
type Room struct {
	Name       string
	Password   string
	MaxMembers int
	Admin      string
	CreatedAt  time.Time

	members []string
	index   map[string]struct{}
}

func newRoom(name, password string, maxMembers int) *Room {
	if maxMembers < 0 {
		maxMembers = 0
	}
	return &Room{
		Name:       name,
		Password:   password,
		MaxMembers: maxMembers,
		CreatedAt:  time.Now(),
		index:      make(map[string]struct{}),
	}
}

// Has reports whether id is a member.
func (r *Room) Has(id string) bool {
	_, ok := r.index[id]
	return ok
}

// Len returns the current member count.
func (r *Room) Len() int {
	return len(r.members)
}

// Full reports whether another member would exceed the capacity limit.
// Rooms with MaxMembers == 0 are never full.
func (r *Room) Full() bool {
	return r.MaxMembers > 0 && len(r.members) >= r.MaxMembers
}

// CheckPassword reports whether password opens the room. Open rooms accept
// anything.
func (r *Room) CheckPassword(password string) bool {
	return r.Password == "" || r.Password == password
}

// IsAdmin reports whether id is the current admin.
func (r *Room) IsAdmin(id string) bool {
	return r.Admin != "" && r.Admin == id
}

func (r *Room) add(id string) bool {
	if r.Has(id) {
		return false
	}
	r.index[id] = struct{}{}
	r.members = append(r.members, id)
	return true
}

func (r *Room) remove(id string) bool {
	if !r.Has(id) {
		return false
	}
	delete(r.index, id)
	for i, v := range r.members {
		if v == id {
			r.members = append(r.members[:i], r.members[i+1:]...)
			break
		}
	}
	if r.Admin == id {
		r.Admin = ""
	}
	return true
}

// successor returns the earliest-joined remaining member.
func (r *Room) successor() (string, bool) {
	if len(r.members) == 0 {
		return "", false
	}
	return r.members[0], true
}

func (r *Room) summary() RoomSummary {
	s := RoomSummary{
		Name:         r.Name,
		HasPassword:  r.Password != "",
		CurrentUsers: len(r.members),
	}
	if r.MaxMembers > 0 {
		limit := r.MaxMembers
		s.MaxUsers = &limit
	}
	return s
}

// Directory maps room names to rooms. Like Registry it relies on the Engine
// for serialization.
type Directory struct {
	rooms map[string]*Room
	order []string
}

// NewDirectory returns an empty directory.
func NewDirectory() *Directory {
	return &Directory{rooms: make(map[string]*Room)}
}

// Create adds an empty room with no admin. It returns false, leaving the
// directory untouched, if the name is already in use.
func (d *Directory) Create(name, password string, maxMembers int) bool {
	if _, ok := d.rooms[name]; ok {
		return false
	}
	d.rooms[name] = newRoom(name, password, maxMembers)
	d.order = append(d.order, name)
	return true
}

// Get looks up a room by name.
func (d *Directory) Get(name string) (*Room, bool) {
	r, ok := d.rooms[name]
	return r, ok
}

// RemoveIfEmpty deletes the room if it has no members and reports whether it
// did so.
func (d *Directory) RemoveIfEmpty(name string) bool {
	r, ok := d.rooms[name]
	if !ok || r.Len() > 0 {
		return false
	}
	delete(d.rooms, name)
	for i, v := range d.order {
		if v == name {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
	return true
}

// RoomsOf returns every room that currently contains id.
func (d *Directory) RoomsOf(id string) []*Room {
	var rooms []*Room
	for _, name := range d.order {
		if r := d.rooms[name]; r.Has(id) {
			rooms = append(rooms, r)
		}
	}
	return rooms
}

// Summaries builds a fresh room-list snapshot in creation order.
func (d *Directory) Summaries() []RoomSummary {
	out := make([]RoomSummary, 0, len(d.order))
	for _, name := range d.order {
		out = append(out, d.rooms[name].summary())
	}
	return out
}

// Len returns the number of rooms.
func (d *Directory) Len() int {
	return len(d.rooms)
}

// All returns the rooms in creation order.
func (d *Directory) All() []*Room {
	out := make([]*Room, 0, len(d.order))
	for _, name := range d.order {
		out = append(out, d.rooms[name])
	}
	return out
}
