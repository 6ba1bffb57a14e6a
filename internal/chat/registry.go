package chat

// Profile is the registry record for one live connection. An empty Nickname
// means none has been set yet.
type Profile struct {
	ID       string
	Nickname string
}

// HasNickname reports whether the connection has chosen a nickname.
func (p Profile) HasNickname() bool {
	return p.Nickname != ""
}

// Registry maps live connection IDs to their profiles. It is not safe for
// concurrent use on its own; the Engine serializes all access.
type Registry struct {
	profiles map[string]*Profile
	order    []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{profiles: make(map[string]*Profile)}
}

// Register adds a connection with no nickname. Registering an existing ID
// keeps its profile.
func (r *Registry) Register(id string) {
	if _, ok := r.profiles[id]; ok {
		return
	}
	r.profiles[id] = &Profile{ID: id}
	r.order = append(r.order, id)
}

// SetNickname creates or overwrites the profile for id. Nicknames need not
// be unique.
func (r *Registry) SetNickname(id, nickname string) {
	if p, ok := r.profiles[id]; ok {
		p.Nickname = nickname
		return
	}
	r.profiles[id] = &Profile{ID: id, Nickname: nickname}
	r.order = append(r.order, id)
}

// Get returns a copy of the profile for id.
func (r *Registry) Get(id string) (Profile, bool) {
	p, ok := r.profiles[id]
	if !ok {
		return Profile{}, false
	}
	return *p, true
}

// Remove deletes the profile for id. Removing an unknown ID is a no-op.
func (r *Registry) Remove(id string) {
	if _, ok := r.profiles[id]; !ok {
		return
	}
	delete(r.profiles, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// IDs returns the registered connection IDs in registration order.
func (r *Registry) IDs() []string {
	return append([]string(nil), r.order...)
}

// Len returns the number of registered connections.
func (r *Registry) Len() int {
	return len(r.profiles)
}
