package chat

import (
	"errors"
	"fmt"
)

// Verify checks the structural invariants of the engine state and returns
// every violation found. A non-nil result means a bug, not a client error.
func (e *Engine) Verify() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var errs []error
	seen := make(map[string]string)

	for _, r := range e.rooms.All() {
		if r.Len() == 0 {
			errs = append(errs, fmt.Errorf("room %q has no members", r.Name))
			continue
		}
		if len(r.index) != len(r.members) {
			errs = append(errs, fmt.Errorf("room %q member index out of sync", r.Name))
		}
		if !r.Has(r.Admin) {
			errs = append(errs, fmt.Errorf("room %q admin %q is not a member", r.Name, r.Admin))
		}
		for _, id := range r.members {
			if other, ok := seen[id]; ok {
				errs = append(errs, fmt.Errorf("connection %q is in rooms %q and %q", id, other, r.Name))
			}
			seen[id] = r.Name

			p, ok := e.conns.Get(id)
			switch {
			case !ok:
				errs = append(errs, fmt.Errorf("room %q member %q is not registered", r.Name, id))
			case !p.HasNickname():
				errs = append(errs, fmt.Errorf("room %q member %q has no nickname", r.Name, id))
			}
		}
	}

	if len(e.rooms.order) != len(e.rooms.rooms) {
		errs = append(errs, errors.New("room directory order out of sync"))
	}
	if len(e.conns.order) != len(e.conns.profiles) {
		errs = append(errs, errors.New("connection registry order out of sync"))
	}
	return errors.Join(errs...)
}
