package chat

import (
	"encoding/json"
	"log/slog"
)

// Sender delivers an encoded event to one connection. Send must not block and
// must not call back into the Engine; it reports false when the payload could
// not be queued.
type Sender interface {
	Send(connID string, payload []byte) bool
}

// dispatcher routes outbound events to one connection, one room, or every
// registered connection. It holds no state of its own and is only used with
// the Engine lock held.
type dispatcher struct {
	out    Sender
	conns  *Registry
	logger *slog.Logger
}

func (d *dispatcher) encode(ev Event) ([]byte, bool) {
	payload, err := json.Marshal(ev)
	if err != nil {
		d.logger.Error("encode event", "event", ev.Name, "error", err)
		return nil, false
	}
	return payload, true
}

func (d *dispatcher) toConn(id string, ev Event) {
	payload, ok := d.encode(ev)
	if !ok {
		return
	}
	d.deliver(id, ev.Name, payload)
}

// toRoom delivers to every current member of room.
func (d *dispatcher) toRoom(room *Room, ev Event) {
	payload, ok := d.encode(ev)
	if !ok {
		return
	}
	for _, id := range room.members {
		d.deliver(id, ev.Name, payload)
	}
}

func (d *dispatcher) toAll(ev Event) {
	payload, ok := d.encode(ev)
	if !ok {
		return
	}
	for _, id := range d.conns.order {
		d.deliver(id, ev.Name, payload)
	}
}

func (d *dispatcher) deliver(id, name string, payload []byte) {
	if !d.out.Send(id, payload) {
		d.logger.Warn("dropped event for slow or closed connection", "conn", id, "event", name)
	}
}
