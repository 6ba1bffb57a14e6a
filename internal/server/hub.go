// Package server coordinates client registration, inbound actions, and
// connection cleanup for the chat server via the Hub type.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/Tyrowin/gochat-rooms/internal/chat"
)

// action is one client frame waiting for the hub loop. err is set when the
// frame could not be decoded. disconnect marks the client's last entry.
type action struct {
	client     *Client
	envelope   Envelope
	err        error
	disconnect bool
}

// Hub owns every live WebSocket client and feeds their actions to the chat
// engine one at a time. A client's frames and its disconnect share one
// queue, so its actions are applied in the order they were read and its
// disconnect is applied after all of them.
type Hub struct {
	clients    map[string]*Client
	engine     *chat.Engine
	inbound  chan action
	register chan *Client
	mutex    sync.RWMutex
	failedMu sync.Mutex
	failed   []*Client
	logger   *slog.Logger
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewHub creates a Hub with its own chat engine. opts.Logger defaults to
// logger.
func NewHub(logger *slog.Logger, opts chat.Options) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Logger == nil {
		opts.Logger = logger
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		clients:  make(map[string]*Client),
		inbound:  make(chan action, 256),
		register: make(chan *Client),
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	h.engine = chat.NewEngine(h, opts)
	return h
}

// Engine returns the hub's chat engine.
func (h *Hub) Engine() *chat.Engine {
	return h.engine
}

// ClientCount returns the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// Send queues payload for the client with the given ID without blocking. A
// client whose buffer is full is scheduled for disconnection once the
// current action has finished.
func (h *Hub) Send(connID string, payload []byte) bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	client, exists := h.clients[connID]
	if !exists || client.closed {
		return false
	}

	select {
	case client.send <- payload:
		return true
	default:
		h.failedMu.Lock()
		h.failed = append(h.failed, client)
		h.failedMu.Unlock()
		return false
	}
}

// Run starts the hub's main event loop. It returns after Shutdown is called.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownClients()
			return

		case client := <-h.register:
			if client == nil {
				h.logger.Warn("received nil client registration; skipping")
				continue
			}
			h.addClient(client)

		case a := <-h.inbound:
			if a.disconnect {
				h.removeClient(a.client, "connection closed")
			} else {
				h.handleAction(a)
			}
		}

		h.dropFailedClients()
	}
}

func (h *Hub) addClient(client *Client) {
	h.mutex.Lock()
	client.closed = false
	h.clients[client.id] = client
	clientCount := len(h.clients)
	h.mutex.Unlock()

	h.engine.Connect(client.id)
	h.logger.Info("client registered", "conn", client.id, "addr", client.addr, "clients", clientCount)

	if client.conn == nil {
		return
	}
	h.wg.Add(2)
	go func() {
		defer h.wg.Done()
		client.writePump()
	}()
	go func() {
		defer h.wg.Done()
		client.readPump()
	}()
}

// removeClient closes the client's send channel and runs the disconnect
// sequence. Removing a client twice is a no-op.
func (h *Hub) removeClient(client *Client, reason string) {
	h.mutex.Lock()
	if current, ok := h.clients[client.id]; !ok || current != client {
		h.mutex.Unlock()
		return
	}
	delete(h.clients, client.id)
	client.closed = true
	clientCount := len(h.clients)
	h.mutex.Unlock()

	// Close the channel after releasing the lock
	close(client.send)
	h.engine.Disconnect(client.id)
	h.logger.Info("client unregistered", "conn", client.id, "addr", client.addr, "reason", reason, "clients", clientCount)
}

// dropFailedClients disconnects clients whose send buffer overflowed. A
// disconnect can overflow further buffers, so it loops until none are left.
func (h *Hub) dropFailedClients() {
	for {
		h.failedMu.Lock()
		failed := h.failed
		h.failed = nil
		h.failedMu.Unlock()

		if len(failed) == 0 {
			return
		}
		for _, client := range failed {
			h.removeClient(client, "send buffer full")
		}
	}
}

func (h *Hub) handleAction(a action) {
	h.mutex.RLock()
	current, ok := h.clients[a.client.id]
	h.mutex.RUnlock()
	if !ok || current != a.client {
		return
	}

	id := a.client.id
	if a.err != nil {
		h.sendError(id, chat.CodeBadRequest, a.err.Error())
		return
	}

	data := a.envelope.Data
	var err error

	switch a.envelope.Event {
	case chat.EventSetNickname:
		var nickname string
		if nickname, err = decodeNickname(data); err == nil {
			err = h.engine.SetNickname(id, nickname)
		}
	case chat.EventCreateRoom:
		var p createRoomPayload
		if err = decodeData(data, &p); err == nil {
			err = h.engine.CreateOrJoin(id, p.RoomName, p.Password, p.MaxUsers)
		}
	case chat.EventJoinRoom:
		var p joinRoomPayload
		if err = decodeData(data, &p); err == nil {
			err = h.engine.Join(id, p.RoomName, p.Password)
		}
	case chat.EventLeaveRoom:
		var room string
		if room, err = decodeRoomName(data); err == nil {
			err = h.engine.Leave(id, room)
		}
	case chat.EventChatMessage:
		var p chatPayload
		if err = decodeData(data, &p); err == nil {
			err = h.engine.Chat(id, p.Room, p.Msg)
		}
	case chat.EventKickUser:
		var p kickPayload
		if err = decodeData(data, &p); err == nil {
			err = h.engine.Kick(id, p.RoomName, p.UserID)
		}
	case chat.EventGetUsers:
		var room string
		if room, err = decodeRoomName(data); err == nil {
			_, err = h.engine.ListMembers(id, room)
		}
	default:
		h.sendError(id, chat.CodeUnknownEvent, "unknown event "+a.envelope.Event)
		return
	}

	switch {
	case err == nil:
	case errors.Is(err, errBadPayload):
		h.sendError(id, chat.CodeBadRequest, err.Error())
	default:
		h.logger.Debug("action rejected", "conn", id, "event", a.envelope.Event, "error", err)
	}
}

func (h *Hub) sendError(connID, code, message string) {
	payload, err := json.Marshal(chat.Event{
		Name: chat.EventError,
		Data: chat.ErrorPayload{Code: code, Message: message},
	})
	if err != nil {
		h.logger.Error("encode error event", "error", err)
		return
	}
	h.Send(connID, payload)
}

// enqueue hands a decoded frame to the Run loop. It gives up once the hub is
// shutting down.
func (h *Hub) enqueue(a action) bool {
	if h.ctx.Err() != nil {
		return false
	}
	select {
	case h.inbound <- a:
		return true
	case <-h.ctx.Done():
		return false
	}
}

// leave queues the client's disconnect behind every frame it already handed
// to enqueue.
func (h *Hub) leave(client *Client) {
	h.enqueue(action{client: client, disconnect: true})
}

// shutdownClients stops every client's write pump and closes its connection.
func (h *Hub) shutdownClients() {
	h.logger.Info("shutting down all client connections")

	h.mutex.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for id, client := range h.clients {
		clients = append(clients, client)
		delete(h.clients, id)
		client.closed = true
		close(client.send)
	}
	h.mutex.Unlock()

	for _, client := range clients {
		if client.conn == nil {
			continue
		}
		if err := client.conn.Close(); err != nil && !isExpectedCloseError(err) {
			h.logger.Warn("error closing client connection", "addr", client.addr, "error", err)
		}
	}

	h.logger.Info("closed client connections", "count", len(clients))
}

// Shutdown initiates graceful shutdown of the hub and waits for all goroutines to complete.
// It returns after all client connections are closed and goroutines have finished,
// or when the timeout is reached.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.logger.Info("initiating hub shutdown")

	h.cancel()
	<-h.done

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.logger.Info("hub shutdown completed")
		return nil
	case <-time.After(timeout):
		h.logger.Warn("hub shutdown timeout reached, some goroutines may still be running")
		return context.DeadlineExceeded
	}
}
