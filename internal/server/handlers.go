// Package server exposes HTTP handlers, including WebSocket upgrades, health
// checks, stats, and the built-in test page.
package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     checkOrigin,
}

// ServeWS handles WebSocket upgrade requests. It validates that the request
// uses the GET method, upgrades the HTTP connection, assigns the connection a
// fresh ID, and registers the client with the hub, which launches its pumps.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "addr", r.RemoteAddr, "error", err)
		return
	}

	client := NewClient(uuid.NewString(), conn, h, r.RemoteAddr)

	select {
	case h.register <- client:
	case <-h.ctx.Done():
		_ = conn.Close()
	}
}

// StatsHandler reports the number of rooms, connections and room members.
func (h *Hub) StatsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.engine.Stats()); err != nil {
		h.logger.Warn("write stats response", "error", err)
	}
}

// HealthHandler provides a simple health check endpoint that returns server status.
// It responds with a plain text message indicating the server is running.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "GoChat server is running!")
}

// TestPageHandler serves an HTML page for exercising the room protocol by hand:
// set a nickname, create or join rooms, chat, list members and kick.
func TestPageHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	if _, err := fmt.Fprint(w, testPage); err != nil {
		slog.Warn("write HTML response", "error", err)
	}
}

const testPage = `<!DOCTYPE html>
<html>
<head>
    <title>GoChat Rooms Test</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        #log {
            border: 1px solid #ccc;
            height: 300px;
            padding: 10px;
            overflow-y: scroll;
            margin: 10px 0;
            background-color: #f9f9f9;
            font-family: monospace;
        }
        #rooms { margin: 10px 0; }
        input[type="text"], input[type="password"], input[type="number"] {
            padding: 5px;
            margin-right: 5px;
        }
        button {
            padding: 5px 15px;
            background-color: #007cba;
            color: white;
            border: none;
            cursor: pointer;
        }
        button:hover { background-color: #005a87; }
        .status { margin: 10px 0; padding: 5px; border-radius: 3px; }
        .connected { background-color: #d4edda; color: #155724; }
        .disconnected { background-color: #f8d7da; color: #721c24; }
    </style>
</head>
<body>
    <h1>GoChat Rooms Test</h1>

    <div id="status" class="status disconnected">Disconnected</div>
    <button id="connectButton" onclick="toggleConnection()">Connect</button>

    <div>
        <input type="text" id="nickname" placeholder="Nickname">
        <button onclick="send('set nickname', {nickname: val('nickname')})">Set nickname</button>
    </div>
    <div>
        <input type="text" id="roomName" placeholder="Room">
        <input type="password" id="password" placeholder="Password">
        <input type="number" id="maxUsers" placeholder="Max users" min="0">
        <button onclick="createRoom()">Create</button>
        <button onclick="send('join room', {roomName: val('roomName'), password: val('password')})">Join</button>
        <button onclick="send('leave room', {roomName: val('roomName')})">Leave</button>
        <button onclick="send('get users', {roomName: val('roomName')})">Users</button>
    </div>
    <div>
        <input type="text" id="message" placeholder="Message">
        <button onclick="send('chat message', {room: val('roomName'), msg: val('message')})">Send</button>
        <input type="text" id="userId" placeholder="User ID">
        <button onclick="send('kick user', {roomName: val('roomName'), userId: val('userId')})">Kick</button>
    </div>

    <div id="rooms"></div>
    <div id="log"></div>

    <script>
        let ws = null;
        const logDiv = document.getElementById('log');
        const roomsDiv = document.getElementById('rooms');
        const statusDiv = document.getElementById('status');
        const connectButton = document.getElementById('connectButton');

        function val(id) { return document.getElementById(id).value.trim(); }

        function addLine(text, color) {
            const line = document.createElement('div');
            line.style.color = color || 'gray';
            line.textContent = text;
            logDiv.appendChild(line);
            logDiv.scrollTop = logDiv.scrollHeight;
        }

        function showRooms(rooms) {
            roomsDiv.textContent = 'Rooms: ' + (rooms || []).map(function(r) {
                const cap = r.maxUsers === null ? '' : '/' + r.maxUsers;
                return r.name + (r.hasPassword ? ' (locked)' : '') + ' ' + r.currentUsers + cap;
            }).join(', ');
        }

        function updateStatus(connected) {
            statusDiv.textContent = connected ? 'Connected' : 'Disconnected';
            statusDiv.className = 'status ' + (connected ? 'connected' : 'disconnected');
            connectButton.textContent = connected ? 'Disconnect' : 'Connect';
        }

        function connect() {
            const scheme = location.protocol === 'https:' ? 'wss://' : 'ws://';
            ws = new WebSocket(scheme + location.host + '/ws');
            ws.onopen = function() { addLine('connected'); updateStatus(true); };
            ws.onmessage = function(event) {
                const frame = JSON.parse(event.data);
                if (frame.event === 'update rooms') {
                    showRooms(frame.data);
                    return;
                }
                addLine(frame.event + ' ' + JSON.stringify(frame.data === undefined ? null : frame.data), 'green');
            };
            ws.onclose = function() { addLine('connection closed'); updateStatus(false); ws = null; };
            ws.onerror = function() { addLine('connection error'); };
        }

        function toggleConnection() {
            if (ws && ws.readyState === WebSocket.OPEN) {
                ws.close();
            } else {
                connect();
            }
        }

        function send(event, data) {
            if (!ws || ws.readyState !== WebSocket.OPEN) {
                addLine('not connected');
                return;
            }
            ws.send(JSON.stringify({event: event, data: data}));
            addLine('> ' + event + ' ' + JSON.stringify(data), 'blue');
        }

        function createRoom() {
            const max = parseInt(val('maxUsers'), 10);
            send('create room', {roomName: val('roomName'), password: val('password'), maxUsers: isNaN(max) ? 0 : max});
        }
    </script>
</body>
</html>`
