package chat_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/gochat-rooms/internal/chat"
)

// delivery is one decoded outbound frame as seen by a connection.
type delivery struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// recorder is a chat.Sender that keeps everything it is given.
type recorder struct {
	mu     sync.Mutex
	got    map[string][]delivery
	reject map[string]bool
}

func newRecorder() *recorder {
	return &recorder{got: make(map[string][]delivery), reject: make(map[string]bool)}
}

func (r *recorder) Send(id string, payload []byte) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.reject[id] {
		return false
	}
	var d delivery
	if err := json.Unmarshal(payload, &d); err != nil {
		panic(err)
	}
	r.got[id] = append(r.got[id], d)
	return true
}

func (r *recorder) of(id string) []delivery {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]delivery(nil), r.got[id]...)
}

func (r *recorder) names(id string) []string {
	var out []string
	for _, d := range r.of(id) {
		out = append(out, d.Event)
	}
	return out
}

func (r *recorder) count(id, event string) int {
	n := 0
	for _, d := range r.of(id) {
		if d.Event == event {
			n++
		}
	}
	return n
}

// last returns the most recent delivery of event to id.
func (r *recorder) last(t *testing.T, id, event string) delivery {
	t.Helper()
	got := r.of(id)
	for i := len(got) - 1; i >= 0; i-- {
		if got[i].Event == event {
			return got[i]
		}
	}
	require.Failf(t, "event not delivered", "%s never received %q (got %v)", id, event, r.names(id))
	return delivery{}
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = make(map[string][]delivery)
}

func decode[T any](t *testing.T, d delivery) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(d.Data, &v))
	return v
}

// journal records every change handed to it.
type journal struct {
	mu      sync.Mutex
	changes []chat.Change
}

func (j *journal) Record(c chat.Change) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.changes = append(j.changes, c)
}

func (j *journal) kinds() []chat.ChangeKind {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]chat.ChangeKind, 0, len(j.changes))
	for _, c := range j.changes {
		out = append(out, c.Kind)
	}
	return out
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(t *testing.T) (*chat.Engine, *recorder) {
	t.Helper()
	rec := newRecorder()
	e := chat.NewEngine(rec, chat.Options{Logger: testLogger()})
	t.Cleanup(func() {
		require.NoError(t, e.Verify())
	})
	return e, rec
}

// connect registers id and gives it a nickname.
func connect(t *testing.T, e *chat.Engine, id, nickname string) {
	t.Helper()
	e.Connect(id)
	require.NoError(t, e.SetNickname(id, nickname))
}
