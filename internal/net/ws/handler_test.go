package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/net/proto"
	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/sim"
	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/telemetry"
	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/logging"
)

type fakeIntake struct {
	mu       sync.Mutex
	commands []sim.Command
	reject   string
	snapshot sim.Snapshot
}

func (f *fakeIntake) Enqueue(cmd sim.Command) (bool, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reject != "" {
		return false, f.reject
	}
	f.commands = append(f.commands, cmd)
	return true, ""
}

func (f *fakeIntake) Latest() sim.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshot
}

func (f *fakeIntake) received() []sim.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sim.Command(nil), f.commands...)
}

type frame struct {
	Type     string       `json:"type"`
	Seq      uint64       `json:"seq"`
	Reason   string       `json:"reason"`
	Retry    bool         `json:"retry"`
	Snapshot sim.Snapshot `json:"snapshot"`
}

func startServer(t *testing.T, queue *fakeIntake, metrics *logging.Metrics) (*Hub, *websocket.Conn) {
	t.Helper()
	hub := NewHub(nil, telemetry.WrapMetrics(metrics), nil)
	handler := NewHandler(queue, hub, HandlerConfig{})
	srv := httptest.NewServer(http.HandlerFunc(handler.Handle))
	t.Cleanup(srv.Close)

	conn, resp, err := websocket.DefaultDialer.Dial(websocketURL(t, srv.URL, "tester"), nil)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		t.Fatalf("failed to open websocket connection: %v", err)
	}
	t.Cleanup(func() {
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
		if resp != nil {
			resp.Body.Close()
		}
	})
	return hub, conn
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	var f frame
	require.NoError(t, json.Unmarshal(payload, &f))
	return f
}

func TestHandleSendsInitialState(t *testing.T) {
	intake := &fakeIntake{snapshot: sim.Snapshot{Tick: 42, Agents: []sim.AgentSnapshot{{ID: "guard"}}}}
	metrics := &logging.Metrics{}
	hub, conn := startServer(t, intake, metrics)

	initial := readFrame(t, conn)
	assert.Equal(t, proto.TypeState, initial.Type)
	assert.Equal(t, uint64(42), initial.Snapshot.Tick)
	assert.Equal(t, 1, hub.Sessions())
	assert.Equal(t, uint64(1), metrics.Snapshot()[telemetry.MetricWebsocketSessions])
}

func TestHandleEnqueuesFollowTarget(t *testing.T) {
	intake := &fakeIntake{snapshot: sim.Snapshot{Tick: 7}}
	_, conn := startServer(t, intake, &logging.Metrics{})
	readFrame(t, conn)

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":    proto.TypeSetFollowTarget,
		"seq":     1,
		"agentId": "guard",
		"target":  map[string]any{"kind": "entity", "id": "p1"},
	}))
	ack := readFrame(t, conn)
	assert.Equal(t, proto.TypeCommandAck, ack.Type)
	assert.Equal(t, uint64(1), ack.Seq)

	commands := intake.received()
	require.Len(t, commands, 1)
	cmd := commands[0]
	assert.Equal(t, sim.CommandSetFollowTarget, cmd.Type)
	assert.Equal(t, "tester", cmd.ActorID)
	assert.Equal(t, uint64(7), cmd.OriginTick)
	assert.False(t, cmd.IssuedAt.IsZero())
	assert.Equal(t, &sim.FollowTargetCommand{AgentID: "guard", Target: sim.TargetSpec{Kind: "entity", ID: "p1"}}, cmd.Follow)
}

func TestHandleRejectsCommands(t *testing.T) {
	intake := &fakeIntake{}
	_, conn := startServer(t, intake, &logging.Metrics{})
	readFrame(t, conn)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":`)))
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "teleport", "seq": 2}))
	reject := readFrame(t, conn)
	assert.Equal(t, proto.TypeCommandReject, reject.Type)
	assert.Equal(t, uint64(2), reject.Seq)
	assert.False(t, reject.Retry)

	intake.mu.Lock()
	intake.reject = sim.CommandRejectQueueLimit
	intake.mu.Unlock()
	require.NoError(t, conn.WriteJSON(map[string]any{"type": proto.TypeRemoveEntity, "id": "p1", "seq": 3}))
	reject = readFrame(t, conn)
	assert.Equal(t, uint64(3), reject.Seq)
	assert.Equal(t, sim.CommandRejectQueueLimit, reject.Reason)
	assert.True(t, reject.Retry)
	assert.Empty(t, intake.received())
}

func TestBroadcastReachesSessions(t *testing.T) {
	intake := &fakeIntake{}
	hub, conn := startServer(t, intake, &logging.Metrics{})
	readFrame(t, conn)

	hub.Broadcast(sim.Snapshot{Tick: 99})
	update := readFrame(t, conn)
	assert.Equal(t, proto.TypeState, update.Type)
	assert.Equal(t, uint64(99), update.Snapshot.Tick)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	assert.Eventually(t, func() bool { return hub.Sessions() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func websocketURL(t *testing.T, baseURL, actor string) string {
	t.Helper()

	parsed, err := url.Parse(baseURL)
	if err != nil {
		t.Fatalf("failed to parse test server url: %v", err)
	}
	parsed.Scheme = "ws"
	query := parsed.Query()
	query.Set("actor", actor)
	parsed.RawQuery = query.Encode()
	return parsed.String()
}
