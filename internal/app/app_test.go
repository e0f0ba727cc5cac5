package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/config"
	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/follow"
	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/geom"
	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/net/proto"
	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/sim"
	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/telemetry"
	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/logging"
	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/logging/pursuit"
	loggingSinks "github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/logging/sinks"
)

func newTestApp(t *testing.T, mutate func(*config.Config)) *App {
	t.Helper()
	settings := config.Default()
	settings.Logging.EnabledSinks = []string{"memory"}
	if mutate != nil {
		mutate(&settings)
	}
	a, err := New(context.Background(), Config{Logger: telemetry.Discard(), Server: settings})
	require.NoError(t, err)
	t.Cleanup(func() { a.Close(context.Background()) })
	return a
}

func advance(a *App, from uint64, n int) uint64 {
	tick := from
	for i := 0; i < n; i++ {
		tick++
		a.Loop().Advance(sim.LoopTickContext{Tick: tick, Now: time.Now(), Delta: 1.0 / 30})
	}
	return tick
}

func TestTargetSignalDrivesPursuitEndToEnd(t *testing.T) {
	a := newTestApp(t, nil)
	handler := a.Handler()

	req := httptest.NewRequest(http.MethodPost, "/target", strings.NewReader(`{"target":{"kind":"point","id":"spawn"}}`))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	require.Equal(t, http.StatusAccepted, resp.Code, resp.Body.String())

	advance(a, 0, 240)

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/state", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	var state proto.State
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &state))
	require.Len(t, state.Snapshot.Agents, 1)
	agent := state.Snapshot.Agents[0]
	assert.Equal(t, "npc-1", agent.ID)
	assert.Equal(t, "spawn", agent.Pursuit.Target)
	assert.Equal(t, "arrived", agent.Pursuit.Regime)
	assert.Less(t, geom.Distance(agent.Position, geom.Vec3{Z: 5}), follow.DefaultFollowDistance)

	memory, ok := a.Router().Sink("memory").(*loggingSinks.MemorySink)
	require.True(t, ok)
	assert.Eventually(t, func() bool {
		assigned := memory.OfType(pursuit.EventTargetAssigned)
		return len(assigned) > 0 && assigned[0].Extra["instance"] == a.InstanceID()
	}, 2*time.Second, 10*time.Millisecond)
}

func TestMissingNavProfileDoesNotStopServer(t *testing.T) {
	a := newTestApp(t, func(cfg *config.Config) {
		cfg.World.Follow.UseNavMesh = true
		cfg.World.Follow.NavProfile = "nowhere"
	})
	ctrl, ok := a.World().Controller("npc-1")
	require.True(t, ok)
	assert.ErrorIs(t, ctrl.Ready(), follow.ErrInitialization)

	memory := a.Router().Sink("memory").(*loggingSinks.MemorySink)
	assert.Eventually(t, func() bool {
		failed := memory.OfType(pursuit.EventInitFailed)
		return len(failed) > 0 && failed[0].Severity == logging.SeverityError
	}, 2*time.Second, 10*time.Millisecond)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	settings := config.Default()
	settings.World.Agents = nil
	_, err := New(context.Background(), Config{Logger: telemetry.Discard(), Server: settings})
	assert.Error(t, err)
}

func TestServeStopsOnCancel(t *testing.T) {
	a := newTestApp(t, func(cfg *config.Config) { cfg.Addr = "127.0.0.1:0" })
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
}
