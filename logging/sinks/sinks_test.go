package sinks

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/logging"
)

func sampleEvent() logging.Event {
	return logging.Event{
		Type:     "pursuit.abandoned",
		Tick:     12,
		Time:     time.Unix(100, 0).UTC(),
		Actor:    logging.EntityRef{ID: "npc-1", Kind: logging.EntityKindAgent},
		Targets:  []logging.EntityRef{{ID: "player-7", Kind: logging.EntityKindEntity}},
		Severity: logging.SeverityWarn,
		Category: logging.CategoryPursuit,
		Payload:  map[string]float64{"urgency": 6.2},
	}
}

func TestConsoleSinkFormatsLine(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf, logging.ConsoleConfig{Prefix: "[follow] "})

	require.NoError(t, sink.Write(sampleEvent()))

	line := buf.String()
	assert.True(t, strings.HasPrefix(line, "[follow] "))
	assert.Contains(t, line, `tick=12 warn pursuit.abandoned agent:npc-1 -> entity:player-7 {"urgency":6.2}`)

	buf.Reset()
	require.NoError(t, sink.Write(logging.Event{Type: "sim.started"}))
	assert.Contains(t, buf.String(), "tick=0 debug sim.started -")
}

func TestJSONSinkWritesNDJSON(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSON(&buf, 0)

	require.NoError(t, sink.Write(sampleEvent()))
	require.NoError(t, sink.Close(context.Background()))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "pursuit.abandoned", decoded["type"])
	assert.Equal(t, float64(12), decoded["tick"])
	assert.Equal(t, "pursuit", decoded["category"])
	assert.Equal(t, "warn", decoded["severity"])
	assert.Equal(t, "1970-01-01T00:01:40Z", decoded["time"])
}

func TestJSONSinkBuffersUntilClose(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSON(&buf, time.Hour)

	require.NoError(t, sink.Write(sampleEvent()))
	assert.Zero(t, buf.Len())
	require.NoError(t, sink.Close(context.Background()))
	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
}

func TestMemorySinkClonesEvents(t *testing.T) {
	sink := NewMemorySink()
	event := sampleEvent()
	event.Extra = map[string]any{"k": "v"}

	require.NoError(t, sink.Write(event))
	event.Extra["k"] = "mutated"
	event.Targets[0].ID = "mutated"

	events := sink.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "v", events[0].Extra["k"])
	assert.Equal(t, "player-7", events[0].Targets[0].ID)

	sink.Reset()
	assert.Empty(t, sink.Events())
}

func TestBoundedMemorySinkKeepsNewest(t *testing.T) {
	sink := NewBoundedMemorySink(2)
	for _, eventType := range []logging.EventType{"a", "b", "c", "b"} {
		require.NoError(t, sink.Write(logging.Event{Type: eventType}))
	}

	events := sink.Events()
	require.Len(t, events, 2)
	assert.Equal(t, logging.EventType("c"), events[0].Type)
	assert.Len(t, sink.OfType("b"), 1)
	assert.Empty(t, sink.OfType("a"))
}
