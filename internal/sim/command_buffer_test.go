package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/telemetry"
	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/logging"
)

func followCmd(actor, agent, target string) Command {
	return Command{
		ActorID: actor,
		Type:    CommandSetFollowTarget,
		Follow:  &FollowTargetCommand{AgentID: agent, Target: TargetSpec{Kind: TargetKindEntity, ID: target}},
	}
}

func actors(commands []Command) []string {
	ids := make([]string, len(commands))
	for i, cmd := range commands {
		ids[i] = cmd.ActorID
	}
	return ids
}

func TestCommandBufferFIFOAndCapacity(t *testing.T) {
	buffer := NewCommandBuffer(3, nil)
	for _, actor := range []string{"a", "b", "c"} {
		require.True(t, buffer.Push(Command{ActorID: actor, Type: CommandUpsertEntity}))
	}
	assert.False(t, buffer.Push(Command{ActorID: "overflow", Type: CommandUpsertEntity}))
	assert.Equal(t, []string{"a", "b", "c"}, actors(buffer.Drain()))
	assert.Nil(t, buffer.Drain())

	require.True(t, buffer.Push(Command{ActorID: "d"}))
	require.True(t, buffer.Push(Command{ActorID: "e"}))
	assert.Equal(t, []string{"d", "e"}, actors(buffer.Drain()))
}

func TestCommandBufferSupersedesFollowTargets(t *testing.T) {
	metrics := &logging.Metrics{}
	buffer := NewCommandBuffer(4, telemetry.WrapMetrics(metrics))

	require.True(t, buffer.Push(followCmd("1", "guard", "p1")))
	require.True(t, buffer.Push(Command{ActorID: "2", Type: CommandUpsertEntity, Entity: &EntityCommand{ID: "p2"}}))
	require.True(t, buffer.Push(followCmd("3", "scout", "p1")))
	require.True(t, buffer.Push(followCmd("4", "guard", "p2")))

	drained := buffer.Drain()
	assert.Equal(t, []string{"2", "3", "4"}, actors(drained))
	assert.Equal(t, "p2", drained[2].Follow.Target.ID)

	require.True(t, buffer.Push(followCmd("5", "guard", "p1")))
	require.True(t, buffer.Push(followCmd("6", "scout", "p1")))
	require.True(t, buffer.Push(followCmd("7", "", "p3")))
	assert.Equal(t, []string{"7"}, actors(buffer.Drain()))
	assert.Equal(t, uint64(3), metrics.Snapshot()[commandBufferSupersededMetricKey])
}

func TestCommandBufferSupersedingFreesCapacity(t *testing.T) {
	buffer := NewCommandBuffer(1, nil)
	require.True(t, buffer.Push(followCmd("a", "guard", "p1")))
	assert.True(t, buffer.Push(followCmd("b", "guard", "p2")))
	assert.False(t, buffer.Push(followCmd("c", "scout", "p2")))
	assert.Equal(t, 1, buffer.Len())
}

func TestCommandBufferMetrics(t *testing.T) {
	metrics := &logging.Metrics{}
	buffer := NewCommandBuffer(1, telemetry.WrapMetrics(metrics))
	require.True(t, buffer.Push(Command{ActorID: "one"}))
	assert.False(t, buffer.Push(Command{ActorID: "two"}))

	snapshot := metrics.Snapshot()
	assert.Equal(t, uint64(1), snapshot[commandBufferOverflowMetricKey])
	assert.Equal(t, uint64(1), snapshot[commandBufferOccupancyMetricKey])

	buffer.Drain()
	assert.Zero(t, metrics.Snapshot()[commandBufferOccupancyMetricKey])
}

func TestTargetSpecValidate(t *testing.T) {
	cases := []struct {
		name string
		spec TargetSpec
		ok   bool
	}{
		{"empty is none", TargetSpec{}, true},
		{"named point", TargetSpec{Kind: "Point", ID: "flag"}, true},
		{"bare point", TargetSpec{Kind: "point"}, false},
		{"entity", TargetSpec{Kind: "entity", ID: "p1"}, true},
		{"entity without id", TargetSpec{Kind: "entity"}, false},
		{"unknown", TargetSpec{Kind: "ghost"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.spec.Validate()
			if tc.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tc.ok && err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
