package proto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/geom"
	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/sim"
)

func TestDecodeClientMessage(t *testing.T) {
	msg, err := DecodeClientMessage([]byte(`{"type":"setFollowTarget","agentId":"guard","target":{"kind":"Point","position":{"X":1,"Y":0,"Z":4}}}`))
	require.NoError(t, err)
	assert.Equal(t, Version, msg.Ver)
	assert.Equal(t, TypeSetFollowTarget, msg.Type)
	require.NotNil(t, msg.Target)
	require.NotNil(t, msg.Target.Position)
	assert.Equal(t, geom.Vec3{X: 1, Z: 4}, *msg.Target.Position)

	_, err = DecodeClientMessage([]byte(`{"ver":7,"type":"entity"}`))
	assert.Error(t, err)

	_, err = DecodeClientMessage([]byte(`{"type":`))
	assert.Error(t, err)
}

func TestClientCommand(t *testing.T) {
	t.Run("follow target", func(t *testing.T) {
		cmd, err := ClientCommand(ClientMessage{
			Type:    TypeSetFollowTarget,
			AgentID: "guard",
			Target:  &sim.TargetSpec{Kind: " Entity ", ID: "p1"},
		})
		require.NoError(t, err)
		assert.Equal(t, sim.CommandSetFollowTarget, cmd.Type)
		require.NotNil(t, cmd.Follow)
		assert.Equal(t, "guard", cmd.Follow.AgentID)
		assert.Equal(t, sim.TargetSpec{Kind: sim.TargetKindEntity, ID: "p1"}, cmd.Follow.Target)
	})

	t.Run("missing target clears", func(t *testing.T) {
		cmd, err := ClientCommand(ClientMessage{Type: TypeSetFollowTarget})
		require.NoError(t, err)
		assert.Equal(t, sim.TargetKindNone, cmd.Follow.Target.Kind)
	})

	t.Run("invalid target", func(t *testing.T) {
		_, err := ClientCommand(ClientMessage{Type: TypeSetFollowTarget, Target: &sim.TargetSpec{Kind: "entity"}})
		assert.Error(t, err)
	})

	t.Run("entity defaults head", func(t *testing.T) {
		cmd, err := ClientCommand(ClientMessage{Type: TypeEntity, ID: "p1", Name: "Player", Position: &geom.Vec3{X: 2}, AvatarScale: 1.2})
		require.NoError(t, err)
		require.NotNil(t, cmd.Entity)
		assert.Equal(t, sim.EntityCommand{ID: "p1", Name: "Player", Position: geom.Vec3{X: 2}, AvatarScale: 1.2}, *cmd.Entity)
	})

	t.Run("npc entity", func(t *testing.T) {
		cmd, err := ClientCommand(ClientMessage{Type: TypeEntity, ID: "minion", Position: &geom.Vec3{}, NPC: true})
		require.NoError(t, err)
		assert.True(t, cmd.Entity.NPC)
	})

	t.Run("entity without position", func(t *testing.T) {
		_, err := ClientCommand(ClientMessage{Type: TypeEntity, ID: "p1"})
		assert.Error(t, err)
	})

	t.Run("remove entity", func(t *testing.T) {
		cmd, err := ClientCommand(ClientMessage{Type: TypeRemoveEntity, ID: "p1"})
		require.NoError(t, err)
		assert.Equal(t, "p1", cmd.Remove.ID)
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := ClientCommand(ClientMessage{Type: "teleport"})
		assert.Error(t, err)
	})
}

func TestEncodeFrames(t *testing.T) {
	data, err := EncodeState(sim.Snapshot{Tick: 9, Agents: []sim.AgentSnapshot{{ID: "guard"}}}, 1234)
	require.NoError(t, err)
	var state State
	require.NoError(t, json.Unmarshal(data, &state))
	assert.Equal(t, TypeState, state.Type)
	assert.Equal(t, uint64(9), state.Snapshot.Tick)
	assert.Equal(t, int64(1234), state.ServerTime)

	data, err = EncodeCommandReject(CommandReject{Seq: 3, Reason: sim.CommandRejectQueueLimit, Retry: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ver":1,"type":"commandReject","seq":3,"reason":"queue_limit","retry":true}`, string(data))

	data, err = EncodeCommandAck(CommandAck{Seq: 4})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ver":1,"type":"commandAck","seq":4}`, string(data))
}
