package proto

import (
	"encoding/json"
	"fmt"

	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/geom"
	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/sim"
)

const (
	// Version tracks the wire-protocol revision expected by clients.
	Version = 1

	typeState         = "state"
	typeCommandAck    = "commandAck"
	typeCommandReject = "commandReject"
)

// Client message type identifiers.
const (
	TypeSetFollowTarget = "setFollowTarget"
	TypeEntity          = "entity"
	TypeRemoveEntity    = "removeEntity"
)

// Exported aliases for outbound message type identifiers.
const (
	TypeState         = typeState
	TypeCommandAck    = typeCommandAck
	TypeCommandReject = typeCommandReject
)

// ClientMessage captures an inbound websocket message from the client.
type ClientMessage struct {
	Ver         int             `json:"ver,omitempty"`
	Type        string          `json:"type"`
	Seq         uint64          `json:"seq,omitempty"`
	AgentID     string          `json:"agentId,omitempty"`
	Target      *sim.TargetSpec `json:"target,omitempty"`
	ID          string          `json:"id,omitempty"`
	Name        string          `json:"name,omitempty"`
	Position    *geom.Vec3      `json:"position,omitempty"`
	Head        *geom.Vec3      `json:"head,omitempty"`
	AvatarScale float64         `json:"avatarScale,omitempty"`
	NPC         bool            `json:"npc,omitempty"`
}

// DecodeClientMessage converts raw websocket payloads into a structured message.
func DecodeClientMessage(payload []byte) (ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return msg, err
	}
	if msg.Ver == 0 {
		msg.Ver = Version
	}
	if msg.Ver != Version {
		return msg, fmt.Errorf("unsupported client protocol version %d", msg.Ver)
	}
	return msg, nil
}

// ClientCommand converts a client message into a simulation command. Origin
// metadata is populated by the transport when the command is enqueued.
func ClientCommand(msg ClientMessage) (sim.Command, error) {
	switch msg.Type {
	case TypeSetFollowTarget:
		target := sim.TargetSpec{Kind: sim.TargetKindNone}
		if msg.Target != nil {
			target = *msg.Target
		}
		if err := target.Validate(); err != nil {
			return sim.Command{}, err
		}
		return sim.Command{
			Type: sim.CommandSetFollowTarget,
			Follow: &sim.FollowTargetCommand{
				AgentID: msg.AgentID,
				Target:  target.Normalized(),
			},
		}, nil
	case TypeEntity:
		if msg.ID == "" {
			return sim.Command{}, fmt.Errorf("entity message needs an id")
		}
		if msg.Position == nil {
			return sim.Command{}, fmt.Errorf("entity %s needs a position", msg.ID)
		}
		cmd := &sim.EntityCommand{
			ID:          msg.ID,
			Name:        msg.Name,
			Position:    *msg.Position,
			AvatarScale: msg.AvatarScale,
			NPC:         msg.NPC,
		}
		if msg.Head != nil {
			cmd.Head = *msg.Head
		}
		return sim.Command{Type: sim.CommandUpsertEntity, Entity: cmd}, nil
	case TypeRemoveEntity:
		if msg.ID == "" {
			return sim.Command{}, fmt.Errorf("removeEntity message needs an id")
		}
		return sim.Command{Type: sim.CommandRemoveEntity, Remove: &sim.RemoveEntityCommand{ID: msg.ID}}, nil
	default:
		return sim.Command{}, fmt.Errorf("unknown message type %q", msg.Type)
	}
}

// State is the snapshot frame pushed after every tick.
type State struct {
	Ver        int          `json:"ver"`
	Type       string       `json:"type"`
	ServerTime int64        `json:"serverTime"`
	Snapshot   sim.Snapshot `json:"snapshot"`
}

// EncodeState renders a snapshot frame.
func EncodeState(snapshot sim.Snapshot, serverTime int64) ([]byte, error) {
	return json.Marshal(State{
		Ver:        Version,
		Type:       typeState,
		ServerTime: serverTime,
		Snapshot:   snapshot,
	})
}

// CommandAck describes an acknowledgement of an enqueued command.
type CommandAck struct {
	Seq uint64
}

// EncodeCommandAck renders a command acknowledgement response.
func EncodeCommandAck(msg CommandAck) ([]byte, error) {
	frame := struct {
		Ver  int    `json:"ver"`
		Type string `json:"type"`
		Seq  uint64 `json:"seq"`
	}{
		Ver:  Version,
		Type: typeCommandAck,
		Seq:  msg.Seq,
	}
	return json.Marshal(frame)
}

// CommandReject notifies the client that a command was refused.
type CommandReject struct {
	Seq    uint64
	Reason string
	Retry  bool
}

// EncodeCommandReject renders a command rejection response.
func EncodeCommandReject(msg CommandReject) ([]byte, error) {
	frame := struct {
		Ver    int    `json:"ver"`
		Type   string `json:"type"`
		Seq    uint64 `json:"seq,omitempty"`
		Reason string `json:"reason"`
		Retry  bool   `json:"retry,omitempty"`
	}{
		Ver:    Version,
		Type:   typeCommandReject,
		Seq:    msg.Seq,
		Reason: msg.Reason,
		Retry:  msg.Retry,
	}
	return json.Marshal(frame)
}
