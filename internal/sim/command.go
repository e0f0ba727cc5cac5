package sim

import (
	"fmt"
	"strings"
	"time"

	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/geom"
)

// CommandType enumerates the supported simulation commands.
type CommandType string

const (
	CommandSetFollowTarget CommandType = "SetFollowTarget"
	CommandUpsertEntity    CommandType = "UpsertEntity"
	CommandRemoveEntity    CommandType = "RemoveEntity"
)

// Target kinds accepted by FollowTargetCommand.
const (
	TargetKindNone   = "none"
	TargetKindPoint  = "point"
	TargetKindEntity = "entity"
)

// TargetSpec names what an agent should follow. Point targets reference a
// named point by ID or carry an explicit position.
type TargetSpec struct {
	Kind     string     `json:"kind"`
	ID       string     `json:"id,omitempty"`
	Position *geom.Vec3 `json:"position,omitempty"`
}

// Normalized lowercases the kind and maps an empty kind to none.
func (t TargetSpec) Normalized() TargetSpec {
	t.Kind = strings.ToLower(strings.TrimSpace(t.Kind))
	if t.Kind == "" {
		t.Kind = TargetKindNone
	}
	t.ID = strings.TrimSpace(t.ID)
	return t
}

// Validate rejects specs that cannot resolve to any target.
func (t TargetSpec) Validate() error {
	t = t.Normalized()
	switch t.Kind {
	case TargetKindNone:
		return nil
	case TargetKindPoint:
		if t.ID == "" && t.Position == nil {
			return fmt.Errorf("point target needs an id or a position")
		}
		return nil
	case TargetKindEntity:
		if t.ID == "" {
			return fmt.Errorf("entity target needs an id")
		}
		return nil
	default:
		return fmt.Errorf("unknown target kind %q", t.Kind)
	}
}

// FollowTargetCommand assigns a target to one agent, or to every agent when
// AgentID is empty.
type FollowTargetCommand struct {
	AgentID string     `json:"agentId,omitempty"`
	Target  TargetSpec `json:"target"`
}

// EntityCommand creates or refreshes a followable entity.
type EntityCommand struct {
	ID          string    `json:"id"`
	Name        string    `json:"name,omitempty"`
	Position    geom.Vec3 `json:"position"`
	Head        geom.Vec3 `json:"head"`
	AvatarScale float64   `json:"avatarScale,omitempty"`
	// NPC entities never set off trigger zones.
	NPC bool `json:"npc,omitempty"`
}

// RemoveEntityCommand despawns an entity.
type RemoveEntityCommand struct {
	ID string `json:"id"`
}

// Command represents an intent captured for processing on the next tick.
type Command struct {
	OriginTick uint64               `json:"originTick"`
	ActorID    string               `json:"actorId"`
	Type       CommandType          `json:"type"`
	IssuedAt   time.Time            `json:"issuedAt"`
	Follow     *FollowTargetCommand `json:"follow,omitempty"`
	Entity     *EntityCommand       `json:"entity,omitempty"`
	Remove     *RemoveEntityCommand `json:"remove,omitempty"`
}
