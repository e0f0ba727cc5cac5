package sim

import (
	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/follow"
	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/geom"
)

// AgentSnapshot is the broadcast view of one pursuing agent.
type AgentSnapshot struct {
	ID       string          `json:"id"`
	Position geom.Vec3       `json:"position"`
	Rotation geom.Quat       `json:"rotation"`
	Moving   bool            `json:"moving"`
	Gaze     *geom.Vec3      `json:"gaze,omitempty"`
	Route    []geom.Vec3     `json:"route,omitempty"`
	LastLine string          `json:"lastLine,omitempty"`
	Pursuit  follow.Snapshot `json:"pursuit"`
}

// EntitySnapshot is the broadcast view of a followable entity.
type EntitySnapshot struct {
	ID          string    `json:"id"`
	Name        string    `json:"name,omitempty"`
	Position    geom.Vec3 `json:"position"`
	Head        geom.Vec3 `json:"head"`
	AvatarScale float64   `json:"avatarScale"`
	NPC         bool      `json:"npc,omitempty"`
}

// PointSnapshot is a named static target.
type PointSnapshot struct {
	ID       string    `json:"id"`
	Position geom.Vec3 `json:"position"`
}

// Snapshot captures the world after a tick.
type Snapshot struct {
	Tick     uint64           `json:"tick"`
	Agents   []AgentSnapshot  `json:"agents"`
	Entities []EntitySnapshot `json:"entities"`
	Points   []PointSnapshot  `json:"points,omitempty"`
}
