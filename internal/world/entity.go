package world

import (
	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/follow"
	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/geom"
	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/sim"
)

// Entity is a player-like target whose pose is pushed in from outside.
type Entity struct {
	id          string
	name        string
	position    geom.Vec3
	head        geom.Vec3
	avatarScale float64
	npc         bool
	present     bool
}

var _ follow.Entity = (*Entity)(nil)

func (e *Entity) ID() string {
	return e.id
}

func (e *Entity) Name() string {
	return e.name
}

// Position reports false once the entity has been removed.
func (e *Entity) Position() (geom.Vec3, bool) {
	if !e.present {
		return geom.Vec3{}, false
	}
	return e.position, true
}

// Gaze returns the eye line below the head position.
func (e *Entity) Gaze() (geom.Vec3, bool) {
	if !e.present {
		return geom.Vec3{}, false
	}
	return follow.EyePosition(e.head, e.avatarScale), true
}

func (e *Entity) update(cmd sim.EntityCommand) {
	if cmd.Name != "" {
		e.name = cmd.Name
	}
	e.position = cmd.Position
	e.head = cmd.Head
	if e.head == (geom.Vec3{}) {
		e.head = cmd.Position
	}
	e.avatarScale = cmd.AvatarScale
	if e.avatarScale <= 0 {
		e.avatarScale = 1
	}
	e.npc = cmd.NPC
	e.present = true
}

func (e *Entity) snapshot() sim.EntitySnapshot {
	return sim.EntitySnapshot{
		ID:          e.id,
		Name:        e.name,
		Position:    e.position,
		Head:        e.head,
		AvatarScale: e.avatarScale,
		NPC:         e.npc,
	}
}
