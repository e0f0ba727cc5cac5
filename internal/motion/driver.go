// Package motion defines the command surface pursuit uses to steer an agent
// and a kinematic host body implementing it.
package motion

import "github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/geom"

// AgentState is the host-owned pose of an agent, refreshed every tick.
type AgentState struct {
	Position geom.Vec3 `json:"position"`
	Rotation geom.Quat `json:"rotation"`
	Moving   bool      `json:"moving"`
}

// MoveOptions tunes a move command.
type MoveOptions struct {
	Speed                 float64
	FaceMovementDirection bool
}

// RotateOptions tunes a rotate command. A zero RotationTime lets the host pick
// its default turn duration.
type RotateOptions struct {
	RotationTime float64
}

// Driver issues motion commands to an agent and exposes its current pose.
// Every command is fire-and-forget except RotateTowards, which calls done once
// the rotation finishes or is superseded. done always runs on the goroutine
// that steps the host.
type Driver interface {
	Snapshot() (AgentState, bool)
	IsMoving() bool
	Stop()
	MoveTo(point geom.Vec3, opts MoveOptions)
	MoveAlong(waypoints []geom.Vec3, opts MoveOptions)
	RotateTowards(direction geom.Vec3, opts RotateOptions, done func())
	SetGazeTarget(point geom.Vec3)
	ClearGazeTarget()
}
