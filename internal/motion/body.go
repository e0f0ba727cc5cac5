package motion

import (
	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/geom"
)

const (
	// DefaultRotationTime is the turn duration used when a rotate command
	// leaves RotationTime unset.
	DefaultRotationTime = 0.5
	// WaypointReachedEpsilon is the distance at which a waypoint counts as
	// reached.
	WaypointReachedEpsilon = 0.1
)

// BodyConfig seeds a kinematic body.
type BodyConfig struct {
	Position            geom.Vec3
	Rotation            geom.Quat
	DefaultRotationTime float64
	ArriveEpsilon       float64
}

type turn struct {
	from     geom.Quat
	to       geom.Quat
	duration float64
	elapsed  float64
	done     func()
}

// Body is a kinematic agent driven entirely by motion commands. It is owned by
// the simulation goroutine and is not safe for concurrent use.
type Body struct {
	position  geom.Vec3
	rotation  geom.Quat
	available bool

	path         []geom.Vec3
	pathIndex    int
	speed        float64
	faceMovement bool

	turn    *turn
	pending []func()

	gaze    geom.Vec3
	hasGaze bool

	rotationTime  float64
	arriveEpsilon float64
}

var _ Driver = (*Body)(nil)

// NewBody constructs a body at the configured pose.
func NewBody(cfg BodyConfig) *Body {
	rotation := cfg.Rotation
	if rotation == (geom.Quat{}) {
		rotation = geom.Identity()
	}
	rotationTime := cfg.DefaultRotationTime
	if rotationTime <= 0 {
		rotationTime = DefaultRotationTime
	}
	epsilon := cfg.ArriveEpsilon
	if epsilon <= 0 {
		epsilon = WaypointReachedEpsilon
	}
	return &Body{
		position:      cfg.Position,
		rotation:      geom.NormalizeQuat(rotation),
		available:     true,
		rotationTime:  rotationTime,
		arriveEpsilon: epsilon,
	}
}

// Snapshot returns the current pose. It reports false while the body is
// unavailable, for example between despawn and respawn.
func (b *Body) Snapshot() (AgentState, bool) {
	if b == nil || !b.available {
		return AgentState{}, false
	}
	return AgentState{Position: b.position, Rotation: b.rotation, Moving: b.IsMoving()}, true
}

// SetAvailable toggles whether the body exposes a pose.
func (b *Body) SetAvailable(available bool) {
	b.available = available
}

// IsMoving reports whether a move command is still in flight.
func (b *Body) IsMoving() bool {
	return b != nil && b.pathIndex < len(b.path)
}

// Stop cancels any outstanding move command.
func (b *Body) Stop() {
	b.path = nil
	b.pathIndex = 0
	b.speed = 0
}

// MoveTo walks straight toward point.
func (b *Body) MoveTo(point geom.Vec3, opts MoveOptions) {
	b.MoveAlong([]geom.Vec3{point}, opts)
}

// MoveAlong walks through waypoints in order, replacing any current route.
func (b *Body) MoveAlong(waypoints []geom.Vec3, opts MoveOptions) {
	if len(waypoints) == 0 || opts.Speed <= 0 {
		b.Stop()
		return
	}
	b.path = append(b.path[:0:0], waypoints...)
	b.pathIndex = 0
	b.speed = opts.Speed
	b.faceMovement = opts.FaceMovementDirection
}

// RotateTowards turns the body to face direction on the horizontal plane. A
// rotation already in progress is superseded and its done callback runs on
// the next Step.
func (b *Body) RotateTowards(direction geom.Vec3, opts RotateOptions, done func()) {
	if b.turn != nil {
		b.complete(b.turn.done)
		b.turn = nil
	}
	flat, ok := geom.Normalize(geom.Flatten(direction))
	if !ok {
		b.complete(done)
		return
	}
	target, ok := geom.LookRotation(flat, geom.Up)
	if !ok {
		b.complete(done)
		return
	}
	duration := opts.RotationTime
	if duration <= 0 {
		duration = b.rotationTime
	}
	b.turn = &turn{from: b.rotation, to: target, duration: duration, done: done}
}

// Turning reports whether a rotation is in progress.
func (b *Body) Turning() bool {
	return b.turn != nil
}

// SetGazeTarget aims the body's head at point.
func (b *Body) SetGazeTarget(point geom.Vec3) {
	b.gaze = point
	b.hasGaze = true
}

// ClearGazeTarget releases any gaze target.
func (b *Body) ClearGazeTarget() {
	b.gaze = geom.Vec3{}
	b.hasGaze = false
}

// Gaze returns the active gaze target.
func (b *Body) Gaze() (geom.Vec3, bool) {
	return b.gaze, b.hasGaze
}

// Route returns the waypoints still to be visited.
func (b *Body) Route() []geom.Vec3 {
	if !b.IsMoving() {
		return nil
	}
	remaining := make([]geom.Vec3, len(b.path)-b.pathIndex)
	copy(remaining, b.path[b.pathIndex:])
	return remaining
}

// Step advances movement and rotation by dt seconds, then runs any rotation
// callbacks that became due.
func (b *Body) Step(dt float64) {
	if b == nil || dt <= 0 {
		b.flush()
		return
	}
	b.advancePath(dt)
	b.advanceTurn(dt)
	b.flush()
}

func (b *Body) advancePath(dt float64) {
	budget := b.speed * dt
	for b.pathIndex < len(b.path) {
		node := b.path[b.pathIndex]
		delta := geom.Vec3{X: node.X - b.position.X, Y: node.Y - b.position.Y, Z: node.Z - b.position.Z}
		dist := geom.Length(delta)
		if dist <= b.arriveEpsilon {
			b.position = node
			b.pathIndex++
			continue
		}
		if budget <= 0 {
			break
		}
		if b.faceMovement && b.turn == nil {
			if facing, ok := geom.LookRotation(geom.Flatten(delta), geom.Up); ok {
				b.rotation = facing
			}
		}
		if dist <= budget {
			b.position = node
			budget -= dist
			b.pathIndex++
			continue
		}
		scale := budget / dist
		b.position = geom.Vec3{
			X: b.position.X + delta.X*scale,
			Y: b.position.Y + delta.Y*scale,
			Z: b.position.Z + delta.Z*scale,
		}
		budget = 0
	}
	if b.pathIndex >= len(b.path) {
		b.Stop()
	}
}

func (b *Body) advanceTurn(dt float64) {
	if b.turn == nil {
		return
	}
	b.turn.elapsed += dt
	progress := b.turn.elapsed / b.turn.duration
	if progress < 1 {
		b.rotation = geom.Slerp(b.turn.from, b.turn.to, progress)
		return
	}
	b.rotation = b.turn.to
	done := b.turn.done
	b.turn = nil
	b.complete(done)
}

func (b *Body) complete(done func()) {
	if done == nil {
		return
	}
	b.pending = append(b.pending, done)
}

func (b *Body) flush() {
	if b == nil || len(b.pending) == 0 {
		return
	}
	due := b.pending
	b.pending = nil
	for _, done := range due {
		done()
	}
}
