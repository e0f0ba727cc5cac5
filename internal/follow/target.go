package follow

import (
	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/geom"
)

// EyeDrop is the distance, per unit of avatar scale, between an avatar's head
// origin and its eye line.
const EyeDrop = 0.4

// TargetKind enumerates the variants a Target can hold.
type TargetKind uint8

const (
	TargetNone TargetKind = iota
	TargetPoint
	TargetEntity
)

func (k TargetKind) String() string {
	switch k {
	case TargetNone:
		return "none"
	case TargetPoint:
		return "point"
	case TargetEntity:
		return "entity"
	default:
		return "unknown"
	}
}

// Entity is a live, moving target such as a player avatar. Position and Gaze
// report false while the entity has no pose.
type Entity interface {
	ID() string
	Name() string
	Position() (geom.Vec3, bool)
	Gaze() (geom.Vec3, bool)
}

// Target is the closed set of things a controller can follow. The zero value
// is no target.
type Target struct {
	kind   TargetKind
	id     string
	point  geom.Vec3
	entity Entity
}

// NoTarget clears pursuit.
func NoTarget() Target {
	return Target{}
}

// PointTarget follows a fixed world position.
func PointTarget(id string, point geom.Vec3) Target {
	return Target{kind: TargetPoint, id: id, point: point}
}

// EntityTarget follows a live entity. A nil entity yields no target.
func EntityTarget(entity Entity) Target {
	if entity == nil {
		return Target{}
	}
	return Target{kind: TargetEntity, id: entity.ID(), entity: entity}
}

func (t Target) Kind() TargetKind {
	return t.kind
}

func (t Target) IsNone() bool {
	return t.kind == TargetNone
}

// ID returns the point or entity identifier.
func (t Target) ID() string {
	return t.id
}

// Label returns a human readable name for logs.
func (t Target) Label() string {
	switch t.kind {
	case TargetEntity:
		if name := t.entity.Name(); name != "" {
			return name
		}
		return t.id
	case TargetPoint:
		if t.id != "" {
			return t.id
		}
		return "point"
	default:
		return ""
	}
}

// Position returns the world position to pursue.
func (t Target) Position() (geom.Vec3, bool) {
	switch t.kind {
	case TargetPoint:
		return t.point, true
	case TargetEntity:
		return t.entity.Position()
	default:
		return geom.Vec3{}, false
	}
}

// GazePoint returns where a looking agent should aim. Only entities have one.
func (t Target) GazePoint() (geom.Vec3, bool) {
	if t.kind != TargetEntity {
		return geom.Vec3{}, false
	}
	return t.entity.Gaze()
}

// Same reports whether t and other name the same target.
func (t Target) Same(other Target) bool {
	if t.kind != other.kind {
		return false
	}
	switch t.kind {
	case TargetPoint:
		return t.id == other.id && t.point == other.point
	case TargetEntity:
		return t.id == other.id
	default:
		return true
	}
}

// EyePosition converts an avatar head position into its eye line.
func EyePosition(head geom.Vec3, avatarScale float64) geom.Vec3 {
	if avatarScale <= 0 {
		avatarScale = 1
	}
	head.Y -= EyeDrop * avatarScale
	return head
}
