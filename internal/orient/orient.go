// Package orient computes the angular error between an agent's facing and the
// facing implied by a displacement.
package orient

import (
	"math"

	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/geom"
)

// AngleBetween returns the unsigned angle in degrees, within [0, 180], between
// rotations q1 and q2. q and -q describe the same rotation and compare equal.
func AngleBetween(q1, q2 geom.Quat) float64 {
	a := geom.NormalizeQuat(q1)
	b := geom.NormalizeQuat(q2)
	dot := geom.Clamp(math.Abs(geom.Dot(a, b)), -1, 1)
	return 2 * math.Acos(dot) * (180 / math.Pi)
}

// LookDirection returns the Y-up look rotation along the horizontal part of
// displacement. ok is false when the flattened displacement has no length.
func LookDirection(displacement geom.Vec3) (rotation geom.Quat, ok bool) {
	flat, ok := geom.Normalize(geom.Flatten(displacement))
	if !ok {
		return geom.Identity(), false
	}
	return geom.LookRotation(flat, geom.Up)
}

// AngleToward reports how far, in degrees, facing must turn to look along
// displacement. ok is false when the displacement carries no horizontal
// direction.
func AngleToward(facing geom.Quat, displacement geom.Vec3) (degrees float64, ok bool) {
	desired, ok := LookDirection(displacement)
	if !ok {
		return 0, false
	}
	return AngleBetween(facing, desired), true
}
