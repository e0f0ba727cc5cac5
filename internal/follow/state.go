package follow

import "github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/geom"

// Regime is the per-tick classification of pursuit.
type Regime uint8

const (
	RegimeIdle Regime = iota
	RegimeArrived
	RegimePursuing
	RegimeAbandoned
)

func (r Regime) String() string {
	switch r {
	case RegimeIdle:
		return "idle"
	case RegimeArrived:
		return "arrived"
	case RegimePursuing:
		return "pursuing"
	case RegimeAbandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}

// RuntimeState is the mutable pursuit state of one controller. Only the
// controller's Update and its rotation callbacks touch it.
type RuntimeState struct {
	SmoothedUrgency float64 `json:"smoothedUrgency"`
	TurningInPlace  bool    `json:"turningInPlace"`
	Abandoned       bool    `json:"abandoned"`
	RotationToken   uint64  `json:"rotationToken"`
}

// NewRuntimeState seeds urgency so the first tick does not read as arrived.
func NewRuntimeState(initialUrgency float64) RuntimeState {
	return RuntimeState{SmoothedUrgency: initialUrgency}
}

// Smooth moves the urgency toward raw by factor.
func (s *RuntimeState) Smooth(raw, factor float64) float64 {
	s.SmoothedUrgency = geom.Lerp(s.SmoothedUrgency, raw, geom.Clamp(factor, 0, 1))
	return s.SmoothedUrgency
}

// BeginTurn marks an in-place rotation as outstanding and returns the token
// its completion must present.
func (s *RuntimeState) BeginTurn() uint64 {
	s.RotationToken++
	s.TurningInPlace = true
	return s.RotationToken
}

// FinishTurn clears the in-place flag when token belongs to the most recent
// rotation. Completions of superseded rotations are ignored.
func (s *RuntimeState) FinishTurn(token uint64) bool {
	if token != s.RotationToken {
		return false
	}
	s.TurningInPlace = false
	return true
}

// Classify maps urgency onto a regime. followDistance itself is pursuing and
// abandonDistance itself is abandoned.
func Classify(urgency, followDistance, abandonDistance float64) Regime {
	switch {
	case urgency < followDistance:
		return RegimeArrived
	case urgency < abandonDistance:
		return RegimePursuing
	default:
		return RegimeAbandoned
	}
}

// DynamicSpeed biases speed one unit above the follow boundary and clamps the
// result to [minSpeed, maxSpeed].
func DynamicSpeed(urgency, followDistance, minSpeed, maxSpeed float64) float64 {
	return geom.Clamp(urgency-followDistance+1, minSpeed, maxSpeed)
}
