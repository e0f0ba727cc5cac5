package follow

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	// ErrInvalidConfig reports a Config that fails Validate.
	ErrInvalidConfig = errors.New("follow: invalid config")
	// ErrInitialization reports a controller that could not resolve its
	// collaborators and is now permanently inert.
	ErrInitialization = errors.New("follow: initialization failed")
	// ErrNotInitialized reports a controller that has not completed Init yet.
	ErrNotInitialized = errors.New("follow: controller not initialized")
)

const (
	DefaultFollowDistance                = 3.0
	DefaultAbandonDistance               = 6.0
	DefaultRotateInPlaceThresholdDegrees = 30.0
	DefaultMinSpeed                      = 1.0
	DefaultMaxSpeed                      = 6.0
	DefaultSpeedSmoothingFactor          = 0.1
	DefaultSpeed                         = 2.5
	DefaultNavSearchRadius               = 2.0
	DefaultMoveRotationTime              = 0.1
	DefaultMinTurnSpeed                  = 0.5
	DefaultInitialUrgency                = 4.5
	DefaultSmoothingReferenceHz          = 60.0
	DefaultGiveUpLine                    = "Hey, could you slow down a bit for me?"
)

// Config tunes one pursuit controller. It is treated as immutable once the
// controller has been constructed.
type Config struct {
	FollowDistance                float64 `json:"followDistance" jsonschema:"description=Urgency below which the agent counts as arrived,minimum=0"`
	AbandonDistance               float64 `json:"abandonDistance" jsonschema:"description=Urgency at or above which the agent gives up; must exceed followDistance"`
	RotateToTarget                bool    `json:"rotateToTarget" jsonschema:"description=Turn toward the target while arrived and while pursuing"`
	RotateInPlaceThresholdDegrees float64 `json:"rotateInPlaceThresholdDegrees" jsonschema:"minimum=0,maximum=180"`
	UseDynamicSpeed               bool    `json:"useDynamicSpeed" jsonschema:"description=Scale pursuit speed with urgency"`
	MinSpeed                      float64 `json:"minSpeed" jsonschema:"minimum=0"`
	MaxSpeed                      float64 `json:"maxSpeed" jsonschema:"minimum=0"`
	SpeedSmoothingFactor          float64 `json:"speedSmoothingFactor" jsonschema:"description=Per-tick low-pass factor applied to urgency,minimum=0,exclusiveMinimum=true,maximum=1"`
	DefaultSpeed                  float64 `json:"defaultSpeed" jsonschema:"description=Pursuit speed when dynamic speed is off,minimum=0"`
	EnableLookAt                  bool    `json:"enableLookAt" jsonschema:"description=Aim the agent's gaze at the target's eyes"`
	UseNavMesh                    bool    `json:"useNavMesh" jsonschema:"description=Route pursuit through the navigation profile"`
	NavProfile                    string  `json:"navProfile,omitempty" jsonschema:"description=Navigation profile resolved at initialization"`
	NavSearchRadius               float64 `json:"navSearchRadius" jsonschema:"description=Radius of the nearest navigable point query,minimum=0,exclusiveMinimum=true"`
	MoveRotationTime              float64 `json:"moveRotationTime" jsonschema:"description=Seconds for the rotation issued while pursuing,minimum=0"`
	MinTurnSpeed                  float64 `json:"minTurnSpeed" jsonschema:"description=Pursuit speed above which the agent turns while moving,minimum=0"`
	InitialUrgency                float64 `json:"initialUrgency" jsonschema:"description=Urgency seed used before the first tick,minimum=0,exclusiveMinimum=true"`
	TimeScaledSmoothing           bool    `json:"timeScaledSmoothing" jsonschema:"description=Scale the smoothing factor by elapsed time instead of applying it once per tick"`
	SmoothingReferenceHz          float64 `json:"smoothingReferenceHz,omitempty" jsonschema:"description=Tick rate at which speedSmoothingFactor is defined when time scaled"`
	GiveUpLine                    string  `json:"giveUpLine,omitempty" jsonschema:"description=Line spoken once when pursuit is abandoned"`
}

// DefaultConfig returns the stock pursuit tuning.
func DefaultConfig() Config {
	return Config{
		FollowDistance:                DefaultFollowDistance,
		AbandonDistance:               DefaultAbandonDistance,
		RotateToTarget:                true,
		RotateInPlaceThresholdDegrees: DefaultRotateInPlaceThresholdDegrees,
		UseDynamicSpeed:               true,
		MinSpeed:                      DefaultMinSpeed,
		MaxSpeed:                      DefaultMaxSpeed,
		SpeedSmoothingFactor:          DefaultSpeedSmoothingFactor,
		DefaultSpeed:                  DefaultSpeed,
		NavSearchRadius:               DefaultNavSearchRadius,
		MoveRotationTime:              DefaultMoveRotationTime,
		MinTurnSpeed:                  DefaultMinTurnSpeed,
		InitialUrgency:                DefaultInitialUrgency,
		SmoothingReferenceHz:          DefaultSmoothingReferenceHz,
		GiveUpLine:                    DefaultGiveUpLine,
	}
}

// Validate reports the first inconsistency in c, wrapped in ErrInvalidConfig.
func (c Config) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"followDistance", c.FollowDistance},
		{"abandonDistance", c.AbandonDistance},
		{"rotateInPlaceThresholdDegrees", c.RotateInPlaceThresholdDegrees},
		{"minSpeed", c.MinSpeed},
		{"maxSpeed", c.MaxSpeed},
		{"speedSmoothingFactor", c.SpeedSmoothingFactor},
		{"defaultSpeed", c.DefaultSpeed},
		{"navSearchRadius", c.NavSearchRadius},
		{"moveRotationTime", c.MoveRotationTime},
		{"minTurnSpeed", c.MinTurnSpeed},
		{"initialUrgency", c.InitialUrgency},
		{"smoothingReferenceHz", c.SmoothingReferenceHz},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("%w: %s must be finite", ErrInvalidConfig, f.name)
		}
		if f.value < 0 {
			return fmt.Errorf("%w: %s must not be negative, got %v", ErrInvalidConfig, f.name, f.value)
		}
	}
	switch {
	case c.AbandonDistance <= c.FollowDistance:
		return fmt.Errorf("%w: abandonDistance %v must exceed followDistance %v", ErrInvalidConfig, c.AbandonDistance, c.FollowDistance)
	case c.InitialUrgency <= 0:
		return fmt.Errorf("%w: initialUrgency must be positive", ErrInvalidConfig)
	case c.SpeedSmoothingFactor <= 0 || c.SpeedSmoothingFactor > 1:
		return fmt.Errorf("%w: speedSmoothingFactor %v must be in (0, 1]", ErrInvalidConfig, c.SpeedSmoothingFactor)
	case c.RotateInPlaceThresholdDegrees > 180:
		return fmt.Errorf("%w: rotateInPlaceThresholdDegrees %v exceeds 180", ErrInvalidConfig, c.RotateInPlaceThresholdDegrees)
	case c.UseDynamicSpeed && c.MinSpeed > c.MaxSpeed:
		return fmt.Errorf("%w: minSpeed %v exceeds maxSpeed %v", ErrInvalidConfig, c.MinSpeed, c.MaxSpeed)
	case c.UseNavMesh && c.NavSearchRadius <= 0:
		return fmt.Errorf("%w: navSearchRadius must be positive when useNavMesh is set", ErrInvalidConfig)
	case c.TimeScaledSmoothing && c.SmoothingReferenceHz <= 0:
		return fmt.Errorf("%w: smoothingReferenceHz must be positive when timeScaledSmoothing is set", ErrInvalidConfig)
	}
	return nil
}

// Speed returns the pursuit speed for urgency.
func (c Config) Speed(urgency float64) float64 {
	if !c.UseDynamicSpeed {
		return c.DefaultSpeed
	}
	return DynamicSpeed(urgency, c.FollowDistance, c.MinSpeed, c.MaxSpeed)
}

// SmoothingFactor returns the urgency smoothing factor to apply for a tick
// that advanced dt seconds.
func (c Config) SmoothingFactor(dt float64) float64 {
	f := c.SpeedSmoothingFactor
	if !c.TimeScaledSmoothing || dt <= 0 {
		return f
	}
	scaled := 1 - math.Pow(1-f, dt*c.SmoothingReferenceHz)
	if scaled <= 0 {
		return math.SmallestNonzeroFloat64
	}
	return math.Min(scaled, 1)
}

func (c Config) navProfile() string {
	return strings.TrimSpace(c.NavProfile)
}
