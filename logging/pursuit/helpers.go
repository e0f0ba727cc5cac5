package pursuit

import (
	"context"

	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/logging"
)

const (
	// EventTargetAssigned is emitted when an agent starts following a target.
	EventTargetAssigned logging.EventType = "pursuit.target_assigned"
	// EventTargetCleared is emitted when an agent stops following.
	EventTargetCleared logging.EventType = "pursuit.target_cleared"
	// EventAbandoned is emitted once each time an agent gives up on its target.
	EventAbandoned logging.EventType = "pursuit.abandoned"
	// EventNavQueryFailed is emitted when a nearest-point or path query comes back empty.
	EventNavQueryFailed logging.EventType = "pursuit.nav_query_failed"
	// EventPositionUnavailable is emitted when the agent pose cannot be read mid-tick.
	EventPositionUnavailable logging.EventType = "pursuit.position_unavailable"
	// EventInitFailed is emitted when a controller cannot resolve its collaborators.
	EventInitFailed logging.EventType = "pursuit.init_failed"
	// EventRegimeChanged is emitted when the per-tick classification differs from the previous tick.
	EventRegimeChanged logging.EventType = "pursuit.regime_changed"
	// EventTriggerEntered is emitted when an entity walks into an agent's follow or speak zone.
	EventTriggerEntered logging.EventType = "pursuit.trigger_entered"
)

// TargetAssignedPayload describes the newly followed target.
type TargetAssignedPayload struct {
	Kind string `json:"kind"`
	Name string `json:"name,omitempty"`
}

// TargetClearedPayload records which target was dropped.
type TargetClearedPayload struct {
	Previous string `json:"previous,omitempty"`
}

// AbandonedPayload captures the urgency that triggered the give-up.
type AbandonedPayload struct {
	Urgency         float64 `json:"urgency"`
	AbandonDistance float64 `json:"abandonDistance"`
	Line            string  `json:"line,omitempty"`
}

// NavQueryFailedPayload describes a skipped movement tick.
type NavQueryFailedPayload struct {
	Query   string `json:"query"`
	Profile string `json:"profile,omitempty"`
	Reason  string `json:"reason"`
}

// PositionUnavailablePayload names the pose that could not be read.
type PositionUnavailablePayload struct {
	Subject string `json:"subject"`
}

// InitFailedPayload describes why a controller went inert.
type InitFailedPayload struct {
	Profile string `json:"profile,omitempty"`
	Reason  string `json:"reason"`
}

// RegimeChangedPayload captures a regime transition.
type RegimeChangedPayload struct {
	From    string  `json:"from"`
	To      string  `json:"to"`
	Urgency float64 `json:"urgency"`
}

// TriggerEnteredPayload names the zone and the line the agent spoke.
type TriggerEnteredPayload struct {
	Trigger string `json:"trigger"`
	Line    string `json:"line,omitempty"`
}

func publish(ctx context.Context, pub logging.Publisher, event logging.Event) {
	if pub == nil {
		return
	}
	event.Category = logging.CategoryPursuit
	pub.Publish(ctx, event)
}

// TargetAssigned publishes a target assignment.
func TargetAssigned(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, target logging.EntityRef, payload TargetAssignedPayload, extra map[string]any) {
	publish(ctx, pub, logging.Event{
		Type:     EventTargetAssigned,
		Tick:     tick,
		Actor:    actor,
		Targets:  []logging.EntityRef{target},
		Severity: logging.SeverityInfo,
		Payload:  payload,
		Extra:    extra,
	})
}

// TargetCleared publishes a target clear.
func TargetCleared(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload TargetClearedPayload, extra map[string]any) {
	publish(ctx, pub, logging.Event{
		Type:     EventTargetCleared,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Payload:  payload,
		Extra:    extra,
	})
}

// Abandoned publishes the one-shot give-up signal.
func Abandoned(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload AbandonedPayload, extra map[string]any) {
	publish(ctx, pub, logging.Event{
		Type:     EventAbandoned,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Payload:  payload,
		Extra:    extra,
	})
}

// NavQueryFailed publishes a warning for a transient navigation failure.
func NavQueryFailed(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload NavQueryFailedPayload, extra map[string]any) {
	publish(ctx, pub, logging.Event{
		Type:     EventNavQueryFailed,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityWarn,
		Payload:  payload,
		Extra:    extra,
	})
}

// PositionUnavailable publishes a warning for an aborted tick.
func PositionUnavailable(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload PositionUnavailablePayload, extra map[string]any) {
	publish(ctx, pub, logging.Event{
		Type:     EventPositionUnavailable,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityWarn,
		Payload:  payload,
		Extra:    extra,
	})
}

// InitFailed publishes an error when a controller becomes inert.
func InitFailed(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload InitFailedPayload, extra map[string]any) {
	publish(ctx, pub, logging.Event{
		Type:     EventInitFailed,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityError,
		Payload:  payload,
		Extra:    extra,
	})
}

// RegimeChanged publishes a debug event on regime transitions.
func RegimeChanged(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload RegimeChangedPayload, extra map[string]any) {
	publish(ctx, pub, logging.Event{
		Type:     EventRegimeChanged,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Payload:  payload,
		Extra:    extra,
	})
}

// TriggerEntered publishes an entity entering an agent's trigger zone.
func TriggerEntered(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, entrant logging.EntityRef, payload TriggerEnteredPayload, extra map[string]any) {
	publish(ctx, pub, logging.Event{
		Type:     EventTriggerEntered,
		Tick:     tick,
		Actor:    actor,
		Targets:  []logging.EntityRef{entrant},
		Severity: logging.SeverityInfo,
		Payload:  payload,
		Extra:    extra,
	})
}
