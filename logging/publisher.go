package logging

import (
	"context"
	"maps"
	"slices"
	"time"
)

type EventType string

type Severity int

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarn
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarn:
		return "warn"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

type EntityKind string

const (
	EntityKindUnknown EntityKind = "unknown"
	EntityKindAgent   EntityKind = "agent"
	EntityKindEntity  EntityKind = "entity"
	EntityKindPoint   EntityKind = "point"
	EntityKindWorld   EntityKind = "world"
)

type Event struct {
	Type      EventType      `json:"type"`
	Tick      uint64         `json:"tick"`
	Time      time.Time      `json:"time"`
	Actor     EntityRef      `json:"actor"`
	Targets   []EntityRef    `json:"targets,omitempty"`
	Severity  Severity       `json:"severity"`
	Category  string         `json:"category,omitempty"`
	Payload   any            `json:"payload,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
	TraceID   string         `json:"traceId,omitempty"`
	CommandID string         `json:"commandId,omitempty"`
}

type EntityRef struct {
	ID   string     `json:"id"`
	Kind EntityKind `json:"kind"`
}

const (
	CategoryPursuit    = "pursuit"
	CategorySimulation = "simulation"
	CategoryTransport  = "transport"
	CategorySystem     = "system"
)

// Clock reports the current time for event stamping.
type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time {
	return f()
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

type Publisher interface {
	Publish(ctx context.Context, event Event)
}

type PublisherFunc func(ctx context.Context, event Event)

func (f PublisherFunc) Publish(ctx context.Context, event Event) {
	if f == nil {
		return
	}
	f(ctx, event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, Event) {}

func NopPublisher() Publisher {
	return nopPublisher{}
}

// fieldPublisher stamps fixed fields onto events before forwarding them.
type fieldPublisher struct {
	next   Publisher
	fields map[string]any
}

func (p *fieldPublisher) Publish(ctx context.Context, event Event) {
	if p.next != nil {
		p.next.Publish(ctx, mergeFields(event, p.fields))
	}
}

// mergeFields returns a copy of event whose Extra also carries fields. Keys
// already set on the event win.
func mergeFields(event Event, fields map[string]any) Event {
	if len(fields) == 0 {
		return event
	}
	merged := cloneForFields(event)
	if merged.Extra == nil {
		merged.Extra = make(map[string]any, len(fields))
	}
	for k, v := range fields {
		if _, set := merged.Extra[k]; !set {
			merged.Extra[k] = v
		}
	}
	return merged
}

// cloneForFields copies the slices and maps a sink might retain.
func cloneForFields(event Event) Event {
	cloned := event
	cloned.Targets = slices.Clone(event.Targets)
	cloned.Extra = maps.Clone(event.Extra)
	return cloned
}

// WithFields wraps p so every event carries fields in Extra.
func WithFields(p Publisher, fields map[string]any) Publisher {
	switch {
	case p == nil:
		return NopPublisher()
	case len(fields) == 0:
		return p
	}
	return &fieldPublisher{next: p, fields: maps.Clone(fields)}
}

func (e Event) WithExtra(key string, value any) Event {
	if e.Extra == nil {
		e.Extra = make(map[string]any, 1)
	}
	e.Extra[key] = value
	return e
}
