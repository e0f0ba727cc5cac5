// Package follow drives an agent that pursues a single target. A Controller
// reads the agent pose every tick, low-pass filters the horizontal distance to
// its target into an urgency value and classifies that urgency into a regime
// that decides which motion commands to issue.
package follow

import (
	"context"
	"errors"
	"fmt"

	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/geom"
	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/motion"
	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/nav"
	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/orient"
	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/telemetry"
	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/logging"
	pursuitlog "github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/logging/pursuit"
)

// Speaker voices the one-shot give-up line.
type Speaker interface {
	Speak(agentID, line string)
}

// SpeakerFunc adapts a function into a Speaker.
type SpeakerFunc func(agentID, line string)

func (f SpeakerFunc) Speak(agentID, line string) {
	if f == nil {
		return
	}
	f(agentID, line)
}

// AgentResolver hands out the motion driver of an agent by ID.
type AgentResolver interface {
	Driver(ctx context.Context, agentID string) (motion.Driver, error)
}

// Status is the initialization state of a controller.
type Status uint8

const (
	StatusUninitialized Status = iota
	StatusReady
	StatusInert
)

func (s Status) String() string {
	switch s {
	case StatusUninitialized:
		return "uninitialized"
	case StatusReady:
		return "ready"
	case StatusInert:
		return "inert"
	default:
		return "unknown"
	}
}

// Options wires a controller to its agent and to the diagnostics stack.
type Options struct {
	AgentID   string
	Config    Config
	Publisher logging.Publisher
	Logger    telemetry.Logger
	Metrics   telemetry.Metrics
	Speaker   Speaker
}

// Snapshot is a read-only view of a controller for transport and debugging.
type Snapshot struct {
	AgentID string       `json:"agentId"`
	Status  string       `json:"status"`
	Target  string       `json:"target,omitempty"`
	Kind    string       `json:"targetKind"`
	Regime  string       `json:"regime"`
	State   RuntimeState `json:"state"`
}

// Controller is the pursuit state machine of one agent. It is driven by a
// single tick goroutine and is not safe for concurrent use.
type Controller struct {
	agentID string
	cfg     Config

	publisher logging.Publisher
	logger    telemetry.Logger
	metrics   telemetry.Metrics
	speaker   Speaker

	status Status
	driver motion.Driver
	mesh   nav.Mesh

	state   RuntimeState
	target  Target
	pending *Target

	tick       uint64
	lastRegime Regime
	initErr    error
}

// New validates the configuration and returns an uninitialized controller.
func New(opts Options) (*Controller, error) {
	if opts.AgentID == "" {
		return nil, fmt.Errorf("%w: agent id is required", ErrInvalidConfig)
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}
	publisher := opts.Publisher
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	logger := opts.Logger
	if logger == nil {
		logger = telemetry.Discard()
	}
	return &Controller{
		agentID:   opts.AgentID,
		cfg:       opts.Config,
		publisher: publisher,
		logger:    logger,
		metrics:   opts.Metrics,
		speaker:   opts.Speaker,
		state:     NewRuntimeState(opts.Config.InitialUrgency),
	}, nil
}

// Init resolves the agent driver and, when nav-mesh pursuit is configured, the
// navigation profile. Any failure leaves the controller permanently inert.
func (c *Controller) Init(ctx context.Context, agents AgentResolver, meshes nav.Resolver) error {
	switch c.status {
	case StatusReady:
		return nil
	case StatusInert:
		return c.initErr
	}
	if agents == nil {
		return c.fail(ctx, "", errors.New("no agent resolver"))
	}
	driver, err := agents.Driver(ctx, c.agentID)
	if err != nil {
		return c.fail(ctx, "", err)
	}
	if driver == nil {
		return c.fail(ctx, "", errors.New("agent resolved to nil driver"))
	}
	var mesh nav.Mesh
	if c.cfg.UseNavMesh {
		profile := c.cfg.navProfile()
		if profile == "" {
			return c.fail(ctx, profile, fmt.Errorf("%w: empty profile name", nav.ErrProfileNotFound))
		}
		if meshes == nil {
			return c.fail(ctx, profile, fmt.Errorf("%w: no navigation service", nav.ErrProfileNotFound))
		}
		mesh, err = meshes.Lookup(ctx, profile)
		if err != nil {
			return c.fail(ctx, profile, err)
		}
	}
	c.driver = driver
	c.mesh = mesh
	c.status = StatusReady
	return nil
}

func (c *Controller) fail(ctx context.Context, profile string, cause error) error {
	c.status = StatusInert
	c.initErr = fmt.Errorf("%w: agent %s: %w", ErrInitialization, c.agentID, cause)
	c.logger.Printf("[follow] agent=%s disabled: %v", c.agentID, cause)
	pursuitlog.InitFailed(ctx, c.publisher, c.tick, c.actor(), pursuitlog.InitFailedPayload{
		Profile: profile,
		Reason:  cause.Error(),
	}, nil)
	return c.initErr
}

// Ready returns nil once Init succeeded, ErrNotInitialized before Init and the
// initialization error after a failed Init.
func (c *Controller) Ready() error {
	switch c.status {
	case StatusReady:
		return nil
	case StatusInert:
		return c.initErr
	default:
		return ErrNotInitialized
	}
}

func (c *Controller) AgentID() string {
	return c.agentID
}

func (c *Controller) Config() Config {
	return c.cfg
}

// State returns a copy of the runtime state.
func (c *Controller) State() RuntimeState {
	return c.state
}

// Target returns the target currently in effect. An assignment made since the
// last tick is not visible until the next Update.
func (c *Controller) Target() Target {
	return c.target
}

// SetTarget queues target to replace the current one at the start of the next
// Update. Only the latest assignment survives.
func (c *Controller) SetTarget(target Target) {
	c.pending = &target
}

// Snapshot reports the controller for transport.
func (c *Controller) Snapshot() Snapshot {
	return Snapshot{
		AgentID: c.agentID,
		Status:  c.status.String(),
		Target:  c.target.Label(),
		Kind:    c.target.Kind().String(),
		Regime:  c.lastRegime.String(),
		State:   c.state,
	}
}

// Update runs one pursuit tick and returns the regime it acted on. Ticks that
// are aborted because a pose could not be read report RegimeIdle.
func (c *Controller) Update(ctx context.Context, tick uint64, dt float64) Regime {
	c.tick = tick
	if c.status != StatusReady {
		return RegimeIdle
	}
	c.applyPending(ctx)
	if c.target.IsNone() {
		c.noteRegime(ctx, RegimeIdle)
		return RegimeIdle
	}

	agent, ok := c.driver.Snapshot()
	if !ok {
		c.unavailable(ctx, "agent")
		return RegimeIdle
	}
	targetPos, ok := c.target.Position()
	if !ok {
		c.unavailable(ctx, "target")
		return RegimeIdle
	}

	if gaze, ok := c.target.GazePoint(); ok && c.cfg.EnableLookAt {
		c.driver.SetGazeTarget(gaze)
	} else {
		c.driver.ClearGazeTarget()
	}

	displacement := geom.HorizontalDelta(agent.Position, targetPos)
	urgency := c.state.Smooth(geom.Length(displacement), c.cfg.SmoothingFactor(dt))
	angle, hasDirection := orient.AngleToward(agent.Rotation, displacement)

	regime := Classify(urgency, c.cfg.FollowDistance, c.cfg.AbandonDistance)
	switch regime {
	case RegimeArrived:
		c.state.Abandoned = false
		if c.driver.IsMoving() {
			c.driver.Stop()
		} else if !c.state.TurningInPlace && c.cfg.RotateToTarget && hasDirection && angle > c.cfg.RotateInPlaceThresholdDegrees {
			c.rotateInPlace(displacement)
		}
	case RegimePursuing:
		c.state.Abandoned = false
		c.pursue(ctx, agent, targetPos, displacement, hasDirection)
	case RegimeAbandoned:
		if !c.state.Abandoned {
			c.state.Abandoned = true
			c.giveUp(ctx, urgency)
		}
	}
	c.noteRegime(ctx, regime)
	return regime
}

func (c *Controller) applyPending(ctx context.Context) {
	if c.pending == nil {
		return
	}
	next := *c.pending
	c.pending = nil
	if next.Same(c.target) {
		c.target = next
		return
	}
	previous := c.target
	c.target = next
	if next.IsNone() {
		c.logger.Printf("[follow] agent=%s is no longer following %s", c.agentID, previous.Label())
		pursuitlog.TargetCleared(ctx, c.publisher, c.tick, c.actor(), pursuitlog.TargetClearedPayload{
			Previous: previous.Label(),
		}, nil)
		return
	}
	c.logger.Printf("[follow] agent=%s now following %s", c.agentID, next.Label())
	pursuitlog.TargetAssigned(ctx, c.publisher, c.tick, c.actor(), targetRef(next), pursuitlog.TargetAssignedPayload{
		Kind: next.Kind().String(),
		Name: next.Label(),
	}, nil)
}

func (c *Controller) pursue(ctx context.Context, agent motion.AgentState, targetPos, displacement geom.Vec3, hasDirection bool) {
	speed := c.cfg.Speed(c.state.SmoothedUrgency)
	if c.cfg.RotateToTarget && speed > c.cfg.MinTurnSpeed && hasDirection {
		c.driver.RotateTowards(displacement, motion.RotateOptions{RotationTime: c.cfg.MoveRotationTime}, nil)
	}
	var route []geom.Vec3
	if c.mesh != nil {
		var ok bool
		route, ok = c.route(ctx, agent.Position, targetPos)
		if !ok {
			return
		}
	}
	opts := motion.MoveOptions{Speed: speed, FaceMovementDirection: false}
	if route != nil {
		c.driver.MoveAlong(route, opts)
		return
	}
	c.driver.MoveTo(targetPos, opts)
}

// route queries the navigation profile from scratch. Failures skip movement
// for this tick only.
func (c *Controller) route(ctx context.Context, from, to geom.Vec3) ([]geom.Vec3, bool) {
	goal, ok := c.mesh.NearestPoint(to, c.cfg.NavSearchRadius)
	if !ok {
		c.navFailure(ctx, "nearest_point", nav.ErrNoNearestPoint)
		return nil, false
	}
	waypoints, ok := c.mesh.Path(from, goal)
	if !ok || len(waypoints) == 0 {
		c.navFailure(ctx, "path", nav.ErrNoPath)
		return nil, false
	}
	return waypoints, true
}

func (c *Controller) navFailure(ctx context.Context, query string, err error) {
	c.logger.Printf("[follow] agent=%s tick=%d skipped movement: %v", c.agentID, c.tick, err)
	if c.metrics != nil {
		c.metrics.Add(telemetry.MetricNavQueryFailures, 1)
	}
	pursuitlog.NavQueryFailed(ctx, c.publisher, c.tick, c.actor(), pursuitlog.NavQueryFailedPayload{
		Query:   query,
		Profile: c.cfg.navProfile(),
		Reason:  err.Error(),
	}, nil)
}

func (c *Controller) unavailable(ctx context.Context, subject string) {
	c.logger.Printf("[follow] agent=%s tick=%d %s position unavailable", c.agentID, c.tick, subject)
	pursuitlog.PositionUnavailable(ctx, c.publisher, c.tick, c.actor(), pursuitlog.PositionUnavailablePayload{
		Subject: subject,
	}, nil)
}

func (c *Controller) rotateInPlace(displacement geom.Vec3) {
	token := c.state.BeginTurn()
	if c.metrics != nil {
		c.metrics.Add(telemetry.MetricRotationsIssued, 1)
	}
	c.driver.RotateTowards(displacement, motion.RotateOptions{}, func() {
		c.state.FinishTurn(token)
	})
}

func (c *Controller) giveUp(ctx context.Context, urgency float64) {
	line := c.cfg.GiveUpLine
	if c.speaker != nil && line != "" {
		c.speaker.Speak(c.agentID, line)
	}
	if c.metrics != nil {
		c.metrics.Add(telemetry.MetricAbandons, 1)
	}
	c.logger.Printf("[follow] agent=%s gave up on %s (urgency %.2f)", c.agentID, c.target.Label(), urgency)
	pursuitlog.Abandoned(ctx, c.publisher, c.tick, c.actor(), pursuitlog.AbandonedPayload{
		Urgency:         urgency,
		AbandonDistance: c.cfg.AbandonDistance,
		Line:            line,
	}, nil)
}

func (c *Controller) noteRegime(ctx context.Context, regime Regime) {
	if regime == c.lastRegime {
		return
	}
	pursuitlog.RegimeChanged(ctx, c.publisher, c.tick, c.actor(), pursuitlog.RegimeChangedPayload{
		From:    c.lastRegime.String(),
		To:      regime.String(),
		Urgency: c.state.SmoothedUrgency,
	}, nil)
	c.lastRegime = regime
}

func (c *Controller) actor() logging.EntityRef {
	return logging.EntityRef{ID: c.agentID, Kind: logging.EntityKindAgent}
}

func targetRef(target Target) logging.EntityRef {
	switch target.Kind() {
	case TargetEntity:
		return logging.EntityRef{ID: target.ID(), Kind: logging.EntityKindEntity}
	case TargetPoint:
		return logging.EntityRef{ID: target.ID(), Kind: logging.EntityKindPoint}
	default:
		return logging.EntityRef{Kind: logging.EntityKindUnknown}
	}
}
