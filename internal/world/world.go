// Package world hosts pursuing agents, followable entities and named points,
// and advances them as the engine of the simulation loop.
package world

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/follow"
	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/geom"
	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/motion"
	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/nav"
	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/sim"
	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/telemetry"
	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/logging"
)

var (
	// ErrUnknownAgent reports a command addressed to an agent that does not exist.
	ErrUnknownAgent = errors.New("world: unknown agent")
	// ErrUnknownEntity reports a reference to an entity that does not exist.
	ErrUnknownEntity = errors.New("world: unknown entity")
)

// Deps carries the collaborators shared by every agent.
type Deps struct {
	Logger    telemetry.Logger
	Metrics   telemetry.Metrics
	Publisher logging.Publisher
	Speaker   follow.Speaker
	Meshes    nav.Resolver
}

type agent struct {
	id       string
	body     *motion.Body
	ctrl     *follow.Controller
	assigned follow.Target
	lastLine string
	triggers *triggers
}

// World is the simulation engine. Every method except the constructor runs on
// the loop goroutine.
type World struct {
	deps     Deps
	agents   map[string]*agent
	order    []string
	entities map[string]*Entity
	points   map[string]geom.Vec3
	tick     uint64
}

var (
	_ sim.Engine           = (*World)(nil)
	_ follow.AgentResolver = (*World)(nil)
)

// New builds the world and initializes every controller. A controller that
// fails to initialize stays inert; only malformed configuration is an error.
func New(ctx context.Context, cfg Config, deps Deps) (*World, error) {
	if deps.Logger == nil {
		deps.Logger = telemetry.Discard()
	}
	if deps.Publisher == nil {
		deps.Publisher = logging.NopPublisher()
	}
	w := &World{
		deps:     deps,
		agents:   make(map[string]*agent, len(cfg.Agents)),
		entities: make(map[string]*Entity),
		points:   make(map[string]geom.Vec3, len(cfg.Points)),
	}
	for _, point := range cfg.Points {
		id := strings.TrimSpace(point.ID)
		if id == "" {
			return nil, errors.New("world: point id is required")
		}
		if _, exists := w.points[id]; exists {
			return nil, fmt.Errorf("world: duplicate point %q", id)
		}
		w.points[id] = point.Position
	}
	seed := cfg.Seed
	if seed == "" {
		seed = DefaultSeed
	}
	for _, ac := range cfg.Agents {
		id := strings.TrimSpace(ac.ID)
		if id == "" {
			return nil, errors.New("world: agent id is required")
		}
		if _, exists := w.agents[id]; exists {
			return nil, fmt.Errorf("world: duplicate agent %q", id)
		}
		followCfg := cfg.Follow
		if ac.Follow != nil {
			followCfg = *ac.Follow
		}
		ctrl, err := follow.New(follow.Options{
			AgentID:   id,
			Config:    followCfg,
			Publisher: deps.Publisher,
			Logger:    deps.Logger,
			Metrics:   deps.Metrics,
			Speaker:   follow.SpeakerFunc(w.speak),
		})
		if err != nil {
			return nil, fmt.Errorf("world: agent %q: %w", id, err)
		}
		w.agents[id] = &agent{
			id: id,
			body: motion.NewBody(motion.BodyConfig{
				Position:            ac.Position,
				Rotation:            geom.YawRotation(ac.YawDegrees * degToRad),
				DefaultRotationTime: ac.RotationTime,
			}),
			ctrl: ctrl,
		}
		if ac.Triggers.Enabled() {
			w.agents[id].triggers = newTriggers(ac.Triggers.withDefaults(ac.Position), NewDeterministicRNG(seed, "lines/"+id))
		}
		w.order = append(w.order, id)
	}
	sort.Strings(w.order)
	for _, id := range w.order {
		if err := w.agents[id].ctrl.Init(ctx, w, deps.Meshes); err != nil {
			deps.Logger.Printf("[world] agent %s will not pursue: %v", id, err)
		}
	}
	return w, nil
}

const degToRad = math.Pi / 180

// Driver resolves an agent's motion driver for its controller.
func (w *World) Driver(ctx context.Context, agentID string) (motion.Driver, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a, ok := w.agents[agentID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAgent, agentID)
	}
	return a.body, nil
}

// Body exposes an agent's kinematic body.
func (w *World) Body(agentID string) (*motion.Body, bool) {
	a, ok := w.agents[agentID]
	if !ok {
		return nil, false
	}
	return a.body, true
}

// Controller exposes an agent's pursuit controller.
func (w *World) Controller(agentID string) (*follow.Controller, bool) {
	a, ok := w.agents[agentID]
	if !ok {
		return nil, false
	}
	return a.ctrl, true
}

// AgentIDs lists agents in a stable order.
func (w *World) AgentIDs() []string {
	return append([]string(nil), w.order...)
}

func (w *World) speak(agentID, line string) {
	if a, ok := w.agents[agentID]; ok {
		a.lastLine = line
	}
	w.deps.Logger.Printf("[%s] %q", agentID, line)
	if w.deps.Speaker != nil {
		w.deps.Speaker.Speak(agentID, line)
	}
}

// Apply executes commands in order. A failing command is reported and
// skipped; the rest still apply.
func (w *World) Apply(cmds []sim.Command) error {
	var errs []error
	for _, cmd := range cmds {
		if err := w.apply(cmd); err != nil {
			errs = append(errs, fmt.Errorf("%s from %q: %w", cmd.Type, cmd.ActorID, err))
		}
	}
	return errors.Join(errs...)
}

func (w *World) apply(cmd sim.Command) error {
	switch cmd.Type {
	case sim.CommandSetFollowTarget:
		if cmd.Follow == nil {
			return errors.New("missing follow payload")
		}
		return w.setFollowTarget(*cmd.Follow)
	case sim.CommandUpsertEntity:
		if cmd.Entity == nil {
			return errors.New("missing entity payload")
		}
		return w.upsertEntity(*cmd.Entity)
	case sim.CommandRemoveEntity:
		if cmd.Remove == nil {
			return errors.New("missing remove payload")
		}
		return w.removeEntity(cmd.Remove.ID)
	default:
		return fmt.Errorf("unsupported command %q", cmd.Type)
	}
}

func (w *World) setFollowTarget(cmd sim.FollowTargetCommand) error {
	target, err := w.resolveTarget(cmd.Target)
	if err != nil {
		return err
	}
	if cmd.AgentID == "" {
		for _, id := range w.order {
			w.assign(w.agents[id], target)
		}
		return nil
	}
	a, ok := w.agents[cmd.AgentID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAgent, cmd.AgentID)
	}
	w.assign(a, target)
	return nil
}

func (w *World) assign(a *agent, target follow.Target) {
	a.assigned = target
	a.ctrl.SetTarget(target)
}

func (w *World) resolveTarget(spec sim.TargetSpec) (follow.Target, error) {
	if err := spec.Validate(); err != nil {
		return follow.Target{}, err
	}
	spec = spec.Normalized()
	switch spec.Kind {
	case sim.TargetKindPoint:
		if spec.Position != nil {
			id := spec.ID
			if id == "" {
				id = "point"
			}
			return follow.PointTarget(id, *spec.Position), nil
		}
		position, ok := w.points[spec.ID]
		if !ok {
			return follow.Target{}, fmt.Errorf("unknown point %q", spec.ID)
		}
		return follow.PointTarget(spec.ID, position), nil
	case sim.TargetKindEntity:
		entity, ok := w.entities[spec.ID]
		if !ok {
			return follow.Target{}, fmt.Errorf("%w: %s", ErrUnknownEntity, spec.ID)
		}
		return follow.EntityTarget(entity), nil
	default:
		return follow.NoTarget(), nil
	}
}

func (w *World) upsertEntity(cmd sim.EntityCommand) error {
	id := strings.TrimSpace(cmd.ID)
	if id == "" {
		return errors.New("entity id is required")
	}
	entity, ok := w.entities[id]
	if !ok {
		entity = &Entity{id: id}
		w.entities[id] = entity
	}
	entity.update(cmd)
	return nil
}

// removeEntity despawns an entity, clears every agent following it and
// releases any follow zone it had latched.
func (w *World) removeEntity(id string) error {
	entity, ok := w.entities[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEntity, id)
	}
	entity.present = false
	delete(w.entities, id)
	for _, agentID := range w.order {
		a := w.agents[agentID]
		a.triggers.forget(id)
		if a.assigned.Kind() == follow.TargetEntity && a.assigned.ID() == id {
			w.assign(a, follow.NoTarget())
		}
	}
	return nil
}

// Step runs every controller against the poses of the previous tick,
// integrates the bodies, then checks the trigger zones against the new poses.
// A follow zone retargets the agents from the next tick on.
func (w *World) Step(tick sim.LoopTickContext) {
	w.tick = tick.Tick
	ctx := context.Background()
	for _, id := range w.order {
		w.agents[id].ctrl.Update(ctx, tick.Tick, tick.Delta)
	}
	for _, id := range w.order {
		w.agents[id].body.Step(tick.Delta)
	}
	for _, id := range w.order {
		w.checkTriggers(ctx, w.agents[id])
	}
}

// Snapshot captures every agent, entity and point.
func (w *World) Snapshot() sim.Snapshot {
	snapshot := sim.Snapshot{
		Tick:     w.tick,
		Agents:   make([]sim.AgentSnapshot, 0, len(w.order)),
		Entities: make([]sim.EntitySnapshot, 0, len(w.entities)),
	}
	for _, id := range w.order {
		a := w.agents[id]
		entry := sim.AgentSnapshot{
			ID:       id,
			Route:    a.body.Route(),
			LastLine: a.lastLine,
			Pursuit:  a.ctrl.Snapshot(),
		}
		if state, ok := a.body.Snapshot(); ok {
			entry.Position = state.Position
			entry.Rotation = state.Rotation
			entry.Moving = state.Moving
		}
		if gaze, ok := a.body.Gaze(); ok {
			entry.Gaze = &gaze
		}
		snapshot.Agents = append(snapshot.Agents, entry)
	}
	for _, id := range sortedKeys(w.entities) {
		snapshot.Entities = append(snapshot.Entities, w.entities[id].snapshot())
	}
	for _, id := range sortedKeys(w.points) {
		snapshot.Points = append(snapshot.Points, sim.PointSnapshot{ID: id, Position: w.points[id]})
	}
	return snapshot
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
