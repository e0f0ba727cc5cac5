package follow

import (
	"context"
	"errors"

	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/geom"
	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/motion"
	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/logging"
)

type driverCommand struct {
	Op           string
	Point        geom.Vec3
	Waypoints    []geom.Vec3
	Speed        float64
	Face         bool
	RotationTime float64
}

func (c driverCommand) movement() bool {
	switch c.Op {
	case "stop", "moveTo", "moveAlong", "rotate":
		return true
	default:
		return false
	}
}

type fakeDriver struct {
	state       motion.AgentState
	unavailable bool
	commands    []driverCommand
	rotations   []func()
}

func newFakeDriver(position geom.Vec3, rotation geom.Quat) *fakeDriver {
	return &fakeDriver{state: motion.AgentState{Position: position, Rotation: rotation}}
}

func (d *fakeDriver) Snapshot() (motion.AgentState, bool) {
	if d.unavailable {
		return motion.AgentState{}, false
	}
	return d.state, true
}

func (d *fakeDriver) IsMoving() bool {
	return d.state.Moving
}

func (d *fakeDriver) Stop() {
	d.state.Moving = false
	d.commands = append(d.commands, driverCommand{Op: "stop"})
}

func (d *fakeDriver) MoveTo(point geom.Vec3, opts motion.MoveOptions) {
	d.state.Moving = true
	d.commands = append(d.commands, driverCommand{Op: "moveTo", Point: point, Speed: opts.Speed, Face: opts.FaceMovementDirection})
}

func (d *fakeDriver) MoveAlong(waypoints []geom.Vec3, opts motion.MoveOptions) {
	d.state.Moving = true
	d.commands = append(d.commands, driverCommand{Op: "moveAlong", Waypoints: waypoints, Speed: opts.Speed, Face: opts.FaceMovementDirection})
}

func (d *fakeDriver) RotateTowards(direction geom.Vec3, opts motion.RotateOptions, done func()) {
	d.commands = append(d.commands, driverCommand{Op: "rotate", Point: direction, RotationTime: opts.RotationTime})
	d.rotations = append(d.rotations, done)
}

func (d *fakeDriver) SetGazeTarget(point geom.Vec3) {
	d.commands = append(d.commands, driverCommand{Op: "gaze", Point: point})
}

func (d *fakeDriver) ClearGazeTarget() {
	d.commands = append(d.commands, driverCommand{Op: "clearGaze"})
}

func (d *fakeDriver) movements() []driverCommand {
	var out []driverCommand
	for _, cmd := range d.commands {
		if cmd.movement() {
			out = append(out, cmd)
		}
	}
	return out
}

func (d *fakeDriver) reset() {
	d.commands = nil
}

type fakeAgents map[string]motion.Driver

func (f fakeAgents) Driver(_ context.Context, agentID string) (motion.Driver, error) {
	driver, ok := f[agentID]
	if !ok {
		return nil, errors.New("unknown agent " + agentID)
	}
	return driver, nil
}

type fakeMesh struct {
	nearest      geom.Vec3
	nearestOK    bool
	path         []geom.Vec3
	pathOK       bool
	nearestCalls int
	pathCalls    int
}

func (m *fakeMesh) NearestPoint(geom.Vec3, float64) (geom.Vec3, bool) {
	m.nearestCalls++
	return m.nearest, m.nearestOK
}

func (m *fakeMesh) Path(geom.Vec3, geom.Vec3) ([]geom.Vec3, bool) {
	m.pathCalls++
	return m.path, m.pathOK
}

type fakeEntity struct {
	id       string
	name     string
	position geom.Vec3
	gaze     geom.Vec3
	hasGaze  bool
	gone     bool
}

func (e *fakeEntity) ID() string   { return e.id }
func (e *fakeEntity) Name() string { return e.name }

func (e *fakeEntity) Position() (geom.Vec3, bool) {
	if e.gone {
		return geom.Vec3{}, false
	}
	return e.position, true
}

func (e *fakeEntity) Gaze() (geom.Vec3, bool) {
	return e.gaze, e.hasGaze && !e.gone
}

type recordingSpeaker struct {
	lines []string
}

func (s *recordingSpeaker) Speak(_ string, line string) {
	s.lines = append(s.lines, line)
}

type eventLog struct {
	events []logging.Event
}

func (l *eventLog) Publish(_ context.Context, event logging.Event) {
	l.events = append(l.events, event)
}

func (l *eventLog) count(eventType logging.EventType) int {
	n := 0
	for _, event := range l.events {
		if event.Type == eventType {
			n++
		}
	}
	return n
}
