package sim

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/logging"
	simlog "github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/logging/simulation"
)

type recordingEngine struct {
	mu      sync.Mutex
	log     []string
	applied [][]Command
	ticks   []LoopTickContext
}

func (e *recordingEngine) Apply(cmds []Command) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.log = append(e.log, "apply")
	e.applied = append(e.applied, cmds)
	return nil
}

func (e *recordingEngine) Step(ctx LoopTickContext) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.log = append(e.log, "step")
	e.ticks = append(e.ticks, ctx)
}

func (e *recordingEngine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Snapshot{Tick: uint64(len(e.ticks))}
}

type capturePublisher struct {
	mu     sync.Mutex
	events []logging.Event
}

func (p *capturePublisher) Publish(_ context.Context, event logging.Event) {
	p.mu.Lock()
	p.events = append(p.events, event)
	p.mu.Unlock()
}

func TestLoopAdvanceAppliesStagedCommandsBeforeStep(t *testing.T) {
	engine := &recordingEngine{}
	loop := NewLoop(engine, LoopConfig{}, LoopHooks{}, Deps{})

	ok, reason := loop.Enqueue(Command{Type: CommandSetFollowTarget, Follow: &FollowTargetCommand{Target: TargetSpec{Kind: TargetKindNone}}})
	require.True(t, ok, reason)
	require.Equal(t, 1, loop.Pending())

	result := loop.Advance(LoopTickContext{Tick: 7, Delta: 0.1})

	assert.Equal(t, []string{"apply", "step"}, engine.log)
	require.Len(t, result.Commands, 1)
	assert.Equal(t, CommandSetFollowTarget, result.Commands[0].Type)
	assert.Equal(t, uint64(7), engine.ticks[0].Tick)
	assert.Equal(t, 0, loop.Pending())
	assert.Equal(t, uint64(1), loop.Latest().Tick)
}

func TestLoopEnqueueLimits(t *testing.T) {
	engine := &recordingEngine{}
	var drops []string
	loop := NewLoop(engine, LoopConfig{CommandCapacity: 3, PerActorLimit: 2}, LoopHooks{
		OnCommandDrop: func(reason string, _ Command) { drops = append(drops, reason) },
	}, Deps{})

	for i := 0; i < 2; i++ {
		ok, _ := loop.Enqueue(Command{ActorID: "a"})
		require.True(t, ok)
	}
	ok, reason := loop.Enqueue(Command{ActorID: "a"})
	assert.False(t, ok)
	assert.Equal(t, CommandRejectQueueLimit, reason)

	ok, _ = loop.Enqueue(Command{ActorID: "b"})
	require.True(t, ok)
	ok, reason = loop.Enqueue(Command{ActorID: "c"})
	assert.False(t, ok)
	assert.Equal(t, CommandRejectQueueFull, reason)
	assert.Equal(t, []string{CommandRejectQueueLimit, CommandRejectQueueFull}, drops)

	loop.Advance(LoopTickContext{Tick: 1})
	ok, _ = loop.Enqueue(Command{ActorID: "a"})
	assert.True(t, ok, "per-actor quota resets every tick")
}

func TestLoopRunNumbersTicksAndStops(t *testing.T) {
	engine := &recordingEngine{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var ticks []uint64
	loop := NewLoop(engine, LoopConfig{TickRate: 200}, LoopHooks{
		AfterStep: func(result LoopStepResult) {
			ticks = append(ticks, result.Tick)
			assert.Greater(t, result.Delta, 0.0)
			assert.LessOrEqual(t, result.Delta, result.MaxDelta)
			if len(ticks) == 3 {
				cancel()
			}
		},
	}, Deps{})

	done := make(chan struct{})
	go func() {
		loop.Run(ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("loop did not stop")
	}
	require.GreaterOrEqual(t, len(ticks), 3)
	assert.Equal(t, []uint64{1, 2, 3}, ticks[:3])
}

func TestClampDelta(t *testing.T) {
	dt, clamped := clampDelta(0, 0.1, 0.3)
	assert.Equal(t, 0.1, dt)
	assert.False(t, clamped)

	dt, clamped = clampDelta(2, 0.1, 0.3)
	assert.Equal(t, 0.3, dt)
	assert.True(t, clamped)

	dt, clamped = clampDelta(0.2, 0.1, 0.3)
	assert.Equal(t, 0.2, dt)
	assert.False(t, clamped)
}

func TestLoopPublishesBudgetOverruns(t *testing.T) {
	pub := &capturePublisher{}
	loop := NewLoop(&recordingEngine{}, LoopConfig{}, LoopHooks{}, Deps{Publisher: pub})

	loop.checkBudget(context.Background(), LoopStepResult{Tick: 4, Duration: 50 * time.Millisecond, Budget: 20 * time.Millisecond})
	loop.checkBudget(context.Background(), LoopStepResult{Tick: 5, Duration: 60 * time.Millisecond, Budget: 20 * time.Millisecond})
	loop.checkBudget(context.Background(), LoopStepResult{Tick: 6, Duration: 5 * time.Millisecond, Budget: 20 * time.Millisecond})

	require.Len(t, pub.events, 2)
	assert.Equal(t, simlog.EventTickBudgetOverrun, pub.events[0].Type)
	payload := pub.events[1].Payload.(simlog.TickBudgetOverrunPayload)
	assert.Equal(t, uint64(2), payload.Streak)
	assert.InDelta(t, 3.0, payload.Ratio, 1e-9)
	assert.Zero(t, loop.overrunStreak)
}
