package sim

import (
	"context"
	"sync"
	"time"

	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/telemetry"
	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/logging"
	simlog "github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/logging/simulation"
)

const (
	// CommandRejectQueueLimit: the actor already staged its quota this tick.
	CommandRejectQueueLimit = "queue_limit"
	// CommandRejectQueueFull: the command buffer is at capacity.
	CommandRejectQueueFull = "queue_full"

	DefaultTickRate        = 30
	DefaultCatchupMaxTicks = 3
	DefaultCommandCapacity = 256
)

// LoopConfig tunes the command buffer and tick loop orchestration.
type LoopConfig struct {
	TickRate        int
	CatchupMaxTicks int
	CommandCapacity int
	PerActorLimit   int
	WarningStep     int
}

// Normalized fills unset fields with defaults.
func (c LoopConfig) Normalized() LoopConfig {
	if c.TickRate <= 0 {
		c.TickRate = DefaultTickRate
	}
	if c.CatchupMaxTicks <= 0 {
		c.CatchupMaxTicks = DefaultCatchupMaxTicks
	}
	if c.CommandCapacity <= 0 {
		c.CommandCapacity = DefaultCommandCapacity
	}
	return c
}

// Deps carries shared infrastructure dependencies required by the loop.
type Deps struct {
	Logger    telemetry.Logger
	Metrics   telemetry.Metrics
	Publisher logging.Publisher
	Clock     logging.Clock
}

// Loop coordinates command ingestion and the fixed-timestep simulation runner.
// Enqueue and Latest are safe from any goroutine; Advance and Run own the
// engine.
type Loop struct {
	engine Engine
	buffer *CommandBuffer
	hooks  LoopHooks
	config LoopConfig
	deps   Deps

	queueMu       sync.Mutex
	perActorCount map[string]int
	dropCounts    map[string]uint64

	tick           uint64
	overrunStreak  uint64
	snapshotMu     sync.RWMutex
	latestSnapshot Snapshot
}

// NewLoop wraps engine with a bounded command queue.
func NewLoop(engine Engine, cfg LoopConfig, hooks LoopHooks, deps Deps) *Loop {
	if engine == nil {
		return nil
	}
	cfg = cfg.Normalized()
	if deps.Logger == nil {
		deps.Logger = telemetry.Discard()
	}
	if deps.Publisher == nil {
		deps.Publisher = logging.NopPublisher()
	}
	if deps.Clock == nil {
		deps.Clock = logging.SystemClock{}
	}
	return &Loop{
		engine:         engine,
		buffer:         NewCommandBuffer(cfg.CommandCapacity, deps.Metrics),
		hooks:          hooks,
		config:         cfg,
		deps:           deps,
		perActorCount:  make(map[string]int),
		dropCounts:     make(map[string]uint64),
		latestSnapshot: engine.Snapshot(),
	}
}

// Config returns the normalized loop configuration.
func (l *Loop) Config() LoopConfig {
	if l == nil {
		return LoopConfig{}
	}
	return l.config
}

// Latest returns the snapshot produced by the most recent tick.
func (l *Loop) Latest() Snapshot {
	if l == nil {
		return Snapshot{}
	}
	l.snapshotMu.RLock()
	defer l.snapshotMu.RUnlock()
	return l.latestSnapshot
}

// Pending reports the number of staged commands.
func (l *Loop) Pending() int {
	if l == nil {
		return 0
	}
	return l.buffer.Len()
}

// Enqueue stages a command for the next tick. It reports false with
// CommandRejectQueueLimit when the actor has used its quota for this tick, or
// CommandRejectQueueFull when the buffer has no room.
func (l *Loop) Enqueue(cmd Command) (bool, string) {
	if l == nil {
		return false, CommandRejectQueueFull
	}
	reason, drops, depth := l.admit(cmd)
	if reason != "" {
		l.reportDrop(reason, cmd, drops)
		return false, reason
	}
	if step := l.config.WarningStep; step > 0 && depth >= step && depth%step == 0 {
		l.warnQueue(depth)
	}
	return true, ""
}

// admit applies the per-actor quota and pushes cmd. On refusal it returns the
// reason and how many commands this actor has had refused; otherwise the
// queue depth after the push.
func (l *Loop) admit(cmd Command) (reason string, drops uint64, depth int) {
	l.queueMu.Lock()
	defer l.queueMu.Unlock()

	throttled := l.config.PerActorLimit > 0 && cmd.ActorID != ""
	if throttled && l.perActorCount[cmd.ActorID] >= l.config.PerActorLimit {
		l.dropCounts[cmd.ActorID]++
		return CommandRejectQueueLimit, l.dropCounts[cmd.ActorID], 0
	}
	if !l.buffer.Push(cmd) {
		l.dropCounts[cmd.ActorID]++
		return CommandRejectQueueFull, l.dropCounts[cmd.ActorID], 0
	}
	if throttled {
		l.perActorCount[cmd.ActorID]++
	}
	return "", 0, l.buffer.Len()
}

// Advance executes a single simulation step using the staged commands. Every
// command staged before the call takes effect before any controller runs.
func (l *Loop) Advance(ctx LoopTickContext) LoopStepResult {
	if l == nil {
		return LoopStepResult{}
	}
	commands := l.drainCommands()
	if l.hooks.Prepare != nil {
		l.hooks.Prepare(ctx)
	}
	applyErr := l.engine.Apply(commands)
	if applyErr != nil {
		l.deps.Logger.Printf("[sim] tick=%d rejected commands: %v", ctx.Tick, applyErr)
	}
	l.engine.Step(ctx)
	snapshot := l.engine.Snapshot()
	l.snapshotMu.Lock()
	l.latestSnapshot = snapshot
	l.snapshotMu.Unlock()
	if l.deps.Metrics != nil {
		l.deps.Metrics.Add(telemetry.MetricTicks, 1)
	}
	return LoopStepResult{
		Tick:     ctx.Tick,
		Now:      ctx.Now,
		Delta:    ctx.Delta,
		Snapshot: snapshot,
		Commands: commands,
		ApplyErr: applyErr,
	}
}

// Run advances the engine once per tick interval until ctx is done. Late
// ticks integrate the real elapsed time, capped at CatchupMaxTicks intervals.
func (l *Loop) Run(ctx context.Context) {
	if l == nil {
		return
	}
	interval := time.Second / time.Duration(l.config.TickRate)
	nominal := interval.Seconds()
	ceiling := nominal * float64(max(l.config.CatchupMaxTicks, 1))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	clock := l.deps.Clock
	previous := clock.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		now := clock.Now()
		dt, clamped := clampDelta(now.Sub(previous).Seconds(), nominal, ceiling)
		previous = now

		result := l.Advance(LoopTickContext{Tick: l.nextTick(), Now: now, Delta: dt})
		result.Duration = clock.Now().Sub(now)
		result.Budget = interval
		result.ClampedDelta = clamped
		result.MaxDelta = ceiling
		l.checkBudget(ctx, result)
		if l.hooks.AfterStep != nil {
			l.hooks.AfterStep(result)
		}
	}
}

func clampDelta(dt, fallback, maxDt float64) (float64, bool) {
	if dt <= 0 {
		return fallback, false
	}
	if dt > maxDt {
		return maxDt, true
	}
	return dt, false
}

func (l *Loop) nextTick() uint64 {
	if l.hooks.NextTick != nil {
		return l.hooks.NextTick()
	}
	l.tick++
	return l.tick
}

func (l *Loop) checkBudget(ctx context.Context, result LoopStepResult) {
	if result.Budget <= 0 || result.Duration <= result.Budget {
		l.overrunStreak = 0
		return
	}
	l.overrunStreak++
	if l.deps.Metrics != nil {
		l.deps.Metrics.Add(telemetry.MetricTickOverruns, 1)
	}
	simlog.TickBudgetOverrun(ctx, l.deps.Publisher, result.Tick, simlog.TickBudgetOverrunPayload{
		DurationMillis: result.Duration.Milliseconds(),
		BudgetMillis:   result.Budget.Milliseconds(),
		Ratio:          float64(result.Duration) / float64(result.Budget),
		Streak:         l.overrunStreak,
	}, nil)
}

func (l *Loop) drainCommands() []Command {
	l.queueMu.Lock()
	defer l.queueMu.Unlock()
	commands := l.buffer.Drain()
	if len(l.perActorCount) > 0 {
		l.perActorCount = make(map[string]int)
	}
	return commands
}

func (l *Loop) warnQueue(length int) {
	l.deps.Logger.Printf("[backpressure] command queue at %d/%d", length, l.buffer.Capacity())
	if l.hooks.OnQueueWarning != nil {
		l.hooks.OnQueueWarning(length)
	}
}

func (l *Loop) reportDrop(reason string, cmd Command, count uint64) {
	if l.hooks.OnCommandDrop != nil {
		l.hooks.OnCommandDrop(reason, cmd)
	}
	if l.deps.Metrics != nil {
		l.deps.Metrics.Add(telemetry.MetricCommandsDropped, 1)
	}
	// Only power-of-two drop counts per actor are logged.
	if count > 0 && count&(count-1) == 0 {
		l.deps.Logger.Printf(
			"[backpressure] dropping command actor=%s type=%s reason=%s count=%d limit=%d",
			cmd.ActorID,
			cmd.Type,
			reason,
			count,
			l.config.PerActorLimit,
		)
		simlog.CommandDropped(context.Background(), l.deps.Publisher, cmd.OriginTick, simlog.CommandDroppedPayload{
			Command:  string(cmd.Type),
			Capacity: l.buffer.Capacity(),
		}, map[string]any{"reason": reason, "actor": cmd.ActorID})
	}
}
