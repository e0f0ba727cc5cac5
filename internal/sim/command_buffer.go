package sim

import (
	"slices"
	"sync"

	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/telemetry"
)

const (
	commandBufferOccupancyMetricKey  = telemetry.MetricCommandsQueued
	commandBufferOverflowMetricKey   = "sim_command_buffer_overflow_total"
	commandBufferSupersededMetricKey = "sim_commands_superseded_total"
)

// CommandBuffer stages commands between ticks in arrival order. A follow
// target staged for an agent replaces any earlier staged target for the same
// agent, since only the newest assignment would survive the tick anyway; an
// all-agents assignment replaces every staged target. Safe for concurrent
// producers and a single consumer.
type CommandBuffer struct {
	mu       sync.Mutex
	capacity int
	staged   []Command
	metrics  telemetry.Metrics
}

func NewCommandBuffer(capacity int, metrics telemetry.Metrics) *CommandBuffer {
	return &CommandBuffer{
		capacity: max(capacity, 1),
		staged:   make([]Command, 0, max(capacity, 1)),
		metrics:  metrics,
	}
}

func (b *CommandBuffer) Capacity() int {
	if b == nil {
		return 0
	}
	return b.capacity
}

// Push stages cmd, returning false when the buffer is full.
func (b *CommandBuffer) Push(cmd Command) bool {
	if b == nil {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if cmd.Type == CommandSetFollowTarget && cmd.Follow != nil {
		before := len(b.staged)
		b.staged = slices.DeleteFunc(b.staged, func(staged Command) bool {
			return supersedes(cmd.Follow, staged)
		})
		if removed := before - len(b.staged); removed > 0 {
			b.add(commandBufferSupersededMetricKey, uint64(removed))
		}
	}
	if len(b.staged) >= b.capacity {
		b.add(commandBufferOverflowMetricKey, 1)
		return false
	}
	b.staged = append(b.staged, cmd)
	b.store(commandBufferOccupancyMetricKey, uint64(len(b.staged)))
	return true
}

// Drain hands every staged command to the caller, oldest first.
func (b *CommandBuffer) Drain() []Command {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.staged) == 0 {
		return nil
	}
	drained := b.staged
	b.staged = make([]Command, 0, b.capacity)
	b.store(commandBufferOccupancyMetricKey, 0)
	return drained
}

func (b *CommandBuffer) Len() int {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.staged)
}

func supersedes(next *FollowTargetCommand, staged Command) bool {
	if staged.Type != CommandSetFollowTarget || staged.Follow == nil {
		return false
	}
	return next.AgentID == "" || next.AgentID == staged.Follow.AgentID
}

func (b *CommandBuffer) add(key string, delta uint64) {
	if b.metrics != nil {
		b.metrics.Add(key, delta)
	}
}

func (b *CommandBuffer) store(key string, value uint64) {
	if b.metrics != nil {
		b.metrics.Store(key, value)
	}
}
