package telemetry

import (
	"log"

	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/logging"
)

// Logger exposes the diagnostic line logging used by the simulation and the
// pursuit controllers.
type Logger interface {
	Printf(format string, args ...any)
}

// LoggerFunc adapts functions into the Logger interface.
type LoggerFunc func(format string, args ...any)

// Printf implements Logger for LoggerFunc.
func (f LoggerFunc) Printf(format string, args ...any) {
	if f == nil {
		return
	}
	f(format, args...)
}

// WrapLogger adapts a standard library logger to the Logger interface.
func WrapLogger(logger *log.Logger) Logger {
	return &loggerAdapter{logger: logger}
}

type loggerAdapter struct {
	logger *log.Logger
}

func (l *loggerAdapter) Printf(format string, args ...any) {
	if l == nil || l.logger == nil {
		return
	}
	l.logger.Printf(format, args...)
}

// Discard returns a Logger that drops every line.
func Discard() Logger {
	return LoggerFunc(func(string, ...any) {})
}

// Metrics exposes the counters updated by the tick loop and the controllers.
type Metrics interface {
	Add(key string, delta uint64)
	Store(key string, value uint64)
}

// WrapMetrics adapts a logging metrics set into the Metrics interface.
func WrapMetrics(metrics *logging.Metrics) Metrics {
	return &metricsAdapter{metrics: metrics}
}

type metricsAdapter struct {
	metrics *logging.Metrics
}

func (m *metricsAdapter) Add(key string, delta uint64) {
	if m == nil || m.metrics == nil {
		return
	}
	m.metrics.TelemetryAdd(key, delta)
}

func (m *metricsAdapter) Store(key string, value uint64) {
	if m == nil || m.metrics == nil {
		return
	}
	m.metrics.TelemetryStore(key, value)
}

const (
	MetricTicks             = "sim_ticks_total"
	MetricTickOverruns      = "sim_tick_budget_overruns_total"
	MetricCommandsDropped   = "sim_commands_dropped_total"
	MetricCommandsQueued    = "sim_commands_queued"
	MetricAbandons          = "pursuit_abandons_total"
	MetricNavQueryFailures  = "pursuit_nav_query_failures_total"
	MetricRotationsIssued   = "pursuit_in_place_rotations_total"
	MetricWebsocketSessions = "transport_ws_sessions"
)
