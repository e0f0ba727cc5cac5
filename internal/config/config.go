// Package config loads the server configuration from JSON and the
// environment.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/follow"
	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/geom"
	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/nav"
	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/observability"
	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/sim"
	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/world"
	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/logging"
)

// Environment variables consulted by ApplyEnv and Load.
const (
	EnvAddr        = "FOLLOW_ADDR"
	EnvTickRate    = "FOLLOW_TICK_RATE"
	EnvLogSinks    = "FOLLOW_LOG_SINKS"
	EnvLogJSONPath = "FOLLOW_LOG_JSON_PATH"
	EnvConfigPath  = "FOLLOW_CONFIG"
	EnvPprof       = "FOLLOW_ENABLE_PPROF"

	DefaultAddr = ":8080"
)

// LoopConfig tunes the fixed-timestep loop and its command queue.
type LoopConfig struct {
	TickRate        int `json:"tickRate,omitempty" jsonschema:"description=Simulation ticks per second,minimum=1"`
	CatchupMaxTicks int `json:"catchupMaxTicks,omitempty" jsonschema:"description=Largest delta a late tick may integrate expressed in ticks"`
	CommandCapacity int `json:"commandCapacity,omitempty" jsonschema:"minimum=1"`
	PerActorLimit   int `json:"perActorLimit,omitempty" jsonschema:"description=Commands one actor may stage per tick (0 disables)"`
	WarningStep     int `json:"warningStep,omitempty"`
}

// Sim converts the loop settings into the simulation package's form.
func (c LoopConfig) Sim() sim.LoopConfig {
	return sim.LoopConfig{
		TickRate:        c.TickRate,
		CatchupMaxTicks: c.CatchupMaxTicks,
		CommandCapacity: c.CommandCapacity,
		PerActorLimit:   c.PerActorLimit,
		WarningStep:     c.WarningStep,
	}
}

// Config is the full server configuration.
type Config struct {
	Addr          string               `json:"addr" jsonschema:"description=HTTP listen address"`
	Loop          LoopConfig           `json:"loop"`
	Logging       logging.Config       `json:"logging"`
	World         world.Config         `json:"world"`
	Nav           []nav.GridConfig     `json:"nav,omitempty" jsonschema:"description=Navigation grids agents reference by navProfile"`
	Observability observability.Config `json:"observability,omitempty"`
}

// Default returns a single-agent world with a named point to follow.
func Default() Config {
	return Config{
		Addr: DefaultAddr,
		Loop: LoopConfig{
			TickRate:        sim.DefaultTickRate,
			CatchupMaxTicks: sim.DefaultCatchupMaxTicks,
			CommandCapacity: sim.DefaultCommandCapacity,
			PerActorLimit:   8,
		},
		Logging: logging.DefaultConfig(),
		World: world.Config{
			Follow: follow.DefaultConfig(),
			Agents: []world.AgentConfig{{ID: "npc-1"}},
			Points: []world.PointConfig{{ID: "spawn", Position: geom.Vec3{Z: 5}}},
		},
	}
}

// LoadFile decodes a JSON configuration. Fields omitted from the file keep
// their Default values; unknown fields are rejected.
func LoadFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	cfg := Default()
	decoder := json.NewDecoder(f)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return cfg, nil
}

// Load reads FOLLOW_CONFIG when set, applies environment overrides, and
// returns the normalized, validated result.
func Load(getenv func(string) string) (Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	cfg := Default()
	if path := strings.TrimSpace(getenv(EnvConfigPath)); path != "" {
		loaded, err := LoadFile(path)
		if err != nil {
			return Config{}, err
		}
		cfg = loaded
	}
	cfg, err := cfg.ApplyEnv(getenv)
	if err != nil {
		return Config{}, err
	}
	cfg = cfg.Normalized()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overlays the FOLLOW_* environment variables.
func (c Config) ApplyEnv(getenv func(string) string) (Config, error) {
	if raw := strings.TrimSpace(getenv(EnvAddr)); raw != "" {
		c.Addr = raw
	}
	if raw := strings.TrimSpace(getenv(EnvTickRate)); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil {
			return Config{}, fmt.Errorf("config: invalid %s=%q: %w", EnvTickRate, raw, err)
		}
		c.Loop.TickRate = value
	}
	if raw := strings.TrimSpace(getenv(EnvLogSinks)); raw != "" {
		var sinks []string
		for _, name := range strings.Split(raw, ",") {
			if name = strings.TrimSpace(name); name != "" {
				sinks = append(sinks, name)
			}
		}
		c.Logging.EnabledSinks = sinks
	}
	if raw := strings.TrimSpace(getenv(EnvLogJSONPath)); raw != "" {
		c.Logging.JSON.FilePath = raw
		if !c.Logging.HasSink("json") {
			c.Logging.EnabledSinks = append(c.Logging.EnabledSinks, "json")
		}
	}
	if raw := strings.TrimSpace(getenv(EnvPprof)); raw != "" {
		value, err := strconv.ParseBool(raw)
		if err != nil {
			return Config{}, fmt.Errorf("config: invalid %s=%q: %w", EnvPprof, raw, err)
		}
		c.Observability.EnablePprof = value
	}
	return c, nil
}

// Normalized fills defaults for omitted fields.
func (c Config) Normalized() Config {
	normalized := c
	normalized.Addr = strings.TrimSpace(normalized.Addr)
	if normalized.Addr == "" {
		normalized.Addr = DefaultAddr
	}
	loop := normalized.Loop.Sim().Normalized()
	normalized.Loop.TickRate = loop.TickRate
	normalized.Loop.CatchupMaxTicks = loop.CatchupMaxTicks
	normalized.Loop.CommandCapacity = loop.CommandCapacity

	defaults := logging.DefaultConfig()
	if normalized.Logging.BufferSize <= 0 {
		normalized.Logging.BufferSize = defaults.BufferSize
	}
	if normalized.Logging.DropWarnInterval <= 0 {
		normalized.Logging.DropWarnInterval = defaults.DropWarnInterval
	}
	if normalized.Logging.JSON.FlushInterval <= 0 {
		normalized.Logging.JSON.FlushInterval = defaults.JSON.FlushInterval
	}
	if len(normalized.Logging.EnabledSinks) == 0 {
		normalized.Logging.EnabledSinks = defaults.EnabledSinks
	}

	if len(normalized.Nav) > 0 {
		grids := make([]nav.GridConfig, len(normalized.Nav))
		for i, grid := range normalized.Nav {
			grids[i] = grid.Normalized()
		}
		normalized.Nav = grids
	}
	return normalized
}

// Validate reports every problem found, joined.
func (c Config) Validate() error {
	var errs []error
	if c.Loop.TickRate <= 0 {
		errs = append(errs, fmt.Errorf("loop.tickRate must be positive, got %d", c.Loop.TickRate))
	}
	if c.Loop.PerActorLimit < 0 {
		errs = append(errs, fmt.Errorf("loop.perActorLimit must not be negative, got %d", c.Loop.PerActorLimit))
	}
	if c.Logging.HasSink("json") && strings.TrimSpace(c.Logging.JSON.FilePath) == "" {
		errs = append(errs, errors.New("logging.json.filePath is required when the json sink is enabled"))
	}
	if err := c.World.Follow.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("world.follow: %w", err))
	}
	if len(c.World.Agents) == 0 {
		errs = append(errs, errors.New("world.agents must list at least one agent"))
	}
	for i, agent := range c.World.Agents {
		if strings.TrimSpace(agent.ID) == "" {
			errs = append(errs, fmt.Errorf("world.agents[%d]: id is required", i))
		}
		if agent.Follow != nil {
			if err := agent.Follow.Validate(); err != nil {
				errs = append(errs, fmt.Errorf("world.agents[%d].follow: %w", i, err))
			}
		}
		if agent.Triggers.FollowRadius < 0 || agent.Triggers.SpeakRadius < 0 {
			errs = append(errs, fmt.Errorf("world.agents[%d].triggers: radii must not be negative", i))
		}
	}
	seen := make(map[string]struct{}, len(c.Nav))
	for i, grid := range c.Nav {
		name := strings.TrimSpace(grid.Name)
		if name == "" {
			errs = append(errs, fmt.Errorf("nav[%d]: name is required", i))
			continue
		}
		if _, dup := seen[name]; dup {
			errs = append(errs, fmt.Errorf("nav[%d]: duplicate profile %q", i, name))
		}
		seen[name] = struct{}{}
		if grid.Width <= 0 || grid.Depth <= 0 {
			errs = append(errs, fmt.Errorf("nav[%d]: width and depth must be positive", i))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("config: %w", errors.Join(errs...))
}
