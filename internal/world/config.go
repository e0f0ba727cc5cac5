package world

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/follow"
	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/geom"
)

const (
	// DefaultSeed seeds the line pickers when Config.Seed is empty.
	DefaultSeed = "flim-flam"

	DefaultGreeting = "Hehe... I think I've found a new victim. Would you like to join The Flim Flam Fam? Or are you too chicken?"
)

// DefaultLostLines are spoken at random to entities entering the speak zone.
var DefaultLostLines = []string{
	"Albert abandoned me for that trash channel Flamingo. AlbertStuffs was way cooler! Looks like you'll have to pay for his sins",
	"I'm not interested in making friends... just plotting my revenge.",
	"I was created by the adoring fans who never forgot Albert's true legacy: AlbertsStuffs.",
	"I have a secret lair where I train new members of The Flim Flam Fam. Care to join?",
	"The air here is... interesting. It smells like fear and tasty human meat",
}

// AgentConfig places one pursuing agent.
type AgentConfig struct {
	ID           string         `json:"id"`
	Position     geom.Vec3      `json:"position"`
	YawDegrees   float64        `json:"yawDegrees,omitempty"`
	RotationTime float64        `json:"rotationTime,omitempty" jsonschema:"description=Default in-place turn duration in seconds"`
	Follow       *follow.Config `json:"follow,omitempty" jsonschema:"description=Per-agent pursuit tuning; omitted fields keep the shared world.follow values"`
	Triggers     TriggerConfig  `json:"triggers,omitempty"`
}

// TriggerConfig describes the zones that make an agent react to entities
// walking in. A zero radius disables the zone.
type TriggerConfig struct {
	FollowRadius float64    `json:"followRadius,omitempty" jsonschema:"description=Radius of the zone whose first entrant every agent is sent after,minimum=0"`
	FollowCenter *geom.Vec3 `json:"followCenter,omitempty" jsonschema:"description=Fixed centre of the follow zone; defaults to the agent's spawn position"`
	Greeting     string     `json:"greeting,omitempty" jsonschema:"description=Line spoken when the follow zone latches an entity"`
	SpeakRadius  float64    `json:"speakRadius,omitempty" jsonschema:"description=Radius of the zone that travels with the agent and prompts a random line,minimum=0"`
	LostLines    []string   `json:"lostLines,omitempty" jsonschema:"description=Lines picked at random for the speak zone"`
}

// Enabled reports whether either zone is active.
func (t TriggerConfig) Enabled() bool {
	return t.FollowRadius > 0 || t.SpeakRadius > 0
}

// withDefaults fills the lines and anchors the follow zone at spawn.
func (t TriggerConfig) withDefaults(spawn geom.Vec3) TriggerConfig {
	if t.FollowCenter == nil {
		center := spawn
		t.FollowCenter = &center
	}
	if t.Greeting == "" {
		t.Greeting = DefaultGreeting
	}
	if len(t.LostLines) == 0 {
		t.LostLines = DefaultLostLines
	}
	return t
}

// PointConfig names a static target.
type PointConfig struct {
	ID       string    `json:"id"`
	Position geom.Vec3 `json:"position"`
}

// Config describes the initial world.
type Config struct {
	Seed   string        `json:"seed,omitempty" jsonschema:"description=Seed for the random line pickers"`
	Follow follow.Config `json:"follow"`
	Agents []AgentConfig `json:"agents"`
	Points []PointConfig `json:"points,omitempty"`
}

// UnmarshalJSON decodes strictly. An agent's follow block is layered over
// the shared follow tuning, so it only needs the fields it changes.
func (c *Config) UnmarshalJSON(data []byte) error {
	type plain Config
	raw := struct {
		*plain
		Agents []json.RawMessage `json:"agents"`
	}{plain: (*plain)(c)}
	if err := decodeStrict(data, &raw); err != nil {
		return err
	}
	if raw.Agents == nil {
		return nil
	}
	agents := make([]AgentConfig, 0, len(raw.Agents))
	for i, msg := range raw.Agents {
		ac, err := decodeAgent(msg, c.Follow)
		if err != nil {
			return fmt.Errorf("agents[%d]: %w", i, err)
		}
		agents = append(agents, ac)
	}
	c.Agents = agents
	return nil
}

func decodeAgent(data json.RawMessage, shared follow.Config) (AgentConfig, error) {
	var override struct {
		Follow json.RawMessage `json:"follow"`
	}
	if err := json.Unmarshal(data, &override); err != nil {
		return AgentConfig{}, err
	}
	var ac AgentConfig
	if len(override.Follow) > 0 && !bytes.Equal(bytes.TrimSpace(override.Follow), []byte("null")) {
		base := shared
		ac.Follow = &base
	}
	if err := decodeStrict(data, &ac); err != nil {
		return AgentConfig{}, err
	}
	return ac, nil
}

func decodeStrict(data []byte, v any) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}
