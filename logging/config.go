package logging

import (
	"maps"
	"strings"
	"time"
)

// Config controls router buffering, severity filtering, and sink selection.
type Config struct {
	EnabledSinks     []string            `json:"enabledSinks,omitempty" jsonschema:"description=Sink names to enable (console json memory)"`
	BufferSize       int                 `json:"bufferSize,omitempty"`
	MinimumSeverity  Severity            `json:"minimumSeverity,omitempty" jsonschema:"description=0 debug 1 info 2 warn 3 error"`
	CategorySeverity map[string]Severity `json:"categorySeverity,omitempty" jsonschema:"description=Per-category overrides of minimumSeverity"`
	Fields           map[string]any      `json:"fields,omitempty"`
	JSON             JSONConfig          `json:"json,omitempty"`
	Console          ConsoleConfig       `json:"console,omitempty"`
	Memory           MemoryConfig        `json:"memory,omitempty"`
	DropWarnInterval time.Duration       `json:"dropWarnInterval,omitempty" jsonschema:"type=integer,description=Nanoseconds between backlog warnings"`
}

type JSONConfig struct {
	FilePath      string        `json:"filePath,omitempty"`
	FlushInterval time.Duration `json:"flushInterval,omitempty" jsonschema:"type=integer"`
}

type MemoryConfig struct {
	Limit int `json:"limit,omitempty" jsonschema:"description=Newest events retained (0 keeps all)"`
}

type ConsoleConfig struct {
	Prefix string `json:"prefix,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		EnabledSinks:     []string{"console"},
		BufferSize:       512,
		MinimumSeverity:  SeverityInfo,
		DropWarnInterval: 5 * time.Second,
		JSON: JSONConfig{
			FlushInterval: 2 * time.Second,
		},
	}
}

func (c Config) HasSink(name string) bool {
	for _, s := range c.EnabledSinks {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return true
		}
	}
	return false
}

// MinimumFor is the lowest severity routed for category.
func (c Config) MinimumFor(category string) Severity {
	if floor, ok := c.CategorySeverity[category]; ok {
		return floor
	}
	return c.MinimumSeverity
}

func (c Config) CloneFields() map[string]any {
	if len(c.Fields) == 0 {
		return nil
	}
	return maps.Clone(c.Fields)
}

// WithField returns a copy of c carrying key=value on every routed event.
func (c Config) WithField(key string, value any) Config {
	fields := c.CloneFields()
	if fields == nil {
		fields = make(map[string]any, 1)
	}
	fields[key] = value
	c.Fields = fields
	return c
}
