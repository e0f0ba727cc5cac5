package sinks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/logging"
)

// ConsoleSink prints one line per event:
//
//	tick=12 warn pursuit.abandoned agent:npc-1 -> entity:player-7 {"urgency":6.2}
type ConsoleSink struct {
	logger *log.Logger
}

func NewConsoleSink(w io.Writer, cfg logging.ConsoleConfig) *ConsoleSink {
	if w == nil {
		w = io.Discard
	}
	return &ConsoleSink{logger: log.New(w, cfg.Prefix, log.LstdFlags)}
}

func (s *ConsoleSink) Write(event logging.Event) error {
	var line strings.Builder
	fmt.Fprintf(&line, "tick=%d %s %s %s", event.Tick, event.Severity, event.Type, entityLabel(event.Actor))
	if len(event.Targets) > 0 {
		labels := make([]string, len(event.Targets))
		for i, target := range event.Targets {
			labels[i] = entityLabel(target)
		}
		line.WriteString(" -> ")
		line.WriteString(strings.Join(labels, ","))
	}
	if event.Payload != nil {
		line.WriteByte(' ')
		if data, err := json.Marshal(event.Payload); err == nil {
			line.Write(data)
		} else {
			fmt.Fprintf(&line, "%v", event.Payload)
		}
	}
	s.logger.Print(line.String())
	return nil
}

func (s *ConsoleSink) Close(context.Context) error {
	return nil
}

func entityLabel(ref logging.EntityRef) string {
	switch {
	case ref.ID == "" && ref.Kind == "":
		return "-"
	case ref.ID == "":
		return string(ref.Kind)
	case ref.Kind == "":
		return ref.ID
	}
	return string(ref.Kind) + ":" + ref.ID
}
