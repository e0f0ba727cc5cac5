package world

import (
	"context"
	"math/rand"

	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/follow"
	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/geom"
	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/logging"
	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/logging/pursuit"
)

const (
	triggerFollow = "follow"
	triggerSpeak  = "speak"
)

// triggers tracks which entities stand in an agent's zones. Only the edge
// into a zone fires.
type triggers struct {
	cfg          TriggerConfig
	rng          *rand.Rand
	insideFollow map[string]bool
	insideSpeak  map[string]bool
	// latched is the entity the follow zone sent everyone after; the zone
	// stays quiet until it is removed from the world.
	latched string
}

func newTriggers(cfg TriggerConfig, rng *rand.Rand) *triggers {
	return &triggers{
		cfg:          cfg,
		rng:          rng,
		insideFollow: make(map[string]bool),
		insideSpeak:  make(map[string]bool),
	}
}

func (t *triggers) forget(entityID string) {
	if t == nil {
		return
	}
	delete(t.insideFollow, entityID)
	delete(t.insideSpeak, entityID)
	if t.latched == entityID {
		t.latched = ""
	}
}

func (w *World) checkTriggers(ctx context.Context, a *agent) {
	t := a.triggers
	if t == nil {
		return
	}
	if t.cfg.FollowRadius > 0 {
		for _, entity := range w.entered(t.insideFollow, *t.cfg.FollowCenter, t.cfg.FollowRadius) {
			if t.latched != "" {
				continue
			}
			t.latched = entity.id
			w.speak(a.id, t.cfg.Greeting)
			w.publishTrigger(ctx, a.id, entity.id, triggerFollow, t.cfg.Greeting)
			target := follow.EntityTarget(entity)
			for _, id := range w.order {
				w.assign(w.agents[id], target)
			}
		}
	}
	if t.cfg.SpeakRadius > 0 {
		state, ok := a.body.Snapshot()
		if !ok {
			return
		}
		for _, entity := range w.entered(t.insideSpeak, state.Position, t.cfg.SpeakRadius) {
			line := RandomLine(t.rng, t.cfg.LostLines)
			w.speak(a.id, line)
			w.publishTrigger(ctx, a.id, entity.id, triggerSpeak, line)
		}
	}
}

// entered updates inside for the zone at center and returns, in id order,
// the entities that were outside it on the previous check.
func (w *World) entered(inside map[string]bool, center geom.Vec3, radius float64) []*Entity {
	var arrivals []*Entity
	for _, id := range sortedKeys(w.entities) {
		entity := w.entities[id]
		if entity.npc || !entity.present {
			continue
		}
		in := geom.Distance(entity.position, center) <= radius
		if in && !inside[id] {
			arrivals = append(arrivals, entity)
		}
		if in {
			inside[id] = true
		} else {
			delete(inside, id)
		}
	}
	return arrivals
}

func (w *World) publishTrigger(ctx context.Context, agentID, entityID, trigger, line string) {
	pursuit.TriggerEntered(ctx, w.deps.Publisher, w.tick,
		logging.EntityRef{ID: agentID, Kind: logging.EntityKindAgent},
		logging.EntityRef{ID: entityID, Kind: logging.EntityKindEntity},
		pursuit.TriggerEnteredPayload{Trigger: trigger, Line: line}, nil)
}
