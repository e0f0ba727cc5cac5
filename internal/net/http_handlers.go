package net

import (
	"encoding/json"
	"errors"
	"io"
	nethttp "net/http"

	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/net/intake"
	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/net/proto"
	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/net/ws"
	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/observability"
	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/sim"
	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/telemetry"
	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/logging"
)

const maxBodyBytes = 64 << 10

type HTTPHandlerConfig struct {
	Logger  telemetry.Logger
	Clock   logging.Clock
	Hub     *ws.Hub
	Metrics *logging.Metrics

	Observability observability.Config
}

// NewHTTPHandler exposes the loop over HTTP and websocket.
func NewHTTPHandler(queue intake.Queue, cfg HTTPHandlerConfig) nethttp.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = telemetry.Discard()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = logging.SystemClock{}
	}
	hub := cfg.Hub
	if hub == nil {
		hub = ws.NewHub(logger, nil, clock)
	}

	mux := nethttp.NewServeMux()

	mux.HandleFunc("/healthz", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/state", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodGet {
			httpError(w, "method not allowed", nethttp.StatusMethodNotAllowed)
			return
		}
		data, err := proto.EncodeState(queue.Latest(), clock.Now().UnixMilli())
		if err != nil {
			httpError(w, "failed to encode", nethttp.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})

	mux.HandleFunc("/metrics", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		payload := struct {
			Sessions int               `json:"sessions"`
			Counters map[string]uint64 `json:"counters"`
		}{
			Sessions: hub.Sessions(),
			Counters: map[string]uint64{},
		}
		if cfg.Metrics != nil {
			payload.Counters = cfg.Metrics.Snapshot()
		}
		writeJSON(w, nethttp.StatusOK, payload)
	})

	mux.HandleFunc("/target", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodPost {
			httpError(w, "method not allowed", nethttp.StatusMethodNotAllowed)
			return
		}
		defer r.Body.Close()

		var req sim.FollowTargetCommand
		decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&req); err != nil {
			httpError(w, "invalid payload", nethttp.StatusBadRequest)
			return
		}
		cmd, err := intake.StageClientCommand(
			intake.CommandContext{Queue: queue, Now: clock.Now},
			r.Header.Get("X-Actor-ID"),
			proto.ClientMessage{Type: proto.TypeSetFollowTarget, AgentID: req.AgentID, Target: &req.Target},
		)
		if err != nil {
			var rejection *intake.Rejection
			if errors.As(err, &rejection) && rejection.Invalid() {
				httpError(w, err.Error(), nethttp.StatusBadRequest)
				return
			}
			logger.Printf("[http] target command rejected: %v", err)
			httpError(w, err.Error(), nethttp.StatusTooManyRequests)
			return
		}
		writeJSON(w, nethttp.StatusAccepted, struct {
			Status string         `json:"status"`
			Tick   uint64         `json:"tick"`
			Follow sim.TargetSpec `json:"target"`
			Agent  string         `json:"agentId,omitempty"`
		}{Status: "queued", Tick: cmd.OriginTick, Follow: cmd.Follow.Target, Agent: cmd.Follow.AgentID})
	})

	handler := ws.NewHandler(queue, hub, ws.HandlerConfig{Logger: logger, Clock: clock})
	mux.HandleFunc("/ws", handler.Handle)
	cfg.Observability.Register(mux)

	return mux
}

func writeJSON(w nethttp.ResponseWriter, status int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		httpError(w, "failed to encode", nethttp.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

func httpError(w nethttp.ResponseWriter, message string, status int) {
	nethttp.Error(w, message, status)
}
