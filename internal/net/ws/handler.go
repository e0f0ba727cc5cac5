package ws

import (
	"errors"
	nethttp "net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/net/intake"
	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/net/proto"
	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/telemetry"
	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/logging"
)

type HandlerConfig struct {
	Logger telemetry.Logger
	Clock  logging.Clock
}

type Handler struct {
	queue    intake.Queue
	hub      *Hub
	logger   telemetry.Logger
	clock    logging.Clock
	upgrader websocket.Upgrader
}

func NewHandler(queue intake.Queue, hub *Hub, cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = telemetry.Discard()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = logging.SystemClock{}
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *nethttp.Request) bool {
			return true
		},
	}

	return &Handler{
		queue:    queue,
		hub:      hub,
		logger:   logger,
		clock:    clock,
		upgrader: upgrader,
	}
}

// Handle upgrades the request and serves one session until the client leaves.
// The optional "actor" query parameter names the caller for per-actor
// throttling; it defaults to the generated session ID.
func (h *Handler) Handle(w nethttp.ResponseWriter, r *nethttp.Request) {
	sessionID := uuid.NewString()
	actorID := strings.TrimSpace(r.URL.Query().Get("actor"))
	if actorID == "" {
		actorID = sessionID
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("upgrade failed for %s: %v", sessionID, err)
		return
	}

	sub := h.hub.Subscribe(sessionID, conn)
	defer h.hub.Disconnect(sessionID)
	h.logger.Printf("[ws] session %s connected actor=%s", sessionID, actorID)

	data, err := proto.EncodeState(h.queue.Latest(), h.clock.Now().UnixMilli())
	if err != nil {
		h.logger.Printf("failed to marshal initial state for %s: %v", sessionID, err)
		return
	}
	if err := sub.WriteMessage(websocket.TextMessage, data); err != nil {
		return
	}

	commandCtx := intake.CommandContext{Queue: h.queue, Now: h.clock.Now}
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			h.logger.Printf("[ws] session %s closed: %v", sessionID, err)
			return
		}

		msg, err := proto.DecodeClientMessage(payload)
		if err != nil {
			h.logger.Printf("discarding malformed message from %s: %v", sessionID, err)
			continue
		}

		_, err = intake.StageClientCommand(commandCtx, actorID, msg)
		if msg.Seq == 0 {
			if err != nil {
				h.logger.Printf("rejecting message from %s: %v", sessionID, err)
			}
			continue
		}

		var frame []byte
		var rejection *intake.Rejection
		switch {
		case err == nil:
			frame, err = proto.EncodeCommandAck(proto.CommandAck{Seq: msg.Seq})
		case errors.As(err, &rejection):
			h.logger.Printf("rejecting message from %s: %v", sessionID, rejection)
			frame, err = proto.EncodeCommandReject(proto.CommandReject{
				Seq:    msg.Seq,
				Reason: rejection.Error(),
				Retry:  rejection.Retry(),
			})
		default:
			h.logger.Printf("rejecting message from %s: %v", sessionID, err)
			frame, err = proto.EncodeCommandReject(proto.CommandReject{Seq: msg.Seq, Reason: err.Error()})
		}
		if err != nil {
			h.logger.Printf("failed to marshal response for %s: %v", sessionID, err)
			continue
		}
		if err := sub.WriteMessage(websocket.TextMessage, frame); err != nil {
			return
		}
	}
}
