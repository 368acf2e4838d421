package voice

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	voicemodel "github.com/zhouzirui/hearthly/backend/internal/model/voice"
	"github.com/zhouzirui/hearthly/backend/internal/observability"
	"github.com/zhouzirui/hearthly/backend/internal/service/pipeline"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
	writeTimeout = 10 * time.Second
)

type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// errorPayload error 帧的内容
type errorPayload struct {
	Kind    string `json:"kind"`
	Stage   string `json:"stage,omitempty"`
	Message string `json:"message"`
}

// handleWebSocket 每个 audio 帧跑一次完整管线，回一个 result 或 error 帧。
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := uuid.NewString()
	logger := zerolog.Ctx(r.Context()).With().Str("session_id", sessionID).Logger()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	observability.SessionOpened()
	defer observability.SessionClosed()
	logger.Info().Msg("websocket session opened")

	ctx, cancel := context.WithCancel(logger.WithContext(r.Context()))
	defer cancel()

	conn.SetReadLimit(h.maxBodyBytes)
	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	go h.pingLoop(ctx, conn)

	h.send(conn, logger, outgoingMessage{
		Type:      "connected",
		SessionID: sessionID,
		Data: map[string]any{
			"languages": voicemodel.SupportedLanguages(),
		},
	})

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn().Err(err).Msg("websocket read error")
			}
			return
		}

		h.handleMessage(ctx, conn, logger, sessionID, &msg)

		// 处理期间不读取，结束后重新计算读超时
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	}
}

func (h *Handler) handleMessage(ctx context.Context, conn *websocket.Conn, logger zerolog.Logger, sessionID string, msg *inboundMessage) {
	switch msg.Type {
	case "audio":
		var req voicemodel.AudioRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			h.sendError(conn, logger, sessionID, errorPayload{
				Kind:    string(voicemodel.KindDecode),
				Message: "invalid audio payload",
			})
			return
		}

		resp, err := h.processor.Run(ctx, &req)
		if err != nil {
			h.sendError(conn, logger, sessionID, errorPayload{
				Kind:    string(voicemodel.KindOf(err)),
				Stage:   pipeline.StageOf(err).String(),
				Message: err.Error(),
			})
			return
		}

		h.send(conn, logger, outgoingMessage{Type: "result", SessionID: sessionID, Data: resp})
	case "ping":
		h.send(conn, logger, outgoingMessage{Type: "pong", SessionID: sessionID})
	default:
		h.sendError(conn, logger, sessionID, errorPayload{
			Kind:    string(voicemodel.KindDecode),
			Message: "unsupported message type: " + msg.Type,
		})
	}
}

func (h *Handler) sendError(conn *websocket.Conn, logger zerolog.Logger, sessionID string, payload errorPayload) {
	h.send(conn, logger, outgoingMessage{Type: "error", SessionID: sessionID, Data: payload})
}

func (h *Handler) send(conn *websocket.Conn, logger zerolog.Logger, msg outgoingMessage) {
	msg.Timestamp = time.Now().Unix()
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(msg); err != nil {
		logger.Warn().Err(err).Str("type", msg.Type).Msg("websocket write failed")
	}
}

// pingLoop 只使用 WriteControl，可与 WriteJSON 并发调用
func (h *Handler) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}
