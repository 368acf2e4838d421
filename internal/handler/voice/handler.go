package voice

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	voicemodel "github.com/zhouzirui/hearthly/backend/internal/model/voice"
	"github.com/zhouzirui/hearthly/backend/pkg/utils"
)

// DefaultMaxBodyBytes 请求体上限，base64 后的录音通常远小于该值
const DefaultMaxBodyBytes int64 = 25 << 20

// Processor 抽象一次性语音管线，便于测试与替换实现
type Processor interface {
	Run(ctx context.Context, req *voicemodel.AudioRequest) (*voicemodel.AudioResponse, error)
}

// Handler 语音对话的HTTP处理器
type Handler struct {
	processor    Processor
	maxBodyBytes int64
	upgrader     websocket.Upgrader
}

// New 创建语音处理器
func New(processor Processor, maxBodyBytes int64) *Handler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return &Handler{
		processor:    processor,
		maxBodyBytes: maxBodyBytes,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
}

// RegisterRoutes 注册语音相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/process-audio", h.handleProcessAudio)
	r.Get("/ws", h.handleWebSocket)
}

// handleProcessAudio 录音 → 转写 + 合成回复
func (h *Handler) handleProcessAudio(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)

	var req voicemodel.AudioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.RespondError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	logger.Info().
		Str("language", string(req.Language)).
		Bool("genz_mode", req.GenZMode).
		Int("audio_base64_len", len(req.Audio)).
		Msg("received process-audio request")

	resp, err := h.processor.Run(r.Context(), &req)
	if err != nil {
		utils.RespondErrorKind(w, StatusFor(err), string(voicemodel.KindOf(err)), err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, resp)
}

// StatusFor maps a pipeline error to its HTTP status: 400 for InvalidLanguage, 500 otherwise.
func StatusFor(err error) int {
	if voicemodel.IsClientError(err) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
