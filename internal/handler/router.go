package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/hearthly/backend/internal/handler/persona"
	"github.com/zhouzirui/hearthly/backend/internal/handler/voice"
	"github.com/zhouzirui/hearthly/backend/internal/handler/web"
	middlewarePkg "github.com/zhouzirui/hearthly/backend/internal/middleware"
	personaModel "github.com/zhouzirui/hearthly/backend/internal/model/persona"
	"github.com/zhouzirui/hearthly/backend/internal/observability"
)

const serviceName = "hearthly"

// Deps 路由依赖
type Deps struct {
	Processor      voice.Processor
	Catalog        personaModel.Catalog
	MaxBodyBytes   int64
	RequestTimeout time.Duration // 0 表示不限制
	Readiness      map[string]observability.HealthCheckFunc
	Logger         zerolog.Logger
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger(deps.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)
	if deps.RequestTimeout > 0 {
		r.Use(RequestTimeout(deps.RequestTimeout))
	}

	voiceHandler := voice.New(deps.Processor, deps.MaxBodyBytes)
	personaHandler := persona.New(deps.Catalog)

	r.Method(http.MethodGet, "/", web.New(deps.Catalog))
	r.Get("/healthz", observability.HealthCheckHandler(serviceName))
	r.Get("/readyz", observability.ReadinessHandler(serviceName, deps.Readiness))
	r.Handle("/metrics", promhttp.Handler())

	voiceHandler.RegisterRoutes(r)

	r.Route("/api", func(api chi.Router) {
		// Register persona routes
		personaHandler.RegisterRoutes(api)

		// 与根路径相同的语音接口
		voiceHandler.RegisterRoutes(api)
	})

	return r
}

// RequestTimeout 给单个 HTTP 请求的 context 加上截止时间，超时后由处理器自己写错误响应。
// WebSocket 会话不受限制。
func RequestTimeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Upgrade") != "" {
				next.ServeHTTP(w, r)
				return
			}
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
