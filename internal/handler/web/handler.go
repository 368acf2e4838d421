package web

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/zhouzirui/hearthly/backend/internal/model/persona"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// Handler 渲染录音页面
type Handler struct {
	catalog persona.Catalog
}

// New creates the index page handler.
func New(catalog persona.Catalog) *Handler {
	return &Handler{catalog: catalog}
}

// ServeHTTP renders the page into a buffer first so a template failure never yields a partial page.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, h.catalog); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("template rendering error")
		http.Error(w, "Error rendering template", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
