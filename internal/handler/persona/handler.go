package persona

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/hearthly/backend/internal/model/persona"
	"github.com/zhouzirui/hearthly/backend/pkg/utils"
)

// Handler persona服务的HTTP处理器
type Handler struct {
	catalog  persona.Catalog
	personas persona.Store
}

// New 创建persona处理器
func New(catalog persona.Catalog) *Handler {
	return &Handler{
		catalog:  catalog,
		personas: persona.NewMemoryStore(catalog.Personas),
	}
}

// RegisterRoutes 注册persona相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/personas", h.handleCatalog)
	r.Get("/personas/{personaID}", h.handleGetPersona)
}

// handleCatalog 返回语言、音色与全部语气
func (h *Handler) handleCatalog(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.catalog)
}

func (h *Handler) handleGetPersona(w http.ResponseWriter, r *http.Request) {
	item, ok := h.personas.FindByID(chi.URLParam(r, "personaID"))
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "persona not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, item)
}
