package helpline

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/aura/backend/internal/model/helpline"
	"github.com/zhouzirui/aura/backend/pkg/utils"
)

// Handler 求助热线的只读HTTP处理器
type Handler struct {
	helplines helpline.Store
}

// New 创建热线处理器
func New(helplines helpline.Store) *Handler {
	return &Handler{helplines: helplines}
}

// RegisterRoutes 注册热线相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/helplines", h.handleList)
	r.Get("/helplines/{helplineID}", h.handleGet)
}

func (h *Handler) handleList(w http.ResponseWriter, _ *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.helplines.List())
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	item, ok := h.helplines.FindByID(chi.URLParam(r, "helplineID"))
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "helpline not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, item)
}
