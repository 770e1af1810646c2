package advice

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/aura/backend/internal/model/diary"
	"github.com/zhouzirui/aura/backend/internal/service/advisory"
	"github.com/zhouzirui/aura/backend/pkg/utils"
)

// Handler exposes the single-shot advisory prompts.
type Handler struct {
	advisory *advisory.Service
}

// New creates an advice handler.
func New(svc *advisory.Service) *Handler {
	return &Handler{advisory: svc}
}

// RegisterRoutes registers the advice routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/advice", func(ar chi.Router) {
		ar.Get("/thought", h.handleThought)
		ar.Get("/occasion", h.handleOccasion)
		ar.Post("/therapy", h.handleTherapy)
	})
}

func (h *Handler) handleThought(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.advisory.DailyThought(r.Context()))
}

func (h *Handler) handleOccasion(w http.ResponseWriter, r *http.Request) {
	date := time.Now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse(diary.DateLayout, raw)
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		date = parsed
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"date":  diary.Day(date),
		"quote": h.advisory.OccasionQuote(r.Context(), date),
	})
}

func (h *Handler) handleTherapy(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"analysis": h.advisory.TherapyInsight(r.Context()),
	})
}
