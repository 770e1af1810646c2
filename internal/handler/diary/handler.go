package diary

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	diarymodel "github.com/zhouzirui/aura/backend/internal/model/diary"
	"github.com/zhouzirui/aura/backend/internal/service/journal"
	"github.com/zhouzirui/aura/backend/pkg/utils"
)

// Handler 日记与日历提醒的HTTP处理器
type Handler struct {
	journal *journal.Service
}

// New 创建日记处理器
func New(journal *journal.Service) *Handler {
	return &Handler{journal: journal}
}

type entryPayload struct {
	Content string `json:"content"`
}

// RegisterRoutes 注册日记相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/diary", func(dr chi.Router) {
		dr.Get("/", h.handleList)
		dr.Post("/", h.handleCreate)
		dr.Put("/{entryID}", h.handleUpdate)
		dr.Delete("/{entryID}", h.handleDelete)
	})

	r.Get("/reminders", h.handleListReminders)
	r.Put("/reminders/{date}", h.handleSaveReminder)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.journal.List(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload entryPayload
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	entry, err := h.journal.Create(r.Context(), payload.Content)
	if err != nil {
		respondJournalError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, entry)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var payload entryPayload
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	entry, err := h.journal.Update(r.Context(), chi.URLParam(r, "entryID"), payload.Content)
	if err != nil {
		respondJournalError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, entry)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.journal.Delete(r.Context(), chi.URLParam(r, "entryID")); err != nil {
		respondJournalError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListReminders(w http.ResponseWriter, _ *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.journal.Reminders())
}

// handleSaveReminder 保存提醒，文本为空时删除。
func (h *Handler) handleSaveReminder(w http.ResponseWriter, r *http.Request) {
	date, err := time.Parse(diarymodel.DateLayout, chi.URLParam(r, "date"))
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	var payload struct {
		Text string `json:"text"`
	}
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	reminder, ok := h.journal.SaveReminder(date, payload.Text)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	utils.RespondJSON(w, http.StatusOK, reminder)
}

func respondJournalError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, journal.ErrEmptyContent):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, journal.ErrEntryNotFound):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	default:
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
	}
}
