package handler

import (
	"net/http"

	"cf_finder/internal/app/service"
	"cf_finder/internal/common"

	"github.com/go-chi/chi/v5"
)

type HistoryHandler struct {
	finderService *service.FinderService
}

func NewHistoryHandler(fs *service.FinderService) *HistoryHandler {
	return &HistoryHandler{finderService: fs}
}

func (h *HistoryHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.list)             // GET /api/v1/history
	r.Delete("/", h.clear)         // DELETE /api/v1/history
	r.Delete("/{queryID}", h.drop) // DELETE /api/v1/history/{id}
}

func (h *HistoryHandler) list(w http.ResponseWriter, r *http.Request) {
	queries, err := h.finderService.History(r.Context())
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, queries)
}

func (h *HistoryHandler) clear(w http.ResponseWriter, r *http.Request) {
	if err := h.finderService.ClearHistory(r.Context()); err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HistoryHandler) drop(w http.ResponseWriter, r *http.Request) {
	if err := h.finderService.DeleteHistory(r.Context(), chi.URLParam(r, "queryID")); err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
