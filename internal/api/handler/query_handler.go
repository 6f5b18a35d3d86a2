package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"cf_finder/internal/api/middleware"
	"cf_finder/internal/app/engine"
	"cf_finder/internal/app/service"
	"cf_finder/internal/common"

	"github.com/go-chi/chi/v5"
)

type QueryHandler struct {
	finderService *service.FinderService
}

func NewQueryHandler(fs *service.FinderService) *QueryHandler {
	return &QueryHandler{finderService: fs}
}

func (h *QueryHandler) RegisterRoutes(r chi.Router) {
	r.Post("/finder", h.find)                          // POST /api/v1/finder
	r.Post("/revision", h.revise)                      // POST /api/v1/revision
	r.Get("/sessions/{sessionID}/view", h.viewSession) // GET /api/v1/sessions/{id}/view?sort=...
}

func (h *QueryHandler) find(w http.ResponseWriter, r *http.Request) {
	var req service.FindRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithServiceError(w, fmt.Errorf("%w: invalid request body: %v", common.ErrBadRequest, err))
		return
	}
	req.SessionID, _ = middleware.GetSessionIDFromContext(r.Context())

	resp, err := h.finderService.Find(r.Context(), req)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *QueryHandler) revise(w http.ResponseWriter, r *http.Request) {
	var req service.ReviseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithServiceError(w, fmt.Errorf("%w: invalid request body: %v", common.ErrBadRequest, err))
		return
	}
	req.SessionID, _ = middleware.GetSessionIDFromContext(r.Context())

	resp, err := h.finderService.Revise(r.Context(), req)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *QueryHandler) viewSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	opts, err := parseViewOptions(r)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	view, err := h.finderService.View(sessionID, opts)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, view)
}

func parseViewOptions(r *http.Request) (service.ViewOptions, error) {
	q := r.URL.Query()

	var opts service.ViewOptions
	opts.Tags = parseCommaSeparated(q.Get("tags"))

	var err error
	if opts.TagMode, err = engine.ParseTagMode(q.Get("tagMode")); err != nil {
		return opts, err
	}
	if opts.SortKey, err = engine.ParseSortKey(q.Get("sort")); err != nil {
		return opts, err
	}
	if groupBy := q.Get("groupBy"); groupBy != "" {
		if opts.GroupBy, err = engine.ParseGroupKey(groupBy); err != nil {
			return opts, err
		}
	}
	return opts, nil
}

// respondWithServiceError maps err to a status and includes every per-handle
// failure when the error carries them.
func respondWithServiceError(w http.ResponseWriter, err error) {
	code := common.HTTPStatusFromError(err)
	if failures := service.FailureDetails(err); len(failures) > 0 {
		common.RespondWithFailures(w, code, err.Error(), failures)
		return
	}
	common.RespondWithError(w, code, err.Error())
}
