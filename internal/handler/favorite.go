package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/recipeplanner/recipeplanner-go/internal/middleware"
	"github.com/recipeplanner/recipeplanner-go/internal/model"
	"github.com/recipeplanner/recipeplanner-go/internal/service"
)

// AvailabilityCheck probes the backing store so list endpoints can answer
// 503 when the database is down instead of surfacing a generic fault.
type AvailabilityCheck func(ctx context.Context) error

// FavoriteHandler handles HTTP requests for favorite recipes.
type FavoriteHandler struct {
	service   *service.FavoriteService
	available AvailabilityCheck
}

// NewFavoriteHandler creates a new FavoriteHandler.
func NewFavoriteHandler(svc *service.FavoriteService, available AvailabilityCheck) *FavoriteHandler {
	return &FavoriteHandler{service: svc, available: available}
}

// HandleList handles GET /api/favorites requests.
func (h *FavoriteHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
		return
	}

	if err := h.available(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse("database connection not available"))
		return
	}

	snapshots, err := h.service.List(r.Context(), session.UserID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
		return
	}
	if snapshots == nil {
		snapshots = []json.RawMessage{}
	}

	writeJSON(w, http.StatusOK, snapshots)
}

// HandleAdd handles POST /api/favorites requests.
func (h *FavoriteHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
		return
	}

	var req model.AddFavoriteRequest
	if !decodeJSON(w, r, 1<<20, &req) {
		return
	}

	snapshot, err := h.service.Add(r.Context(), session.UserID, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRecipeFieldsRequired), errors.Is(err, service.ErrAlreadyFavorite):
			writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
		default:
			writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
		}
		return
	}

	writeJSON(w, http.StatusCreated, model.AddFavoriteResponse{
		Message:  "Recipe added to favorites",
		Favorite: snapshot,
	})
}

// HandleRemove handles DELETE /api/favorites/{recipeID} requests.
func (h *FavoriteHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
		return
	}

	recipeID := chi.URLParam(r, "recipeID")
	if recipeID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse("recipe ID is required"))
		return
	}

	if err := h.service.Remove(r.Context(), session.UserID, recipeID); err != nil {
		if errors.Is(err, service.ErrFavoriteNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse(err.Error()))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
		return
	}

	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "Recipe removed from favorites"})
}
