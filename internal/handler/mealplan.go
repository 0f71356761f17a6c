package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/recipeplanner/recipeplanner-go/internal/middleware"
	"github.com/recipeplanner/recipeplanner-go/internal/model"
	"github.com/recipeplanner/recipeplanner-go/internal/service"
)

// MealPlanHandler handles HTTP requests for the weekly meal plan.
type MealPlanHandler struct {
	service   *service.MealPlanService
	available AvailabilityCheck
}

// NewMealPlanHandler creates a new MealPlanHandler.
func NewMealPlanHandler(svc *service.MealPlanService, available AvailabilityCheck) *MealPlanHandler {
	return &MealPlanHandler{service: svc, available: available}
}

// HandleList handles GET /api/mealplan requests, returning a
// date-to-recipes map.
func (h *MealPlanHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
		return
	}

	if err := h.available(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse("database connection not available"))
		return
	}

	plan, err := h.service.List(r.Context(), session.UserID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
		return
	}

	writeJSON(w, http.StatusOK, plan)
}

// HandleAdd handles POST /api/mealplan requests.
func (h *MealPlanHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
		return
	}

	var req model.AddMealPlanRequest
	if !decodeJSON(w, r, 1<<20, &req) {
		return
	}

	entry, err := h.service.AddRecipe(r.Context(), session.UserID, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDateRecipeRequired),
			errors.Is(err, service.ErrInvalidDate),
			errors.Is(err, service.ErrRecipeAlreadyPlanned):
			writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
		default:
			writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
		}
		return
	}

	writeJSON(w, http.StatusCreated, model.AddMealPlanResponse{
		Message: "Recipe added to meal plan",
		Date:    entry.Date,
		Recipes: entry.Recipes,
	})
}

// HandleRemoveRecipe handles DELETE /api/mealplan/{date}/{recipeID}
// requests.
func (h *MealPlanHandler) HandleRemoveRecipe(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
		return
	}

	date := chi.URLParam(r, "date")
	recipeID := chi.URLParam(r, "recipeID")

	if err := h.service.RemoveRecipe(r.Context(), session.UserID, date, recipeID); err != nil {
		if errors.Is(err, service.ErrMealPlanNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse(err.Error()))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
		return
	}

	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "Recipe removed from meal plan"})
}

// HandleRemoveDate handles DELETE /api/mealplan/{date} requests.
func (h *MealPlanHandler) HandleRemoveDate(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
		return
	}

	date := chi.URLParam(r, "date")

	if err := h.service.RemoveDate(r.Context(), session.UserID, date); err != nil {
		if errors.Is(err, service.ErrMealPlanNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse(err.Error()))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
		return
	}

	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "Meal plan deleted"})
}
