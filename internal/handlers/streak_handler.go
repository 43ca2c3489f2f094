package handlers

import (
	"context"
	"net/http"

	"github.com/coursehub/progress-service/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// StreakService is the interface that wraps methods for streak business logic.
type StreakService interface {
	// Method Touch registers qualifying activity for today, extending or resetting the
	// caller's streak by calendar-day comparison and paying any matching milestone bonus.
	Touch(ctx context.Context, userID int) (*models.TouchStreakResult, error)
	// Method Get returns the caller's streak state, zero-valued when none exists.
	Get(ctx context.Context, userID int) (*models.StreakState, error)
}

// StreakHandler handles HTTP requests for streaks
type StreakHandler struct {
	BaseHandler
	service StreakService
}

// NewStreakHandler creates a new streak handler
func NewStreakHandler(svc StreakService, logger *zap.Logger) *StreakHandler {
	return &StreakHandler{
		service:     svc,
		BaseHandler: BaseHandler{logger: logger},
	}
}

// RegisterRoutes registers all streak handler routes
func (h *StreakHandler) RegisterRoutes(r chi.Router) {
	r.Route("/streak", func(r chi.Router) {
		r.Get("/", h.GetStreak)
		r.Post("/touch", h.TouchStreak)
	})
}

// GetStreak handles GET /api/v1/streak
// @Summary Get streak state
// @Description Get the caller's current and longest streak
// @Tags streak
// @Accept json
// @Produce json
// @Success 200 {object} model.StreakState
// @Failure 401 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Security ApiKeyAuth
// @Router /api/v1/streak [get]
func (h *StreakHandler) GetStreak(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUserID(w, r)
	if !ok {
		return
	}

	state, err := h.service.Get(r.Context(), userID)
	if err != nil {
		h.handleServiceError(w, err, "failed to get streak")
		return
	}

	h.respondJSON(w, http.StatusOK, state)
}

// TouchStreak handles POST /api/v1/streak/touch
// @Summary Register daily activity
// @Description Extend or reset the caller's streak for today and pay any matching milestone bonus
// @Tags streak
// @Accept json
// @Produce json
// @Success 200 {object} model.TouchStreakResult
// @Failure 401 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Security ApiKeyAuth
// @Router /api/v1/streak/touch [post]
func (h *StreakHandler) TouchStreak(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUserID(w, r)
	if !ok {
		return
	}

	result, err := h.service.Touch(r.Context(), userID)
	if err != nil {
		h.handleServiceError(w, err, "failed to touch streak")
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}
