package handlers

import (
	"context"
	"net/http"

	"github.com/coursehub/progress-service/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BadgeService is the interface that wraps methods for badge business logic.
type BadgeService interface {
	// Method Refresh re-evaluates every badge requirement against live aggregates and unlocks
	// the badges the caller newly qualifies for, paying their bonuses through the ledger.
	Refresh(ctx context.Context, userID int) (*models.RefreshBadgesResponse, error)
	// Method ListBadges returns the badge catalog with the caller's progress and unlock state.
	ListBadges(ctx context.Context, userID int) ([]models.BadgeListItem, error)
}

// BadgeHandler handles HTTP requests for badges
type BadgeHandler struct {
	BaseHandler
	service BadgeService
}

// NewBadgeHandler creates a new badge handler
func NewBadgeHandler(svc BadgeService, logger *zap.Logger) *BadgeHandler {
	return &BadgeHandler{
		service:     svc,
		BaseHandler: BaseHandler{logger: logger},
	}
}

// RegisterRoutes registers all badge handler routes
func (h *BadgeHandler) RegisterRoutes(r chi.Router) {
	r.Route("/badges", func(r chi.Router) {
		r.Get("/", h.ListBadges)
		r.Post("/refresh", h.RefreshBadges)
	})
}

// ListBadges handles GET /api/v1/badges
// @Summary List badges
// @Description Get the badge catalog with the caller's progress per badge
// @Tags badges
// @Accept json
// @Produce json
// @Success 200 {array} model.BadgeListItem
// @Failure 401 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Security ApiKeyAuth
// @Router /api/v1/badges [get]
func (h *BadgeHandler) ListBadges(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUserID(w, r)
	if !ok {
		return
	}

	items, err := h.service.ListBadges(r.Context(), userID)
	if err != nil {
		h.handleServiceError(w, err, "failed to list badges")
		return
	}

	h.respondJSON(w, http.StatusOK, items)
}

// RefreshBadges handles POST /api/v1/badges/refresh
// @Summary Refresh badges
// @Description Unlock every badge the caller newly qualifies for and pay the bonuses
// @Tags badges
// @Accept json
// @Produce json
// @Success 200 {object} model.RefreshBadgesResponse
// @Failure 401 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Security ApiKeyAuth
// @Router /api/v1/badges/refresh [post]
func (h *BadgeHandler) RefreshBadges(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUserID(w, r)
	if !ok {
		return
	}

	response, err := h.service.Refresh(r.Context(), userID)
	if err != nil {
		h.handleServiceError(w, err, "failed to refresh badges")
		return
	}

	h.respondJSON(w, http.StatusOK, response)
}
