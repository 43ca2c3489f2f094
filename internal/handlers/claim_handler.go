package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/coursehub/progress-service/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ClaimService is the interface that wraps methods for unit and group reward claims.
type ClaimService interface {
	// Method ClaimUnitForUser claims the fixed unit reward once every lesson of the unit is complete.
	//
	// A unit already present in the enrollment's claimed set returns an "already claimed" result
	// without paying again; an incomplete unit returns an unsuccessful result without error.
	// Returns services.ErrNotEnrolled when the user has no enrollment for the course.
	ClaimUnitForUser(ctx context.Context, userID, courseID, unitID int) (*models.ClaimResult, error)
	// Method ClaimGroupForUser claims the progressive group reward once every lesson tagged with
	// the group is complete. The amount depends on how many groups were claimed before this one.
	ClaimGroupForUser(ctx context.Context, userID, courseID int, groupName string) (*models.ClaimResult, error)
}

// ClaimHandler handles HTTP requests for unit and group reward claims
type ClaimHandler struct {
	BaseHandler
	service ClaimService
}

// NewClaimHandler creates a new claim handler
func NewClaimHandler(svc ClaimService, logger *zap.Logger) *ClaimHandler {
	return &ClaimHandler{
		service:     svc,
		BaseHandler: BaseHandler{logger: logger},
	}
}

// RegisterRoutes registers all claim handler routes. Paths are registered flat
// because the progress handler already mounts a subrouter at /courses/{courseID}.
func (h *ClaimHandler) RegisterRoutes(r chi.Router) {
	r.Post("/courses/{courseID}/units/{unitID}/claim", h.ClaimUnit)
	r.Post("/courses/{courseID}/groups/{groupName}/claim", h.ClaimGroup)
}

// ClaimUnit handles POST /api/v1/courses/{courseID}/units/{unitID}/claim
// @Summary Claim a unit reward
// @Description Claim the fixed reward for a fully completed unit
// @Tags claims
// @Accept json
// @Produce json
// @Param courseID path int true "Course ID"
// @Param unitID path int true "Unit ID"
// @Success 200 {object} model.ClaimResult
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Security ApiKeyAuth
// @Router /api/v1/courses/{courseID}/units/{unitID}/claim [post]
func (h *ClaimHandler) ClaimUnit(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUserID(w, r)
	if !ok {
		return
	}

	courseID, err := strconv.Atoi(chi.URLParam(r, "courseID"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid courseID parameter")
		return
	}
	unitID, err := strconv.Atoi(chi.URLParam(r, "unitID"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid unitID parameter")
		return
	}

	result, err := h.service.ClaimUnitForUser(r.Context(), userID, courseID, unitID)
	if err != nil {
		h.handleServiceError(w, err, "failed to claim unit reward")
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

// ClaimGroup handles POST /api/v1/courses/{courseID}/groups/{groupName}/claim
// @Summary Claim a content group reward
// @Description Claim the progressive reward for a fully completed named content group
// @Tags claims
// @Accept json
// @Produce json
// @Param courseID path int true "Course ID"
// @Param groupName path string true "Content group name"
// @Success 200 {object} model.ClaimResult
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Security ApiKeyAuth
// @Router /api/v1/courses/{courseID}/groups/{groupName}/claim [post]
func (h *ClaimHandler) ClaimGroup(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUserID(w, r)
	if !ok {
		return
	}

	courseID, err := strconv.Atoi(chi.URLParam(r, "courseID"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid courseID parameter")
		return
	}
	groupName := chi.URLParam(r, "groupName")
	if groupName == "" {
		h.respondError(w, http.StatusBadRequest, "groupName parameter is required")
		return
	}

	result, err := h.service.ClaimGroupForUser(r.Context(), userID, courseID, groupName)
	if err != nil {
		h.handleServiceError(w, err, "failed to claim group reward")
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}
