package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/coursehub/progress-service/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ProgressService is the interface that wraps methods for content progress business logic.
type ProgressService interface {
	// Method RecordProgress upserts the progress record for one content item within the caller's enrollment.
	//
	// "userID" is the authenticated user; the enrollment is resolved from it and the request's course ID.
	// A first completion of a rewardable item pays the content reward and re-evaluates the owning lesson.
	// Rewatching already-completed content only updates the resume position and never pays again.
	// Returns services.ErrNotEnrolled when the user has no enrollment for the course.
	RecordProgress(ctx context.Context, userID int, req *models.RecordProgressRequest) (*models.RecordProgressResult, error)
}

// CourseProgressService is the interface that wraps methods for course-level progress reads and milestone evaluation.
type CourseProgressService interface {
	// Method CourseProgress reports completed lessons over total lessons for the caller's enrollment.
	CourseProgress(ctx context.Context, userID, courseID int) (*models.CourseProgressResponse, error)
	// Method EvaluateMilestones re-derives the caller's course progress and pays every
	// milestone threshold at or below it that was not paid before.
	EvaluateMilestones(ctx context.Context, userID, courseID int) ([]models.MilestoneResult, error)
}

// ProgressHandler handles HTTP requests for content and course progress
type ProgressHandler struct {
	BaseHandler
	service ProgressService
	courses CourseProgressService
}

// NewProgressHandler creates a new progress handler
func NewProgressHandler(svc ProgressService, courses CourseProgressService, logger *zap.Logger) *ProgressHandler {
	return &ProgressHandler{
		service:     svc,
		courses:     courses,
		BaseHandler: BaseHandler{logger: logger},
	}
}

// RegisterRoutes registers all progress handler routes
func (h *ProgressHandler) RegisterRoutes(r chi.Router) {
	r.Post("/progress/content", h.RecordContentProgress)
	r.Route("/courses/{courseID}", func(r chi.Router) {
		r.Get("/progress", h.GetCourseProgress)
		r.Post("/milestones/evaluate", h.EvaluateMilestones)
	})
}

// RecordContentProgress handles POST /api/v1/progress/content
// @Summary Record content progress
// @Description Record watch position and completion for a content item; the first completion of a rewardable item pays XP
// @Tags progress
// @Accept json
// @Produce json
// @Param request body model.RecordProgressRequest true "Progress update"
// @Success 200 {object} model.RecordProgressResult
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Security ApiKeyAuth
// @Router /api/v1/progress/content [post]
func (h *ProgressHandler) RecordContentProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUserID(w, r)
	if !ok {
		return
	}

	var req models.RecordProgressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CourseID <= 0 || req.ContentID <= 0 {
		h.respondError(w, http.StatusBadRequest, "courseId and contentId are required")
		return
	}

	result, err := h.service.RecordProgress(r.Context(), userID, &req)
	if err != nil {
		h.handleServiceError(w, err, "failed to record content progress")
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

// GetCourseProgress handles GET /api/v1/courses/{courseID}/progress
// @Summary Get course progress
// @Description Get completed lessons over total lessons for the caller's enrollment
// @Tags progress
// @Accept json
// @Produce json
// @Param courseID path int true "Course ID"
// @Success 200 {object} model.CourseProgressResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Security ApiKeyAuth
// @Router /api/v1/courses/{courseID}/progress [get]
func (h *ProgressHandler) GetCourseProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUserID(w, r)
	if !ok {
		return
	}

	courseID, err := strconv.Atoi(chi.URLParam(r, "courseID"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid courseID parameter")
		return
	}

	progress, err := h.courses.CourseProgress(r.Context(), userID, courseID)
	if err != nil {
		h.handleServiceError(w, err, "failed to get course progress")
		return
	}

	h.respondJSON(w, http.StatusOK, progress)
}

// EvaluateMilestones handles POST /api/v1/courses/{courseID}/milestones/evaluate
// @Summary Evaluate course milestones
// @Description Re-derive course progress and pay every reached milestone that was not paid before
// @Tags progress
// @Accept json
// @Produce json
// @Param courseID path int true "Course ID"
// @Success 200 {array} model.MilestoneResult
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Security ApiKeyAuth
// @Router /api/v1/courses/{courseID}/milestones/evaluate [post]
func (h *ProgressHandler) EvaluateMilestones(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUserID(w, r)
	if !ok {
		return
	}

	courseID, err := strconv.Atoi(chi.URLParam(r, "courseID"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid courseID parameter")
		return
	}

	results, err := h.courses.EvaluateMilestones(r.Context(), userID, courseID)
	if err != nil {
		h.handleServiceError(w, err, "failed to evaluate milestones")
		return
	}

	h.respondJSON(w, http.StatusOK, results)
}
