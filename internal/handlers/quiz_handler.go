package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/coursehub/progress-service/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// QuizService is the interface that wraps methods for quiz attempt business logic.
type QuizService interface {
	// Method SubmitAttempt records one quiz submission for the caller's enrollment.
	//
	// The attempt is classified as pass/fail against the 80% threshold and as first-attempt/retry
	// against the enrollment's attempt history; only a first attempt pays a reward, scaled by score.
	// Returns services.ErrNotEnrolled when the user has no enrollment for the course.
	SubmitAttempt(ctx context.Context, userID int, req *models.SubmitQuizRequest) (*models.SubmitQuizResult, error)
}

// QuizHandler handles HTTP requests for quiz attempts
type QuizHandler struct {
	BaseHandler
	service QuizService
}

// NewQuizHandler creates a new quiz handler
func NewQuizHandler(svc QuizService, logger *zap.Logger) *QuizHandler {
	return &QuizHandler{
		service:     svc,
		BaseHandler: BaseHandler{logger: logger},
	}
}

// RegisterRoutes registers all quiz handler routes
func (h *QuizHandler) RegisterRoutes(r chi.Router) {
	r.Post("/quizzes/attempts", h.SubmitAttempt)
}

// SubmitAttempt handles POST /api/v1/quizzes/attempts
// @Summary Submit a quiz attempt
// @Description Record a quiz submission; a first attempt pays XP proportional to the score, retries pay nothing
// @Tags quizzes
// @Accept json
// @Produce json
// @Param request body model.SubmitQuizRequest true "Quiz submission"
// @Success 200 {object} model.SubmitQuizResult
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Security ApiKeyAuth
// @Router /api/v1/quizzes/attempts [post]
func (h *QuizHandler) SubmitAttempt(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUserID(w, r)
	if !ok {
		return
	}

	var req models.SubmitQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CourseID <= 0 || req.LessonID <= 0 {
		h.respondError(w, http.StatusBadRequest, "courseId and lessonId are required")
		return
	}
	if req.Total <= 0 {
		h.respondError(w, http.StatusBadRequest, "total must be positive")
		return
	}
	if req.Score < 0 || req.Score > req.Total {
		h.respondError(w, http.StatusBadRequest, "score must be between 0 and total")
		return
	}

	result, err := h.service.SubmitAttempt(r.Context(), userID, &req)
	if err != nil {
		h.handleServiceError(w, err, "failed to submit quiz attempt")
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}
