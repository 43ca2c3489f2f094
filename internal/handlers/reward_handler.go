package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/coursehub/progress-service/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// RewardService is the interface that wraps read methods of the reward ledger.
type RewardService interface {
	// Method Balance returns the user's XP balance, cached when possible.
	Balance(ctx context.Context, userID int) (int, error)
	// Method History retrieves a page of the user's reward transactions, newest first.
	//
	// "page" and "count" fall back to 1 and 10 when not positive.
	History(ctx context.Context, userID, page, count int) (*models.RewardHistoryResponse, error)
}

// RewardHandler handles HTTP requests for reward reads
type RewardHandler struct {
	BaseHandler
	service RewardService
}

// NewRewardHandler creates a new reward handler
func NewRewardHandler(svc RewardService, logger *zap.Logger) *RewardHandler {
	return &RewardHandler{
		service:     svc,
		BaseHandler: BaseHandler{logger: logger},
	}
}

// RegisterRoutes registers all reward handler routes
func (h *RewardHandler) RegisterRoutes(r chi.Router) {
	r.Route("/rewards", func(r chi.Router) {
		r.Get("/balance", h.GetBalance)
		r.Get("/history", h.GetHistory)
	})
}

// GetBalance handles GET /api/v1/rewards/balance
// @Summary Get XP balance
// @Description Get the caller's current XP balance
// @Tags rewards
// @Accept json
// @Produce json
// @Success 200 {object} model.BalanceResponse
// @Failure 401 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Security ApiKeyAuth
// @Router /api/v1/rewards/balance [get]
func (h *RewardHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUserID(w, r)
	if !ok {
		return
	}

	balance, err := h.service.Balance(r.Context(), userID)
	if err != nil {
		h.handleServiceError(w, err, "failed to get balance")
		return
	}

	h.respondJSON(w, http.StatusOK, models.BalanceResponse{UserID: userID, Balance: balance})
}

// GetHistory handles GET /api/v1/rewards/history
// @Summary Get reward history
// @Description Get a page of the caller's reward transactions, newest first
// @Tags rewards
// @Accept json
// @Produce json
// @Param page query int false "Page number, default: 1"
// @Param count query int false "Items per page, default: 10"
// @Success 200 {object} model.RewardHistoryResponse
// @Failure 401 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Security ApiKeyAuth
// @Router /api/v1/rewards/history [get]
func (h *RewardHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUserID(w, r)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	count, _ := strconv.Atoi(r.URL.Query().Get("count"))

	history, err := h.service.History(r.Context(), userID, page, count)
	if err != nil {
		h.handleServiceError(w, err, "failed to get reward history")
		return
	}

	h.respondJSON(w, http.StatusOK, history)
}
