package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/coursehub/progress-service/internal/auth"
	"github.com/coursehub/progress-service/internal/services"
	"go.uber.org/zap"
)

type BaseHandler struct {
	logger *zap.Logger
}

// respondJSON sends a JSON response
func (h *BaseHandler) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// respondError sends an error JSON response
func (h *BaseHandler) respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		h.logger.Error("failed to encode JSON error response", zap.Error(err))
	}
}

// currentUserID extracts the authenticated user from the request context,
// responding 401 when the auth middleware did not run or rejected the token
func (h *BaseHandler) currentUserID(w http.ResponseWriter, r *http.Request) (int, bool) {
	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "authentication required")
		return 0, false
	}
	return userID, true
}

// handleServiceError maps service errors to HTTP statuses: missing
// enrollment to 403, missing entities to 404, everything else to a logged
// 500 with the given fallback message
func (h *BaseHandler) handleServiceError(w http.ResponseWriter, err error, fallback string) {
	if errors.Is(err, services.ErrNotEnrolled) {
		h.respondError(w, http.StatusForbidden, "not enrolled in this course")
		return
	}
	// Repository lookups report missing entities as "x not found" (may be wrapped)
	if strings.Contains(err.Error(), "not found") {
		h.respondError(w, http.StatusNotFound, err.Error())
		return
	}
	h.logger.Error(fallback, zap.Error(err))
	h.respondError(w, http.StatusInternalServerError, fallback)
}
