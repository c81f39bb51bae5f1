package api

import (
	"net/http"

	"github.com/taskflow/taskflow-api/internal/api/shared"
	"github.com/taskflow/taskflow-api/internal/service"
)

// AnalyticsHandler handles analytics API requests.
type AnalyticsHandler struct {
	analyticsService service.AnalyticsService
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(analyticsService service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

// Dashboard handles GET /api/analytics/dashboard.
func (h *AnalyticsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	dashboard, err := h.analyticsService.Dashboard(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Server error while fetching analytics")
		return
	}

	shared.RespondWithSuccess(w, r, http.StatusOK, "", dashboard)
}
