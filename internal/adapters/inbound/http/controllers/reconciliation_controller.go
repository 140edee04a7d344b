package controllers

import (
	"net/http"

	"depixsync/internal/application/dto"
	portsin "depixsync/internal/application/ports/in"

	"go.uber.org/zap"
)

type ReconciliationController struct {
	trigger    portsin.TriggerReconciliationUseCase
	rateLimits portsin.GetRateLimitsUseCase
	logger     *zap.Logger
}

func NewReconciliationController(
	trigger portsin.TriggerReconciliationUseCase,
	rateLimits portsin.GetRateLimitsUseCase,
	logger *zap.Logger,
) *ReconciliationController {
	return &ReconciliationController{
		trigger:    trigger,
		rateLimits: rateLimits,
		logger:     loggerOrNop(logger),
	}
}

// TriggerRun blocks until the tick finishes. A tick already in flight
// answers 409.
func (c *ReconciliationController) TriggerRun(w http.ResponseWriter, r *http.Request) {
	output, appErr := c.trigger.RunOnce(r.Context())
	if appErr != nil {
		logRequestError(c.logger, r, "/v1/admin/reconciliation/runs", appErr)
		writeAppError(w, appErr)
		return
	}

	writeJSON(w, http.StatusOK, output)
}

type rateLimitsResponse struct {
	Windows []dto.RateWindowSnapshot `json:"windows"`
}

func (c *ReconciliationController) GetRateLimits(w http.ResponseWriter, r *http.Request) {
	windows, appErr := c.rateLimits.Execute(r.Context())
	if appErr != nil {
		logRequestError(c.logger, r, "/v1/admin/rate-limits", appErr)
		writeAppError(w, appErr)
		return
	}

	writeJSON(w, http.StatusOK, rateLimitsResponse{Windows: windows})
}
