package controllers

import (
	"net/http"

	"depixsync/internal/application/dto"
	portsin "depixsync/internal/application/ports/in"
	valueobjects "depixsync/internal/domain/value_objects"

	"go.uber.org/zap"
)

type HealthController struct {
	useCase portsin.GetHealthUseCase
	logger  *zap.Logger
}

func NewHealthController(useCase portsin.GetHealthUseCase, logger *zap.Logger) *HealthController {
	return &HealthController{
		useCase: useCase,
		logger:  loggerOrNop(logger),
	}
}

// GetHealth answers 200 while the process is up. A degraded settlement
// provider is reported in the body, not the status code.
func (c *HealthController) GetHealth(w http.ResponseWriter, r *http.Request) {
	output, appErr := c.useCase.Execute(r.Context(), dto.GetHealthCommand{})
	if appErr != nil {
		logRequestError(c.logger, r, "/healthz", appErr)
		writeAppError(w, appErr)
		return
	}

	if output.Status != valueobjects.HealthStatusOK.String() {
		c.logger.Warn("health degraded", zap.Any("settlement", output.Settlement))
	}
	writeJSON(w, http.StatusOK, output)
}
