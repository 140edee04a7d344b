package controllers

import (
	"net/http"

	"depixsync/internal/application/dto"
	portsin "depixsync/internal/application/ports/in"

	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
)

type SwaggerController struct {
	useCase         portsin.GetOpenAPISpecUseCase
	logger          *zap.Logger
	swaggerUIHandle http.Handler
}

func NewSwaggerController(useCase portsin.GetOpenAPISpecUseCase, logger *zap.Logger) *SwaggerController {
	return &SwaggerController{
		useCase: useCase,
		logger:  loggerOrNop(logger),
		swaggerUIHandle: httpSwagger.Handler(
			httpSwagger.URL("/swagger/openapi.yaml"),
			httpSwagger.PersistAuthorization(true),
		),
	}
}

func (c *SwaggerController) RedirectToIndex(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/swagger/index.html", http.StatusTemporaryRedirect)
}

func (c *SwaggerController) ServeUI(w http.ResponseWriter, r *http.Request) {
	c.swaggerUIHandle.ServeHTTP(w, r)
}

func (c *SwaggerController) GetOpenAPISpec(w http.ResponseWriter, r *http.Request) {
	output, appErr := c.useCase.Execute(r.Context(), dto.GetOpenAPISpecQuery{})
	if appErr != nil {
		logRequestError(c.logger, r, "/swagger/openapi.yaml", appErr)
		writeAppError(w, appErr)
		return
	}

	w.Header().Set("Content-Type", output.ContentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(output.Content); err != nil {
		c.logger.Warn("response write failed", zap.String("route", "/swagger/openapi.yaml"), zap.Error(err))
	}
}
