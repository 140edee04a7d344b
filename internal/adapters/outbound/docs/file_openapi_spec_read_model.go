package docs

import (
	"context"
	"os"
	"strings"

	portsout "depixsync/internal/application/ports/out"
	apperrors "depixsync/internal/shared_kernel/errors"
)

type FileOpenAPISpecReadModel struct {
	path string
}

var _ portsout.OpenAPISpecReadModel = (*FileOpenAPISpecReadModel)(nil)

func NewFileOpenAPISpecReadModel(path string) *FileOpenAPISpecReadModel {
	return &FileOpenAPISpecReadModel{
		path: path,
	}
}

func (r *FileOpenAPISpecReadModel) Read(_ context.Context) ([]byte, string, *apperrors.AppError) {
	content, err := os.ReadFile(r.path)
	if err != nil {
		return nil, "", apperrors.NewInternal(
			"OPENAPI_FILE_READ_FAILED",
			"failed to read OpenAPI spec file",
			map[string]any{"path": r.path},
		)
	}

	contentType := "application/yaml; charset=utf-8"
	if strings.HasSuffix(strings.ToLower(r.path), ".json") {
		contentType = "application/json; charset=utf-8"
	}
	return content, contentType, nil
}
