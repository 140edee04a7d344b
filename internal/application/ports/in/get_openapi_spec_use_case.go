package in

import (
	"context"

	"depixsync/internal/application/dto"
	apperrors "depixsync/internal/shared_kernel/errors"
)

type GetOpenAPISpecUseCase interface {
	Execute(ctx context.Context, query dto.GetOpenAPISpecQuery) (dto.OpenAPISpecOutput, *apperrors.AppError)
}
