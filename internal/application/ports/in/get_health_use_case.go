package in

import (
	"context"

	"depixsync/internal/application/dto"
	apperrors "depixsync/internal/shared_kernel/errors"
)

type GetHealthUseCase interface {
	Execute(ctx context.Context, command dto.GetHealthCommand) (dto.HealthOutput, *apperrors.AppError)
}
