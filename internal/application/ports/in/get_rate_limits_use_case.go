package in

import (
	"context"

	"depixsync/internal/application/dto"
	apperrors "depixsync/internal/shared_kernel/errors"
)

type GetRateLimitsUseCase interface {
	Execute(ctx context.Context) ([]dto.RateWindowSnapshot, *apperrors.AppError)
}
