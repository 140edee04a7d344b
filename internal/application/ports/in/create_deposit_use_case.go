package in

import (
	"context"

	"depixsync/internal/application/dto"
	apperrors "depixsync/internal/shared_kernel/errors"
)

type CreateDepositUseCase interface {
	Execute(ctx context.Context, command dto.CreateDepositCommand) (dto.CreateDepositOutput, *apperrors.AppError)
}
