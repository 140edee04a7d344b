package in

import (
	"context"

	"depixsync/internal/application/dto"
	apperrors "depixsync/internal/shared_kernel/errors"
)

type InitializePersistenceUseCase interface {
	Execute(ctx context.Context, command dto.InitializePersistenceCommand) *apperrors.AppError
}
