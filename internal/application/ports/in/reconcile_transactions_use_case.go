package in

import (
	"context"

	"depixsync/internal/application/dto"
	apperrors "depixsync/internal/shared_kernel/errors"
)

type ReconcileTransactionsUseCase interface {
	Execute(
		ctx context.Context,
		command dto.ReconcileTransactionsCommand,
	) (dto.ReconcileTransactionsOutput, *apperrors.AppError)
}
