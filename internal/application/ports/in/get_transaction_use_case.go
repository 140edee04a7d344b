package in

import (
	"context"

	"depixsync/internal/application/dto"
	apperrors "depixsync/internal/shared_kernel/errors"
)

type GetTransactionUseCase interface {
	Execute(ctx context.Context, query dto.GetTransactionQuery) (dto.TransactionResource, *apperrors.AppError)
}
