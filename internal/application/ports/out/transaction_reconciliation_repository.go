package out

import (
	"context"

	"depixsync/internal/application/dto"
	apperrors "depixsync/internal/shared_kernel/errors"
)

type TransactionReconciliationRepository interface {
	// FindOpenForReconciliation returns rows with an external id, oldest first.
	FindOpenForReconciliation(
		ctx context.Context,
		query dto.FindOpenTransactionsQuery,
	) ([]dto.OpenTransactionForReconciliation, *apperrors.AppError)
	// UpdateStatusIfCurrent writes only while the row still holds
	// update.CurrentStatus and reports whether a row changed.
	UpdateStatusIfCurrent(
		ctx context.Context,
		update dto.TransactionStatusUpdate,
	) (bool, *apperrors.AppError)
}
