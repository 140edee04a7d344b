package in

import (
	"context"

	"depixsync/internal/application/dto"
	apperrors "depixsync/internal/shared_kernel/errors"
)

// TriggerReconciliationUseCase runs one reconciliation tick on demand under
// the same single-flight guard as the periodic scheduler.
type TriggerReconciliationUseCase interface {
	RunOnce(ctx context.Context) (dto.ReconcileTransactionsOutput, *apperrors.AppError)
}
