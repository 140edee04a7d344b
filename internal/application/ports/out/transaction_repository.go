package out

import (
	"context"
	"time"

	"depixsync/internal/domain/entities"
	apperrors "depixsync/internal/shared_kernel/errors"
)

type TransactionRepository interface {
	Create(ctx context.Context, transaction entities.Transaction) *apperrors.AppError
	AssignExternalID(
		ctx context.Context,
		id string,
		externalID string,
		metadata entities.TransactionMetadata,
		updatedAt time.Time,
	) *apperrors.AppError
	MarkFailed(
		ctx context.Context,
		id string,
		metadata entities.TransactionMetadata,
		processedAt time.Time,
	) *apperrors.AppError
	FindByID(ctx context.Context, id string) (entities.Transaction, bool, *apperrors.AppError)
}
