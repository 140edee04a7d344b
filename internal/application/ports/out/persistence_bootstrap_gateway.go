package out

import (
	"context"

	apperrors "depixsync/internal/shared_kernel/errors"
)

type PersistenceBootstrapGateway interface {
	CheckReadiness(ctx context.Context) *apperrors.AppError
	RunMigrations(ctx context.Context) *apperrors.AppError
}
