package out

import (
	"context"

	"depixsync/internal/application/dto"
	apperrors "depixsync/internal/shared_kernel/errors"
)

// SettlementGateway calls the settlement provider. Every call is gated by
// the endpoint class quota of the operation.
type SettlementGateway interface {
	Ping(ctx context.Context) (dto.SettlementPingOutput, *apperrors.AppError)
	CreateDeposit(
		ctx context.Context,
		input dto.CreateSettlementDepositInput,
	) (dto.CreateSettlementDepositOutput, *apperrors.AppError)
	GetDepositStatus(ctx context.Context, externalID string) (dto.SettlementDepositStatusOutput, *apperrors.AppError)
}

type SettlementLivenessProbe interface {
	CheckLiveness(ctx context.Context) dto.SettlementLivenessOutput
}
