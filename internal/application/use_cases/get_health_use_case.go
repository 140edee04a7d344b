package use_cases

import (
	"context"

	"depixsync/internal/application/dto"
	portsin "depixsync/internal/application/ports/in"
	portsout "depixsync/internal/application/ports/out"
	"depixsync/internal/domain/value_objects"
	apperrors "depixsync/internal/shared_kernel/errors"
)

type getHealthUseCase struct {
	liveness portsout.SettlementLivenessProbe
}

// NewGetHealthUseCase reports plain service health when liveness is nil.
func NewGetHealthUseCase(liveness portsout.SettlementLivenessProbe) portsin.GetHealthUseCase {
	return &getHealthUseCase{liveness: liveness}
}

func (u *getHealthUseCase) Execute(ctx context.Context, _ dto.GetHealthCommand) (dto.HealthOutput, *apperrors.AppError) {
	if u.liveness == nil {
		return dto.HealthOutput{
			Status: valueobjects.NewHealthyStatus().String(),
		}, nil
	}

	settlement := u.liveness.CheckLiveness(ctx)
	status := valueobjects.HealthStatusFromLiveness(settlement.Alive)

	return dto.HealthOutput{
		Status:     status.String(),
		Settlement: &settlement,
	}, nil
}
