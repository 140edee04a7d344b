package use_cases

import (
	"context"
	"strconv"

	"depixsync/internal/application/dto"
	portsin "depixsync/internal/application/ports/in"
	portsout "depixsync/internal/application/ports/out"
	apperrors "depixsync/internal/shared_kernel/errors"
)

type initializePersistenceUseCase struct {
	gateway portsout.PersistenceBootstrapGateway
	sleeper Sleeper
}

func NewInitializePersistenceUseCase(gateway portsout.PersistenceBootstrapGateway) portsin.InitializePersistenceUseCase {
	return &initializePersistenceUseCase{
		gateway: gateway,
		sleeper: NewContextSleeper(),
	}
}

func (u *initializePersistenceUseCase) Execute(ctx context.Context, command dto.InitializePersistenceCommand) *apperrors.AppError {
	if u.gateway == nil {
		return apperrors.NewInternal(
			"persistence_gateway_missing",
			"persistence gateway is required",
			nil,
		)
	}
	if command.ReadinessTimeout <= 0 {
		return apperrors.NewValidation(
			"readiness_timeout_invalid",
			"readiness timeout must be greater than zero",
			nil,
		)
	}
	if command.ReadinessRetryInterval <= 0 {
		return apperrors.NewValidation(
			"readiness_retry_interval_invalid",
			"readiness retry interval must be greater than zero",
			nil,
		)
	}

	if appErr := u.waitForReadiness(ctx, command); appErr != nil {
		return appErr
	}

	return u.gateway.RunMigrations(ctx)
}

func (u *initializePersistenceUseCase) waitForReadiness(
	ctx context.Context,
	command dto.InitializePersistenceCommand,
) *apperrors.AppError {
	readinessCtx, cancel := context.WithTimeout(ctx, command.ReadinessTimeout)
	defer cancel()

	var lastErr *apperrors.AppError
	for attempts := 1; ; attempts++ {
		lastErr = u.gateway.CheckReadiness(readinessCtx)
		if lastErr == nil {
			return nil
		}

		if readinessCtx.Err() != nil || u.sleeper.Sleep(readinessCtx, command.ReadinessRetryInterval) != nil {
			return apperrors.NewInternal(
				"ledger_readiness_timeout",
				"ledger database did not become ready",
				map[string]any{
					"attempts":  strconv.Itoa(attempts),
					"timeout":   command.ReadinessTimeout.String(),
					"last_code": lastErr.Code,
				},
			)
		}
	}
}
