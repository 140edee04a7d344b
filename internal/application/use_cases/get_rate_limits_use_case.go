package use_cases

import (
	"context"

	"depixsync/internal/application/dto"
	portsin "depixsync/internal/application/ports/in"
	portsout "depixsync/internal/application/ports/out"
	apperrors "depixsync/internal/shared_kernel/errors"
)

type getRateLimitsUseCase struct {
	reader portsout.RateLimitSnapshotReader
}

func NewGetRateLimitsUseCase(reader portsout.RateLimitSnapshotReader) portsin.GetRateLimitsUseCase {
	return &getRateLimitsUseCase{reader: reader}
}

func (u *getRateLimitsUseCase) Execute(context.Context) ([]dto.RateWindowSnapshot, *apperrors.AppError) {
	if u.reader == nil {
		return nil, apperrors.NewInternal(
			"rate_limit_reader_missing",
			"rate limit snapshot reader is required",
			nil,
		)
	}
	return u.reader.Snapshot(), nil
}
