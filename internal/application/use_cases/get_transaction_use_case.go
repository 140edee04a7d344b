package use_cases

import (
	"context"
	"strings"

	"depixsync/internal/application/dto"
	portsin "depixsync/internal/application/ports/in"
	portsout "depixsync/internal/application/ports/out"
	apperrors "depixsync/internal/shared_kernel/errors"
)

type getTransactionUseCase struct {
	repository portsout.TransactionRepository
}

func NewGetTransactionUseCase(repository portsout.TransactionRepository) portsin.GetTransactionUseCase {
	return &getTransactionUseCase{repository: repository}
}

func (u *getTransactionUseCase) Execute(
	ctx context.Context,
	query dto.GetTransactionQuery,
) (dto.TransactionResource, *apperrors.AppError) {
	if u.repository == nil {
		return dto.TransactionResource{}, apperrors.NewInternal(
			"transaction_repository_missing",
			"transaction repository is required",
			nil,
		)
	}

	id := strings.TrimSpace(query.ID)
	if id == "" {
		return dto.TransactionResource{}, apperrors.NewValidation(
			"invalid_request",
			"transaction id is required",
			map[string]any{"field": "id"},
		)
	}

	transaction, found, appErr := u.repository.FindByID(ctx, id)
	if appErr != nil {
		return dto.TransactionResource{}, appErr
	}
	if !found {
		return dto.TransactionResource{}, apperrors.NewNotFound(
			"transaction_not_found",
			"transaction not found",
			map[string]any{"id": id},
		)
	}

	return toTransactionResource(transaction), nil
}
