package use_cases

import (
	"context"
	"strings"

	"depixsync/internal/application/dto"
	portsin "depixsync/internal/application/ports/in"
	portsout "depixsync/internal/application/ports/out"
	"depixsync/internal/domain/entities"
	valueobjects "depixsync/internal/domain/value_objects"
	apperrors "depixsync/internal/shared_kernel/errors"

	"github.com/google/uuid"
)

type createDepositUseCase struct {
	repository     portsout.TransactionRepository
	settlement     portsout.SettlementGateway
	clock          Clock
	newID          func() string
	maxAmountMinor int64
}

func NewCreateDepositUseCase(
	repository portsout.TransactionRepository,
	settlement portsout.SettlementGateway,
	clock Clock,
	maxAmountMinor int64,
) portsin.CreateDepositUseCase {
	if clock == nil {
		clock = NewSystemClock()
	}
	return &createDepositUseCase{
		repository:     repository,
		settlement:     settlement,
		clock:          clock,
		newID:          uuid.NewString,
		maxAmountMinor: maxAmountMinor,
	}
}

func (u *createDepositUseCase) Execute(
	ctx context.Context,
	command dto.CreateDepositCommand,
) (dto.CreateDepositOutput, *apperrors.AppError) {
	if u.repository == nil {
		return dto.CreateDepositOutput{}, apperrors.NewInternal(
			"transaction_repository_missing",
			"transaction repository is required",
			nil,
		)
	}
	if u.settlement == nil {
		return dto.CreateDepositOutput{}, apperrors.NewInternal(
			"settlement_gateway_missing",
			"settlement gateway is required",
			nil,
		)
	}

	input, appErr := normalizeCreateDepositCommand(command, u.maxAmountMinor)
	if appErr != nil {
		return dto.CreateDepositOutput{}, appErr
	}

	transaction, appErr := entities.NewPendingTransaction(entities.NewTransactionInput{
		ID:                 u.newID(),
		AmountMinor:        input.AmountMinor,
		UserID:             command.UserID,
		DestinationAddress: input.DestinationAddress,
		Metadata:           command.Metadata,
		CreatedAt:          u.clock.NowUTC(),
	})
	if appErr != nil {
		return dto.CreateDepositOutput{}, appErr
	}
	transaction.Metadata = entities.MergeMetadata(transaction.Metadata, entities.TransactionMetadata{
		Provider: entities.ProviderAudit{
			PayerName:      input.PayerName,
			PayerTaxNumber: input.PayerTaxNumber,
		},
	})

	if appErr := u.repository.Create(ctx, transaction); appErr != nil {
		return dto.CreateDepositOutput{}, appErr
	}

	deposit, depositErr := u.settlement.CreateDeposit(ctx, input)
	if depositErr != nil {
		failedAt := u.clock.NowUTC()
		failed := entities.MergeMetadata(transaction.Metadata, entities.TransactionMetadata{
			Core: map[string]any{entities.MetadataKeyFailureCode: depositErr.Code},
		})
		if markErr := u.repository.MarkFailed(ctx, transaction.ID, failed, failedAt); markErr != nil {
			return dto.CreateDepositOutput{}, markErr
		}
		return dto.CreateDepositOutput{}, depositErr
	}

	updatedAt := u.clock.NowUTC()
	transaction.Metadata = entities.MergeMetadata(transaction.Metadata, entities.TransactionMetadata{
		Core: map[string]any{
			entities.MetadataKeyQRCopyPaste: deposit.CopyPastePayload,
			entities.MetadataKeyQRImageURL:  deposit.QRImageURL,
		},
	})
	if appErr := u.repository.AssignExternalID(
		ctx,
		transaction.ID,
		deposit.ExternalID,
		transaction.Metadata,
		updatedAt,
	); appErr != nil {
		return dto.CreateDepositOutput{}, appErr
	}

	externalID := deposit.ExternalID
	transaction.ExternalID = &externalID
	transaction.UpdatedAt = updatedAt

	return dto.CreateDepositOutput{
		Transaction: toTransactionResource(transaction),
		Payment: dto.PaymentPresentation{
			CopyPastePayload: deposit.CopyPastePayload,
			QRImageURL:       deposit.QRImageURL,
		},
	}, nil
}

func normalizeCreateDepositCommand(
	command dto.CreateDepositCommand,
	maxAmountMinor int64,
) (dto.CreateSettlementDepositInput, *apperrors.AppError) {
	if strings.TrimSpace(command.UserID) == "" {
		return dto.CreateSettlementDepositInput{}, apperrors.NewValidation(
			"invalid_request",
			"user_id is required",
			map[string]any{"field": "user_id"},
		)
	}
	if appErr := valueobjects.ValidateDepositAmountMinor(command.AmountMinor, maxAmountMinor); appErr != nil {
		return dto.CreateSettlementDepositInput{}, appErr
	}
	address, appErr := valueobjects.NormalizeDestinationAddress(command.DestinationAddress)
	if appErr != nil {
		return dto.CreateSettlementDepositInput{}, appErr
	}
	taxNumber, appErr := valueobjects.NormalizeTaxNumber(command.PayerTaxNumber)
	if appErr != nil {
		return dto.CreateSettlementDepositInput{}, appErr
	}

	return dto.CreateSettlementDepositInput{
		AmountMinor:        command.AmountMinor,
		DestinationAddress: address,
		PayerName:          strings.TrimSpace(command.PayerName),
		PayerTaxNumber:     taxNumber,
	}, nil
}

func toTransactionResource(transaction entities.Transaction) dto.TransactionResource {
	return dto.TransactionResource{
		ID:                 transaction.ID,
		ExternalID:         transaction.ExternalID,
		Status:             transaction.Status.String(),
		AmountMinor:        transaction.AmountMinor,
		UserID:             transaction.UserID,
		DestinationAddress: transaction.DestinationAddress,
		CreatedAt:          transaction.CreatedAt,
		ProcessedAt:        transaction.ProcessedAt,
		UpdatedAt:          transaction.UpdatedAt,
		Metadata:           transaction.Metadata.Flatten(),
	}
}
