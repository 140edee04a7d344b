package use_cases

import (
	"context"

	"depixsync/internal/application/dto"
	portsin "depixsync/internal/application/ports/in"
	portsout "depixsync/internal/application/ports/out"
	"depixsync/internal/domain/entities"
	"depixsync/internal/domain/policies"
	valueobjects "depixsync/internal/domain/value_objects"
	apperrors "depixsync/internal/shared_kernel/errors"
)

const reconcileSyncSource = "reconciler"

type reconcileTransactionsUseCase struct {
	repository portsout.TransactionReconciliationRepository
	settlement portsout.SettlementGateway
	clock      Clock
	sleeper    Sleeper
}

func NewReconcileTransactionsUseCase(
	repository portsout.TransactionReconciliationRepository,
	settlement portsout.SettlementGateway,
	clock Clock,
	sleeper Sleeper,
) portsin.ReconcileTransactionsUseCase {
	if clock == nil {
		clock = NewSystemClock()
	}
	if sleeper == nil {
		sleeper = NewContextSleeper()
	}
	return &reconcileTransactionsUseCase{
		repository: repository,
		settlement: settlement,
		clock:      clock,
		sleeper:    sleeper,
	}
}

func (u *reconcileTransactionsUseCase) Execute(
	ctx context.Context,
	command dto.ReconcileTransactionsCommand,
) (dto.ReconcileTransactionsOutput, *apperrors.AppError) {
	if u.repository == nil {
		return dto.ReconcileTransactionsOutput{}, apperrors.NewInternal(
			"transaction_reconciliation_repository_missing",
			"transaction reconciliation repository is required",
			nil,
		)
	}
	if u.settlement == nil {
		return dto.ReconcileTransactionsOutput{}, apperrors.NewInternal(
			"settlement_gateway_missing",
			"settlement gateway is required",
			nil,
		)
	}
	if command.BatchSize <= 0 {
		return dto.ReconcileTransactionsOutput{}, apperrors.NewValidation(
			"reconcile_batch_size_invalid",
			"reconcile batch size must be greater than zero",
			map[string]any{"batch_size": command.BatchSize},
		)
	}
	if command.InterItemDelay < 0 {
		return dto.ReconcileTransactionsOutput{}, apperrors.NewValidation(
			"reconcile_inter_item_delay_invalid",
			"reconcile inter item delay must not be negative",
			map[string]any{"inter_item_delay": command.InterItemDelay.String()},
		)
	}

	now := command.Now.UTC()
	if command.Now.IsZero() {
		now = u.clock.NowUTC()
	}

	rows, appErr := u.repository.FindOpenForReconciliation(ctx, dto.FindOpenTransactionsQuery{
		Statuses:     valueobjects.OpenTransactionStatuses(),
		CreatedAfter: policies.ResolveReconcileCutoff(now, command.LookbackWindow),
		Limit:        command.BatchSize,
	})
	if appErr != nil {
		return dto.ReconcileTransactionsOutput{}, appErr
	}

	results := make([]dto.ReconcileItemResult, 0, len(rows))
	for index, row := range rows {
		if index > 0 {
			if err := u.sleeper.Sleep(ctx, command.InterItemDelay); err != nil {
				break
			}
		}
		results = append(results, u.reconcileItem(ctx, row))
	}

	return dto.SummarizeReconcileResults(results), nil
}

func (u *reconcileTransactionsUseCase) reconcileItem(
	ctx context.Context,
	row dto.OpenTransactionForReconciliation,
) dto.ReconcileItemResult {
	result := dto.ReconcileItemResult{
		TransactionID:  row.ID,
		ExternalID:     row.ExternalID,
		PreviousStatus: row.Status,
		NextStatus:     row.Status,
	}

	status, appErr := u.settlement.GetDepositStatus(ctx, row.ExternalID)
	if appErr != nil {
		return failedResult(result, appErr)
	}

	mapping := policies.MapProviderStatus(status.RawStatus)
	result.RawStatus = status.RawStatus
	result.ProviderNotFound = status.NotFound
	if mapping.Kind == policies.StatusMappingUnmapped {
		unmapped := apperrors.NewUnmappedStatus(
			"provider_status_unmapped",
			"provider status has no local mapping",
			map[string]any{"raw_status": status.RawStatus},
		)
		result.Outcome = dto.ReconcileItemUnmapped
		result.ErrorType = string(unmapped.Type)
		result.ErrorCode = unmapped.Code
		return result
	}

	nextStatus, changed := policies.ResolveTransition(row.Status, mapping)
	if !changed {
		result.Outcome = dto.ReconcileItemSkipped
		return result
	}

	syncedAt := u.clock.NowUTC()
	metadata := entities.MergeMetadata(row.Metadata, entities.TransactionMetadata{
		Provider: entities.ProviderAudit{
			PayerEUID:      status.PayerEUID,
			PayerName:      status.PayerName,
			PayerTaxNumber: status.PayerTaxNumber,
			BankTxID:       status.BankTxID,
			BlockchainTxID: status.BlockchainTxID,
		},
		Sync: entities.SyncAudit{
			SyncedAt:       syncedAt,
			ProviderStatus: mapping.RawStatus,
			Source:         reconcileSyncSource,
		},
	})

	updated, appErr := u.repository.UpdateStatusIfCurrent(ctx, dto.TransactionStatusUpdate{
		ID:            row.ID,
		CurrentStatus: row.Status,
		NextStatus:    nextStatus,
		ProcessedAt:   syncedAt,
		Metadata:      metadata,
	})
	if appErr != nil {
		return failedResult(result, appErr)
	}
	if !updated {
		// Another writer moved the row since it was read.
		result.Outcome = dto.ReconcileItemSkipped
		return result
	}

	result.NextStatus = nextStatus
	result.Outcome = dto.ReconcileItemUpdated
	return result
}

func failedResult(result dto.ReconcileItemResult, appErr *apperrors.AppError) dto.ReconcileItemResult {
	result.Outcome = dto.ReconcileItemFailed
	result.ErrorType = string(appErr.Type)
	result.ErrorCode = appErr.Code
	result.Retryable = appErr.Retryable()
	return result
}
