package transaction

import (
	"context"
	"strings"

	"depixsync/internal/application/dto"
	portsout "depixsync/internal/application/ports/out"
	valueobjects "depixsync/internal/domain/value_objects"
	apperrors "depixsync/internal/shared_kernel/errors"
)

var _ portsout.TransactionReconciliationRepository = (*Repository)(nil)

func (r *Repository) FindOpenForReconciliation(
	ctx context.Context,
	query dto.FindOpenTransactionsQuery,
) ([]dto.OpenTransactionForReconciliation, *apperrors.AppError) {
	const statement = `
SELECT
  id,
  external_id,
  status,
  created_at,
  metadata
FROM app.transactions
WHERE status = ANY($1)
  AND external_id IS NOT NULL
  AND btrim(external_id) <> ''
  AND created_at >= $2
ORDER BY created_at ASC, id ASC
LIMIT $3
`

	rows, err := r.db.QueryContext(
		ctx,
		statement,
		statusStrings(query.Statuses),
		query.CreatedAfter.UTC(),
		query.Limit,
	)
	if err != nil {
		return nil, apperrors.NewInternal(
			"transaction_query_failed",
			"failed to query open transactions for reconciliation",
			map[string]any{"error": err.Error()},
		)
	}
	defer rows.Close()

	items := make([]dto.OpenTransactionForReconciliation, 0, query.Limit)
	for rows.Next() {
		var (
			item        dto.OpenTransactionForReconciliation
			status      string
			metadataRaw []byte
		)
		if err := rows.Scan(&item.ID, &item.ExternalID, &status, &item.CreatedAt, &metadataRaw); err != nil {
			return nil, apperrors.NewInternal(
				"transaction_query_failed",
				"failed to parse open transaction row",
				map[string]any{"error": err.Error()},
			)
		}

		metadata, appErr := decodeMetadata(item.ID, metadataRaw)
		if appErr != nil {
			return nil, appErr
		}
		item.ExternalID = strings.TrimSpace(item.ExternalID)
		item.Status = valueobjects.TransactionStatus(strings.ToUpper(strings.TrimSpace(status)))
		item.CreatedAt = item.CreatedAt.UTC()
		item.Metadata = metadata
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternal(
			"transaction_query_failed",
			"failed while iterating open transactions",
			map[string]any{"error": err.Error()},
		)
	}

	return items, nil
}

// UpdateStatusIfCurrent is a compare-and-set on status, so a webhook write that
// lands between the poll and the write-back wins.
func (r *Repository) UpdateStatusIfCurrent(
	ctx context.Context,
	update dto.TransactionStatusUpdate,
) (bool, *apperrors.AppError) {
	const statement = `
UPDATE app.transactions
SET
  status = $3,
  metadata = $4::jsonb,
  processed_at = $5,
  updated_at = $5
WHERE id = $1
  AND status = $2
`

	encodedMetadata, appErr := encodeMetadata(update.ID, update.Metadata)
	if appErr != nil {
		return false, appErr
	}

	result, err := r.db.ExecContext(
		ctx,
		statement,
		strings.TrimSpace(update.ID),
		update.CurrentStatus.String(),
		update.NextStatus.String(),
		encodedMetadata,
		update.ProcessedAt.UTC(),
	)
	if err != nil {
		return false, apperrors.NewInternal(
			"transaction_update_failed",
			"failed to update transaction status",
			map[string]any{"error": err.Error(), "id": update.ID},
		)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.NewInternal(
			"transaction_update_failed",
			"failed to read affected rows",
			map[string]any{"error": err.Error(), "id": update.ID},
		)
	}

	return affected == 1, nil
}
