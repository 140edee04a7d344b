package transaction

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"strings"
	"time"

	portsout "depixsync/internal/application/ports/out"
	"depixsync/internal/domain/entities"
	valueobjects "depixsync/internal/domain/value_objects"
	apperrors "depixsync/internal/shared_kernel/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

type Repository struct {
	db     *sql.DB
	logger *zap.Logger
}

var _ portsout.TransactionRepository = (*Repository)(nil)

func NewRepository(db *sql.DB, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{db: db, logger: logger}
}

func (r *Repository) Create(ctx context.Context, transaction entities.Transaction) *apperrors.AppError {
	const query = `
INSERT INTO app.transactions (
  id,
  external_id,
  status,
  amount_minor,
  user_id,
  destination_address,
  metadata,
  created_at,
  processed_at,
  updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8, $9, $10)
`

	encodedMetadata, appErr := encodeMetadata(transaction.ID, transaction.Metadata)
	if appErr != nil {
		return appErr
	}

	_, err := r.db.ExecContext(
		ctx,
		query,
		strings.TrimSpace(transaction.ID),
		nullableString(transaction.ExternalID),
		transaction.Status.String(),
		transaction.AmountMinor,
		transaction.UserID,
		transaction.DestinationAddress,
		encodedMetadata,
		transaction.CreatedAt.UTC(),
		nullableTime(transaction.ProcessedAt),
		transaction.UpdatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewConflict(
				"transaction_already_exists",
				"transaction already exists",
				map[string]any{"id": transaction.ID},
			)
		}
		r.logger.Error("transaction insert failed", zap.String("transaction_id", transaction.ID), zap.Error(err))
		return apperrors.NewInternal(
			"transaction_insert_failed",
			"failed to persist transaction",
			map[string]any{"error": err.Error(), "id": transaction.ID},
		)
	}

	return nil
}

func (r *Repository) AssignExternalID(
	ctx context.Context,
	id string,
	externalID string,
	metadata entities.TransactionMetadata,
	updatedAt time.Time,
) *apperrors.AppError {
	const query = `
UPDATE app.transactions
SET
  external_id = $2,
  metadata = $3::jsonb,
  updated_at = $4
WHERE id = $1
  AND external_id IS NULL
`

	encodedMetadata, appErr := encodeMetadata(id, metadata)
	if appErr != nil {
		return appErr
	}

	result, err := r.db.ExecContext(ctx, query, strings.TrimSpace(id), strings.TrimSpace(externalID), encodedMetadata, updatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewConflict(
				"transaction_external_id_taken",
				"external id is already assigned to another transaction",
				map[string]any{"id": id, "external_id": externalID},
			)
		}
		return apperrors.NewInternal(
			"transaction_update_failed",
			"failed to assign external id",
			map[string]any{"error": err.Error(), "id": id},
		)
	}

	return requireOneRow(result, id, "transaction already has an external id")
}

func (r *Repository) MarkFailed(
	ctx context.Context,
	id string,
	metadata entities.TransactionMetadata,
	processedAt time.Time,
) *apperrors.AppError {
	const query = `
UPDATE app.transactions
SET
  status = $2,
  metadata = $3::jsonb,
  processed_at = $4,
  updated_at = $4
WHERE id = $1
  AND status = ANY($5)
`

	encodedMetadata, appErr := encodeMetadata(id, metadata)
	if appErr != nil {
		return appErr
	}

	result, err := r.db.ExecContext(
		ctx,
		query,
		strings.TrimSpace(id),
		valueobjects.TransactionStatusFailed.String(),
		encodedMetadata,
		processedAt.UTC(),
		statusStrings(valueobjects.OpenTransactionStatuses()),
	)
	if err != nil {
		return apperrors.NewInternal(
			"transaction_update_failed",
			"failed to mark transaction failed",
			map[string]any{"error": err.Error(), "id": id},
		)
	}

	return requireOneRow(result, id, "transaction is no longer open")
}

func (r *Repository) FindByID(ctx context.Context, id string) (entities.Transaction, bool, *apperrors.AppError) {
	const query = `
SELECT
  id,
  external_id,
  status,
  amount_minor,
  user_id,
  destination_address,
  metadata,
  created_at,
  processed_at,
  updated_at
FROM app.transactions
WHERE id = $1
`

	var (
		transaction entities.Transaction
		externalID  sql.NullString
		status      string
		metadataRaw []byte
		processedAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, strings.TrimSpace(id)).Scan(
		&transaction.ID,
		&externalID,
		&status,
		&transaction.AmountMinor,
		&transaction.UserID,
		&transaction.DestinationAddress,
		&metadataRaw,
		&transaction.CreatedAt,
		&processedAt,
		&transaction.UpdatedAt,
	)
	if stderrors.Is(err, sql.ErrNoRows) {
		return entities.Transaction{}, false, nil
	}
	if err != nil {
		return entities.Transaction{}, false, apperrors.NewInternal(
			"transaction_query_failed",
			"failed to load transaction",
			map[string]any{"error": err.Error(), "id": id},
		)
	}

	transaction.Status = valueobjects.TransactionStatus(strings.ToUpper(strings.TrimSpace(status)))
	transaction.CreatedAt = transaction.CreatedAt.UTC()
	transaction.UpdatedAt = transaction.UpdatedAt.UTC()
	if externalID.Valid && strings.TrimSpace(externalID.String) != "" {
		value := strings.TrimSpace(externalID.String)
		transaction.ExternalID = &value
	}
	if processedAt.Valid {
		value := processedAt.Time.UTC()
		transaction.ProcessedAt = &value
	}
	metadata, appErr := decodeMetadata(transaction.ID, metadataRaw)
	if appErr != nil {
		return entities.Transaction{}, false, appErr
	}
	transaction.Metadata = metadata

	return transaction, true, nil
}

func requireOneRow(result sql.Result, id string, conflictMessage string) *apperrors.AppError {
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternal(
			"transaction_update_failed",
			"failed to read affected rows",
			map[string]any{"error": err.Error(), "id": id},
		)
	}
	if affected == 0 {
		return apperrors.NewConflict(
			"transaction_state_conflict",
			conflictMessage,
			map[string]any{"id": id},
		)
	}
	return nil
}

func encodeMetadata(id string, metadata entities.TransactionMetadata) ([]byte, *apperrors.AppError) {
	encoded, err := json.Marshal(metadata)
	if err != nil {
		return nil, apperrors.NewInternal(
			"transaction_metadata_encode_failed",
			"failed to encode transaction metadata",
			map[string]any{"error": err.Error(), "id": id},
		)
	}
	return encoded, nil
}

func decodeMetadata(id string, raw []byte) (entities.TransactionMetadata, *apperrors.AppError) {
	if len(raw) == 0 {
		return entities.MetadataFromMap(nil), nil
	}
	var metadata entities.TransactionMetadata
	if err := json.Unmarshal(raw, &metadata); err != nil {
		return entities.TransactionMetadata{}, apperrors.NewInternal(
			"transaction_metadata_decode_failed",
			"failed to decode transaction metadata",
			map[string]any{"error": err.Error(), "id": id},
		)
	}
	return metadata, nil
}

func statusStrings(statuses []valueobjects.TransactionStatus) []string {
	values := make([]string, 0, len(statuses))
	for _, status := range statuses {
		values = append(values, status.String())
	}
	return values
}

func nullableString(value *string) any {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil
	}
	return strings.TrimSpace(*value)
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !stderrors.As(err, &pgErr) {
		return false
	}

	return pgErr.Code == "23505"
}
