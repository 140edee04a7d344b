//go:build !integration

package use_cases

import (
	"context"
	"sort"
	"sync"
	"time"

	"depixsync/internal/application/dto"
	"depixsync/internal/domain/entities"
	valueobjects "depixsync/internal/domain/value_objects"
	apperrors "depixsync/internal/shared_kernel/errors"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) NowUTC() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingSleeper struct {
	mu     sync.Mutex
	sleeps []time.Duration
}

func (s *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.sleeps = append(s.sleeps, d)
	s.mu.Unlock()
	return ctx.Err()
}

type fakeLedger struct {
	mu       sync.Mutex
	rows     map[string]entities.Transaction
	findErr  *apperrors.AppError
	writeErr *apperrors.AppError
	queries  []dto.FindOpenTransactionsQuery
	writes   []dto.TransactionStatusUpdate
	created  []entities.Transaction
}

func newFakeLedger(rows ...entities.Transaction) *fakeLedger {
	ledger := &fakeLedger{rows: map[string]entities.Transaction{}}
	for _, row := range rows {
		ledger.rows[row.ID] = row
	}
	return ledger
}

func (l *fakeLedger) FindOpenForReconciliation(
	_ context.Context,
	query dto.FindOpenTransactionsQuery,
) ([]dto.OpenTransactionForReconciliation, *apperrors.AppError) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.queries = append(l.queries, query)
	if l.findErr != nil {
		return nil, l.findErr
	}

	allowed := map[valueobjects.TransactionStatus]bool{}
	for _, status := range query.Statuses {
		allowed[status] = true
	}

	out := []dto.OpenTransactionForReconciliation{}
	for _, row := range l.rows {
		if !allowed[row.Status] || !row.HasExternalID() || row.CreatedAt.Before(query.CreatedAfter) {
			continue
		}
		out = append(out, dto.OpenTransactionForReconciliation{
			ID:         row.ID,
			ExternalID: *row.ExternalID,
			Status:     row.Status,
			CreatedAt:  row.CreatedAt,
			Metadata:   row.Metadata,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > query.Limit {
		out = out[:query.Limit]
	}
	return out, nil
}

func (l *fakeLedger) UpdateStatusIfCurrent(
	_ context.Context,
	update dto.TransactionStatusUpdate,
) (bool, *apperrors.AppError) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.writeErr != nil {
		return false, l.writeErr
	}
	row, exists := l.rows[update.ID]
	if !exists || row.Status != update.CurrentStatus {
		return false, nil
	}
	processedAt := update.ProcessedAt
	row.Status = update.NextStatus
	row.ProcessedAt = &processedAt
	row.UpdatedAt = update.ProcessedAt
	row.Metadata = update.Metadata
	l.rows[update.ID] = row
	l.writes = append(l.writes, update)
	return true, nil
}

func (l *fakeLedger) Create(_ context.Context, transaction entities.Transaction) *apperrors.AppError {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.writeErr != nil {
		return l.writeErr
	}
	l.rows[transaction.ID] = transaction
	l.created = append(l.created, transaction)
	return nil
}

func (l *fakeLedger) AssignExternalID(
	_ context.Context,
	id string,
	externalID string,
	metadata entities.TransactionMetadata,
	updatedAt time.Time,
) *apperrors.AppError {
	l.mu.Lock()
	defer l.mu.Unlock()
	row, exists := l.rows[id]
	if !exists {
		return apperrors.NewNotFound("transaction_not_found", "transaction not found", nil)
	}
	row.ExternalID = &externalID
	row.Metadata = metadata
	row.UpdatedAt = updatedAt
	l.rows[id] = row
	return nil
}

func (l *fakeLedger) MarkFailed(
	_ context.Context,
	id string,
	metadata entities.TransactionMetadata,
	processedAt time.Time,
) *apperrors.AppError {
	l.mu.Lock()
	defer l.mu.Unlock()
	row, exists := l.rows[id]
	if !exists {
		return apperrors.NewNotFound("transaction_not_found", "transaction not found", nil)
	}
	row.Status = valueobjects.TransactionStatusFailed
	row.Metadata = metadata
	row.ProcessedAt = &processedAt
	row.UpdatedAt = processedAt
	l.rows[id] = row
	return nil
}

func (l *fakeLedger) FindByID(_ context.Context, id string) (entities.Transaction, bool, *apperrors.AppError) {
	l.mu.Lock()
	defer l.mu.Unlock()
	row, exists := l.rows[id]
	return row, exists, nil
}

func (l *fakeLedger) row(id string) entities.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rows[id]
}

func (l *fakeLedger) writeCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.writes)
}

type fakeSettlementGateway struct {
	mu          sync.Mutex
	statuses    map[string]dto.SettlementDepositStatusOutput
	statusErrs  map[string]*apperrors.AppError
	statusCalls []string
	ping        dto.SettlementPingOutput
	pingErr     *apperrors.AppError
	pingCalls   int
	deposit     dto.CreateSettlementDepositOutput
	depositErr  *apperrors.AppError
	deposits    []dto.CreateSettlementDepositInput
}

func (g *fakeSettlementGateway) Ping(context.Context) (dto.SettlementPingOutput, *apperrors.AppError) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pingCalls++
	return g.ping, g.pingErr
}

func (g *fakeSettlementGateway) CreateDeposit(
	_ context.Context,
	input dto.CreateSettlementDepositInput,
) (dto.CreateSettlementDepositOutput, *apperrors.AppError) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deposits = append(g.deposits, input)
	if g.depositErr != nil {
		return dto.CreateSettlementDepositOutput{}, g.depositErr
	}
	return g.deposit, nil
}

func (g *fakeSettlementGateway) GetDepositStatus(
	_ context.Context,
	externalID string,
) (dto.SettlementDepositStatusOutput, *apperrors.AppError) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.statusCalls = append(g.statusCalls, externalID)
	if appErr, exists := g.statusErrs[externalID]; exists {
		return dto.SettlementDepositStatusOutput{}, appErr
	}
	return g.statuses[externalID], nil
}

func (g *fakeSettlementGateway) calls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.statusCalls...)
}

func openTransaction(id, externalID string, status valueobjects.TransactionStatus, createdAt time.Time) entities.Transaction {
	tx := entities.Transaction{
		ID:          id,
		Status:      status,
		AmountMinor: 5000,
		UserID:      "user_1",
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
		Metadata:    entities.MetadataFromMap(nil),
	}
	if externalID != "" {
		tx.ExternalID = &externalID
	}
	return tx
}
