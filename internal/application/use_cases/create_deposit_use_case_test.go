//go:build !integration

package use_cases

import (
	"context"
	"testing"
	"time"

	"depixsync/internal/application/dto"
	"depixsync/internal/domain/entities"
	valueobjects "depixsync/internal/domain/value_objects"
	apperrors "depixsync/internal/shared_kernel/errors"

	"github.com/stretchr/testify/require"
)

const testLiquidAddress = "lq1qq2xvpcvfup5j8zscjq67a2tgzavcqdnphfrcp9drudmgsh6n2srrn0alq75eyg2qjx0g2j4wgxvz4aj3hh6qrwssphg9f"

func newCreateDepositFixture(maxAmount int64) (*createDepositUseCase, *fakeLedger, *fakeSettlementGateway) {
	ledger := newFakeLedger()
	gateway := &fakeSettlementGateway{
		deposit: dto.CreateSettlementDepositOutput{
			ExternalID:       "ext_9",
			CopyPastePayload: "00020126580014br.gov.bcb.pix",
			QRImageURL:       "https://depix.example/qr/ext_9.png",
		},
	}
	useCase := NewCreateDepositUseCase(
		ledger,
		gateway,
		&fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)},
		maxAmount,
	).(*createDepositUseCase)
	useCase.newID = func() string { return "tx_fixed" }
	return useCase, ledger, gateway
}

func TestCreateDepositPersistsPendingTransactionWithExternalID(t *testing.T) {
	useCase, ledger, gateway := newCreateDepositFixture(0)

	output, appErr := useCase.Execute(context.Background(), dto.CreateDepositCommand{
		UserID:             "user_1",
		AmountMinor:        2500,
		DestinationAddress: testLiquidAddress,
		PayerName:          " Maria Silva ",
		PayerTaxNumber:     "123.456.789-09",
		Metadata:           map[string]any{"channel": "app"},
	})
	require.Nil(t, appErr)
	require.Equal(t, "tx_fixed", output.Transaction.ID)
	require.Equal(t, "PENDING", output.Transaction.Status)
	require.NotNil(t, output.Transaction.ExternalID)
	require.Equal(t, "ext_9", *output.Transaction.ExternalID)
	require.Equal(t, "https://depix.example/qr/ext_9.png", output.Payment.QRImageURL)

	require.Len(t, gateway.deposits, 1)
	require.Equal(t, dto.CreateSettlementDepositInput{
		AmountMinor:        2500,
		DestinationAddress: testLiquidAddress,
		PayerName:          "Maria Silva",
		PayerTaxNumber:     "12345678909",
	}, gateway.deposits[0])

	row := ledger.row("tx_fixed")
	require.True(t, row.HasExternalID())
	require.Equal(t, valueobjects.TransactionStatusPending, row.Status)
	flat := row.Metadata.Flatten()
	require.Equal(t, "app", flat["channel"])
	require.Equal(t, "Maria Silva", flat[entities.MetadataKeyPayerName])
	require.Equal(t, "00020126580014br.gov.bcb.pix", flat[entities.MetadataKeyQRCopyPaste])
}

func TestCreateDepositMarksTransactionFailedOnProviderError(t *testing.T) {
	useCase, ledger, gateway := newCreateDepositFixture(0)
	gateway.depositErr = apperrors.NewUpstreamRejected("settlement_request_rejected", "rejected", nil)

	_, appErr := useCase.Execute(context.Background(), dto.CreateDepositCommand{
		UserID:             "user_1",
		AmountMinor:        2500,
		DestinationAddress: testLiquidAddress,
	})
	require.NotNil(t, appErr)
	require.Equal(t, apperrors.TypeUpstreamRejected, appErr.Type)

	row := ledger.row("tx_fixed")
	require.Equal(t, valueobjects.TransactionStatusFailed, row.Status)
	require.NotNil(t, row.ProcessedAt)
	require.False(t, row.HasExternalID())
	require.Equal(t, "settlement_request_rejected", row.Metadata.Core[entities.MetadataKeyFailureCode])
}

func TestCreateDepositValidatesInput(t *testing.T) {
	useCase, ledger, gateway := newCreateDepositFixture(100_000)

	cases := []dto.CreateDepositCommand{
		{AmountMinor: 2500, DestinationAddress: testLiquidAddress},
		{UserID: "user_1", AmountMinor: 50, DestinationAddress: testLiquidAddress},
		{UserID: "user_1", AmountMinor: 200_000, DestinationAddress: testLiquidAddress},
		{UserID: "user_1", AmountMinor: 2500, DestinationAddress: "bc1notliquid"},
		{UserID: "user_1", AmountMinor: 2500, DestinationAddress: testLiquidAddress, PayerTaxNumber: "123"},
	}
	for _, command := range cases {
		_, appErr := useCase.Execute(context.Background(), command)
		require.NotNil(t, appErr)
		require.Equal(t, apperrors.TypeValidation, appErr.Type)
	}
	require.Empty(t, ledger.created)
	require.Empty(t, gateway.deposits)
}

func TestCreateDepositStopsWhenPersistFails(t *testing.T) {
	useCase, ledger, gateway := newCreateDepositFixture(0)
	ledger.writeErr = apperrors.NewInternal("transaction_insert_failed", "insert failed", nil)

	_, appErr := useCase.Execute(context.Background(), dto.CreateDepositCommand{
		UserID:             "user_1",
		AmountMinor:        2500,
		DestinationAddress: testLiquidAddress,
	})
	require.NotNil(t, appErr)
	require.Equal(t, "transaction_insert_failed", appErr.Code)
	require.Empty(t, gateway.deposits)
}
