package controllers

import (
	"net/http"

	"depixsync/internal/application/dto"
	portsin "depixsync/internal/application/ports/in"

	"go.uber.org/zap"
)

type DepositsController struct {
	createUseCase portsin.CreateDepositUseCase
	getUseCase    portsin.GetTransactionUseCase
	logger        *zap.Logger
}

type createDepositPayload struct {
	UserID             string         `json:"user_id"`
	AmountMinor        int64          `json:"amount_minor"`
	DestinationAddress string         `json:"destination_address"`
	PayerName          string         `json:"payer_name,omitempty"`
	PayerTaxNumber     string         `json:"payer_tax_number,omitempty"`
	Metadata           map[string]any `json:"metadata,omitempty"`
}

func NewDepositsController(
	createUseCase portsin.CreateDepositUseCase,
	getUseCase portsin.GetTransactionUseCase,
	logger *zap.Logger,
) *DepositsController {
	return &DepositsController{
		createUseCase: createUseCase,
		getUseCase:    getUseCase,
		logger:        loggerOrNop(logger),
	}
}

func (c *DepositsController) CreateDeposit(w http.ResponseWriter, r *http.Request) {
	payload := createDepositPayload{}
	if appErr := decodeSingleObject(r.Body, &payload); appErr != nil {
		writeAppError(w, appErr)
		return
	}

	output, appErr := c.createUseCase.Execute(r.Context(), dto.CreateDepositCommand{
		UserID:             payload.UserID,
		AmountMinor:        payload.AmountMinor,
		DestinationAddress: payload.DestinationAddress,
		PayerName:          payload.PayerName,
		PayerTaxNumber:     payload.PayerTaxNumber,
		Metadata:           payload.Metadata,
	})
	if appErr != nil {
		logRequestError(c.logger, r, "/v1/deposits", appErr)
		writeAppError(w, appErr)
		return
	}

	w.Header().Set("Location", "/v1/transactions/"+output.Transaction.ID)
	writeJSON(w, http.StatusCreated, output)
}

func (c *DepositsController) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	resource, appErr := c.getUseCase.Execute(r.Context(), dto.GetTransactionQuery{ID: id})
	if appErr != nil {
		logRequestError(c.logger, r, "/v1/transactions/{id}", appErr)
		writeAppError(w, appErr)
		return
	}

	writeJSON(w, http.StatusOK, resource)
}
