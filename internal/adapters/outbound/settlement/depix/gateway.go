package depix

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	nethttp "net/http"
	"net/url"
	"strings"
	"time"

	"depixsync/internal/application/dto"
	portsout "depixsync/internal/application/ports/out"
	valueobjects "depixsync/internal/domain/value_objects"
	apperrors "depixsync/internal/shared_kernel/errors"

	"github.com/google/uuid"
)

const (
	defaultHTTPTimeout = 10 * time.Second
	maxErrorBodyBytes  = 1024
	maxBodyBytes       = 1 << 20

	pingPath          = "/ping"
	depositPath       = "/deposit"
	depositStatusPath = "/deposit-status"
)

// Gate runs an operation under the quota of its endpoint class.
type Gate interface {
	Do(
		ctx context.Context,
		class valueobjects.EndpointClass,
		op func(ctx context.Context) *apperrors.AppError,
	) *apperrors.AppError
}

type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

type Gateway struct {
	baseURL string
	token   string
	timeout time.Duration
	client  *nethttp.Client
	gate    Gate
	nonce   func() string
}

var _ portsout.SettlementGateway = (*Gateway)(nil)

func NewGateway(cfg Config, gate Gate) *Gateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}

	return &Gateway{
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		token:   strings.TrimSpace(cfg.Token),
		timeout: timeout,
		client:  &nethttp.Client{Timeout: timeout},
		gate:    gate,
		nonce:   uuid.NewString,
	}
}

func (g *Gateway) Ping(ctx context.Context) (dto.SettlementPingOutput, *apperrors.AppError) {
	var payload map[string]any
	appErr := g.call(ctx, valueobjects.EndpointClassLivenessCheck, func(ctx context.Context) *apperrors.AppError {
		_, callErr := g.do(ctx, nethttp.MethodGet, pingPath, nil, nil, &payload)
		return callErr
	})
	if appErr != nil {
		return dto.SettlementPingOutput{}, appErr
	}

	return dto.SettlementPingOutput{OK: true, DebugClaims: payload}, nil
}

type createDepositRequest struct {
	AmountInCents    int64  `json:"amountInCents"`
	DepixAddress     string `json:"depixAddress"`
	EndUserFullName  string `json:"endUserFullName,omitempty"`
	EndUserTaxNumber string `json:"endUserTaxNumber,omitempty"`
}

type createDepositResponse struct {
	ID          string `json:"id"`
	QRCopyPaste string `json:"qrCopyPaste"`
	QRImageURL  string `json:"qrImageUrl"`
}

func (g *Gateway) CreateDeposit(
	ctx context.Context,
	input dto.CreateSettlementDepositInput,
) (dto.CreateSettlementDepositOutput, *apperrors.AppError) {
	body, err := json.Marshal(createDepositRequest{
		AmountInCents:    input.AmountMinor,
		DepixAddress:     input.DestinationAddress,
		EndUserFullName:  input.PayerName,
		EndUserTaxNumber: input.PayerTaxNumber,
	})
	if err != nil {
		return dto.CreateSettlementDepositOutput{}, apperrors.NewInternal(
			"settlement_request_encode_failed",
			"failed to encode settlement request",
			map[string]any{"error": err.Error()},
		)
	}

	var payload createDepositResponse
	appErr := g.call(ctx, valueobjects.EndpointClassDepositCreation, func(ctx context.Context) *apperrors.AppError {
		_, callErr := g.do(ctx, nethttp.MethodPost, depositPath, nil, body, &payload)
		return callErr
	})
	if appErr != nil {
		return dto.CreateSettlementDepositOutput{}, appErr
	}
	if strings.TrimSpace(payload.ID) == "" {
		return dto.CreateSettlementDepositOutput{}, apperrors.NewTransient(
			"settlement_response_malformed",
			"settlement deposit response has no id",
			nil,
		)
	}

	return dto.CreateSettlementDepositOutput{
		ExternalID:       strings.TrimSpace(payload.ID),
		CopyPastePayload: payload.QRCopyPaste,
		QRImageURL:       payload.QRImageURL,
	}, nil
}

type depositStatusResponse struct {
	Status         string `json:"status"`
	PayerEUID      string `json:"payerEUID"`
	PayerName      string `json:"payerName"`
	PayerTaxNumber string `json:"payerTaxNumber"`
	BankTxID       string `json:"bankTxId"`
	BlockchainTxID string `json:"blockchainTxID"`
}

// GetDepositStatus reports a missing or unimplemented status surface as
// pending, since the provider does not cover every transaction age.
func (g *Gateway) GetDepositStatus(
	ctx context.Context,
	externalID string,
) (dto.SettlementDepositStatusOutput, *apperrors.AppError) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return dto.SettlementDepositStatusOutput{}, apperrors.NewValidation(
			"settlement_external_id_missing",
			"external id is required",
			nil,
		)
	}

	var payload depositStatusResponse
	notFound := false
	appErr := g.call(ctx, valueobjects.EndpointClassDepositStatusQuery, func(ctx context.Context) *apperrors.AppError {
		statusCode, callErr := g.do(ctx, nethttp.MethodGet, depositStatusPath, url.Values{"id": {externalID}}, nil, &payload)
		if statusCode == nethttp.StatusNotFound || statusCode == nethttp.StatusNotImplemented {
			notFound = true
			return nil
		}
		return callErr
	})
	if appErr != nil {
		return dto.SettlementDepositStatusOutput{}, appErr
	}
	if notFound {
		return dto.SettlementDepositStatusOutput{RawStatus: "pending", NotFound: true}, nil
	}
	if strings.TrimSpace(payload.Status) == "" {
		return dto.SettlementDepositStatusOutput{}, apperrors.NewTransient(
			"settlement_response_malformed",
			"settlement status response has no status",
			map[string]any{"external_id": externalID},
		)
	}

	return dto.SettlementDepositStatusOutput{
		RawStatus:      strings.TrimSpace(payload.Status),
		PayerEUID:      payload.PayerEUID,
		PayerName:      payload.PayerName,
		PayerTaxNumber: payload.PayerTaxNumber,
		BankTxID:       payload.BankTxID,
		BlockchainTxID: payload.BlockchainTxID,
	}, nil
}

func (g *Gateway) call(
	ctx context.Context,
	class valueobjects.EndpointClass,
	op func(ctx context.Context) *apperrors.AppError,
) *apperrors.AppError {
	if g == nil || g.client == nil || g.baseURL == "" {
		return apperrors.NewInternal(
			"settlement_gateway_not_configured",
			"settlement gateway is not configured",
			nil,
		)
	}
	if g.gate == nil {
		return op(ctx)
	}
	return g.gate.Do(ctx, class, op)
}

type envelope struct {
	Response json.RawMessage `json:"response"`
}

type errorBody struct {
	ErrorMessage string `json:"errorMessage"`
}

// do sends one request and decodes the response envelope into out. It returns
// the HTTP status when one was received.
func (g *Gateway) do(
	ctx context.Context,
	method string,
	path string,
	query url.Values,
	body []byte,
	out any,
) (int, *apperrors.AppError) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	target := g.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	request, err := nethttp.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return 0, apperrors.NewInternal(
			"settlement_request_build_failed",
			"failed to build settlement request",
			map[string]any{"error": err.Error()},
		)
	}
	request.Header.Set("Authorization", "Bearer "+g.token)
	request.Header.Set("Accept", "application/json")
	request.Header.Set("X-Nonce", g.nonce())
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	response, err := g.client.Do(request)
	if err != nil {
		return 0, classifyTransportError(err, path)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(response.Body, maxErrorBodyBytes))
		return response.StatusCode, classifyStatus(response.StatusCode, path, raw)
	}

	raw, err := io.ReadAll(io.LimitReader(response.Body, maxBodyBytes))
	if err != nil {
		return response.StatusCode, classifyTransportError(err, path)
	}
	var wrapped envelope
	if err := json.Unmarshal(raw, &wrapped); err != nil || len(wrapped.Response) == 0 {
		return response.StatusCode, apperrors.NewTransient(
			"settlement_response_malformed",
			"settlement response is not a valid envelope",
			map[string]any{"path": path},
		)
	}
	if err := json.Unmarshal(wrapped.Response, out); err != nil {
		return response.StatusCode, apperrors.NewTransient(
			"settlement_response_malformed",
			"settlement response payload is invalid",
			map[string]any{"path": path, "error": err.Error()},
		)
	}
	return response.StatusCode, nil
}

func classifyStatus(statusCode int, path string, raw []byte) *apperrors.AppError {
	details := map[string]any{
		"status_code": statusCode,
		"path":        path,
	}
	if message := providerErrorMessage(raw); message != "" {
		details["provider_message"] = message
	}

	switch {
	case statusCode == nethttp.StatusUnauthorized || statusCode == nethttp.StatusForbidden:
		return apperrors.NewUpstreamAuthFailure(
			"settlement_auth_failed",
			"settlement provider rejected the credentials",
			details,
		)
	case statusCode == nethttp.StatusBadRequest ||
		statusCode == nethttp.StatusConflict ||
		statusCode == nethttp.StatusUnprocessableEntity:
		return apperrors.NewUpstreamRejected(
			"settlement_request_rejected",
			"settlement provider rejected the request",
			details,
		)
	case statusCode == nethttp.StatusTooManyRequests:
		return apperrors.NewUpstreamUnavailable(
			"settlement_rate_limited",
			"settlement provider is throttling requests",
			details,
		)
	case statusCode >= 500:
		return apperrors.NewUpstreamUnavailable(
			"settlement_unavailable",
			"settlement provider is unavailable",
			details,
		)
	default:
		// Unrecognized codes may succeed on a later attempt.
		return apperrors.NewTransient(
			"settlement_unexpected_status",
			"settlement provider returned an unexpected status",
			details,
		)
	}
}

func providerErrorMessage(raw []byte) string {
	var wrapped envelope
	if err := json.Unmarshal(raw, &wrapped); err == nil && len(wrapped.Response) > 0 {
		var body errorBody
		if json.Unmarshal(wrapped.Response, &body) == nil && body.ErrorMessage != "" {
			return body.ErrorMessage
		}
	}
	return strings.TrimSpace(string(raw))
}

func classifyTransportError(err error, path string) *apperrors.AppError {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return apperrors.NewTransient(
			"settlement_timeout",
			"settlement request timed out",
			map[string]any{"path": path},
		)
	}
	return apperrors.NewTransient(
		"settlement_connection_failed",
		"settlement request failed",
		map[string]any{"path": path, "error": err.Error()},
	)
}
