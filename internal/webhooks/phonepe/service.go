package phonepewebhook

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/freshcart/freshcart-backend/internal/payments"
	"github.com/freshcart/freshcart-backend/pkg/config"
	"github.com/freshcart/freshcart-backend/pkg/enums"
	pkgerrors "github.com/freshcart/freshcart-backend/pkg/errors"
	"github.com/freshcart/freshcart-backend/pkg/types"
)

const (
	codeSuccess  = "PAYMENT_SUCCESS"
	verifySuffix = "/pg/v1/status"
)

// Service verifies PhonePe signed callbacks and reconciles the outcome.
type Service struct {
	reconciler payments.Service
	cfg        config.PhonePeConfig
}

// Result carries reconciliation state back to the controller.
type Result struct {
	TransactionID    string
	AlreadyProcessed bool
}

type callbackEnvelope struct {
	Response string `json:"response"`
}

type callbackPayload struct {
	Code string `json:"code"`
	Data struct {
		MerchantTransactionID string `json:"merchantTransactionId"`
		TransactionID         string `json:"transactionId"`
		Amount                int64  `json:"amount"`
		ResponseCode          string `json:"responseCode"`
		State                 string `json:"state"`
	} `json:"data"`
	Message string `json:"message"`
}

func NewService(reconciler payments.Service, cfg config.PhonePeConfig) (*Service, error) {
	if reconciler == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payments service required")
	}
	if cfg.SaltKey == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "phonepe salt key required")
	}
	return &Service{reconciler: reconciler, cfg: cfg}, nil
}

// Handle authenticates the raw body against X-VERIFY and reconciles.
func (s *Service) Handle(ctx context.Context, rawBody []byte, xVerify string) (*Result, error) {
	if xVerify == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "X-VERIFY header missing")
	}
	if !s.verifySignature(rawBody, xVerify) {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "X-VERIFY mismatch")
	}

	var envelope callbackEnvelope
	if err := json.Unmarshal(rawBody, &envelope); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode callback body")
	}
	if envelope.Response == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "response field required")
	}

	decoded, err := base64.StdEncoding.DecodeString(envelope.Response)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode response payload")
	}

	var payload callbackPayload
	if err := json.Unmarshal(decoded, &payload); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse response payload")
	}
	if payload.Data.MerchantTransactionID == "" || payload.Data.TransactionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction ids required")
	}

	outcome := payments.OutcomeFailed
	if payload.Code == codeSuccess {
		outcome = payments.OutcomeSuccess
	}

	// PhonePe reports amounts in paise.
	amount := decimal.NewFromInt(payload.Data.Amount).Div(decimal.NewFromInt(100)).Round(2)

	raw := types.JSONMap{}
	_ = json.Unmarshal(decoded, &raw)

	input := payments.ReconcileInput{
		Gateway:              enums.GatewayPhonePe,
		ExternalID:           payload.Data.MerchantTransactionID,
		GatewayTransactionID: payload.Data.TransactionID,
		Outcome:              outcome,
		Amount:               amount,
		RawPayload:           raw,
		FailureReason:        payload.Message,
	}
	if outcome == payments.OutcomeFailed && payload.Data.ResponseCode != "" {
		code := payload.Data.ResponseCode
		input.FailureCode = &code
	}

	reconciled, err := s.reconciler.Reconcile(ctx, input)
	if err != nil {
		return nil, err
	}
	return &Result{
		TransactionID:    payload.Data.TransactionID,
		AlreadyProcessed: reconciled.AlreadyProcessed,
	}, nil
}

// verifySignature checks sha256(body + "/pg/v1/status" + saltKey) + "###" + saltIndex.
func (s *Service) verifySignature(rawBody []byte, provided string) bool {
	sum := sha256.Sum256(append(append([]byte{}, rawBody...), []byte(verifySuffix+s.cfg.SaltKey)...))
	expected := hex.EncodeToString(sum[:]) + "###" + s.cfg.SaltIndex
	return subtle.ConstantTimeCompare([]byte(expected), []byte(provided)) == 1
}
