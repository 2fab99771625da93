package paytmwebhook

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/freshcart/freshcart-backend/internal/payments"
	"github.com/freshcart/freshcart-backend/pkg/config"
	"github.com/freshcart/freshcart-backend/pkg/enums"
	pkgerrors "github.com/freshcart/freshcart-backend/pkg/errors"
	"github.com/freshcart/freshcart-backend/pkg/types"
)

const (
	statusSuccess     = "TXN_SUCCESS"
	checksumFieldName = "CHECKSUMHASH"
)

// Service verifies Paytm form callbacks and reconciles the reported outcome.
type Service struct {
	reconciler payments.Service
	cfg        config.PaytmConfig
}

// Result carries the fields the controller needs for the plain-text ack.
type Result struct {
	TransactionID    string
	AlreadyProcessed bool
}

func NewService(reconciler payments.Service, cfg config.PaytmConfig) (*Service, error) {
	if reconciler == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payments service required")
	}
	if cfg.MerchantKey == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "paytm merchant key required")
	}
	return &Service{reconciler: reconciler, cfg: cfg}, nil
}

// Handle authenticates the callback and runs reconciliation.
func (s *Service) Handle(ctx context.Context, form url.Values) (*Result, error) {
	checksum := form.Get(checksumFieldName)
	if checksum == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "checksum missing")
	}
	if !s.verifyChecksum(form, checksum) {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "checksum mismatch")
	}

	orderID := form.Get("ORDERID")
	txnID := form.Get("TXNID")
	if orderID == "" || txnID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ORDERID and TXNID required")
	}

	amount := decimal.Zero
	if raw := form.Get("TXNAMOUNT"); raw != "" {
		parsed, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid TXNAMOUNT")
		}
		amount = parsed
	}

	outcome := payments.OutcomeFailed
	if form.Get("STATUS") == statusSuccess {
		outcome = payments.OutcomeSuccess
	}

	input := payments.ReconcileInput{
		Gateway:              enums.GatewayPaytm,
		ExternalID:           orderID,
		GatewayTransactionID: txnID,
		Outcome:              outcome,
		Amount:               amount,
		RawPayload:           formToMap(form),
		FailureReason:        form.Get("RESPMSG"),
	}
	if code := form.Get("RESPCODE"); code != "" && outcome == payments.OutcomeFailed {
		input.FailureCode = &code
	}

	reconciled, err := s.reconciler.Reconcile(ctx, input)
	if err != nil {
		return nil, err
	}
	return &Result{
		TransactionID:    txnID,
		AlreadyProcessed: reconciled.AlreadyProcessed,
	}, nil
}

// verifyChecksum recomputes the SHA-256 signature over all fields except the
// checksum itself, sorted by key and joined key=value with '&', with the
// merchant key appended.
func (s *Service) verifyChecksum(form url.Values, provided string) bool {
	keys := make([]string, 0, len(form))
	for key := range form {
		if key == checksumFieldName {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+form.Get(key))
	}

	payload := strings.Join(pairs, "&") + s.cfg.MerchantKey
	sum := sha256.Sum256([]byte(payload))
	expected := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(expected), []byte(strings.ToLower(provided))) == 1
}

func formToMap(form url.Values) types.JSONMap {
	out := types.JSONMap{}
	for key := range form {
		out[key] = form.Get(key)
	}
	return out
}
