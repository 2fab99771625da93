package paytmwebhook

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freshcart/freshcart-backend/internal/payments"
	"github.com/freshcart/freshcart-backend/pkg/config"
	"github.com/freshcart/freshcart-backend/pkg/enums"
	pkgerrors "github.com/freshcart/freshcart-backend/pkg/errors"
)

const testMerchantKey = "merchant-secret"

type stubReconciler struct {
	input  *payments.ReconcileInput
	result payments.ReconcileResult
	err    error
}

func (s *stubReconciler) Reconcile(ctx context.Context, input payments.ReconcileInput) (*payments.ReconcileResult, error) {
	s.input = &input
	if s.err != nil {
		return nil, s.err
	}
	return &s.result, nil
}

func mustDecimal(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	parsed, err := decimal.NewFromString(value)
	require.NoError(t, err)
	return parsed
}

func newPaytmService(t *testing.T, reconciler payments.Service) *Service {
	t.Helper()
	svc, err := NewService(reconciler, config.PaytmConfig{MerchantID: "M1", MerchantKey: testMerchantKey})
	require.NoError(t, err)
	return svc
}

// signForm computes the callback checksum over the sorted key=value pairs.
func signForm(form url.Values) {
	keys := make([]string, 0, len(form))
	for key := range form {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+form.Get(key))
	}
	sum := sha256.Sum256([]byte(strings.Join(pairs, "&") + testMerchantKey))
	form.Set("CHECKSUMHASH", hex.EncodeToString(sum[:]))
}

func successForm() url.Values {
	form := url.Values{}
	form.Set("ORDERID", "order-42")
	form.Set("TXNID", "TXN-1001")
	form.Set("TXNAMOUNT", "149.50")
	form.Set("STATUS", "TXN_SUCCESS")
	form.Set("RESPCODE", "01")
	form.Set("RESPMSG", "Txn Success")
	signForm(form)
	return form
}

func TestHandle_SuccessCallback(t *testing.T) {
	reconciler := &stubReconciler{}
	svc := newPaytmService(t, reconciler)

	result, err := svc.Handle(context.Background(), successForm())
	require.NoError(t, err)

	assert.Equal(t, "TXN-1001", result.TransactionID)
	assert.False(t, result.AlreadyProcessed)

	require.NotNil(t, reconciler.input)
	assert.Equal(t, enums.GatewayPaytm, reconciler.input.Gateway)
	assert.Equal(t, "order-42", reconciler.input.ExternalID)
	assert.Equal(t, "TXN-1001", reconciler.input.GatewayTransactionID)
	assert.Equal(t, payments.OutcomeSuccess, reconciler.input.Outcome)
	assert.True(t, reconciler.input.Amount.Equal(mustDecimal(t, "149.50")))
	assert.Nil(t, reconciler.input.FailureCode, "success callbacks carry no failure code")
}

func TestHandle_FailureCallback(t *testing.T) {
	reconciler := &stubReconciler{}
	svc := newPaytmService(t, reconciler)

	form := url.Values{}
	form.Set("ORDERID", "order-43")
	form.Set("TXNID", "TXN-1002")
	form.Set("TXNAMOUNT", "25.00")
	form.Set("STATUS", "TXN_FAILURE")
	form.Set("RESPCODE", "227")
	form.Set("RESPMSG", "Bank declined")
	signForm(form)

	_, err := svc.Handle(context.Background(), form)
	require.NoError(t, err)

	require.NotNil(t, reconciler.input)
	assert.Equal(t, payments.OutcomeFailed, reconciler.input.Outcome)
	assert.Equal(t, "Bank declined", reconciler.input.FailureReason)
	require.NotNil(t, reconciler.input.FailureCode)
	assert.Equal(t, "227", *reconciler.input.FailureCode)
}

func TestHandle_ChecksumMismatchRejected(t *testing.T) {
	reconciler := &stubReconciler{}
	svc := newPaytmService(t, reconciler)

	form := successForm()
	form.Set("TXNAMOUNT", "9999.00") // tampered after signing

	_, err := svc.Handle(context.Background(), form)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
	assert.Nil(t, reconciler.input, "tampered callbacks never reach reconciliation")
}

func TestHandle_MissingChecksumRejected(t *testing.T) {
	svc := newPaytmService(t, &stubReconciler{})

	form := successForm()
	form.Del("CHECKSUMHASH")

	_, err := svc.Handle(context.Background(), form)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
}

func TestHandle_MissingIdentifiersRejected(t *testing.T) {
	svc := newPaytmService(t, &stubReconciler{})

	form := url.Values{}
	form.Set("STATUS", "TXN_SUCCESS")
	signForm(form)

	_, err := svc.Handle(context.Background(), form)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestHandle_InvalidAmountRejected(t *testing.T) {
	svc := newPaytmService(t, &stubReconciler{})

	form := successForm()
	form.Set("TXNAMOUNT", "not-a-number")
	form.Del("CHECKSUMHASH")
	signForm(form)

	_, err := svc.Handle(context.Background(), form)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestHandle_DuplicateSurfacesAlreadyProcessed(t *testing.T) {
	reconciler := &stubReconciler{result: payments.ReconcileResult{AlreadyProcessed: true}}
	svc := newPaytmService(t, reconciler)

	result, err := svc.Handle(context.Background(), successForm())
	require.NoError(t, err)
	assert.True(t, result.AlreadyProcessed)
}
