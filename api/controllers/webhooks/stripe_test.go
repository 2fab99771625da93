package webhooks

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"

	pkgerrors "github.com/freshcart/freshcart-backend/pkg/errors"
)

const testSigningSecret = "whsec_test_secret"

type testStripeService struct {
	handleFn func(ctx context.Context, event *stripe.Event) error
}

func (s *testStripeService) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if s.handleFn != nil {
		return s.handleFn(ctx, event)
	}
	return nil
}

type testStripeConfig struct{}

func (testStripeConfig) WebhookSigningSecret() string { return testSigningSecret }

func signedStripeRequest(t *testing.T, eventID string, eventType stripe.EventType) *http.Request {
	t.Helper()

	payload, err := json.Marshal(map[string]any{
		"id":          eventID,
		"object":      "event",
		"api_version": stripe.APIVersion,
		"type":        string(eventType),
		"data": map[string]any{
			"object": map[string]any{"id": "pi_123", "amount": 1000},
		},
	})
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}

	now := time.Now()
	signature := webhook.ComputeSignature(now, payload, testSigningSecret)
	header := fmt.Sprintf("t=%d,v1=%s", now.Unix(), hex.EncodeToString(signature))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", strings.NewReader(string(payload)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Stripe-Signature", header)
	return req
}

func TestStripeWebhookSuccess(t *testing.T) {
	var handled *stripe.Event
	svc := &testStripeService{
		handleFn: func(ctx context.Context, event *stripe.Event) error {
			handled = event
			return nil
		},
	}

	resp := httptest.NewRecorder()
	req := signedStripeRequest(t, "evt_100", stripe.EventTypePaymentIntentSucceeded)
	StripeWebhook(svc, testStripeConfig{}, newTestGuard(), testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if handled == nil || handled.ID != "evt_100" {
		t.Fatal("event not forwarded to service")
	}
	var envelope struct {
		Data map[string]bool `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if !envelope.Data["received"] {
		t.Fatal("response missing received flag")
	}
}

func TestStripeWebhookMissingSignature(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", strings.NewReader(`{}`))

	resp := httptest.NewRecorder()
	StripeWebhook(&testStripeService{}, testStripeConfig{}, newTestGuard(), testLogger())(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status %d", resp.Code)
	}
}

func TestStripeWebhookBadSignature(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", strings.NewReader(`{}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=deadbeef")

	resp := httptest.NewRecorder()
	StripeWebhook(&testStripeService{}, testStripeConfig{}, newTestGuard(), testLogger())(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status %d", resp.Code)
	}
}

func TestStripeWebhookDuplicateAcks(t *testing.T) {
	called := false
	svc := &testStripeService{
		handleFn: func(ctx context.Context, event *stripe.Event) error {
			called = true
			return nil
		},
	}
	guard := newTestGuard()
	guard.seen["evt_dup"] = true

	resp := httptest.NewRecorder()
	req := signedStripeRequest(t, "evt_dup", stripe.EventTypePaymentIntentSucceeded)
	StripeWebhook(svc, testStripeConfig{}, guard, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if called {
		t.Fatal("duplicate event must not reach the service")
	}
}

func TestStripeWebhookServiceErrorClearsGuard(t *testing.T) {
	svc := &testStripeService{
		handleFn: func(ctx context.Context, event *stripe.Event) error {
			return pkgerrors.New(pkgerrors.CodeNotFound, "payment intent not found")
		},
	}
	guard := newTestGuard()

	resp := httptest.NewRecorder()
	req := signedStripeRequest(t, "evt_err", stripe.EventTypePaymentIntentSucceeded)
	StripeWebhook(svc, testStripeConfig{}, guard, testLogger())(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if len(guard.deleted) != 1 || guard.deleted[0] != "evt_err" {
		t.Fatal("failed delivery should clear the idempotency mark")
	}
}
