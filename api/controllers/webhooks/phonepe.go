package webhooks

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/freshcart/freshcart-backend/api/responses"
	phonepewebhook "github.com/freshcart/freshcart-backend/internal/webhooks/phonepe"
	pkgerrors "github.com/freshcart/freshcart-backend/pkg/errors"
	"github.com/freshcart/freshcart-backend/pkg/logger"
)

type PhonePeWebhookService interface {
	Handle(ctx context.Context, rawBody []byte, xVerify string) (*phonepewebhook.Result, error)
}

// PhonePeWebhook handles PhonePe signed JSON callbacks.
func PhonePeWebhook(svc PhonePeWebhookService, guard webhookGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}
		if guard == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "idempotency guard unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		xVerify := r.Header.Get("X-VERIFY")
		if xVerify == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "X-VERIFY header missing"))
			return
		}

		// The signature is deterministic per payload, which makes it a usable
		// duplicate fence before the body is even parsed.
		alreadyProcessed, err := guard.CheckAndMark(ctx, xVerify)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
			return
		}
		if alreadyProcessed {
			responses.WriteSuccess(w, map[string]bool{"success": true})
			return
		}

		result, err := svc.Handle(ctx, payload, xVerify)
		if err != nil {
			_ = guard.Delete(ctx, xVerify)
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			logg.Info(ctx, fmt.Sprintf("phonepe transaction %s processed", result.TransactionID))
		}
		responses.WriteSuccess(w, map[string]bool{"success": true})
	}
}
