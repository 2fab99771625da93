package webhooks

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	paytmwebhook "github.com/freshcart/freshcart-backend/internal/webhooks/paytm"
	pkgerrors "github.com/freshcart/freshcart-backend/pkg/errors"
	"github.com/freshcart/freshcart-backend/pkg/logger"
)

type PaytmWebhookService interface {
	Handle(ctx context.Context, form url.Values) (*paytmwebhook.Result, error)
}

// PaytmWebhook handles Paytm form-encoded callbacks. Paytm expects a plain
// text acknowledgement rather than the JSON envelope.
func PaytmWebhook(svc PaytmWebhookService, guard webhookGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil || guard == nil {
			writePaytmFailure(w, http.StatusInternalServerError)
			return
		}

		if err := r.ParseForm(); err != nil {
			writePaytmFailure(w, http.StatusBadRequest)
			return
		}
		form := r.PostForm

		txnID := strings.TrimSpace(form.Get("TXNID"))
		if txnID == "" {
			writePaytmFailure(w, http.StatusBadRequest)
			return
		}

		alreadyProcessed, err := guard.CheckAndMark(ctx, txnID)
		if err != nil {
			writePaytmFailure(w, http.StatusServiceUnavailable)
			return
		}
		if alreadyProcessed {
			writePaytmSuccess(w, txnID)
			return
		}

		result, err := svc.Handle(ctx, form)
		if err != nil {
			_ = guard.Delete(ctx, txnID)
			if logg != nil {
				logg.Error(ctx, "paytm webhook rejected", err)
			}
			writePaytmFailure(w, paytmStatusFor(err))
			return
		}

		if logg != nil {
			logg.Info(ctx, fmt.Sprintf("paytm transaction %s processed", result.TransactionID))
		}
		writePaytmSuccess(w, result.TransactionID)
	}
}

func paytmStatusFor(err error) int {
	if typed := pkgerrors.As(err); typed != nil {
		return pkgerrors.MetadataFor(typed.Code()).HTTPStatus
	}
	return http.StatusInternalServerError
}

func writePaytmSuccess(w http.ResponseWriter, txnID string) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "RESPCODE=01\nRESPMSG=success\nTXNID=%s", txnID)
}

func writePaytmFailure(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(status)
	fmt.Fprint(w, "RESPCODE=02\nRESPMSG=failure")
}
