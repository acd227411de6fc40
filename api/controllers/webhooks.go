package controllers

import (
	"io"
	"net/http"
	"strings"

	"github.com/blackbass-labs/blackbass-backend/api/responses"
	paymentsvc "github.com/blackbass-labs/blackbass-backend/internal/payments"
	subscriptionsvc "github.com/blackbass-labs/blackbass-backend/internal/subscriptions"
	"github.com/blackbass-labs/blackbass-backend/pkg/logger"
)

const webhookBodyLimit = 1 << 20

// PaymentWebhook receives provider notifications. The body is read raw
// before any JSON middleware touches it; the notification is only a pointer,
// the authoritative record is fetched by id inside the reconciler.
func PaymentWebhook(reconciler *paymentsvc.Reconciler, subs *subscriptionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, webhookBodyLimit))
		if err != nil {
			body = nil
		}

		notification := paymentsvc.ParseNotification(r.URL.Query(), body)

		// Preapproval notifications share the endpoint; route by topic.
		if strings.Contains(notification.Topic, "preapproval") {
			if err := subs.HandleNotification(r.Context(), notification.PaymentID); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, map[string]any{"received": true})
			return
		}

		if err := reconciler.Process(r.Context(), notification); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"received": true})
	}
}
