package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/freshcart/freshcart-backend/api/controllers"
	webhookcontrollers "github.com/freshcart/freshcart-backend/api/controllers/webhooks"
	"github.com/freshcart/freshcart-backend/api/middleware"
	"github.com/freshcart/freshcart-backend/internal/notifications"
	"github.com/freshcart/freshcart-backend/internal/orders"
	"github.com/freshcart/freshcart-backend/internal/webhooks"
	"github.com/freshcart/freshcart-backend/pkg/config"
	"github.com/freshcart/freshcart-backend/pkg/db"
	"github.com/freshcart/freshcart-backend/pkg/logger"
	"github.com/freshcart/freshcart-backend/pkg/redis"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config        *config.Config
	Logger        *logger.Logger
	DB            db.Pinger
	Redis         redis.Pinger
	Orders        orders.Service
	Notifications notifications.Service
	StripeHook    webhookcontrollers.StripeWebhookService
	PaytmHook     webhookcontrollers.PaytmWebhookService
	PhonePeHook   webhookcontrollers.PhonePeWebhookService
	StripeGuard   *webhooks.IdempotencyGuard
	PaytmGuard    *webhooks.IdempotencyGuard
	PhonePeGuard  *webhooks.IdempotencyGuard
	Registry      *prometheus.Registry
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.DB, deps.Redis, logg))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(deps.StripeHook, cfg.Stripe, deps.StripeGuard, logg))
		r.Post("/paytm", webhookcontrollers.PaytmWebhook(deps.PaytmHook, deps.PaytmGuard, logg))
		r.Post("/phonepe", webhookcontrollers.PhonePeWebhook(deps.PhonePeHook, deps.PhonePeGuard, logg))
	})

	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Get("/{orderId}", controllers.GetOrder(deps.Orders, logg))
		r.Post("/{orderId}/cancel", controllers.CancelOrder(deps.Orders, logg))
		r.Post("/{orderId}/modify", controllers.ModifyOrder(deps.Orders, logg))
	})

	r.Route("/api/v1/users/{userId}", func(r chi.Router) {
		r.Get("/orders", controllers.ListUserOrders(deps.Orders, logg))
		r.Get("/notifications", controllers.ListNotifications(deps.Notifications, logg))
		r.Post("/notifications/read", controllers.MarkAllNotificationsRead(deps.Notifications, logg))
	})

	r.Post("/api/v1/notifications/{notificationId}/read", controllers.MarkNotificationRead(deps.Notifications, logg))

	return r
}
