package app

import (
	"context"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"

	"nexttram.org/internal/middleware"
)

// maxRequestBytes bounds a voice request envelope.
const maxRequestBytes = 1 << 20

// Routes registers the webhook, the health check and the metrics endpoint.
// ctx stops the metrics cache refresher.
func (app *Application) Routes(ctx context.Context) http.Handler {
	router := httprouter.New()

	router.HandlerFunc(http.MethodPost, "/", app.webhookHandler)
	router.HandlerFunc(http.MethodGet, "/v1/healthcheck", app.healthcheckHandler)
	router.Handler(http.MethodGet, "/metrics", middleware.NewCachedPromHandler(ctx, prometheus.DefaultGatherer, 10*time.Second))

	handler := middleware.LimitBody(maxRequestBytes)(router)
	handler = middleware.SentryMiddleware(handler)
	return middleware.SecurityHeaders(handler)
}
