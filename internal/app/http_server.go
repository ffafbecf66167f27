package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/wholesale/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/wholesale/internal/health"
	"github.com/vladislavdragonenkov/wholesale/internal/invoice"
	grpcsvc "github.com/vladislavdragonenkov/wholesale/internal/service/grpc"
	"github.com/vladislavdragonenkov/wholesale/internal/version"
)

// invoiceReader отдаёт снимок накладной для внешнего рендерера.
type invoiceReader interface {
	Invoice(ctx context.Context, orderID string) (invoice.Invoice, error)
}

// newHTTPRouter собирает служебные маршруты. invoices может быть nil: тогда /invoices не регистрируется.
func newHTTPRouter(healthHandler *healthcheck.Handler, invoices invoiceReader, logger *log.Entry) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Handle("/metrics", promhttp.Handler())
	r.Handle("/healthz", healthHandler)
	r.Get("/livez", healthcheck.LivenessHandler)
	r.Get("/readyz", healthHandler.ReadinessHandler)
	r.Get("/version", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, version.Build())
	})

	if invoices != nil {
		r.Get("/invoices/{orderID}", func(w http.ResponseWriter, req *http.Request) {
			orderID := chi.URLParam(req, "orderID")
			inv, err := invoices.Invoice(req.Context(), orderID)
			if err != nil {
				status := http.StatusInternalServerError
				if domain.IsNotFound(err) {
					status = http.StatusNotFound
				} else {
					logger.WithError(err).WithField("order_id", orderID).Error("invoice snapshot failed")
				}
				writeJSON(w, status, map[string]string{"error": http.StatusText(status)})
				return
			}
			writeJSON(w, http.StatusOK, grpcsvc.ToInvoice(inv))
		})
	}

	return r
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// startMetricsServer запускает служебный HTTP-сервер и останавливает его по ctx.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, handler http.Handler) *http.Server {
	srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/livez, %s/readyz", addr, addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("metrics shutdown with error")
	}
}
