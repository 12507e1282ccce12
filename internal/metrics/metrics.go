// Package metrics provides Prometheus instrumentation for the ledger engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// TradesTotal counts executed trades by kind (buy, sell, short).
	TradesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "synthx_trades_total",
		Help: "Total number of trades executed",
	}, []string{"kind"})

	// TradeRejections counts rejected trades by failure reason.
	TradeRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "synthx_trade_rejections_total",
		Help: "Trades rejected by the engine",
	}, []string{"reason"})

	// RebasesTotal counts applied per-symbol rebases.
	RebasesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "synthx_rebases_total",
		Help: "Per-symbol rebases applied",
	}, []string{"symbol"})

	// ActiveSymbols tracks the number of active symbols.
	ActiveSymbols = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "synthx_active_symbols",
		Help: "Number of active symbols",
	})

	// CollectedTaxes tracks the unwithdrawn tax balance in ETH.
	CollectedTaxes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "synthx_collected_taxes_eth",
		Help: "Accrued, unwithdrawn protocol tax",
	})

	// ReserveBalance tracks each symbol's ETH reserve.
	ReserveBalance = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "synthx_reserve_balance_eth",
		Help: "ETH reserve held per symbol",
	}, []string{"symbol"})

	// WebSocketClients tracks connected WebSocket clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "synthx_websocket_clients",
		Help: "Number of connected WebSocket clients",
	})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "synthx_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "synthx_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		path := r.URL.Path
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
