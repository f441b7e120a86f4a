// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"solana-nft-minter/internal/domain"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Mint metrics
	MintRequestsTotal  prometheus.Counter
	MintOutcomesTotal  *prometheus.CounterVec
	MintDuration       prometheus.Histogram
	MintsInFlight      prometheus.Gauge

	// Funding metrics
	FundingAttemptsTotal  *prometheus.CounterVec
	FundingRateLimited    *prometheus.CounterVec
	FundingExhaustedTotal prometheus.Counter
	WalletBalanceLamports prometheus.Gauge

	// Ledger metrics
	RPCCallLatency        *prometheus.HistogramVec
	ConfirmationLatency   prometheus.Histogram
	ConfirmationTimeouts  prometheus.Counter

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Health metrics
	LastSuccessfulMint prometheus.Gauge
	UptimeSeconds      prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "solana_nft_minter"
	}

	return &Metrics{
		// Mint metrics
		MintRequestsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mint",
			Name:      "requests_total",
			Help:      "Total number of mint requests started",
		}),
		MintOutcomesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mint",
			Name:      "outcomes_total",
			Help:      "Total number of finished mint requests by terminal status",
		}, []string{"status"}),
		MintDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "mint",
			Name:      "duration_seconds",
			Help:      "End-to-end mint request duration in seconds",
			Buckets:   []float64{1, 2, 5, 10, 20, 30, 60, 120, 300},
		}),
		MintsInFlight: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "mint",
			Name:      "in_flight",
			Help:      "Number of mint requests currently executing",
		}),

		// Funding metrics
		FundingAttemptsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "funding",
			Name:      "attempts_total",
			Help:      "Total number of funding provider invocations by provider and outcome",
		}, []string{"provider", "outcome"}),
		FundingRateLimited: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "funding",
			Name:      "rate_limited_total",
			Help:      "Total number of rate-limited funding attempts by provider",
		}, []string{"provider"}),
		FundingExhaustedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "funding",
			Name:      "exhausted_total",
			Help:      "Total number of funding chains that exhausted every provider",
		}),
		WalletBalanceLamports: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "funding",
			Name:      "wallet_balance_lamports",
			Help:      "Last observed operator wallet balance in lamports",
		}),

		// Ledger metrics
		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		ConfirmationLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "confirmation_latency_seconds",
			Help:      "Time from submission to confirmation in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		}),
		ConfirmationTimeouts: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "confirmation_timeouts_total",
			Help:      "Total number of transactions that missed the confirmation window",
		}),

		// HTTP metrics
		HTTPRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by route and status code",
		}, []string{"route", "code"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),

		// Health metrics
		LastSuccessfulMint: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_mint_timestamp",
			Help:      "Unix timestamp of the last confirmed mint",
		}),
		UptimeSeconds: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "uptime_seconds_total",
			Help:      "Total uptime in seconds",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// MintStarted increments the mint request counters.
func (m *Metrics) MintStarted() {
	m.MintRequestsTotal.Inc()
	m.MintsInFlight.Inc()
}

// MintFinished records a terminal mint outcome and its duration.
func (m *Metrics) MintFinished(status domain.MintStatus, elapsed time.Duration) {
	m.MintsInFlight.Dec()
	m.MintOutcomesTotal.WithLabelValues(string(status)).Inc()
	m.MintDuration.Observe(elapsed.Seconds())
	if status == domain.MintStatusConfirmed {
		m.LastSuccessfulMint.SetToCurrentTime()
	}
	if status == domain.MintStatusSubmitted {
		m.ConfirmationTimeouts.Inc()
	}
}

// ConfirmationObserved records the submit-to-confirmation latency of one
// mint transaction.
func (m *Metrics) ConfirmationObserved(elapsed time.Duration) {
	m.ConfirmationLatency.Observe(elapsed.Seconds())
}

// Record counts one funding provider invocation. Satisfies the funding
// chain's recorder contract, so the chain stays decoupled from Prometheus.
func (m *Metrics) Record(_ context.Context, attempt domain.FundingAttempt) {
	m.FundingAttemptsTotal.WithLabelValues(attempt.Provider, string(attempt.Outcome)).Inc()
	if attempt.RateLimited {
		m.FundingRateLimited.WithLabelValues(attempt.Provider).Inc()
	}
}

// WalletBalanceObserved tracks the last balance read of the operator wallet.
// Together with FundingExhausted it satisfies the funding chain's observer
// contract.
func (m *Metrics) WalletBalanceObserved(lamports uint64) {
	m.WalletBalanceLamports.Set(float64(lamports))
}

// FundingExhausted counts one full walk of the provider chain with no
// successful funding.
func (m *Metrics) FundingExhausted() {
	m.FundingExhaustedTotal.Inc()
}

// ObserveRPC records the latency of one ledger RPC call.
func (m *Metrics) ObserveRPC(method string, elapsed time.Duration) {
	m.RPCCallLatency.WithLabelValues(method).Observe(elapsed.Seconds())
}

// TrackUptime advances the uptime counter once per second until the context
// is cancelled. Run it in its own goroutine.
func (m *Metrics) TrackUptime(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.UptimeSeconds.Inc()
		}
	}
}

// RecordHTTP records one served HTTP request.
func (m *Metrics) RecordHTTP(route, code string, elapsed time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(route, code).Inc()
	m.HTTPRequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}
