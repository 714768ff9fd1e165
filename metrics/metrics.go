// Package metrics exposes prometheus metrics of the withdrawer daemon.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// WithdrawerMetrics holds the metric set of the withdrawal flow together
// with the registry they are registered on.
type WithdrawerMetrics struct {
	Registry *prometheus.Registry

	WithdrawalAttemptsTotal  prometheus.Counter
	WithdrawalsRejectedTotal prometheus.Counter
	WithdrawalsSuccessTotal  prometheus.Counter
	WithdrawalsFailedTotal   prometheus.Counter
	FeeEstimationErrorsTotal prometheus.Counter

	CurrentGasLimit  prometheus.Gauge
	CurrentGasPrice  prometheus.Gauge
	CurrentFiatPrice prometheus.Gauge
}

func NewWithdrawerMetrics() *WithdrawerMetrics {
	registry := prometheus.NewRegistry()

	m := &WithdrawerMetrics{
		Registry: registry,
		WithdrawalAttemptsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "withdrawer_withdrawal_attempts_total",
			Help: "Total number of withdrawal submissions requested",
		}),
		WithdrawalsRejectedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "withdrawer_withdrawals_rejected_total",
			Help: "Total number of withdrawal submissions rejected by the guard",
		}),
		WithdrawalsSuccessTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "withdrawer_withdrawals_success_total",
			Help: "Total number of successfully broadcast withdrawals",
		}),
		WithdrawalsFailedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "withdrawer_withdrawals_failed_total",
			Help: "Total number of failed withdrawal broadcasts",
		}),
		FeeEstimationErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "withdrawer_fee_estimation_errors_total",
			Help: "Total number of failed fee estimations",
		}),
		CurrentGasLimit: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "withdrawer_current_gas_limit",
			Help: "Gas limit of the most recent fee estimate",
		}),
		CurrentGasPrice: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "withdrawer_current_gas_price",
			Help: "Gas price of the most recent fee estimate in fee asset base units per gas",
		}),
		CurrentFiatPrice: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "withdrawer_current_fiat_price",
			Help: "Most recent fiat price of the fee asset",
		}),
	}

	registry.MustRegister(
		m.WithdrawalAttemptsTotal,
		m.WithdrawalsRejectedTotal,
		m.WithdrawalsSuccessTotal,
		m.WithdrawalsFailedTotal,
		m.FeeEstimationErrorsTotal,
		m.CurrentGasLimit,
		m.CurrentGasPrice,
		m.CurrentFiatPrice,
	)

	return m
}
