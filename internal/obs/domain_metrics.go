package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Domain collectors are package-level so the gateway layer can record
// outcomes without threading a metrics struct through every adapter.
// They stay nil until MustRegisterDomainMetrics runs; callers nil-check.
var (
	PosOperationTotal    *prometheus.CounterVec
	PosOperationDuration *prometheus.HistogramVec
	CallbackVerifyTotal  *prometheus.CounterVec
)

var domainOnce sync.Once

// MustRegisterDomainMetrics initializes the gateway-level collectors.
// Safe to call more than once; only the first call registers.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		PosOperationTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pos_operations_total",
			Help:      "Total gateway operations by bank, operation and result.",
		}, []string{"bank", "operation", "result"})
		PosOperationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pos_operation_duration_ms",
			Help:      "Gateway operation latency in milliseconds, including bank round trips.",
			Buckets:   []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		}, []string{"bank", "operation"})
		CallbackVerifyTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pos_callback_verifications_total",
			Help:      "3D Secure callback verification outcomes by bank.",
		}, []string{"bank", "result"})
		registerCounterVec(reg, &PosOperationTotal)
		registerHistogramVec(reg, &PosOperationDuration)
		registerCounterVec(reg, &CallbackVerifyTotal)
	})
}
