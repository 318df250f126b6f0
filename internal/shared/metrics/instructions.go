package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Instructions coleta contagem e latência das instruções do ledger por resultado (Code).
type Instructions struct {
	total    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewInstructions registra os coletores em reg (prometheus.DefaultRegisterer nos binários,
// um registry novo nos testes).
func NewInstructions(reg prometheus.Registerer) *Instructions {
	m := &Instructions{
		total: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_instructions_total",
			Help: "instruções executadas por resultado",
		}, []string{"instruction", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ledger_instruction_duration_seconds",
			Help:    "latência das instruções do ledger",
			Buckets: prometheus.DefBuckets,
		}, []string{"instruction"}),
	}
	reg.MustRegister(m.total, m.duration)
	return m
}

func (m *Instructions) Observe(instruction, result string, d time.Duration) {
	m.total.WithLabelValues(instruction, result).Inc()
	m.duration.WithLabelValues(instruction).Observe(d.Seconds())
}
