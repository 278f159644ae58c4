package schedule

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts scheduler activity.
type Metrics struct {
	// Batches counts finished batches by lang and status (ok, failed, skipped).
	Batches *prometheus.CounterVec
	// Texts counts texts translated by the backend.
	Texts prometheus.Counter
	// CacheHits counts texts answered from the translation cache.
	CacheHits prometheus.Counter
}

// NewMetrics creates the scheduler collectors and registers them with reg
// when reg is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Batches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hankey_translation_batches_total",
				Help: "Total number of translation batches by outcome",
			},
			[]string{"lang", "status"},
		),
		Texts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "hankey_translated_texts_total",
				Help: "Total number of texts translated by the backend",
			},
		),
		CacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "hankey_translation_cache_hits_total",
				Help: "Total number of texts served from the translation cache",
			},
		),
	}
	if reg != nil {
		reg.MustRegister(m.Batches, m.Texts, m.CacheHits)
	}
	return m
}

func (m *Metrics) batch(lang, status string) {
	if m != nil {
		m.Batches.WithLabelValues(lang, status).Inc()
	}
}

func (m *Metrics) texts(n int) {
	if m != nil {
		m.Texts.Add(float64(n))
	}
}

func (m *Metrics) cacheHit() {
	if m != nil {
		m.CacheHits.Inc()
	}
}
