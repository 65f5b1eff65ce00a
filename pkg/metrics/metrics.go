package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the Prometheus collectors for the scheduling core.
type Metrics struct {
	registry *prometheus.Registry
	handler  http.Handler

	ShiftsGenerated    *prometheus.CounterVec
	ShortageEvents     *prometheus.CounterVec
	SwapsProcessed     *prometheus.CounterVec
	StaleSwapsRejected prometheus.Counter
	GenerationDuration *prometheus.HistogramVec
}

// New registers the core collectors on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	shiftsGenerated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "roster_shifts_generated_total",
		Help: "Total shifts created by the generators",
	}, []string{"department", "mode"})

	shortageEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "roster_shortage_events_total",
		Help: "Total staffing shortage events emitted",
	}, []string{"department"})

	swapsProcessed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "roster_swaps_processed_total",
		Help: "Total swap requests resolved",
	}, []string{"decision"})

	staleSwaps := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "roster_stale_swaps_rejected_total",
		Help: "Total expired swap requests auto-rejected by the sweep",
	})

	generationDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "roster_generation_duration_seconds",
		Help:    "Duration of schedule generation runs",
		Buckets: prometheus.DefBuckets,
	}, []string{"mode"})

	registry.MustRegister(shiftsGenerated, shortageEvents, swapsProcessed, staleSwaps, generationDuration)

	return &Metrics{
		registry:           registry,
		handler:            promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		ShiftsGenerated:    shiftsGenerated,
		ShortageEvents:     shortageEvents,
		SwapsProcessed:     swapsProcessed,
		StaleSwapsRejected: staleSwaps,
		GenerationDuration: generationDuration,
	}
}

// Handler exposes the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return m.handler
}
