package metrics

import "github.com/prometheus/client_golang/prometheus"

// ChatMetrics exposes counters/histograms for the conversation pipeline.
type ChatMetrics struct {
	requestsTotal *prometheus.CounterVec
	llmLatency    *prometheus.HistogramVec
	leadsUpserted prometheus.Counter
}

func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	m := &ChatMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadgate",
			Subsystem: "chat",
			Name:      "requests_total",
			Help:      "Total chat requests by outcome",
		}, []string{"outcome"}),
		llmLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "leadgate",
			Subsystem: "chat",
			Name:      "llm_latency_seconds",
			Help:      "Latency of inference calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"purpose"}),
		leadsUpserted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "leadgate",
			Subsystem: "chat",
			Name:      "leads_upserted_total",
			Help:      "Total lead create/merge operations from chat",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.llmLatency, m.leadsUpserted)
	return m
}

func (m *ChatMetrics) ObserveRequest(outcome string) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(outcome).Inc()
}

func (m *ChatMetrics) ObserveLLMLatency(purpose string, seconds float64) {
	if m == nil {
		return
	}
	m.llmLatency.WithLabelValues(purpose).Observe(seconds)
}

func (m *ChatMetrics) ObserveLeadUpsert() {
	if m == nil {
		return
	}
	m.leadsUpserted.Inc()
}

// SchedulerMetrics exposes counters for the digest scheduler.
type SchedulerMetrics struct {
	ticksTotal      prometheus.Counter
	overlapsSkipped prometheus.Counter
	sendsTotal      *prometheus.CounterVec
}

func NewSchedulerMetrics(reg prometheus.Registerer) *SchedulerMetrics {
	m := &SchedulerMetrics{
		ticksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "leadgate",
			Subsystem: "scheduler",
			Name:      "ticks_total",
			Help:      "Total scheduler ticks processed",
		}),
		overlapsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "leadgate",
			Subsystem: "scheduler",
			Name:      "overlapping_ticks_skipped_total",
			Help:      "Ticks skipped because a prior tick was still running",
		}),
		sendsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadgate",
			Subsystem: "scheduler",
			Name:      "sends_total",
			Help:      "Digest send attempts by status",
		}, []string{"status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.ticksTotal, m.overlapsSkipped, m.sendsTotal)
	return m
}

func (m *SchedulerMetrics) ObserveTick() {
	if m == nil {
		return
	}
	m.ticksTotal.Inc()
}

func (m *SchedulerMetrics) ObserveOverlapSkipped() {
	if m == nil {
		return
	}
	m.overlapsSkipped.Inc()
}

func (m *SchedulerMetrics) ObserveSend(status string) {
	if m == nil {
		return
	}
	m.sendsTotal.WithLabelValues(status).Inc()
}
