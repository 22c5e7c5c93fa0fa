// Package metrics holds relay's Prometheus counters. A nil *Metrics is valid
// and records nothing, so collaborators can take one unconditionally.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for relay_bot_messages_total.
const (
	OutcomeIgnored   = "ignored"
	OutcomeDuplicate = "duplicate"
	OutcomeAnswered  = "answered"
	OutcomeFailed    = "failed"
)

type Metrics struct {
	registry *prometheus.Registry

	RenderTotal   prometheus.Counter
	RenderLines   prometheus.Counter
	LLMRequests   *prometheus.CounterVec
	BotMessages   *prometheus.CounterVec
	TurnsRecorded prometheus.Counter
}

// New creates the counters on a private registry that also carries the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RenderTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "relay_render_total",
			Help: "Total number of provider responses rendered",
		}),
		RenderLines: factory.NewCounter(prometheus.CounterOpts{
			Name: "relay_render_lines_total",
			Help: "Total number of display lines produced",
		}),
		LLMRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_llm_requests_total",
			Help: "Total number of watsonx deployment requests by status",
		}, []string{"status"}),
		BotMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_bot_messages_total",
			Help: "Total number of chat messages handled by outcome",
		}, []string{"outcome"}),
		TurnsRecorded: factory.NewCounter(prometheus.CounterOpts{
			Name: "relay_turns_recorded_total",
			Help: "Total number of transcripts stored",
		}),
	}
}

func (m *Metrics) ObserveRender(lines int) {
	if m == nil {
		return
	}
	m.RenderTotal.Inc()
	m.RenderLines.Add(float64(lines))
}

// ObserveLLM counts a deployment request. status is the HTTP status code or
// "error" for transport failures.
func (m *Metrics) ObserveLLM(status string) {
	if m == nil {
		return
	}
	m.LLMRequests.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveBot(outcome string) {
	if m == nil {
		return
	}
	m.BotMessages.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveTurn() {
	if m == nil {
		return
	}
	m.TurnsRecorded.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
