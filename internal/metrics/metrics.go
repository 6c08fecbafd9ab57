// SPDX-License-Identifier: AGPL-3.0
// Copyright 2025 Kadir Pekel
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0) (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.gnu.org/licenses/agpl-3.0.en.html
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics exposes the core's Prometheus instrumentation (spec
// SPEC_FULL.md domain stack: github.com/prometheus/client_golang),
// grounded on the teacher's pkg/observability/metrics.go: one
// *prometheus.Registry, CounterVec/HistogramVec/GaugeVec per concern,
// served over METRICS_ADDR via promhttp.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector the core registers. Nil-safe: a nil
// *Metrics (metrics disabled) makes every method a no-op.
type Metrics struct {
	registry *prometheus.Registry

	agentCalls    *prometheus.CounterVec
	agentDuration *prometheus.HistogramVec
	agentErrors   *prometheus.CounterVec

	tokensIn  *prometheus.CounterVec
	tokensOut *prometheus.CounterVec
	cost      *prometheus.CounterVec

	budgetRefusals *prometheus.CounterVec
	rateLimitHits  *prometheus.CounterVec

	teamRuns     *prometheus.CounterVec
	teamDuration *prometheus.HistogramVec

	skillLoads *prometheus.CounterVec

	waitHandlesOpen prometheus.Gauge
}

// New builds and registers every collector under namespace "agentcore".
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.agentCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agentcore", Subsystem: "agent", Name: "calls_total",
		Help: "Total agent executions.",
	}, []string{"agent_id", "model"})

	m.agentDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "agentcore", Subsystem: "agent", Name: "call_duration_seconds",
		Help:    "Agent execution duration.",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 14),
	}, []string{"agent_id", "model"})

	m.agentErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agentcore", Subsystem: "agent", Name: "errors_total",
		Help: "Total agent execution failures.",
	}, []string{"agent_id", "error_type"})

	m.tokensIn = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agentcore", Subsystem: "sampler", Name: "prompt_tokens_total",
		Help: "Total prompt tokens consumed.",
	}, []string{"model"})

	m.tokensOut = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agentcore", Subsystem: "sampler", Name: "completion_tokens_total",
		Help: "Total completion tokens generated.",
	}, []string{"model"})

	m.cost = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agentcore", Subsystem: "sampler", Name: "cost_total",
		Help: "Total computed cost.",
	}, []string{"model"})

	m.budgetRefusals = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agentcore", Subsystem: "budget", Name: "refusals_total",
		Help: "Total calls refused by the budget gate.",
	}, []string{"agent_id", "dimension"})

	m.rateLimitHits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agentcore", Subsystem: "budget", Name: "rate_limit_hits_total",
		Help: "Total calls refused by the rate limiter.",
	}, []string{"agent_id"})

	m.teamRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agentcore", Subsystem: "team", Name: "runs_total",
		Help: "Total team orchestrations.",
	}, []string{"mode"})

	m.teamDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "agentcore", Subsystem: "team", Name: "run_duration_seconds",
		Help:    "Team orchestration duration.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 14),
	}, []string{"mode"})

	m.skillLoads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agentcore", Subsystem: "skills", Name: "loads_total",
		Help: "Total skill load operations.",
	}, []string{"skill_id"})

	m.waitHandlesOpen = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "agentcore", Subsystem: "waithandle", Name: "open",
		Help: "Currently pending wait handles.",
	})

	m.registry.MustRegister(
		m.agentCalls, m.agentDuration, m.agentErrors,
		m.tokensIn, m.tokensOut, m.cost,
		m.budgetRefusals, m.rateLimitHits,
		m.teamRuns, m.teamDuration,
		m.skillLoads, m.waitHandlesOpen,
	)
	return m
}

func (m *Metrics) ObserveAgentCall(agentID, modelName string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.agentCalls.WithLabelValues(agentID, modelName).Inc()
	m.agentDuration.WithLabelValues(agentID, modelName).Observe(d.Seconds())
	if err != nil {
		m.agentErrors.WithLabelValues(agentID, "execution").Inc()
	}
}

func (m *Metrics) ObserveUsage(modelName string, promptTokens, completionTokens int, cost float64) {
	if m == nil {
		return
	}
	m.tokensIn.WithLabelValues(modelName).Add(float64(promptTokens))
	m.tokensOut.WithLabelValues(modelName).Add(float64(completionTokens))
	m.cost.WithLabelValues(modelName).Add(cost)
}

func (m *Metrics) ObserveBudgetRefusal(agentID, dimension string) {
	if m == nil {
		return
	}
	m.budgetRefusals.WithLabelValues(agentID, dimension).Inc()
}

func (m *Metrics) ObserveRateLimitHit(agentID string) {
	if m == nil {
		return
	}
	m.rateLimitHits.WithLabelValues(agentID).Inc()
}

func (m *Metrics) ObserveTeamRun(mode string, d time.Duration) {
	if m == nil {
		return
	}
	m.teamRuns.WithLabelValues(mode).Inc()
	m.teamDuration.WithLabelValues(mode).Observe(d.Seconds())
}

func (m *Metrics) ObserveSkillLoad(skillID string) {
	if m == nil {
		return
	}
	m.skillLoads.WithLabelValues(skillID).Inc()
}

func (m *Metrics) SetWaitHandlesOpen(n int) {
	if m == nil {
		return
	}
	m.waitHandlesOpen.Set(float64(n))
}

// Serve starts an HTTP server exposing /metrics on addr, shutting down
// when ctx is canceled.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	if m == nil || addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
