/*
 * Copyright 2025 the asuswatch authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package metrics exposes prometheus instrumentation for the polling
// cycle. All methods are nil-safe so instrumentation stays optional.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	ticksTotal    prometheus.Counter
	tickFailures  prometheus.Counter
	ticksSkipped  prometheus.Counter
	fetchFailures *prometheus.CounterVec
	available     prometheus.Gauge
	degraded      prometheus.Gauge
	events        *prometheus.CounterVec

	registry *prometheus.Registry
}

func New() *Metrics {
	m := &Metrics{
		ticksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "asuswatch_ticks_total",
			Help: "Completed polling cycles.",
		}),
		tickFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "asuswatch_tick_failures_total",
			Help: "Polling cycles aborted by a global inventory failure.",
		}),
		ticksSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "asuswatch_ticks_skipped_total",
			Help: "Ticks skipped because the previous cycle was still running.",
		}),
		fetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "asuswatch_fetch_failures_total",
			Help: "Per-metric upstream fetch failures.",
		}, []string{"metric"}),
		available: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "asuswatch_devices_available",
			Help: "Devices currently available.",
		}),
		degraded: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "asuswatch_devices_degraded",
			Help: "Devices available but with failed metric fetches this cycle.",
		}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "asuswatch_events_total",
			Help: "Notification events dispatched, by kind.",
		}, []string{"kind"}),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(m.ticksTotal, m.tickFailures, m.ticksSkipped, m.fetchFailures, m.available, m.degraded, m.events)

	return m
}

func (m *Metrics) TickCompleted() {
	if m == nil {
		return
	}

	m.ticksTotal.Inc()
}

func (m *Metrics) TickFailed() {
	if m == nil {
		return
	}

	m.tickFailures.Inc()
}

func (m *Metrics) TickSkipped() {
	if m == nil {
		return
	}

	m.ticksSkipped.Inc()
}

func (m *Metrics) FetchFailed(metric string) {
	if m == nil {
		return
	}

	m.fetchFailures.WithLabelValues(metric).Inc()
}

func (m *Metrics) SetAvailable(n int) {
	if m == nil {
		return
	}

	m.available.Set(float64(n))
}

func (m *Metrics) SetDegraded(n int) {
	if m == nil {
		return
	}

	m.degraded.Set(float64(n))
}

func (m *Metrics) EventDispatched(kind string) {
	if m == nil {
		return
	}

	m.events.WithLabelValues(kind).Inc()
}

// Handler returns the scrape endpoint for this metric set.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
