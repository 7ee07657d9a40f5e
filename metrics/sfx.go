// Package metrics provides Prometheus collectors for the audio runtime
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lixenwraith/vi-audio/core"
	"github.com/lixenwraith/vi-audio/sfx"
)

// SFXMetrics records dispatcher activity, it implements sfx.Recorder
type SFXMetrics struct {
	registry *prometheus.Registry

	playsTotal    *prometheus.CounterVec
	releasesTotal *prometheus.CounterVec
	unknownTotal  *prometheus.CounterVec
	devicesInUse  *prometheus.GaugeVec
}

var _ sfx.Recorder = (*SFXMetrics)(nil)

// NewSFXMetrics creates and registers sfx metrics
func NewSFXMetrics(registry *prometheus.Registry) (*SFXMetrics, error) {
	m := &SFXMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *SFXMetrics) initMetrics() {
	m.playsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sfx_plays_total",
			Help: "Total number of effect play requests by outcome",
		},
		[]string{"category", "outcome"}, // outcome: played, retriggered, suppressed, dropped
	)

	m.releasesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sfx_device_releases_total",
			Help: "Total number of devices returned to their pool by the completion watch",
		},
		[]string{"category"},
	)

	m.unknownTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sfx_unknown_effects_total",
			Help: "Total number of play requests naming an unregistered effect",
		},
		[]string{"category"},
	)

	m.devicesInUse = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sfx_devices_in_use",
			Help: "Number of pooled devices currently acquired",
		},
		[]string{"category"},
	)
}

// Describe implements the Collector interface
func (m *SFXMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.playsTotal.Describe(ch)
	m.releasesTotal.Describe(ch)
	m.unknownTotal.Describe(ch)
	m.devicesInUse.Describe(ch)
}

// Collect implements the Collector interface
func (m *SFXMetrics) Collect(ch chan<- prometheus.Metric) {
	m.playsTotal.Collect(ch)
	m.releasesTotal.Collect(ch)
	m.unknownTotal.Collect(ch)
	m.devicesInUse.Collect(ch)
}

// Outcome records a play request result
func (m *SFXMetrics) Outcome(cat core.Category, o sfx.Outcome) {
	m.playsTotal.WithLabelValues(cat.String(), o.String()).Inc()
}

// Released records a device reclaimed by its completion watch
func (m *SFXMetrics) Released(cat core.Category) {
	m.releasesTotal.WithLabelValues(cat.String()).Inc()
}

// UnknownEffect records a lookup miss
func (m *SFXMetrics) UnknownEffect(cat core.Category) {
	m.unknownTotal.WithLabelValues(cat.String()).Inc()
}

// InUse sets the acquired device gauge
func (m *SFXMetrics) InUse(cat core.Category, n int) {
	m.devicesInUse.WithLabelValues(cat.String()).Set(float64(n))
}
