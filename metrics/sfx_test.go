package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/vi-audio/clip"
	"github.com/lixenwraith/vi-audio/clock"
	"github.com/lixenwraith/vi-audio/core"
	"github.com/lixenwraith/vi-audio/device"
	"github.com/lixenwraith/vi-audio/registry"
	"github.com/lixenwraith/vi-audio/sfx"
	"github.com/lixenwraith/vi-audio/vmath"
)

func TestSFXMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewSFXMetrics(reg)
	require.NoError(t, err)

	m.Outcome(core.CategoryWorld, sfx.OutcomePlayed)
	m.Outcome(core.CategoryWorld, sfx.OutcomePlayed)
	m.Outcome(core.CategoryOverlay, sfx.OutcomeDropped)
	m.Released(core.CategoryWorld)
	m.UnknownEffect(core.CategoryOverlay)
	m.InUse(core.CategoryWorld, 4)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.playsTotal.WithLabelValues("world", "played")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.playsTotal.WithLabelValues("overlay", "dropped")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.releasesTotal.WithLabelValues("world")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.unknownTotal.WithLabelValues("overlay")))
	assert.Equal(t, float64(4), testutil.ToFloat64(m.devicesInUse.WithLabelValues("world")))
}

func TestSFXMetricsDoubleRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewSFXMetrics(reg)
	require.NoError(t, err)

	_, err = NewSFXMetrics(reg)
	assert.Error(t, err)
}

// TestSFXMetricsFromDispatcher wires the recorder into a dispatcher
func TestSFXMetricsFromDispatcher(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewSFXMetrics(reg)
	require.NoError(t, err)

	effects, err := registry.NewEffects(&registry.Definition{
		Name:   "alarm",
		Main:   registry.Variant{Clip: clip.Silence("alarm", clip.DefaultFormat, 50*time.Millisecond)},
		Policy: core.PolicyKeepOld,
	})
	require.NoError(t, err)

	ff := &device.FakeFactory{}
	mock := clock.NewMockTimeProvider(time.Unix(0, 0))
	d, err := sfx.New(sfx.Options{
		Registry: effects,
		Factory:  ff.New,
		Config:   sfx.DefaultConfig(),
		Clock:    mock,
		Recorder: m,
	})
	require.NoError(t, err)
	defer d.Close()

	_, _ = d.PlayWorld("alarm", "e1", vmath.Vec3F{})
	_, _ = d.PlayWorld("alarm", "e1", vmath.Vec3F{})
	_, _ = d.PlayWorld("siren", "e1", vmath.Vec3F{})

	assert.Equal(t, float64(1), testutil.ToFloat64(m.playsTotal.WithLabelValues("world", "played")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.playsTotal.WithLabelValues("world", "suppressed")))
	_, _ = d.PlayWorld("klaxon", "e2", vmath.Vec3F{})
	assert.Equal(t, float64(2), testutil.ToFloat64(m.unknownTotal.WithLabelValues("world")))
	// Effect names never become label values
	assert.Equal(t, 1, testutil.CollectAndCount(m.unknownTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.devicesInUse.WithLabelValues("world")))

	ff.FinishAll()
	mock.Advance(time.Second)
	d.Tick()

	assert.Equal(t, float64(1), testutil.ToFloat64(m.releasesTotal.WithLabelValues("world")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.devicesInUse.WithLabelValues("world")))
}
