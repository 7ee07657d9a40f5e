package mixer

import (
	"bytes"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/gopxl/beep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/lixenwraith/vi-audio/clock"
)

// constantStreamer emits a fixed value on both channels
type constantStreamer struct {
	v float64
}

func (c constantStreamer) Stream(samples [][2]float64) (int, bool) {
	for i := range samples {
		samples[i] = [2]float64{c.v, c.v}
	}
	return len(samples), true
}

func (constantStreamer) Err() error { return nil }

func pull(s beep.Streamer, n int) [][2]float64 {
	buf := make([][2]float64, n)
	s.Stream(buf)
	return buf
}

func TestDecibelConversion(t *testing.T) {
	tests := []struct {
		name   string
		linear float64
		db     float64
	}{
		{"unity", 1, 0},
		{"half", 0.5, 20 * math.Log10(0.5)},
		{"tenth", 0.1, -20},
		{"floor", 0.0001, -80},
		{"silent", 0, -80},
		{"negative", -1, -80},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.db, LinearToDecibels(tt.linear), 1e-9)
		})
	}

	for _, v := range []float64{1, 0.75, 0.5, 0.1, 0.01} {
		assert.InDelta(t, v, DecibelsToLinear(LinearToDecibels(v)), 1e-9)
	}
	assert.Equal(t, 0.0, DecibelsToLinear(-80))
	assert.Equal(t, 0.0, DecibelsToLinear(-120))
	assert.InDelta(t, 0.0001, DecibelsToLinear(-79.999999), 1e-6)
}

func TestBusGain(t *testing.T) {
	b := NewBus("test")
	b.Play(constantStreamer{v: 0.5})

	assert.InDelta(t, 0.5, pull(b, 10)[0][0], 1e-9)

	b.SetDecibels(LinearToDecibels(0.5))
	assert.InDelta(t, 0.25, pull(b, 10)[0][1], 1e-9)

	b.SetDecibels(-200)
	assert.Equal(t, -80.0, b.Decibels())
	assert.Equal(t, 0.0, pull(b, 10)[5][0])
}

func TestBusNeverDrains(t *testing.T) {
	b := NewBus("test")
	buf := make([][2]float64, 64)
	for i := range buf {
		buf[i] = [2]float64{1, 1}
	}

	n, ok := b.Stream(buf)
	assert.Equal(t, 64, n)
	assert.True(t, ok)
	assert.Equal(t, [2]float64{}, buf[10])
	assert.NoError(t, b.Err())

	b.Play(beep.Take(8, constantStreamer{v: 1}))
	assert.Equal(t, 1, b.Len())
	b.Clear()
	assert.Equal(t, 0, b.Len())
}

func TestControllerGroupsFeedMaster(t *testing.T) {
	c := NewController(clock.NewMockTimeProvider(time.Unix(0, 0)), nil)
	c.Bus(GroupSFX).Play(constantStreamer{v: 0.2})
	c.Bus(GroupBGM).Play(constantStreamer{v: 0.3})

	assert.InDelta(t, 0.5, pull(c.Master(), 8)[0][0], 1e-9)

	c.SetVolume(GroupBGM, 0)
	assert.InDelta(t, 0.2, pull(c.Master(), 8)[0][0], 1e-9)

	c.SetVolume(GroupMaster, 0.5)
	assert.InDelta(t, 0.1, pull(c.Master(), 8)[0][0], 1e-9)

	assert.Nil(t, c.Bus(GroupCount))
}

func TestControllerVolume(t *testing.T) {
	c := NewController(nil, nil)

	assert.InDelta(t, 1.0, c.Volume(GroupSFX), 1e-9)

	c.SetVolume(GroupSFX, 0.25)
	assert.InDelta(t, 0.25, c.Volume(GroupSFX), 1e-9)
	assert.InDelta(t, 20*math.Log10(0.25), c.Bus(GroupSFX).Decibels(), 1e-9)

	c.SetVolume(GroupSFX, 0)
	assert.Equal(t, 0.0, c.Volume(GroupSFX))

	c.SetVolume(GroupSFX, 3)
	assert.InDelta(t, 1.0, c.Volume(GroupSFX), 1e-9)

	assert.Equal(t, 0.0, c.Volume(Group(-1)))
}

func TestSnapshotImmediate(t *testing.T) {
	c := NewController(nil, nil)
	require.NoError(t, c.AddSnapshot(Snapshot{
		Name:   "paused",
		Levels: map[Group]float64{GroupSFX: -80, GroupBGM: -12},
	}))

	require.NoError(t, c.TransitionTo("paused", 0))
	assert.Equal(t, "paused", c.Current())
	assert.Equal(t, -80.0, c.Bus(GroupSFX).Decibels())
	assert.Equal(t, -12.0, c.Bus(GroupBGM).Decibels())
	assert.Equal(t, 0.0, c.Bus(GroupAmbient).Decibels(), "unlisted group keeps its level")
	assert.False(t, c.Fading())
}

func TestSnapshotFade(t *testing.T) {
	mock := clock.NewMockTimeProvider(time.Unix(0, 0))
	c := NewController(mock, nil)
	require.NoError(t, c.AddSnapshot(Snapshot{Name: "combat", Levels: map[Group]float64{GroupBGM: -20}}))

	require.NoError(t, c.TransitionTo("combat", time.Second))
	assert.True(t, c.Fading())
	assert.Equal(t, 0.0, c.Bus(GroupBGM).Decibels())

	mock.Advance(250 * time.Millisecond)
	c.Tick()
	assert.InDelta(t, -5, c.Bus(GroupBGM).Decibels(), 1e-9)

	mock.Advance(500 * time.Millisecond)
	c.Tick()
	assert.InDelta(t, -15, c.Bus(GroupBGM).Decibels(), 1e-9)

	mock.Advance(time.Second)
	c.Tick()
	assert.Equal(t, -20.0, c.Bus(GroupBGM).Decibels())
	assert.False(t, c.Fading())

	// SetVolume cancels a fade
	require.NoError(t, c.AddSnapshot(Snapshot{Name: "calm", Levels: map[Group]float64{GroupBGM: 0}}))
	require.NoError(t, c.TransitionTo("calm", time.Second))
	c.SetVolume(GroupBGM, 0.5)
	mock.Advance(2 * time.Second)
	c.Tick()
	assert.InDelta(t, 0.5, c.Volume(GroupBGM), 1e-9)
}

func TestSnapshotErrors(t *testing.T) {
	c := NewController(nil, nil)

	assert.ErrorIs(t, c.TransitionTo("missing", 0), ErrUnknownSnapshot)
	assert.ErrorIs(t, c.AddSnapshot(Snapshot{}), ErrInvalidSnapshot)
	assert.ErrorIs(t, c.AddSnapshot(Snapshot{Name: "x", Levels: map[Group]float64{Group(7): 0}}), ErrInvalidSnapshot)

	require.NoError(t, c.AddSnapshot(Snapshot{Name: "b"}))
	require.NoError(t, c.AddSnapshot(Snapshot{Name: "a"}))
	assert.Equal(t, []string{"a", "b"}, c.Snapshots())
}

func TestParseGroup(t *testing.T) {
	for g := Group(0); g < GroupCount; g++ {
		parsed, err := ParseGroup(g.String())
		require.NoError(t, err)
		assert.Equal(t, g, parsed)
	}
	_, err := ParseGroup("voice")
	assert.ErrorIs(t, err, ErrUnknownGroup)
	assert.Equal(t, "group(9)", Group(9).String())
}

// lockedBuffer is a goroutine-safe sink
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Len()
}

func TestDrainPullsInRealTime(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus := NewBus("master")
	done := make(chan struct{})
	bus.Play(beep.Seq(beep.Take(441, constantStreamer{v: 0.5}), beep.Callback(func() { close(done) })))

	sink := &lockedBuffer{}
	d := NewDrain(bus, 44100, 5*time.Millisecond, sink)
	d.Start()
	d.Start()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("drain did not consume the streamer")
	}

	d.Stop()
	d.Stop()
	assert.GreaterOrEqual(t, d.Pulled(), uint64(441))
	assert.Equal(t, int(d.Pulled())*4, sink.Len())
}

func TestSamplesToBytesLimits(t *testing.T) {
	out := make([]byte, 12)
	samplesToBytes([][2]float64{{0, 0.5}, {2, -2}, {-0.25, 0.8}}, out)

	i16 := func(i int) int16 { return int16(uint16(out[i]) | uint16(out[i+1])<<8) }
	assert.Equal(t, int16(0), i16(0))
	assert.Equal(t, int16(16383), i16(2))
	assert.Less(t, i16(4), int16(32767))
	assert.Greater(t, i16(4), int16(26000))
	assert.Less(t, i16(6), int16(-26000))
	assert.Equal(t, int16(-8191), i16(8))
	assert.Equal(t, int16(26213), i16(10))
}
