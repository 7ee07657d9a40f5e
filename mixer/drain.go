package mixer

import (
	"encoding/binary"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep"
)

// Drain pulls a streamer at real-time rate when no speaker consumes it
// Devices only report completion once their samples are pulled, so silent mode needs a consumer
// Pulled samples are written to an optional sink as interleaved int16 LE stereo
type Drain struct {
	src        beep.Streamer
	sampleRate beep.SampleRate
	interval   time.Duration
	sink       io.Writer

	stopChan chan struct{}
	stopped  atomic.Bool
	started  atomic.Bool
	wg       sync.WaitGroup

	pulled atomic.Uint64
}

// NewDrain creates a drain for src, sink may be nil
func NewDrain(src beep.Streamer, sr beep.SampleRate, interval time.Duration, sink io.Writer) *Drain {
	return &Drain{
		src:        src,
		sampleRate: sr,
		interval:   interval,
		sink:       sink,
		stopChan:   make(chan struct{}),
	}
}

// Start begins the pull loop, later calls are no-ops
func (d *Drain) Start() {
	if d.stopped.Load() || !d.started.CompareAndSwap(false, true) {
		return
	}
	d.wg.Add(1)
	go d.loop()
}

// Stop halts the pull loop and waits for it
func (d *Drain) Stop() {
	if d.stopped.CompareAndSwap(false, true) {
		close(d.stopChan)
	}
	d.wg.Wait()
}

// Pulled returns the number of samples consumed so far
func (d *Drain) Pulled() uint64 {
	return d.pulled.Load()
}

func (d *Drain) loop() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	buf := make([][2]float64, d.sampleRate.N(d.interval))
	var out []byte
	if d.sink != nil {
		out = make([]byte, len(buf)*4)
	}
	last := time.Now()

	for {
		select {
		case <-d.stopChan:
			return
		case now := <-ticker.C:
			// Catch up on late ticks, capped to avoid a burst after a stall
			n := d.sampleRate.N(now.Sub(last))
			last = now
			n = min(n, 4*len(buf))

			for n > 0 {
				chunk := buf[:min(n, len(buf))]
				got, _ := d.src.Stream(chunk)
				if got == 0 {
					break
				}
				d.pulled.Add(uint64(got))
				n -= got

				if d.sink != nil {
					samplesToBytes(chunk[:got], out)
					if _, err := d.sink.Write(out[:got*4]); err != nil {
						d.sink = nil
					}
				}
			}
		}
	}
}

// samplesToBytes converts stereo float samples to interleaved int16 LE with soft limiting
func samplesToBytes(in [][2]float64, out []byte) {
	for i, s := range in {
		for ch := 0; ch < 2; ch++ {
			v := s[ch]
			if v > 0.8 {
				v = 0.8 + 0.2*(1.0-1.0/(1.0+(v-0.8)*5.0))
			} else if v < -0.8 {
				v = -0.8 - 0.2*(1.0-1.0/(1.0+(-v-0.8)*5.0))
			}
			v = max(-1, min(1, v))
			binary.LittleEndian.PutUint16(out[i*4+ch*2:], uint16(int16(v*32767)))
		}
	}
}
