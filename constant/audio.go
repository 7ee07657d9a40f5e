package constant

import "time"

// Audio Hardware Settings
const (
	AudioSampleRate = 44100
	AudioChannels   = 2
	AudioBufferSize = 100 * time.Millisecond

	// AudioPrecision is bytes per sample, 16-bit
	AudioPrecision = 2

	// ResampleQuality is the beep resampler quality used for pitch jitter
	ResampleQuality = 4
)

// Engine Timing
const (
	// TickInterval drives completion watches, snapshot fades and music sequencing
	TickInterval = 20 * time.Millisecond

	// WatchPollInterval is how often a sounding device is re-checked for completion
	WatchPollInterval = 50 * time.Millisecond

	// DrainInterval is the buffer period pulled from the master bus in silent mode
	DrainInterval = 50 * time.Millisecond
)

// Pool Defaults
const (
	DefaultMaxOverlay      = 10
	DefaultMaxWorld        = 30
	DefaultOverlayCapacity = 10
	DefaultWorldCapacity   = 10
)

// Mixer Levels
const (
	// MinDecibels is the silence floor for bus gain
	MinDecibels = -80.0
)

// Music Sequencing
const (
	// MusicEndLead is how far before the clip end a track counts as finished
	MusicEndLead = 200 * time.Millisecond
)
