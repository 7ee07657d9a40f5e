package audio

import (
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

// Speaker is the hardware output the master bus is played on
type Speaker interface {
	Init(sr beep.SampleRate, bufferSize int) error
	Play(s beep.Streamer)
	Close()
}

// beepSpeaker drives the process-wide beep speaker
type beepSpeaker struct{}

func (beepSpeaker) Init(sr beep.SampleRate, bufferSize int) error {
	return speaker.Init(sr, bufferSize)
}

func (beepSpeaker) Play(s beep.Streamer) {
	speaker.Play(s)
}

func (beepSpeaker) Close() {
	speaker.Clear()
	speaker.Close()
}
