package sfx

import "github.com/lixenwraith/vi-audio/core"

// Recorder observes dispatcher activity, implemented by the metrics package
// Calls happen under the dispatcher lock and must not call back into it
type Recorder interface {
	Outcome(cat core.Category, o Outcome)
	Released(cat core.Category)
	// UnknownEffect counts a lookup miss, the name itself is only logged
	UnknownEffect(cat core.Category)
	InUse(cat core.Category, n int)
}

type nopRecorder struct{}

func (nopRecorder) Outcome(core.Category, Outcome) {}
func (nopRecorder) Released(core.Category) {}
func (nopRecorder) UnknownEffect(core.Category) {}
func (nopRecorder) InUse(core.Category, int) {}
