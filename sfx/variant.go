package sfx

import (
	"math/rand/v2"

	"github.com/lixenwraith/vi-audio/registry"
)

// selectVariant draws uniformly among the alternates and main
// IntN excludes its bound, so n+1 outcomes each have probability 1/(n+1) and index n is main
func selectVariant(r *rand.Rand, def *registry.Definition) registry.Variant {
	n := len(def.Alternates)
	if n == 0 {
		return def.Main
	}
	if i := r.IntN(n + 1); i < n {
		return def.Alternates[i]
	}
	return def.Main
}

// jitterPitch returns 1 plus a uniform draw from the variant's range
func jitterPitch(r *rand.Rand, p registry.PitchRange) float64 {
	if p.Max <= p.Min {
		return 1 + p.Min
	}
	return 1 + p.Min + r.Float64()*(p.Max-p.Min)
}
