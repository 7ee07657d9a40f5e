package audio

import (
	"github.com/gopxl/beep"

	"github.com/lixenwraith/vi-audio/registry"
)

// builtinRegistry is a generated-tone content set used when no registry file is configured
const builtinRegistry = `
effects:
  - name: click
    main: {tone: {freq: 1200, duration: 30ms}, volume_adjust: -0.4}
  - name: coin
    policy: keep_old
    main: {tone: {freq: 988, duration: 120ms}}
  - name: hit
    policy: replace_with_new
    main: {tone: {freq: 220, duration: 90ms}, pitch_jitter: [-0.05, 0.05]}
    alternates:
      - {tone: {freq: 247, duration: 90ms}, pitch_jitter: [-0.05, 0.05]}
      - {tone: {freq: 262, duration: 90ms}, volume_adjust: -0.1}
  - name: step
    main: {tone: {freq: 140, duration: 60ms}, volume_adjust: -0.3, pitch_jitter: [-0.1, 0.1]}
  - name: alarm
    policy: keep_old
    main: {tone: {freq: 660, duration: 400ms}, volume_adjust: -0.2}
  - name: explosion
    policy: replace_with_new
    main: {tone: {freq: 80, duration: 300ms}}
music:
  - {name: theme, tone: {freq: 330, duration: 2s}, volume_adjust: -0.6}
  - {name: battle, tone: {freq: 392, duration: 2s}, volume_adjust: -0.6}
ambient:
  - {name: hum, tone: {freq: 60, duration: 1s}, volume_adjust: -0.7}
`

// BuiltinSet decodes the built-in tone registry in format
func BuiltinSet(format beep.Format) (*registry.Set, error) {
	return registry.Parse([]byte(builtinRegistry), ".", format)
}
