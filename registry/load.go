package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/lixenwraith/vi-audio/clip"
	"github.com/lixenwraith/vi-audio/core"
)

// Set bundles the registries read from one content file
type Set struct {
	Effects *Effects
	Music   *Tracks
	Ambient *Tracks
}

// NewSet creates empty registries
func NewSet() *Set {
	effects, _ := NewEffects()
	return &Set{
		Effects: effects,
		Music:   NewTracks("music"),
		Ambient: NewTracks("ambient"),
	}
}

// fileDoc mirrors the YAML layout of a registry file
//
//	effects:
//	  - name: hit
//	    policy: replace_with_new
//	    main: {file: sfx/hit_a.wav, volume_adjust: -0.2, pitch_jitter: [-0.05, 0.05]}
//	    alternates:
//	      - {tone: {freq: 660, duration: 80ms}}
//	music:
//	  - {name: title, file: music/title.wav, volume_adjust: -0.3}
//	ambient:
//	  - {name: rain, file: ambient/rain.wav}
type fileDoc struct {
	Effects []effectDoc `yaml:"effects"`
	Music   []trackDoc  `yaml:"music"`
	Ambient []trackDoc  `yaml:"ambient"`
}

type sourceDoc struct {
	File string   `yaml:"file"`
	Tone *toneDoc `yaml:"tone"`
}

type toneDoc struct {
	Freq     float64       `yaml:"freq"`
	Duration time.Duration `yaml:"duration"`
}

type variantDoc struct {
	sourceDoc    `yaml:",inline"`
	VolumeAdjust float64   `yaml:"volume_adjust"`
	PitchJitter  []float64 `yaml:"pitch_jitter"`
}

type effectDoc struct {
	Name       string       `yaml:"name"`
	Policy     string       `yaml:"policy"`
	Main       variantDoc   `yaml:"main"`
	Alternates []variantDoc `yaml:"alternates"`
}

type trackDoc struct {
	Name         string `yaml:"name"`
	sourceDoc    `yaml:",inline"`
	VolumeAdjust float64 `yaml:"volume_adjust"`
}

// Load reads a registry file, decoding every referenced clip into format
// Relative clip paths resolve against the file's directory
func Load(path string, format beep.Format) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry: %w", err)
	}
	return Parse(data, filepath.Dir(path), format)
}

// Parse builds registries from YAML content
func Parse(data []byte, baseDir string, format beep.Format) (*Set, error) {
	var doc fileDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse registry: %w", err)
	}

	clips, err := loadClips(&doc, baseDir, format)
	if err != nil {
		return nil, err
	}

	set := NewSet()
	for _, es := range doc.Effects {
		def, err := es.build(clips)
		if err != nil {
			return nil, err
		}
		if err := set.Effects.Register(def); err != nil {
			return nil, err
		}
	}
	for _, ts := range doc.Music {
		if err := set.Music.Register(ts.build(clips)); err != nil {
			return nil, err
		}
	}
	for _, ts := range doc.Ambient {
		if err := set.Ambient.Register(ts.build(clips)); err != nil {
			return nil, err
		}
	}
	return set, nil
}

// key identifies a clip source so shared files decode once
func (s sourceDoc) key() string {
	if s.Tone != nil {
		return fmt.Sprintf("tone:%g:%s", s.Tone.Freq, s.Tone.Duration)
	}
	if s.File != "" {
		return "file:" + s.File
	}
	return ""
}

func (s sourceDoc) load(name, baseDir string, format beep.Format) (*clip.Clip, error) {
	if s.Tone != nil {
		return clip.Tone(name, format, s.Tone.Freq, s.Tone.Duration)
	}
	path := s.File
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}
	return clip.LoadWAV(name, path, format)
}

// loadClips decodes all distinct sources in parallel
func loadClips(doc *fileDoc, baseDir string, format beep.Format) (map[string]*clip.Clip, error) {
	sources := make(map[string]sourceDoc)
	collect := func(owner string, s sourceDoc) error {
		k := s.key()
		if k == "" {
			return fmt.Errorf("%w: %q has neither file nor tone", ErrInvalidDefinition, owner)
		}
		sources[k] = s
		return nil
	}

	for _, es := range doc.Effects {
		if err := collect(es.Name, es.Main.sourceDoc); err != nil {
			return nil, err
		}
		for _, alt := range es.Alternates {
			if err := collect(es.Name, alt.sourceDoc); err != nil {
				return nil, err
			}
		}
	}
	for _, ts := range append(append([]trackDoc{}, doc.Music...), doc.Ambient...) {
		if err := collect(ts.Name, ts.sourceDoc); err != nil {
			return nil, err
		}
	}

	var (
		mu    sync.Mutex
		clips = make(map[string]*clip.Clip, len(sources))
		g     errgroup.Group
	)
	g.SetLimit(runtime.NumCPU())

	for k, s := range sources {
		g.Go(func() error {
			c, err := s.load(k, baseDir, format)
			if err != nil {
				return err
			}
			mu.Lock()
			clips[k] = c
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return clips, nil
}

func (vs variantDoc) build(owner string, clips map[string]*clip.Clip) (Variant, error) {
	v := Variant{
		Clip:         clips[vs.key()],
		VolumeAdjust: clampUnit(vs.VolumeAdjust),
	}
	switch len(vs.PitchJitter) {
	case 0:
	case 2:
		v.Pitch = PitchRange{Min: vs.PitchJitter[0], Max: vs.PitchJitter[1]}
	default:
		return Variant{}, fmt.Errorf("%w: effect %q pitch_jitter needs [min, max]", ErrInvalidDefinition, owner)
	}
	return v, nil
}

func (es effectDoc) build(clips map[string]*clip.Clip) (*Definition, error) {
	policy, err := core.ParsePolicy(es.Policy)
	if err != nil {
		return nil, fmt.Errorf("%w: effect %q: %v", ErrInvalidDefinition, es.Name, err)
	}

	main, err := es.Main.build(es.Name, clips)
	if err != nil {
		return nil, err
	}

	def := &Definition{
		Name:   es.Name,
		Main:   main,
		Policy: policy,
	}
	for _, as := range es.Alternates {
		alt, err := as.build(es.Name, clips)
		if err != nil {
			return nil, err
		}
		def.Alternates = append(def.Alternates, alt)
	}
	return def, nil
}

func (ts trackDoc) build(clips map[string]*clip.Clip) *TrackInfo {
	return &TrackInfo{
		Name:         ts.Name,
		Clip:         clips[ts.key()],
		VolumeAdjust: clampUnit(ts.VolumeAdjust),
	}
}

// clampUnit limits volume adjustments to [-1,1] at authoring time
func clampUnit(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}
