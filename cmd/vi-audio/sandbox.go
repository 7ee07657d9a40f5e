package main

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"github.com/lixenwraith/vi-audio/audio"
	"github.com/lixenwraith/vi-audio/core"
	"github.com/lixenwraith/vi-audio/mixer"
	"github.com/lixenwraith/vi-audio/sfx"
	"github.com/lixenwraith/vi-audio/vmath"
)

const (
	sandboxFrame   = 50 * time.Millisecond
	sandboxFade    = 500 * time.Millisecond
	sandboxOrigins = 3
	sandboxStep    = 0.5
	sandboxVoices  = 4
)

var (
	styleDefault = tcell.StyleDefault
	styleTitle   = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleKey     = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleDim     = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleBar     = tcell.StyleDefault.Foreground(tcell.ColorAqua)
)

// sandbox is an interactive terminal panel for triggering effects and watching the pools
type sandbox struct {
	screen  tcell.Screen
	svc     *audio.AudioService
	effects []string
	music   []string
	snaps   []string

	world    bool
	origin   int
	pos      vmath.Vec3F
	angle    float64
	emitters [sandboxOrigins]*audio.Emitter

	snapIdx  int
	musicIdx int
	last     string
}

func sandboxCommand(a *app) *cobra.Command {
	var (
		mute        bool
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "sandbox",
		Short: "Interactive terminal panel for triggering effects",
		RunE: func(cmd *cobra.Command, args []string) error {
			// The screen owns the terminal, logs only go to --log-file
			logger := a.logger
			if a.logFile == "" {
				logger = slog.New(slog.NewTextHandler(io.Discard, nil))
			}

			rt, err := startRuntime(a, logger, mute, metricsAddr)
			if err != nil {
				return err
			}
			defer rt.Stop()

			screen, err := tcell.NewScreen()
			if err != nil {
				return err
			}
			if err := screen.Init(); err != nil {
				return err
			}
			defer screen.Fini()

			// A panic must hand the terminal back before the stack trace prints
			core.SetCrashFinalizer(screen.Fini)
			defer core.SetCrashFinalizer(nil)
			defer func() {
				if r := recover(); r != nil {
					core.HandleCrash(r)
				}
			}()

			sb := newSandbox(screen, rt.audio)
			sb.run()
			return nil
		},
	}

	cmd.Flags().BoolVar(&mute, "mute", false, "Drain output silently instead of opening the speaker")
	cmd.Flags().StringVar(&metricsAddr, "metrics", "", "Serve Prometheus metrics on this address")
	return cmd
}

func newSandbox(screen tcell.Screen, svc *audio.AudioService) *sandbox {
	set := svc.Registry()
	sb := &sandbox{
		screen:  screen,
		svc:     svc,
		effects: set.Effects.Names(),
		music:   set.Music.Names(),
		snaps:   svc.Mixer().Snapshots(),
	}
	if len(sb.effects) > 9 {
		sb.effects = sb.effects[:9]
	}
	for i := range sb.emitters {
		sb.emitters[i] = svc.Emitter(fmt.Sprintf("origin-%d", i+1), sb.position)
	}
	return sb
}

func (sb *sandbox) position() vmath.Vec3F {
	return sb.pos
}

func (sb *sandbox) run() {
	ticker := time.NewTicker(sandboxFrame)
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 64)
	core.Go(func() {
		for {
			ev := sb.screen.PollEvent()
			if ev == nil {
				return
			}
			eventChan <- ev
		}
	})

	sb.draw()
	for {
		select {
		case ev := <-eventChan:
			if !sb.handleInput(ev) {
				return
			}
			sb.draw()
		case <-ticker.C:
			sb.draw()
		}
	}
}

func (sb *sandbox) handleInput(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false
		case tcell.KeyLeft:
			sb.move(vmath.Vec3F{X: -1})
		case tcell.KeyRight:
			sb.move(vmath.Vec3F{X: 1})
		case tcell.KeyUp:
			sb.move(vmath.Vec3F{Z: 1})
		case tcell.KeyDown:
			sb.move(vmath.Vec3F{Z: -1})
		case tcell.KeyTab:
			sb.origin = (sb.origin + 1) % sandboxOrigins
		case tcell.KeyRune:
			return sb.handleRune(ev.Rune())
		}
	case *tcell.EventResize:
		sb.screen.Sync()
	}
	return true
}

func (sb *sandbox) move(dir vmath.Vec3F) {
	sb.pos = vmath.V3FAdd(sb.pos, vmath.V3FScale(dir, sandboxStep))
}

func (sb *sandbox) handleRune(r rune) bool {
	switch {
	case r == 'q':
		return false
	case r >= '1' && r <= '9':
		idx := int(r - '1')
		if idx < len(sb.effects) {
			sb.trigger(sb.effects[idx])
		}
	case r == 'w':
		sb.world = !sb.world
	case r == 'r':
		// Step around the listener at the current distance
		sb.angle += math.Pi / 6
		sb.pos = vmath.V3FOrbit(vmath.Vec3F{}, max(vmath.V3FMag(sb.pos), 1), sb.angle)
	case r == 'm':
		sb.nextTrack()
	case r == 'x':
		sb.svc.Music().Stop(sandboxFade)
	case r == 'p':
		if sb.svc.Music().Paused() {
			sb.svc.Music().Resume()
		} else {
			sb.svc.Music().Pause()
		}
	case r == 's':
		sb.nextSnapshot()
	}
	return true
}

func (sb *sandbox) trigger(name string) {
	var (
		o   sfx.Outcome
		err error
	)
	e := sb.emitters[sb.origin]
	if sb.world {
		o, err = e.PlayWorld(name)
	} else {
		o, err = e.PlayOverlay(name)
	}
	if err != nil {
		sb.last = fmt.Sprintf("%s: %v", name, err)
		return
	}
	sb.last = fmt.Sprintf("%s: %s", name, o)
}

func (sb *sandbox) nextTrack() {
	if len(sb.music) == 0 {
		return
	}
	name := sb.music[sb.musicIdx%len(sb.music)]
	sb.musicIdx++
	if err := sb.svc.Music().PlayFade(name, sandboxFade); err != nil {
		sb.last = fmt.Sprintf("music %s: %v", name, err)
	}
}

func (sb *sandbox) nextSnapshot() {
	if len(sb.snaps) == 0 {
		return
	}
	name := sb.snaps[sb.snapIdx%len(sb.snaps)]
	sb.snapIdx++
	if err := sb.emitters[sb.origin].SwitchToSnapshot(name, sandboxFade); err != nil {
		sb.last = fmt.Sprintf("snapshot %s: %v", name, err)
	}
}

func (sb *sandbox) draw() {
	sb.screen.Clear()
	y := 0
	line := func(style tcell.Style, format string, args ...any) {
		sb.print(1, y, style, fmt.Sprintf(format, args...))
		y++
	}

	line(styleTitle, "vi-audio sandbox")
	line(styleDim, "1-9 play  w world/overlay  tab origin  arrows move  r orbit  m music  x stop  p pause  s snapshot  q quit")
	y++

	for i, name := range sb.effects {
		sb.print(1, y, styleKey, fmt.Sprintf("[%d]", i+1))
		sb.print(5, y, styleDefault, name)
		y++
	}
	y++

	mode := "overlay"
	if sb.world {
		mode = "world"
	}
	line(styleDefault, "mode %s  origin %s  pos (%.1f, %.1f, %.1f)  dist %.1f",
		mode, sb.emitters[sb.origin].Origin(), sb.pos.X, sb.pos.Y, sb.pos.Z, vmath.V3FMag(sb.pos))
	line(styleDefault, "last %s", sb.last)
	y++

	d := sb.svc.Dispatcher()
	for cat := core.Category(0); cat < core.CategoryCount; cat++ {
		st := d.Stats(cat)
		line(styleDefault, "%-8s in_use %2d/%-2d  free %2d  tracked %2d", cat, st.Pool.InUse, st.Pool.Max, st.Pool.Free, st.Tracked)
		sb.bar(y-1, 52, st.Pool.InUse, st.Pool.Max)
	}
	// Positions the world devices carry, as configured at trigger or retrigger
	for i, p := range d.Positions(core.CategoryWorld) {
		if i == sandboxVoices {
			line(styleDim, "  ...")
			break
		}
		line(styleDim, "  voice (%.1f, %.1f, %.1f)  dist %.1f", p.X, p.Y, p.Z, vmath.V3FMag(p))
	}
	y++

	m := sb.svc.Mixer()
	for g := mixer.Group(0); g < mixer.GroupCount; g++ {
		line(styleDefault, "%-8s %5.1f dB", g, m.Bus(g).Decibels())
	}
	snap := m.Current()
	if snap == "" {
		snap = "-"
	}
	line(styleDefault, "snapshot %s", snap)

	music := sb.svc.Music()
	current := music.Current()
	if current == "" {
		current = "-"
	}
	line(styleDefault, "music %s  %s  paused %t", current, music.Position().Truncate(100*time.Millisecond), music.Paused())
	line(styleDim, "silent %t", sb.svc.IsSilent())

	sb.screen.Show()
}

func (sb *sandbox) bar(y, x, value, limit int) {
	if limit <= 0 {
		return
	}
	for i := 0; i < limit; i++ {
		ch := '·'
		if i < value {
			ch = '█'
		}
		sb.screen.SetContent(x+i, y, ch, nil, styleBar)
	}
}

func (sb *sandbox) print(x, y int, style tcell.Style, s string) {
	for _, r := range s {
		sb.screen.SetContent(x, y, r, nil, style)
		x++
	}
}
