package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lixenwraith/vi-audio/core"
	"github.com/lixenwraith/vi-audio/sfx"
	"github.com/lixenwraith/vi-audio/vmath"
)

type playOptions struct {
	origin   string
	world    bool
	repeat   int
	interval time.Duration
	mute     bool
	wait     time.Duration
	metrics  string
}

func playCommand(a *app) *cobra.Command {
	var opts playOptions

	cmd := &cobra.Command{
		Use:   "play effect [effect...]",
		Short: "Trigger effects headlessly and report each outcome",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			rt, err := startRuntime(a, a.logger, opts.mute, opts.metrics)
			if err != nil {
				return err
			}
			defer rt.Stop()

			return runPlay(ctx, cmd.OutOrStdout(), rt.audio.Dispatcher(), args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.origin, "origin", "cli", "Origin scoping duplicate tracking of world effects")
	cmd.Flags().BoolVar(&opts.world, "world", false, "Play through the world pool instead of overlay")
	cmd.Flags().IntVar(&opts.repeat, "repeat", 1, "Trigger each effect this many times")
	cmd.Flags().DurationVar(&opts.interval, "interval", 0, "Delay between triggers")
	cmd.Flags().BoolVar(&opts.mute, "mute", false, "Drain output silently instead of opening the speaker")
	cmd.Flags().DurationVar(&opts.wait, "wait", 5*time.Second, "Maximum time to wait for devices to finish")
	cmd.Flags().StringVar(&opts.metrics, "metrics", "", "Serve Prometheus metrics on this address")

	return cmd
}

// runPlay triggers every effect, then waits until the pools drain or the wait expires
func runPlay(ctx context.Context, out io.Writer, d *sfx.Dispatcher, effects []string, opts playOptions) error {
	cat := core.CategoryOverlay
	if opts.world {
		cat = core.CategoryWorld
	}

	counts := make(map[sfx.Outcome]int)
	for i := 0; i < max(opts.repeat, 1); i++ {
		for _, name := range effects {
			var (
				o   sfx.Outcome
				err error
			)
			if opts.world {
				o, err = d.PlayWorld(name, opts.origin, vmath.Vec3F{})
			} else {
				o, err = d.PlayOverlay(name)
			}
			if err != nil {
				return fmt.Errorf("play %s: %w", name, err)
			}
			counts[o]++
			st := d.Stats(cat)
			fmt.Fprintf(out, "%-12s %-11s in_use=%d/%d\n", name, o, st.Pool.InUse, st.Pool.Max)

			if opts.interval > 0 {
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(opts.interval):
				}
			}
		}
	}

	deadline := time.NewTimer(opts.wait)
	defer deadline.Stop()
	poll := time.NewTicker(10 * time.Millisecond)
	defer poll.Stop()

	for d.Stats(cat).Pool.InUse > 0 {
		select {
		case <-ctx.Done():
			return nil
		case <-deadline.C:
			fmt.Fprintf(out, "timed out with %d devices in use\n", d.Stats(cat).Pool.InUse)
			return nil
		case <-poll.C:
		}
	}

	fmt.Fprintf(out, "played=%d retriggered=%d suppressed=%d dropped=%d\n",
		counts[sfx.OutcomePlayed], counts[sfx.OutcomeRetriggered],
		counts[sfx.OutcomeSuppressed], counts[sfx.OutcomeDropped])
	return nil
}
