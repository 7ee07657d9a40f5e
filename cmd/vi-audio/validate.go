package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lixenwraith/vi-audio/audio"
	"github.com/lixenwraith/vi-audio/registry"
)

func validateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [registry.yaml]",
		Short: "Decode a registry and list its effects and tracks",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfg.Registry.Path
			if len(args) == 1 {
				path = args[0]
			}

			reg := audio.NewRegistryService(path, a.cfg.Audio.SampleRate, a.logger)
			if err := reg.Init(); err != nil {
				return err
			}
			return writeSummary(cmd.OutOrStdout(), reg.Set())
		},
	}
}

// writeSummary prints one row per effect and track
func writeSummary(out io.Writer, set *registry.Set) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "EFFECT\tPOLICY\tVARIANTS\tDURATION\tVOLUME")
	for _, name := range set.Effects.Names() {
		def, err := set.Effects.Lookup(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%.2f\n",
			name, def.Policy, 1+len(def.Alternates), def.Main.Clip.Duration(), def.Main.Volume())
	}

	for _, group := range []struct {
		label  string
		tracks *registry.Tracks
	}{
		{"MUSIC", set.Music},
		{"AMBIENT", set.Ambient},
	} {
		if group.tracks.Len() == 0 {
			continue
		}
		fmt.Fprintf(tw, "\n%s\t\t\tDURATION\tVOLUME\n", group.label)
		for _, name := range group.tracks.Names() {
			info, err := group.tracks.Lookup(name)
			if err != nil {
				return err
			}
			fmt.Fprintf(tw, "%s\t\t\t%s\t%.2f\n", name, info.Clip.Duration(), info.Volume())
		}
	}

	return tw.Flush()
}
