package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/lixenwraith/vi-audio/config"
)

// Log file rotation limits
const (
	logMaxSizeMB  = 10
	logMaxBackups = 3
)

// app carries flags and the resolved runtime settings shared by subcommands
type app struct {
	configPath   string
	registryPath string
	logLevel     string
	logFile      string

	cfg     *config.Config
	logger  *slog.Logger
	logSink io.Closer
}

func main() {
	if err := rootCommand(&app{}).Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCommand(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "vi-audio",
		Short:        "Pooled sound effect engine tools",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.teardown()
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to config file (YAML)")
	rootCmd.PersistentFlags().StringVar(&a.registryPath, "registry", "", "Path to registry file, overrides registry.path")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&a.logFile, "log-file", "", "Write logs to file instead of stderr")

	rootCmd.AddCommand(validateCommand(a), playCommand(a), sandboxCommand(a))
	return rootCmd
}

// setup loads config and applies flag overrides
func (a *app) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.registryPath != "" {
		cfg.Registry.Path = a.registryPath
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}

	var w io.Writer = os.Stderr
	if a.logFile != "" {
		if dir := filepath.Dir(a.logFile); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create log directory %s: %w", dir, err)
			}
		}
		lj := &lumberjack.Logger{
			Filename:   a.logFile,
			MaxSize:    logMaxSizeMB,
			MaxBackups: logMaxBackups,
		}
		a.logSink = lj
		w = lj
	}

	logger, err := cfg.Log.NewLogger(w)
	if err != nil {
		a.teardown()
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

func (a *app) teardown() {
	if a.logSink != nil {
		_ = a.logSink.Close()
		a.logSink = nil
	}
}
