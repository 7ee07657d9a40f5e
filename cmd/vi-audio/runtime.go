package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lixenwraith/vi-audio/audio"
	"github.com/lixenwraith/vi-audio/metrics"
	"github.com/lixenwraith/vi-audio/service"
)

// runtime is a started audio graph plus the optional metrics endpoint
type runtime struct {
	hub     *service.Hub
	audio   *audio.AudioService
	metrics *http.Server
	logger  *slog.Logger
}

// startRuntime registers and starts the registry and audio services
// A non-empty metricsAddr serves /metrics for the dispatcher counters
func startRuntime(a *app, logger *slog.Logger, muted bool, metricsAddr string) (*runtime, error) {
	rt := &runtime{hub: service.NewHub(), logger: logger}

	var recorder *metrics.SFXMetrics
	if metricsAddr != "" {
		reg := prometheus.NewRegistry()
		m, err := metrics.NewSFXMetrics(reg)
		if err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
		recorder = m
		if err := rt.serveMetrics(reg, metricsAddr); err != nil {
			return nil, err
		}
	}

	reg := audio.NewRegistryService(a.cfg.Registry.Path, a.cfg.Audio.SampleRate, logger)
	opts := audio.Options{Logger: logger}
	if recorder != nil {
		opts.Recorder = recorder
	}
	rt.audio = audio.NewService(a.cfg, reg, opts)

	for _, svc := range []service.Service{reg, rt.audio} {
		if err := rt.hub.Register(svc); err != nil {
			rt.stopMetrics()
			return nil, err
		}
	}
	if err := rt.hub.InitAll(muted); err != nil {
		rt.stopMetrics()
		return nil, err
	}
	if err := rt.hub.StartAll(); err != nil {
		rt.stopMetrics()
		return nil, err
	}
	return rt, nil
}

func (rt *runtime) serveMetrics(reg *prometheus.Registry, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("metrics listen: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		ErrorLog:      slog.NewLogLogger(rt.logger.With("module", "metrics").Handler(), slog.LevelError),
		ErrorHandling: promhttp.HTTPErrorOnError,
	}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	rt.metrics = srv

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			rt.logger.Error("metrics server failed", "error", err)
		}
	}()
	rt.logger.Info("metrics listening", "addr", ln.Addr().String())
	return nil
}

func (rt *runtime) stopMetrics() {
	if rt.metrics == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = rt.metrics.Shutdown(ctx)
	rt.metrics = nil
}

// Stop tears down services then the metrics endpoint
func (rt *runtime) Stop() error {
	err := rt.hub.StopAll()
	rt.stopMetrics()
	return err
}
