/*
 * Copyright 2025 the asuswatch authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/skirwin/asuswatch/pkg/config"
	"github.com/skirwin/asuswatch/pkg/crypto/secrets"
	"github.com/skirwin/asuswatch/pkg/logger"
	"github.com/skirwin/asuswatch/pkg/metrics"
	"github.com/skirwin/asuswatch/pkg/models"
	"github.com/skirwin/asuswatch/pkg/notify"
	"github.com/skirwin/asuswatch/pkg/pairing"
	"github.com/skirwin/asuswatch/pkg/poller"
	"github.com/skirwin/asuswatch/pkg/registry"
	"github.com/skirwin/asuswatch/pkg/settings"
	"github.com/skirwin/asuswatch/pkg/version"
)

const (
	secretKeyEnv      = "ASUSWATCH_SECRET_KEY"
	metricsReadTimeout = 10 * time.Second
	shutdownTimeout    = 10 * time.Second
)

var (
	errFailedToLoadConfig = errors.New("failed to load config")
	errSecretKeyRequired  = fmt.Errorf("settings key required (set %s)", secretKeyEnv)
	errNotPaired          = errors.New("no paired router; add a \"router\" block to the config to pair")
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", "/etc/asuswatch/asuswatch.json", "Path to asuswatch config file")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var cfg appConfig

	if err := config.NewLoader().LoadAndValidate(ctx, *configPath, &cfg); err != nil {
		return fmt.Errorf("%w: %w", errFailedToLoadConfig, err)
	}

	mainLogger, err := logger.NewComponentLogger("asuswatch", cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	mainLogger.Info().Str("version", version.GetFullVersion()).Msg("Starting asuswatch")

	key := os.Getenv(secretKeyEnv)
	if key == "" {
		key = cfg.SettingsKey
	}

	if key == "" {
		return errSecretKeyRequired
	}

	store, err := settings.Open(cfg.SettingsPath, secrets.NewSealer(key))
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	conn, routers, err := establishConnection(ctx, &cfg, store, mainLogger)
	if err != nil {
		return err
	}

	client := pairing.DefaultClientFactory(conn, mainLogger)

	if routers == nil {
		if err = client.Login(ctx); err != nil {
			return err
		}

		if routers, err = client.GetRouters(ctx); err != nil {
			return err
		}
	}

	reg := registry.New()

	for _, r := range routers {
		dev := registry.NewDevice(r.MAC, deviceName(r), r.Mode, capabilitiesFor(r.Mode))
		if err := reg.Register(dev); err != nil {
			return err
		}

		mainLogger.Info().
			Str("mac", dev.MAC()).
			Str("name", dev.Name()).
			Str("mode", string(dev.Mode())).
			Msg("Registered device")
	}

	m := metrics.New()
	queue := notify.NewQueue()

	sinks := []notify.Sink{notify.NewLogSink(mainLogger), &metricsSink{m: m}}

	if cfg.MQTT != nil {
		mqttSink, err := notify.NewMQTTSink(ctx, *cfg.MQTT, mainLogger)
		if err != nil {
			return err
		}

		defer func() {
			closeCtx, closeCancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer closeCancel()

			_ = mqttSink.Close(closeCtx)
		}()

		sinks = append(sinks, mqttSink)
	}

	if cfg.MetricsAddr != "" {
		startMetricsServer(ctx, cfg.MetricsAddr, m, mainLogger)
	}

	p, err := poller.New(&cfg.Poller, poller.Deps{
		Client:     client,
		Registry:   reg,
		Queue:      queue,
		Dispatcher: notify.NewDispatcher(queue, mainLogger, sinks...),
		Metrics:    m,
		Logger:     mainLogger,
	})
	if err != nil {
		return err
	}

	err = p.Start(ctx)
	if errors.Is(err, context.Canceled) {
		err = nil
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stopCancel()

	if stopErr := p.Stop(stopCtx); stopErr != nil && err == nil {
		err = stopErr
	}

	mainLogger.Info().Msg("Shutdown complete")

	return err
}

// establishConnection resolves the upstream connection: an explicit router
// block in the config triggers a (re-)pairing probe, otherwise the stored
// pairing is used. Pairing returns the enumerated routers so the caller
// can skip a second enumeration.
func establishConnection(ctx context.Context, cfg *appConfig, store *settings.Store, log logger.Logger) (*settings.Connection, []models.RouterInfo, error) {
	if cfg.Router != nil {
		routers, err := pairing.New(store, log, nil).Pair(ctx, cfg.Router.connection())
		if err != nil {
			return nil, nil, err
		}

		return cfg.Router.connection(), routers, nil
	}

	conn, err := store.Connection()
	if errors.Is(err, settings.ErrNotPaired) {
		return nil, nil, errNotPaired
	}

	if err != nil {
		return nil, nil, err
	}

	return conn, nil, nil
}

func deviceName(r models.RouterInfo) string {
	if r.Model != "" {
		return r.Model
	}

	return r.MAC
}

// capabilitiesFor returns the capability set a device advertises. Access
// points have no WAN side, so the WAN and traffic capabilities are only
// present in router mode.
func capabilitiesFor(mode models.OperationMode) []string {
	caps := []string{
		models.CapOnlineDevices,
		models.CapCPUUsage,
		models.CapMemoryUsage,
		models.CapUptimeDays,
		models.CapFirmwareVersion,
	}

	if mode == models.ModeRouter {
		caps = append(caps,
			models.CapExternalIP,
			models.CapWANType,
			models.CapAlarmWANDown,
			models.CapRealtimeDownload,
			models.CapRealtimeUpload,
			models.CapTotalReceived,
			models.CapTotalSent,
		)
	}

	return caps
}

// metricsSink counts dispatched events per kind.
type metricsSink struct {
	m *metrics.Metrics
}

func (s *metricsSink) Publish(_ context.Context, event notify.Event) error {
	s.m.EventDispatched(string(event.Kind))
	return nil
}

func startMetricsServer(ctx context.Context, addr string, m *metrics.Metrics, log logger.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: metricsReadTimeout,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Metrics listener started")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Metrics listener failed")
		}
	}()

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}()
}
