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

// Package poller runs the polling cycle: each tick fetches the global
// router/client inventory, computes network-wide transitions, fans out
// per-device metric fetches concurrently with per-task error capture and
// drives availability, capability state and the degraded warning.
package poller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/skirwin/asuswatch/pkg/asus"
	"github.com/skirwin/asuswatch/pkg/diff"
	"github.com/skirwin/asuswatch/pkg/logger"
	"github.com/skirwin/asuswatch/pkg/metrics"
	"github.com/skirwin/asuswatch/pkg/models"
	"github.com/skirwin/asuswatch/pkg/notify"
	"github.com/skirwin/asuswatch/pkg/projector"
	"github.com/skirwin/asuswatch/pkg/registry"
)

const warnPartialFailure = "Some metrics failed to update this cycle"

var (
	errClientRequired   = errors.New("upstream client is required")
	errRegistryRequired = errors.New("device registry is required")
	errQueueRequired    = errors.New("event queue is required")
)

// Deps are the collaborators a Poller drives. Clock and Metrics are
// optional; the others are required.
type Deps struct {
	Client     asus.Client
	Registry   *registry.Registry
	Queue      *notify.Queue
	Dispatcher *notify.Dispatcher
	Metrics    *metrics.Metrics
	Clock      Clock
	Logger     logger.Logger
}

// Poller owns the polling cycle and all cross-tick snapshot state. The
// reentrancy guard guarantees a single tick runs at a time, so the state
// has a single writer.
type Poller struct {
	config     Config
	client     asus.Client
	registry   *registry.Registry
	queue      *notify.Queue
	dispatcher *notify.Dispatcher
	projector  *projector.Projector
	metrics    *metrics.Metrics
	clock      Clock
	logger     logger.Logger

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
	ticker    Ticker
	inFlight  atomic.Bool

	network       []models.ConnectedClient
	networkPolled bool
	states        map[string]*projector.DeviceState
}

// New creates a poller. A nil clock defaults to the real clock.
func New(config *Config, deps Deps) (*Poller, error) {
	if deps.Client == nil {
		return nil, errClientRequired
	}

	if deps.Registry == nil {
		return nil, errRegistryRequired
	}

	if deps.Queue == nil {
		return nil, errQueueRequired
	}

	if deps.Clock == nil {
		deps.Clock = realClock{}
	}

	if deps.Logger == nil {
		deps.Logger = logger.NewTestLogger()
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	projOpts := []projector.Option{projector.WithFirstPollSuppression(config.SuppressFirstPoll)}

	return &Poller{
		config:     *config,
		client:     deps.Client,
		registry:   deps.Registry,
		queue:      deps.Queue,
		dispatcher: deps.Dispatcher,
		projector:  projector.New(deps.Queue, deps.Logger, projOpts...),
		metrics:    deps.Metrics,
		clock:      deps.Clock,
		logger:     deps.Logger,
		done:       make(chan struct{}),
		states:     make(map[string]*projector.DeviceState),
	}, nil
}

// Start runs the tick loop until the context is cancelled or Stop is
// called. The first tick fires immediately.
func (p *Poller) Start(ctx context.Context) error {
	interval := time.Duration(p.config.PollInterval)
	p.ticker = p.clock.Ticker(interval)

	defer p.ticker.Stop()

	p.logger.Info().Dur("interval", interval).Msg("Starting poller")

	p.runGuardedTick(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.done:
			return nil
		case <-p.ticker.Chan():
			p.runGuardedTick(ctx)
		}
	}
}

// Stop ends the tick loop and waits for an in-flight tick to settle.
func (p *Poller) Stop(_ context.Context) error {
	p.closeOnce.Do(func() {
		close(p.done)
	})

	p.wg.Wait()

	return nil
}

// runGuardedTick starts a tick unless the previous one is still running;
// an overlapping tick is skipped, not queued.
func (p *Poller) runGuardedTick(ctx context.Context) {
	if !p.inFlight.CompareAndSwap(false, true) {
		p.metrics.TickSkipped()
		p.logger.Warn().Msg("Previous tick still running, skipping this tick")

		return
	}

	p.wg.Add(1)

	go func() {
		defer p.wg.Done()
		defer p.inFlight.Store(false)

		p.tick(ctx)
	}()
}

// tick is one full polling cycle. A global inventory failure aborts the
// whole tick and marks every device unavailable; anything after that is
// isolated per device.
func (p *Poller) tick(ctx context.Context) {
	started := p.clock.Now()

	routers, err := p.client.GetRouters(ctx)

	var allClients []models.ConnectedClient

	if err == nil {
		allClients, err = p.client.GetAllClients(ctx)
	}

	if err != nil {
		reason := fmt.Sprintf("router API unreachable: %v", err)

		for _, dev := range p.registry.Devices() {
			dev.SetUnavailable(reason)
		}

		p.metrics.TickFailed()
		p.metrics.SetAvailable(0)
		p.logger.Error().Err(err).Msg("Global inventory fetch failed, tick aborted")

		return
	}

	p.diffNetwork(allClients)

	inventory := make(map[string]models.RouterInfo, len(routers))
	for _, r := range routers {
		inventory[models.NormalizeMAC(r.MAC)] = r
	}

	devices := p.registry.Devices()
	outcomes := make([]deviceOutcome, len(devices))

	var wg sync.WaitGroup

	for i, dev := range devices {
		state, ok := p.states[dev.MAC()]
		if !ok {
			state = projector.NewDeviceState()
			p.states[dev.MAC()] = state
		}

		wg.Add(1)

		go func(i int, dev *registry.Device, state *projector.DeviceState) {
			defer wg.Done()

			outcomes[i] = p.pollDevice(ctx, dev, state, inventory)
		}(i, dev, state)
	}

	wg.Wait()

	available, degraded := 0, 0

	for _, o := range outcomes {
		if o.available {
			available++
		}

		if o.degraded {
			degraded++
		}
	}

	p.metrics.SetAvailable(available)
	p.metrics.SetDegraded(degraded)
	p.metrics.TickCompleted()

	dispatched := 0
	if p.dispatcher != nil {
		dispatched = p.dispatcher.Flush(ctx)
	}

	p.logger.Info().
		Int("devices", len(devices)).
		Int("available", available).
		Int("degraded", degraded).
		Int("events", dispatched).
		Dur("elapsed", p.clock.Now().Sub(started)).
		Msg("Polling cycle completed")
}

// diffNetwork emits network-wide connect/disconnect events against the
// previous global snapshot and stores the new one.
func (p *Poller) diffNetwork(current []models.ConnectedClient) {
	changes := diff.Compute(p.network, current)
	suppress := p.config.SuppressFirstPoll && !p.networkPolled

	for i := range changes.Departed {
		p.queue.Append(notify.NewClientEvent(notify.KindClientDisconnected, "", models.ScopeNetwork, &changes.Departed[i]))
	}

	if !suppress {
		for i := range changes.Arrived {
			p.queue.Append(notify.NewClientEvent(notify.KindClientConnected, "", models.ScopeNetwork, &changes.Arrived[i]))
		}
	}

	p.network = current
	p.networkPolled = true
}

type deviceOutcome struct {
	available bool
	degraded  bool
}

type task struct {
	name string
	run  func(ctx context.Context) error
}

type taskResult struct {
	name string
	err  error
}

// pollDevice updates one device for this tick: availability from the
// inventory, then concurrent metric fetches with per-task error capture
// feeding the aggregate degraded warning.
func (p *Poller) pollDevice(ctx context.Context, dev *registry.Device, state *projector.DeviceState, inventory map[string]models.RouterInfo) deviceOutcome {
	info, ok := inventory[dev.MAC()]
	if !ok {
		dev.SetUnavailable("not reported by router inventory")
		return deviceOutcome{}
	}

	if !info.Online {
		dev.SetUnavailable("reported offline by router")
		return deviceOutcome{}
	}

	dev.SetAvailable()

	tasks := []task{
		{name: "clients", run: func(ctx context.Context) error {
			return p.fetchAndProjectClients(ctx, dev, state)
		}},
		{name: "load", run: func(ctx context.Context) error {
			load, err := p.client.GetLoad(ctx, dev.MAC())
			if err != nil {
				return err
			}

			return p.projector.ApplyLoad(dev, load)
		}},
		{name: "uptime", run: func(ctx context.Context) error {
			seconds, err := p.client.GetUptime(ctx, dev.MAC())
			if err != nil {
				return err
			}

			return p.projector.ApplyUptime(dev, seconds)
		}},
	}

	if info.FirmwareVersion != "" {
		fw := models.FirmwareInfo{Current: info.FirmwareVersion, Available: info.NewFirmware}

		tasks = append(tasks, task{name: "firmware", run: func(_ context.Context) error {
			return p.projector.ApplyFirmware(dev, state, fw)
		}})
	}

	if dev.Mode() == models.ModeRouter {
		tasks = append(tasks,
			task{name: "wan", run: func(ctx context.Context) error {
				wan, err := p.client.GetWANStatus(ctx)
				if err != nil {
					return err
				}

				return p.projector.ApplyWAN(dev, wan)
			}},
			task{name: "traffic", run: func(ctx context.Context) error {
				return p.sampleTraffic(ctx, dev)
			}},
		)
	}

	failed := 0

	for _, result := range p.runTasks(ctx, tasks) {
		if result.err == nil {
			continue
		}

		failed++

		p.metrics.FetchFailed(result.name)
		p.logger.Warn().
			Err(result.err).
			Str("device", dev.MAC()).
			Str("metric", result.name).
			Msg("Metric update failed")
	}

	if failed > 0 {
		dev.SetWarning(warnPartialFailure)
	} else {
		dev.ClearWarning()
	}

	return deviceOutcome{available: true, degraded: failed > 0}
}

// runTasks executes the tasks concurrently and collects one result each.
func (*Poller) runTasks(ctx context.Context, tasks []task) []taskResult {
	results := make([]taskResult, len(tasks))

	var wg sync.WaitGroup

	for i := range tasks {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			results[i] = taskResult{name: tasks[i].name, err: tasks[i].run(ctx)}
		}(i)
	}

	wg.Wait()

	return results
}

// fetchAndProjectClients fetches the three per-AP scopes concurrently. The
// projection only runs when all three fetches succeed, so a partial
// failure leaves the stored snapshots and capability values untouched.
func (p *Poller) fetchAndProjectClients(ctx context.Context, dev *registry.Device, state *projector.DeviceState) error {
	snapshots := make(map[models.Scope][]models.ConnectedClient, len(models.PolledScopes))
	errs := make([]error, len(models.PolledScopes))

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	for i, scope := range models.PolledScopes {
		wg.Add(1)

		go func(i int, scope models.Scope) {
			defer wg.Done()

			clients, err := p.client.GetClients(ctx, dev.MAC(), scope)
			if err != nil {
				errs[i] = fmt.Errorf("%s clients: %w", scope, err)
				return
			}

			mu.Lock()
			snapshots[scope] = clients
			mu.Unlock()
		}(i, scope)
	}

	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return err
	}

	return p.projector.ApplyClients(dev, state, snapshots)
}

// sampleTraffic takes the two strictly sequential counter samples,
// separated by the configured gap, and projects them.
func (p *Poller) sampleTraffic(ctx context.Context, dev *registry.Device) error {
	first, err := p.client.GetTraffic(ctx)
	if err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(time.Duration(p.config.TrafficSampleGap)):
	}

	second, err := p.client.GetTraffic(ctx)
	if err != nil {
		return err
	}

	return p.projector.ApplyTraffic(dev, first, second)
}
