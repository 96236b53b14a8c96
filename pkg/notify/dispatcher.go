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

package notify

import (
	"context"

	"github.com/skirwin/asuswatch/pkg/logger"
)

// Sink receives dispatched events. Sinks are fire-and-forget from the
// poller's point of view; a failing sink never fails a tick.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

// Dispatcher drains a Queue into its sinks.
type Dispatcher struct {
	queue  *Queue
	sinks  []Sink
	logger logger.Logger
}

func NewDispatcher(queue *Queue, log logger.Logger, sinks ...Sink) *Dispatcher {
	return &Dispatcher{
		queue:  queue,
		sinks:  sinks,
		logger: log,
	}
}

// Flush drains the queue and publishes every event to every sink. Sink
// failures are logged and counted, not propagated.
func (d *Dispatcher) Flush(ctx context.Context) int {
	events := d.queue.Drain()

	for i := range events {
		for _, sink := range d.sinks {
			if err := sink.Publish(ctx, events[i]); err != nil {
				d.logger.Warn().
					Err(err).
					Str("kind", string(events[i].Kind)).
					Str("event_id", events[i].ID).
					Msg("Event sink publish failed")
			}
		}
	}

	if len(events) > 0 {
		d.logger.Debug().Int("events", len(events)).Msg("Dispatched events")
	}

	return len(events)
}

// LogSink writes events to the structured log. It is always wired so
// transitions stay observable without a broker.
type LogSink struct {
	logger logger.Logger
}

func NewLogSink(log logger.Logger) *LogSink {
	return &LogSink{logger: log}
}

func (s *LogSink) Publish(_ context.Context, event Event) error {
	ev := s.logger.Info().
		Str("kind", string(event.Kind)).
		Str("device", event.Device).
		Str("scope", string(event.Scope))

	if event.Client != nil {
		ev = ev.Str("mac", event.Client.MAC).Str("name", event.Client.Name)
	}

	if event.Firmware != "" {
		ev = ev.Str("firmware", event.Firmware)
	}

	if event.WANKey != "" {
		ev = ev.Str(event.WANKey, event.WANValue)
	}

	ev.Msg("Notification")

	return nil
}
