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
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/eclipse/paho.golang/autopaho"
	"github.com/eclipse/paho.golang/paho"

	"github.com/skirwin/asuswatch/pkg/logger"
)

const mqttConnectTimeout = 30 * time.Second

// MQTTConfig configures the broker sink.
type MQTTConfig struct {
	Broker    string `json:"broker"` // e.g. mqtt://10.0.0.5:1883
	Username  string `json:"username,omitempty"`
	Password  string `json:"password,omitempty"`
	TopicBase string `json:"topic_base,omitempty"` // default "asuswatch"
	ClientID  string `json:"client_id,omitempty"`
}

// MQTTSink publishes events as JSON to per-kind topics:
// <base>/events/<kind>. The home-automation host subscribes to these to
// drive its flow triggers.
type MQTTSink struct {
	cfg    MQTTConfig
	logger logger.Logger
	cm     *autopaho.ConnectionManager
}

// NewMQTTSink connects to the broker. Connection maintenance is handled by
// autopaho; publishes before the first connect fail and are retried on the
// next tick's events.
func NewMQTTSink(ctx context.Context, cfg MQTTConfig, log logger.Logger) (*MQTTSink, error) {
	brokerURL, err := url.Parse(cfg.Broker)
	if err != nil {
		return nil, fmt.Errorf("parse mqtt broker URL: %w", err)
	}

	if cfg.TopicBase == "" {
		cfg.TopicBase = "asuswatch"
	}

	if cfg.ClientID == "" {
		cfg.ClientID = "asuswatch"
	}

	s := &MQTTSink{cfg: cfg, logger: log}

	pahoCfg := autopaho.ClientConfig{
		ServerUrls:      []*url.URL{brokerURL},
		KeepAlive:       30,
		ConnectUsername: cfg.Username,
		ConnectPassword: []byte(cfg.Password),
		OnConnectionUp: func(_ *autopaho.ConnectionManager, _ *paho.Connack) {
			log.Info().Str("broker", cfg.Broker).Msg("MQTT connected")
		},
		OnConnectError: func(err error) {
			log.Warn().Err(err).Msg("MQTT connection error")
		},
		ClientConfig: paho.ClientConfig{
			ClientID: cfg.ClientID,
		},
	}

	cm, err := autopaho.NewConnection(ctx, pahoCfg)
	if err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}

	s.cm = cm

	connCtx, cancel := context.WithTimeout(ctx, mqttConnectTimeout)
	defer cancel()

	if err := cm.AwaitConnection(connCtx); err != nil {
		// autopaho keeps retrying in the background.
		log.Warn().Err(err).Msg("MQTT initial connection timed out, retrying in background")
	}

	return s, nil
}

func (s *MQTTSink) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	_, err = s.cm.Publish(ctx, &paho.Publish{
		Topic:   s.cfg.TopicBase + "/events/" + string(event.Kind),
		Payload: payload,
		QoS:     1,
	})
	if err != nil {
		return fmt.Errorf("mqtt publish: %w", err)
	}

	return nil
}

// Close disconnects from the broker.
func (s *MQTTSink) Close(ctx context.Context) error {
	if s.cm == nil {
		return nil
	}

	return s.cm.Disconnect(ctx)
}
