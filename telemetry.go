package main

import (
	"encoding/json"
	"fmt"

	"github.com/womat/debug"
	"github.com/womat/mqtt"
)

// Telemetry publishes trigger alerts and run summaries to an MQTT broker.
// A nil Telemetry is valid and publishes nothing, so callers need no
// configuration checks.
type Telemetry struct {
	handler *mqtt.Handler
	topic   string
}

// NewTelemetry connects to the broker. An empty connection or topic
// disables telemetry and returns nil without error.
func NewTelemetry(connection, topic string) (*Telemetry, error) {
	if connection == "" || topic == "" {
		return nil, nil
	}
	handler, err := mqtt.New(connection)
	if err != nil {
		return nil, fmt.Errorf("telemetry: connecting to %q: %w", connection, err)
	}
	return &Telemetry{handler: handler, topic: topic}, nil
}

// triggerMessage builds the alert published when the trojan fires.
func triggerMessage(topic string, cycle int, probe uint32) (mqtt.Message, error) {
	payload, err := json.Marshal(map[string]any{
		"event": "trigger",
		"cycle": cycle,
		"probe": probe,
	})
	if err != nil {
		return mqtt.Message{}, err
	}
	return mqtt.Message{
		Topic:   topic + "/trigger",
		Payload: payload,
		Qos:     0,
	}, nil
}

// summaryMessage builds the end-of-run report, retained so late subscribers
// see the last run.
func summaryMessage(topic string, stats *SimulationStats) (mqtt.Message, error) {
	payload, err := json.Marshal(stats)
	if err != nil {
		return mqtt.Message{}, err
	}
	return mqtt.Message{
		Topic:    topic + "/summary",
		Payload:  payload,
		Qos:      0,
		Retained: true,
	}, nil
}

// PublishTrigger reports that the trojan fired.
func (t *Telemetry) PublishTrigger(cycle int, probe uint32) {
	if t == nil {
		return
	}
	msg, err := triggerMessage(t.topic, cycle, probe)
	if err != nil {
		debug.ErrorLog.Printf("telemetry: marshaling trigger: %v", err)
		return
	}
	if err := t.handler.Publish(msg); err != nil {
		debug.ErrorLog.Printf("telemetry: publishing trigger: %v", err)
	}
}

// PublishSummary reports the end-of-run statistics.
func (t *Telemetry) PublishSummary(stats *SimulationStats) {
	if t == nil || stats == nil {
		return
	}
	msg, err := summaryMessage(t.topic, stats)
	if err != nil {
		debug.ErrorLog.Printf("telemetry: marshaling summary: %v", err)
		return
	}
	if err := t.handler.Publish(msg); err != nil {
		debug.ErrorLog.Printf("telemetry: publishing summary: %v", err)
	}
}

// Close disconnects from the broker.
func (t *Telemetry) Close() error {
	if t == nil {
		return nil
	}
	t.handler.Close()
	return nil
}
