package models

import (
	"encoding/json"
	"strings"
)

// Payload type discriminators.
const (
	PayloadChart            = "chart"
	PayloadFactoryStatus    = "factory_status"
	PayloadFactoryEmergency = "factory_emergency"
)

// Metric names used in factory payload data.
const (
	MetricTemperature = "Temperature"
	MetricPressure    = "Pressure"
	MetricRPM         = "RPM"
	MetricThroughput  = "Throughput"
)

// Payload is the structured JSON stored in a post's content when the post
// carries chart or telemetry data instead of free text.
type Payload struct {
	Type      string             `json:"type"`
	Title     string             `json:"title,omitempty"`
	AlertType string             `json:"alert_type,omitempty"`
	Data      map[string]float64 `json:"data"`
	Status    string             `json:"status,omitempty"`
	Timestamp string             `json:"timestamp,omitempty"`
	FactoryID string             `json:"factory_id,omitempty"`
	Priority  string             `json:"priority,omitempty"`
}

// Encode renders the payload as post content.
func (p *Payload) Encode() (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// IsEmergency reports whether the payload should be rendered as an emergency.
func (p *Payload) IsEmergency() bool {
	return p != nil && (p.Type == PayloadFactoryEmergency || p.Priority == PriorityEmergency)
}

// ParsePayload decodes structured content. Anything that is not a JSON object
// with a known type discriminator is plain text and yields ok=false.
func ParsePayload(content string) (*Payload, bool) {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "{") {
		return nil, false
	}
	var p Payload
	if err := json.Unmarshal([]byte(trimmed), &p); err != nil {
		return nil, false
	}
	switch p.Type {
	case PayloadChart, PayloadFactoryStatus, PayloadFactoryEmergency:
		return &p, true
	default:
		return nil, false
	}
}

// SnapshotData maps a snapshot onto the named payload metrics.
func SnapshotData(s StatusSnapshot) map[string]float64 {
	return map[string]float64{
		MetricTemperature: s.Temperature,
		MetricPressure:    s.Pressure,
		MetricRPM:         s.RPM,
		MetricThroughput:  s.ProductCount,
	}
}
