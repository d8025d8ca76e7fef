package models

import "time"

// Realtime event types pushed to connected feed clients.
const (
	EventPostCreated         = "post_created"
	EventPostReactionUpdated = "post_reaction_updated"
	EventPostDeleted         = "post_deleted"
	EventFactoryAlert        = "factory_alert"
)

// FactoryAlert is published when the monitor reports a fault or a recovery.
type FactoryAlert struct {
	FactoryID   string         `json:"factory_id"`
	FactoryName string         `json:"factory_name"`
	AlertType   string         `json:"alert_type"`
	Priority    string         `json:"priority"`
	PostID      uint           `json:"post_id,omitempty"`
	Snapshot    StatusSnapshot `json:"snapshot"`
	Timestamp   time.Time      `json:"timestamp"`
}
