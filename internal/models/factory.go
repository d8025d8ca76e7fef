package models

import (
	"time"

	"gorm.io/datatypes"
)

// FactoryStatus is the simulator's fault classification.
type FactoryStatus string

const (
	// FactoryStatusNormal indicates all metrics are around their base values.
	FactoryStatusNormal FactoryStatus = "normal"
	// FactoryStatusOverheat indicates a temperature spike.
	FactoryStatusOverheat FactoryStatus = "overheat"
	// FactoryStatusLowPressure indicates a pressure drop.
	FactoryStatusLowPressure FactoryStatus = "low_pressure"
	// FactoryStatusRPMIssue indicates a spindle speed drop.
	FactoryStatusRPMIssue FactoryStatus = "rpm_issue"
)

// FaultStatuses lists the abnormal statuses in the order the simulator draws from.
var FaultStatuses = []FactoryStatus{
	FactoryStatusOverheat,
	FactoryStatusLowPressure,
	FactoryStatusRPMIssue,
}

// IsAbnormal reports whether s is one of the fault tags.
func (s FactoryStatus) IsAbnormal() bool {
	return s != FactoryStatusNormal
}

// Valid reports whether s is a known status tag.
func (s FactoryStatus) Valid() bool {
	switch s {
	case FactoryStatusNormal, FactoryStatusOverheat, FactoryStatusLowPressure, FactoryStatusRPMIssue:
		return true
	}
	return false
}

// Priority tags used on factory posts and payloads.
const (
	PriorityNormal = "normal"
	PriorityHigh   = "high"
	// PriorityEmergency only appears on overheat emergency payloads.
	PriorityEmergency = "emergency"
)

// Factory is the persisted mirror of a simulator instance.
type Factory struct {
	ID           string        `gorm:"primaryKey;size:32" json:"factory_id"`
	Name         string        `gorm:"not null" json:"factory_name"`
	Location     string        `gorm:"not null" json:"location"`
	BaseTemp     float64       `gorm:"not null" json:"base_temp"`
	BasePressure float64       `gorm:"not null" json:"base_pressure"`
	BaseRPM      float64       `gorm:"column:base_rpm;not null" json:"base_rpm"`
	BaseProduct  float64       `gorm:"not null" json:"base_product"`
	Temp         float64       `gorm:"column:last_temp" json:"last_temp"`
	Pressure     float64       `gorm:"column:last_pressure" json:"last_pressure"`
	RPM          float64       `gorm:"column:last_rpm" json:"last_rpm"`
	ProductCount float64       `gorm:"column:last_product_count" json:"last_product_count"`
	Status       FactoryStatus `gorm:"column:last_status;type:varchar(20);default:'normal'" json:"last_status"`
	LastUpdate   time.Time     `json:"last_update"`
	CreatedAt    time.Time     `json:"created_at"`
}

// FactoryPost is one entry of the append-only factory event log.
type FactoryPost struct {
	ID          uint           `gorm:"primaryKey" json:"post_id"`
	FactoryID   string         `gorm:"not null;index;size:32" json:"factory_id"`
	FactoryName string         `gorm:"not null" json:"factory_name"`
	Message     string         `gorm:"type:text;not null" json:"message"`
	StatusData  datatypes.JSON `json:"status_data,omitempty"`
	Priority    string         `gorm:"type:varchar(16);not null;default:'normal'" json:"priority"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
}

// StatusSnapshot is a point-in-time reading of one factory, metrics rounded to 2 decimals.
type StatusSnapshot struct {
	Timestamp    time.Time     `json:"timestamp"`
	FactoryID    string        `json:"factory_id,omitempty"`
	FactoryName  string        `json:"factory_name"`
	Temperature  float64       `json:"temperature"`
	Pressure     float64       `json:"pressure"`
	RPM          float64       `json:"rpm"`
	ProductCount float64       `json:"product_count"`
	Status       FactoryStatus `json:"status"`
}

// FactorySummary partitions the fleet: overheat is an error, low pressure and
// rpm issues are warnings.
type FactorySummary struct {
	TotalFactories int              `json:"total_factories"`
	NormalCount    int              `json:"normal_count"`
	WarningCount   int              `json:"warning_count"`
	ErrorCount     int              `json:"error_count"`
	Factories      []StatusSnapshot `json:"factories"`
}
