package domain

import (
	"time"

	"github.com/bflows/riskproxy/internal/versioning"
	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

const Family = "negative-event"

// Record is one version of a negative-event check for a tax code or VAT
// number. Asynchronous: stays PENDING until the upstream webhook arrives.
type Record struct {
	ID                snowflake.ID             `gorm:"primaryKey" json:"id"`
	Identifier        string                   `gorm:"not null;index" json:"identifier"`
	ExternalID        string                   `gorm:"index" json:"external_id,omitempty"`
	RequestPayload    datatypes.JSON           `gorm:"type:jsonb" json:"request_payload,omitempty"`
	ResponsePayload   datatypes.JSON           `gorm:"type:jsonb" json:"response_payload,omitempty"`
	CallbackPayload   datatypes.JSON           `gorm:"type:jsonb" json:"callback_payload,omitempty"`
	StatusCode        *int                     `json:"status_code,omitempty"`
	NotificationEmail string                   `json:"notification_email,omitempty"`
	LifecycleStatus   versioning.Lifecycle     `gorm:"not null" json:"lifecycle_status"`
	VersionStatus     versioning.VersionStatus `gorm:"not null;default:'ACTIVE'" json:"version_status"`
	CreatedAt         time.Time                `gorm:"not null" json:"created_at"`
	UpdatedAt         *time.Time               `json:"updated_at,omitempty"`
}

func (Record) TableName() string {
	return "negative_event_records"
}

func (r *Record) Lifecycle() versioning.Lifecycle {
	return r.LifecycleStatus
}

// Detail holds the presence flags derived from a correlated callback. It is
// owned by exactly one Record and created at most once, in the same
// transaction as the parent's terminal transition.
type Detail struct {
	ID                      snowflake.ID   `gorm:"primaryKey" json:"id"`
	RequestID               snowflake.ID   `gorm:"not null;index" json:"request_id"`
	DetailPayload           datatypes.JSON `gorm:"type:jsonb" json:"detail_payload,omitempty"`
	PresenceProtesti        bool           `gorm:"not null" json:"presence_protesti"`
	PresenceProcedure       bool           `gorm:"not null" json:"presence_procedure"`
	PresencePregiudizievoli bool           `gorm:"not null" json:"presence_pregiudizievoli"`
	StatusCode              *int           `json:"status_code,omitempty"`
	CreatedAt               time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt               *time.Time     `json:"updated_at,omitempty"`
}

func (Detail) TableName() string {
	return "negative_event_details"
}

// Result pairs a request record with its detail, when available.
type Result struct {
	Request Record  `json:"request"`
	Detail  *Detail `json:"detail,omitempty"`
}
