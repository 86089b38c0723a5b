package domain

import (
	"time"

	"github.com/bflows/riskproxy/internal/versioning"
	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Family is the record-family name used for webhook routing and metrics.
const Family = "company-full"

// Record is one version of a full-company-data request. The family is
// asynchronous: a record stays PENDING until the upstream delivers its
// webhook callback, which may take seconds or days.
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
	return "company_data_records"
}

func (r *Record) Lifecycle() versioning.Lifecycle {
	return r.LifecycleStatus
}
