package domain

import (
	"time"

	"github.com/bflows/riskproxy/internal/versioning"
	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Record is one version of a cached credit-score response. The family is
// synchronous: records are stored already terminal, never PENDING.
type Record struct {
	ID              snowflake.ID             `gorm:"primaryKey" json:"id"`
	Identifier      string                   `gorm:"not null;index" json:"identifier"`
	ResponsePayload datatypes.JSON           `gorm:"type:jsonb" json:"response_payload,omitempty"`
	StatusCode      *int                     `json:"status_code,omitempty"`
	LifecycleStatus versioning.Lifecycle     `gorm:"not null" json:"lifecycle_status"`
	VersionStatus   versioning.VersionStatus `gorm:"not null;default:'ACTIVE'" json:"version_status"`
	CreatedAt       time.Time                `gorm:"not null" json:"created_at"`
	UpdatedAt       *time.Time               `json:"updated_at,omitempty"`
}

func (Record) TableName() string {
	return "credit_score_records"
}

func (r *Record) Lifecycle() versioning.Lifecycle {
	return r.LifecycleStatus
}
