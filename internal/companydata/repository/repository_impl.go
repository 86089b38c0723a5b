package repository

import (
	"context"
	"time"

	"github.com/bflows/riskproxy/internal/companydata/domain"
	"github.com/bflows/riskproxy/internal/versioning"
	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const columns = `id, identifier, external_id, request_payload, response_payload, callback_payload,
	 status_code, notification_email, lifecycle_status, version_status, created_at, updated_at`

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, record *domain.Record) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO company_data_records
		 (`+columns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.Identifier,
		record.ExternalID,
		record.RequestPayload,
		record.ResponsePayload,
		record.CallbackPayload,
		record.StatusCode,
		record.NotificationEmail,
		record.LifecycleStatus,
		record.VersionStatus,
		record.CreatedAt,
		record.UpdatedAt,
	).Error
}

func (r *repo) FindActive(ctx context.Context, db *gorm.DB, identifier string) (*domain.Record, error) {
	var record domain.Record
	err := db.WithContext(ctx).Raw(
		`SELECT `+columns+`
		 FROM company_data_records
		 WHERE identifier = ? AND version_status = ?`,
		identifier,
		versioning.StatusActive,
	).Scan(&record).Error
	if err != nil {
		return nil, err
	}
	if record.ID == 0 {
		return nil, nil
	}
	return &record, nil
}

func (r *repo) DemoteActive(ctx context.Context, tx *gorm.DB, identifier string, demotedAt time.Time) error {
	return tx.WithContext(ctx).Exec(
		`UPDATE company_data_records
		 SET version_status = ?, updated_at = ?
		 WHERE identifier = ? AND version_status = ?`,
		versioning.StatusInactive,
		demotedAt,
		identifier,
		versioning.StatusActive,
	).Error
}

func (r *repo) FindByExternalID(ctx context.Context, db *gorm.DB, externalID string) (*domain.Record, error) {
	var record domain.Record
	err := db.WithContext(ctx).Raw(
		`SELECT `+columns+`
		 FROM company_data_records
		 WHERE external_id = ?
		 ORDER BY created_at DESC
		 LIMIT 1`,
		externalID,
	).Scan(&record).Error
	if err != nil {
		return nil, err
	}
	if record.ID == 0 {
		return nil, nil
	}
	return &record, nil
}

func (r *repo) CompleteCallback(ctx context.Context, tx *gorm.DB, id snowflake.ID, payload datatypes.JSON, statusCode int, lifecycle versioning.Lifecycle, updatedAt time.Time) error {
	res := tx.WithContext(ctx).Exec(
		`UPDATE company_data_records
		 SET callback_payload = ?, status_code = ?, lifecycle_status = ?, updated_at = ?
		 WHERE id = ? AND lifecycle_status = ?`,
		payload,
		statusCode,
		lifecycle,
		updatedAt,
		id,
		versioning.LifecyclePending,
	)
	if res.Error != nil {
		return res.Error
	}
	// Zero matched rows means a concurrent delivery already moved the record
	// out of PENDING after our caller's read.
	if res.RowsAffected == 0 {
		return domain.ErrAlreadyCorrelated
	}
	return nil
}
