package repository

import (
	"context"
	"time"

	"github.com/bflows/riskproxy/internal/creditscore/domain"
	"github.com/bflows/riskproxy/internal/versioning"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, record *domain.Record) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO credit_score_records
		 (id, identifier, response_payload, status_code, lifecycle_status, version_status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.Identifier,
		record.ResponsePayload,
		record.StatusCode,
		record.LifecycleStatus,
		record.VersionStatus,
		record.CreatedAt,
		record.UpdatedAt,
	).Error
}

func (r *repo) FindActive(ctx context.Context, db *gorm.DB, identifier string) (*domain.Record, error) {
	var record domain.Record
	err := db.WithContext(ctx).Raw(
		`SELECT id, identifier, response_payload, status_code, lifecycle_status, version_status, created_at, updated_at
		 FROM credit_score_records
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
		`UPDATE credit_score_records
		 SET version_status = ?, updated_at = ?
		 WHERE identifier = ? AND version_status = ?`,
		versioning.StatusInactive,
		demotedAt,
		identifier,
		versioning.StatusActive,
	).Error
}
