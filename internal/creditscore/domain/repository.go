package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, record *Record) error
	FindActive(ctx context.Context, db *gorm.DB, identifier string) (*Record, error)
	DemoteActive(ctx context.Context, tx *gorm.DB, identifier string, demotedAt time.Time) error
}
