package domain

import (
	"context"
	"time"

	"github.com/bflows/riskproxy/internal/versioning"
	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, record *Record) error
	FindActive(ctx context.Context, db *gorm.DB, identifier string) (*Record, error)
	DemoteActive(ctx context.Context, tx *gorm.DB, identifier string, demotedAt time.Time) error
	FindByExternalID(ctx context.Context, db *gorm.DB, externalID string) (*Record, error)
	CompleteCallback(ctx context.Context, tx *gorm.DB, id snowflake.ID, payload datatypes.JSON, statusCode int, lifecycle versioning.Lifecycle, updatedAt time.Time) error
}
