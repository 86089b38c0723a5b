// Package versioning implements the versioned-record lifecycle shared by all
// record families: at most one ACTIVE version exists per subject, and
// replacing it demotes the previous ACTIVE row and inserts the new one in a
// single transaction.
package versioning

import (
	"context"
	"time"

	"github.com/bflows/riskproxy/pkg/db"
	"gorm.io/gorm"
)

type VersionStatus string

const (
	StatusActive   VersionStatus = "ACTIVE"
	StatusInactive VersionStatus = "INACTIVE"
)

type Lifecycle string

const (
	LifecyclePending   Lifecycle = "PENDING"
	LifecycleCompleted Lifecycle = "COMPLETED"
	LifecycleFailed    Lifecycle = "FAILED"
)

func (l Lifecycle) Terminal() bool {
	return l == LifecycleCompleted || l == LifecycleFailed
}

// Version is the view of a stored record the resolver needs.
type Version interface {
	Lifecycle() Lifecycle
}

// Store demotes the current ACTIVE version of a subject within a family.
type Store interface {
	DemoteActive(ctx context.Context, tx *gorm.DB, subject string, demotedAt time.Time) error
}

// Reusable reports whether an existing ACTIVE version satisfies a lookup.
// A FAILED version is never reused; a forced refresh always replaces.
// Callers holding a concrete record pointer must nil-check it before
// converting to Version: a typed nil wrapped in the interface does not
// compare equal to nil here.
func Reusable(v Version, forceRefresh bool) bool {
	if v == nil || forceRefresh {
		return false
	}
	return v.Lifecycle() != LifecycleFailed
}

// Replace atomically demotes the current ACTIVE version for subject (if any)
// and runs create, which must insert the new ACTIVE version. A concurrent
// Replace for the same subject is not serialized beyond transaction
// isolation: whichever commit lands last owns the ACTIVE pointer. When the
// unique ACTIVE index rejects the insert because another writer committed in
// between, the whole demote+create is retried once so the later write wins.
func Replace(ctx context.Context, gdb *gorm.DB, store Store, subject string, demotedAt time.Time, create func(tx *gorm.DB) error) error {
	err := replaceOnce(ctx, gdb, store, subject, demotedAt, create)
	if db.IsDuplicateKeyErr(err) {
		return replaceOnce(ctx, gdb, store, subject, demotedAt, create)
	}
	return err
}

func replaceOnce(ctx context.Context, gdb *gorm.DB, store Store, subject string, demotedAt time.Time, create func(tx *gorm.DB) error) error {
	return gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := store.DemoteActive(ctx, tx, subject, demotedAt); err != nil {
			return err
		}
		return create(tx)
	})
}
