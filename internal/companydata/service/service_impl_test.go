package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/bflows/riskproxy/internal/clock"
	"github.com/bflows/riskproxy/internal/companydata/domain"
	"github.com/bflows/riskproxy/internal/companydata/repository"
	"github.com/bflows/riskproxy/internal/config"
	"github.com/bflows/riskproxy/internal/notification"
	"github.com/bflows/riskproxy/internal/upstream"
	"github.com/bflows/riskproxy/internal/versioning"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type upstreamStub struct {
	mu       sync.Mutex
	calls    int
	lastCb   upstream.CallbackConfig
	response upstream.Response
	err      error
}

func (u *upstreamStub) CreditScore(context.Context, string) (upstream.Response, error) {
	return upstream.Response{}, errors.New("not implemented")
}

func (u *upstreamStub) CompanyFull(ctx context.Context, identifier string, cb upstream.CallbackConfig) (upstream.Response, error) {
	u.mu.Lock()
	u.calls++
	u.lastCb = cb
	u.mu.Unlock()
	if u.err != nil {
		return upstream.Response{}, u.err
	}
	return u.response, nil
}

func (u *upstreamStub) NegativeEvent(context.Context, string, upstream.CallbackConfig) (upstream.Response, error) {
	return upstream.Response{}, errors.New("not implemented")
}

type dispatcherStub struct {
	mu      sync.Mutex
	notices []notification.Notice
}

func (d *dispatcherStub) Dispatch(n notification.Notice) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.notices = append(d.notices, n)
}

func (d *dispatcherStub) Notices() []notification.Notice {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]notification.Notice, len(d.notices))
	copy(out, d.notices)
	return out
}

func setupService(t *testing.T, stub *upstreamStub) (domain.Service, *gorm.DB, *dispatcherStub) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Record{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	notifier := &dispatcherStub{}
	svc := New(Params{
		DB:       db,
		Log:      zap.NewNop(),
		Cfg:      config.Config{PublicBaseURL: "https://proxy.example.com"},
		GenID:    node,
		Clock:    clock.NewFakeClock(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)),
		Upstream: stub,
		Repo:     repository.Provide(),
		Notifier: notifier,
	})

	return svc, db, notifier
}

func acceptedStub() *upstreamStub {
	return &upstreamStub{
		response: upstream.Response{
			StatusCode: 202,
			Body:       []byte(`{"data": {"id": "ext-42"}}`),
		},
	}
}

func TestGetCreatesPendingRecordWithCorrelationID(t *testing.T) {
	stub := acceptedStub()
	svc, _, _ := setupService(t, stub)

	record, err := svc.Get(context.Background(), domain.GetRequest{
		Identifier:        "IT-0001",
		NotificationEmail: "ops@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, versioning.LifecyclePending, record.LifecycleStatus)
	assert.Equal(t, "ext-42", record.ExternalID)
	assert.Equal(t, "ops@example.com", record.NotificationEmail)

	assert.Equal(t, "https://proxy.example.com/webhook/company-full", stub.lastCb.URL)
	assert.Equal(t, "POST", stub.lastCb.Method)
	assert.NotEmpty(t, stub.lastCb.Headers["session_id"])
}

func TestGetReusesPendingActiveRecord(t *testing.T) {
	stub := acceptedStub()
	svc, _, _ := setupService(t, stub)
	ctx := context.Background()

	first, err := svc.Get(ctx, domain.GetRequest{Identifier: "IT-0001"})
	require.NoError(t, err)

	second, err := svc.Get(ctx, domain.GetRequest{Identifier: "IT-0001"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, stub.calls)
}

func TestGetFailsWhenResponseMissingCorrelationID(t *testing.T) {
	stub := &upstreamStub{response: upstream.Response{StatusCode: 202, Body: []byte(`{"data": {}}`)}}
	svc, _, _ := setupService(t, stub)

	record, err := svc.Get(context.Background(), domain.GetRequest{Identifier: "IT-0001"})
	require.NoError(t, err)
	assert.Equal(t, versioning.LifecycleFailed, record.LifecycleStatus)
	assert.Empty(t, record.ExternalID)
}

func TestGetStoresTransportFailure(t *testing.T) {
	stub := &upstreamStub{err: errors.New("connection refused")}
	svc, _, _ := setupService(t, stub)

	record, err := svc.Get(context.Background(), domain.GetRequest{Identifier: "IT-0001"})
	require.NoError(t, err)
	assert.Equal(t, versioning.LifecycleFailed, record.LifecycleStatus)
	require.NotNil(t, record.StatusCode)
	assert.Equal(t, http.StatusBadGateway, *record.StatusCode)
}

func TestCorrelateCompletesPendingRecordOnce(t *testing.T) {
	svc, db, notifier := setupService(t, acceptedStub())
	ctx := context.Background()

	created, err := svc.Get(ctx, domain.GetRequest{
		Identifier:        "IT-0001",
		NotificationEmail: "ops@example.com",
	})
	require.NoError(t, err)

	correlated, err := svc.Correlate(ctx, domain.CorrelateRequest{
		ExternalID: "ext-42",
		Payload:    []byte(`{"id": "ext-42", "status": "COMPLETED"}`),
		StatusCode: 200,
		Succeeded:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, correlated.ID)
	assert.Equal(t, versioning.LifecycleCompleted, correlated.LifecycleStatus)
	require.NotNil(t, correlated.UpdatedAt)

	var stored domain.Record
	require.NoError(t, db.First(&stored, "id = ?", created.ID).Error)
	assert.Equal(t, versioning.LifecycleCompleted, stored.LifecycleStatus)

	notices := notifier.Notices()
	require.Len(t, notices, 1)
	assert.Equal(t, domain.Family, notices[0].Family)
	assert.Equal(t, "ops@example.com", notices[0].Address)
	assert.Equal(t, versioning.LifecycleCompleted, notices[0].Lifecycle)

	// The identical delivery again is a no-op: no state change, no second
	// notification.
	_, err = svc.Correlate(ctx, domain.CorrelateRequest{
		ExternalID: "ext-42",
		Payload:    []byte(`{"id": "ext-42", "status": "COMPLETED"}`),
		StatusCode: 200,
		Succeeded:  true,
	})
	require.ErrorIs(t, err, domain.ErrAlreadyCorrelated)
	assert.Len(t, notifier.Notices(), 1)
}

func TestCorrelateFailureMarksRecordFailed(t *testing.T) {
	svc, _, notifier := setupService(t, acceptedStub())
	ctx := context.Background()

	_, err := svc.Get(ctx, domain.GetRequest{Identifier: "IT-0001"})
	require.NoError(t, err)

	correlated, err := svc.Correlate(ctx, domain.CorrelateRequest{
		ExternalID: "ext-42",
		Payload:    []byte(`{"id": "ext-42", "status": "FAILED"}`),
		StatusCode: http.StatusBadGateway,
		Succeeded:  false,
	})
	require.NoError(t, err)
	assert.Equal(t, versioning.LifecycleFailed, correlated.LifecycleStatus)

	notices := notifier.Notices()
	require.Len(t, notices, 1)
	assert.Equal(t, versioning.LifecycleFailed, notices[0].Lifecycle)
}

func TestCorrelateUnmatchedTouchesNothing(t *testing.T) {
	svc, db, notifier := setupService(t, acceptedStub())
	ctx := context.Background()

	created, err := svc.Get(ctx, domain.GetRequest{Identifier: "IT-0001"})
	require.NoError(t, err)

	_, err = svc.Correlate(ctx, domain.CorrelateRequest{
		ExternalID: "unknown-id",
		Payload:    []byte(`{"id": "unknown-id", "status": "COMPLETED"}`),
		StatusCode: 200,
		Succeeded:  true,
	})
	require.ErrorIs(t, err, domain.ErrUnmatchedCallback)

	var stored domain.Record
	require.NoError(t, db.First(&stored, "id = ?", created.ID).Error)
	assert.Equal(t, versioning.LifecyclePending, stored.LifecycleStatus)
	assert.Empty(t, notifier.Notices())
}

func TestCorrelateRejectsMissingCorrelationID(t *testing.T) {
	svc, _, _ := setupService(t, acceptedStub())

	_, err := svc.Correlate(context.Background(), domain.CorrelateRequest{ExternalID: "  "})
	require.ErrorIs(t, err, domain.ErrMissingCorrelationID)
}

// racingRepo completes the record on a separate connection right before the
// caller's own guarded update runs, reproducing a duplicate delivery slipping
// in between the terminal-state read and the update.
type racingRepo struct {
	domain.Repository
	db *gorm.DB
}

func (r *racingRepo) CompleteCallback(ctx context.Context, tx *gorm.DB, id snowflake.ID, payload datatypes.JSON, statusCode int, lifecycle versioning.Lifecycle, updatedAt time.Time) error {
	if err := r.Repository.CompleteCallback(ctx, r.db, id, payload, statusCode, lifecycle, updatedAt); err != nil {
		return err
	}
	return r.Repository.CompleteCallback(ctx, tx, id, payload, statusCode, lifecycle, updatedAt)
}

func TestCorrelateLostRaceSkipsNotification(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Record{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	notifier := &dispatcherStub{}
	svc := New(Params{
		DB:       db,
		Log:      zap.NewNop(),
		Cfg:      config.Config{PublicBaseURL: "https://proxy.example.com"},
		GenID:    node,
		Clock:    clock.NewFakeClock(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)),
		Upstream: acceptedStub(),
		Repo:     &racingRepo{Repository: repository.Provide(), db: db},
		Notifier: notifier,
	})

	ctx := context.Background()
	_, err = svc.Get(ctx, domain.GetRequest{
		Identifier:        "IT-0001",
		NotificationEmail: "ops@example.com",
	})
	require.NoError(t, err)

	correlated, err := svc.Correlate(ctx, domain.CorrelateRequest{
		ExternalID: "ext-42",
		Payload:    []byte(`{"id": "ext-42", "status": "COMPLETED"}`),
		StatusCode: 200,
		Succeeded:  true,
	})
	require.ErrorIs(t, err, domain.ErrAlreadyCorrelated)
	assert.Equal(t, versioning.LifecycleCompleted, correlated.LifecycleStatus)
	assert.Empty(t, notifier.Notices())
}
