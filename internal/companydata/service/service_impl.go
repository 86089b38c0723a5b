package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/bflows/riskproxy/internal/clock"
	"github.com/bflows/riskproxy/internal/companydata/domain"
	"github.com/bflows/riskproxy/internal/config"
	"github.com/bflows/riskproxy/internal/notification"
	"github.com/bflows/riskproxy/internal/upstream"
	"github.com/bflows/riskproxy/internal/versioning"
	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Cfg      config.Config
	GenID    *snowflake.Node
	Clock    clock.Clock
	Upstream upstream.Client
	Repo     domain.Repository
	Notifier notification.Dispatcher
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	upstream upstream.Client
	repo     domain.Repository
	notifier notification.Dispatcher
	cbURL    string
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("companydata.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		upstream: p.Upstream,
		repo:     p.Repo,
		notifier: p.Notifier,
		cbURL:    p.Cfg.PublicBaseURL + "/webhook/company-full",
	}
}

// Get returns the ACTIVE full-company-data record for the identifier. On a
// cache miss, forced refresh, or a previously FAILED ACTIVE record it starts
// a new upstream request and stores it PENDING, keyed by the correlation id
// the upstream returns.
func (s *Service) Get(ctx context.Context, req domain.GetRequest) (domain.Record, error) {
	identifier := strings.TrimSpace(req.Identifier)
	if identifier == "" {
		return domain.Record{}, domain.ErrInvalidIdentifier
	}

	active, err := s.repo.FindActive(ctx, s.db, identifier)
	if err != nil {
		return domain.Record{}, err
	}
	if active != nil && versioning.Reusable(active, req.Refresh) {
		return *active, nil
	}

	cb := upstream.CallbackConfig{
		URL:     s.cbURL,
		Method:  "POST",
		Field:   "data",
		Headers: map[string]string{"session_id": sessionID()},
	}
	requestPayload, err := json.Marshal(map[string]any{"callback": cb})
	if err != nil {
		return domain.Record{}, err
	}

	record := domain.Record{
		ID:                s.genID.Generate(),
		Identifier:        identifier,
		RequestPayload:    requestPayload,
		NotificationEmail: strings.TrimSpace(req.NotificationEmail),
		LifecycleStatus:   versioning.LifecyclePending,
		VersionStatus:     versioning.StatusActive,
		CreatedAt:         s.clock.Now(),
	}

	resp, callErr := s.upstream.CompanyFull(ctx, identifier, cb)
	switch {
	case callErr != nil:
		status := http.StatusBadGateway
		record.StatusCode = &status
		record.LifecycleStatus = versioning.LifecycleFailed
		record.ResponsePayload = upstream.ErrorBody(callErr)
		s.log.Warn("company data request failed",
			zap.String("identifier", identifier),
			zap.Error(callErr),
		)
	case !resp.Success():
		status := resp.StatusCode
		record.StatusCode = &status
		record.LifecycleStatus = versioning.LifecycleFailed
		record.ResponsePayload = upstream.JSONBody(resp.Body)
	default:
		status := resp.StatusCode
		record.StatusCode = &status
		record.ResponsePayload = upstream.JSONBody(resp.Body)
		externalID := extractExternalID(resp.Body)
		if externalID == "" {
			record.LifecycleStatus = versioning.LifecycleFailed
			s.log.Warn("company data response missing correlation id",
				zap.String("identifier", identifier),
			)
		} else {
			record.ExternalID = externalID
		}
	}

	err = versioning.Replace(ctx, s.db, s.repo, identifier, s.clock.Now(), func(tx *gorm.DB) error {
		return s.repo.Insert(ctx, tx, &record)
	})
	if err != nil {
		return domain.Record{}, err
	}

	return record, nil
}

// Correlate matches a webhook callback to its PENDING record and moves it to
// a terminal state. A duplicate delivery finds the record already terminal
// and is reported as ErrAlreadyCorrelated without touching storage or firing
// a second notification.
func (s *Service) Correlate(ctx context.Context, req domain.CorrelateRequest) (domain.Record, error) {
	externalID := strings.TrimSpace(req.ExternalID)
	if externalID == "" {
		return domain.Record{}, domain.ErrMissingCorrelationID
	}

	record, err := s.repo.FindByExternalID(ctx, s.db, externalID)
	if err != nil {
		return domain.Record{}, err
	}
	if record == nil {
		return domain.Record{}, domain.ErrUnmatchedCallback
	}
	if record.LifecycleStatus.Terminal() {
		return *record, domain.ErrAlreadyCorrelated
	}

	lifecycle := versioning.LifecycleCompleted
	if !req.Succeeded {
		lifecycle = versioning.LifecycleFailed
	}
	payload := upstream.JSONBody(req.Payload)
	now := s.clock.Now()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.CompleteCallback(ctx, tx, record.ID, payload, req.StatusCode, lifecycle, now)
	})
	if errors.Is(err, domain.ErrAlreadyCorrelated) {
		// Another delivery won the race between our terminal-state read and
		// the update. Treat it like any other duplicate: no notification.
		fresh, ferr := s.repo.FindByExternalID(ctx, s.db, externalID)
		if ferr != nil || fresh == nil {
			return domain.Record{}, domain.ErrAlreadyCorrelated
		}
		return *fresh, domain.ErrAlreadyCorrelated
	}
	if err != nil {
		return domain.Record{}, err
	}

	record.CallbackPayload = payload
	record.StatusCode = &req.StatusCode
	record.LifecycleStatus = lifecycle
	record.UpdatedAt = &now

	s.notifier.Dispatch(notification.Notice{
		Family:     domain.Family,
		Identifier: record.Identifier,
		Address:    record.NotificationEmail,
		Lifecycle:  lifecycle,
	})

	return *record, nil
}

func sessionID() string {
	return "bflows_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}

func extractExternalID(body []byte) string {
	var envelope struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	return strings.TrimSpace(envelope.Data.ID)
}
