package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/bflows/riskproxy/internal/clock"
	"github.com/bflows/riskproxy/internal/config"
	"github.com/bflows/riskproxy/internal/negativeevent/domain"
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
		log:      p.Log.Named("negativeevent.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		upstream: p.Upstream,
		repo:     p.Repo,
		notifier: p.Notifier,
		cbURL:    p.Cfg.PublicBaseURL + "/webhook/negative-event",
	}
}

// Get returns the ACTIVE negative-event check for the identifier together
// with its detail, if one has been correlated. On a cache miss, forced
// refresh, or a previously FAILED ACTIVE record it starts a new asynchronous
// upstream check and stores it PENDING.
func (s *Service) Get(ctx context.Context, req domain.GetRequest) (domain.Result, error) {
	identifier := strings.TrimSpace(req.Identifier)
	if identifier == "" {
		return domain.Result{}, domain.ErrInvalidIdentifier
	}

	active, err := s.repo.FindActive(ctx, s.db, identifier)
	if err != nil {
		return domain.Result{}, err
	}
	if active != nil && versioning.Reusable(active, req.Refresh) {
		detail, err := s.repo.FindDetailByRequestID(ctx, s.db, active.ID)
		if err != nil {
			return domain.Result{}, err
		}
		return domain.Result{Request: *active, Detail: detail}, nil
	}

	cb := upstream.CallbackConfig{
		URL:     s.cbURL,
		Method:  "POST",
		Field:   "data",
		Headers: map[string]string{"session_id": sessionID()},
	}
	requestPayload, err := json.Marshal(map[string]any{
		"cf_piva":  identifier,
		"callback": cb,
	})
	if err != nil {
		return domain.Result{}, err
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

	resp, callErr := s.upstream.NegativeEvent(ctx, identifier, cb)
	switch {
	case callErr != nil:
		status := http.StatusBadGateway
		record.StatusCode = &status
		record.LifecycleStatus = versioning.LifecycleFailed
		record.ResponsePayload = upstream.ErrorBody(callErr)
		s.log.Warn("negative event request failed",
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
			s.log.Warn("negative event response missing correlation id",
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
		return domain.Result{}, err
	}

	return domain.Result{Request: record}, nil
}

// Correlate matches a webhook callback to its PENDING record, moves it to a
// terminal state and, when the callback reports success, extracts the
// presence flags into a detail row written in the same transaction. Duplicate
// deliveries find the record already terminal and are reported as
// ErrAlreadyCorrelated without a second detail or notification.
func (s *Service) Correlate(ctx context.Context, req domain.CorrelateRequest) (domain.Result, error) {
	externalID := strings.TrimSpace(req.ExternalID)
	if externalID == "" {
		return domain.Result{}, domain.ErrMissingCorrelationID
	}

	record, err := s.repo.FindByExternalID(ctx, s.db, externalID)
	if err != nil {
		return domain.Result{}, err
	}
	if record == nil {
		return domain.Result{}, domain.ErrUnmatchedCallback
	}
	if record.LifecycleStatus.Terminal() {
		detail, derr := s.repo.FindDetailByRequestID(ctx, s.db, record.ID)
		if derr != nil {
			return domain.Result{}, derr
		}
		return domain.Result{Request: *record, Detail: detail}, domain.ErrAlreadyCorrelated
	}

	lifecycle := versioning.LifecycleCompleted
	if !req.Succeeded {
		lifecycle = versioning.LifecycleFailed
	}
	payload := upstream.JSONBody(req.Payload)
	now := s.clock.Now()

	var detail *domain.Detail
	if req.Succeeded {
		flags, detailPayload := extractFlags(req.Payload)
		status := req.StatusCode
		detail = &domain.Detail{
			ID:                      s.genID.Generate(),
			RequestID:               record.ID,
			DetailPayload:           upstream.JSONBody(detailPayload),
			PresenceProtesti:        flags.Protesti,
			PresenceProcedure:       flags.Procedure,
			PresencePregiudizievoli: flags.Pregiudizievoli,
			StatusCode:              &status,
			CreatedAt:               now,
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.CompleteCallback(ctx, tx, record.ID, payload, req.StatusCode, lifecycle, now); err != nil {
			return err
		}
		if detail != nil {
			return s.repo.InsertDetail(ctx, tx, detail)
		}
		return nil
	})
	if errors.Is(err, domain.ErrAlreadyCorrelated) {
		// Another delivery won the race between our terminal-state read and
		// the update. The transaction rolled back, so no second detail row
		// was written; skip the notification too.
		fresh, ferr := s.repo.FindByExternalID(ctx, s.db, externalID)
		if ferr != nil || fresh == nil {
			return domain.Result{}, domain.ErrAlreadyCorrelated
		}
		existing, derr := s.repo.FindDetailByRequestID(ctx, s.db, fresh.ID)
		if derr != nil {
			return domain.Result{}, domain.ErrAlreadyCorrelated
		}
		return domain.Result{Request: *fresh, Detail: existing}, domain.ErrAlreadyCorrelated
	}
	if err != nil {
		return domain.Result{}, err
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

	return domain.Result{Request: *record, Detail: detail}, nil
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

type presenceFlags struct {
	Protesti        bool `json:"presenzaProtesti"`
	Procedure       bool `json:"presenzaProcedure"`
	Pregiudizievoli bool `json:"presenzaPregiudizievoli"`
}

// extractFlags pulls the presence flags out of the callback's data object.
// Absent or malformed fields read as false rather than failing the
// correlation.
func extractFlags(payload []byte) (presenceFlags, []byte) {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil || len(envelope.Data) == 0 {
		return presenceFlags{}, payload
	}
	var flags presenceFlags
	_ = json.Unmarshal(envelope.Data, &flags)
	return flags, envelope.Data
}
