package service

import (
	"context"
	"net/http"
	"strings"

	"github.com/bflows/riskproxy/internal/clock"
	"github.com/bflows/riskproxy/internal/creditscore/domain"
	"github.com/bflows/riskproxy/internal/upstream"
	"github.com/bflows/riskproxy/internal/versioning"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Upstream upstream.Client
	Repo     domain.Repository
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	upstream upstream.Client
	repo     domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("creditscore.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		upstream: p.Upstream,
		repo:     p.Repo,
	}
}

// Get returns the ACTIVE credit-score record for the identifier, fetching a
// new version from the upstream on a cache miss, a forced refresh, or when
// the ACTIVE record previously failed. Upstream failures are captured into
// the stored record rather than raised.
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

	record := domain.Record{
		ID:              s.genID.Generate(),
		Identifier:      identifier,
		LifecycleStatus: versioning.LifecycleCompleted,
		VersionStatus:   versioning.StatusActive,
		CreatedAt:       s.clock.Now(),
	}

	resp, callErr := s.upstream.CreditScore(ctx, identifier)
	if callErr != nil {
		status := http.StatusBadGateway
		record.StatusCode = &status
		record.LifecycleStatus = versioning.LifecycleFailed
		record.ResponsePayload = upstream.ErrorBody(callErr)
		s.log.Warn("credit score fetch failed",
			zap.String("identifier", identifier),
			zap.Error(callErr),
		)
	} else {
		status := resp.StatusCode
		record.StatusCode = &status
		record.ResponsePayload = upstream.JSONBody(resp.Body)
		if !resp.Success() {
			record.LifecycleStatus = versioning.LifecycleFailed
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
