package aggregate

import (
	"context"
	"sync"

	companydomain "github.com/bflows/riskproxy/internal/companydata/domain"
	creditdomain "github.com/bflows/riskproxy/internal/creditscore/domain"
	negativedomain "github.com/bflows/riskproxy/internal/negativeevent/domain"
	"github.com/bflows/riskproxy/internal/versioning"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Request struct {
	Identifier        string
	Refresh           bool
	NotificationEmail string
}

// SourceError describes why one source of the combined report could not
// produce a value. It travels inside the report body; the report itself is
// still a success.
type SourceError struct {
	Type       string `json:"type"`
	Message    string `json:"message,omitempty"`
	StatusCode *int   `json:"status_code,omitempty"`
}

type Report struct {
	Identifier         string                 `json:"identifier"`
	CreditScore        *creditdomain.Record   `json:"credit_score,omitempty"`
	CreditScoreError   *SourceError           `json:"credit_score_error,omitempty"`
	CompanyData        *companydomain.Record  `json:"company_data,omitempty"`
	CompanyDataError   *SourceError           `json:"company_data_error,omitempty"`
	NegativeEvent      *negativedomain.Result `json:"negative_event,omitempty"`
	NegativeEventError *SourceError           `json:"negative_event_error,omitempty"`
}

type Params struct {
	fx.In

	Log      *zap.Logger
	Credit   creditdomain.Service
	Company  companydomain.Service
	Negative negativedomain.Service
}

// Service merges the three per-family lookups into one report for a subject.
// The sources run concurrently and fail independently: a broken source
// contributes an error descriptor instead of blocking the rest.
type Service struct {
	log      *zap.Logger
	credit   creditdomain.Service
	company  companydomain.Service
	negative negativedomain.Service
}

func New(p Params) *Service {
	return &Service{
		log:      p.Log.Named("aggregate.service"),
		credit:   p.Credit,
		company:  p.Company,
		negative: p.Negative,
	}
}

func (s *Service) Aggregate(ctx context.Context, req Request) Report {
	report := Report{Identifier: req.Identifier}

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		record, err := s.credit.Get(ctx, creditdomain.GetRequest{
			Identifier: req.Identifier,
			Refresh:    req.Refresh,
		})
		if err != nil {
			report.CreditScoreError = describeError(err)
			s.log.Warn("credit score source failed", zap.String("identifier", req.Identifier), zap.Error(err))
			return
		}
		if record.LifecycleStatus == versioning.LifecycleFailed {
			report.CreditScoreError = describeFailure(record.StatusCode)
			return
		}
		report.CreditScore = &record
	}()

	go func() {
		defer wg.Done()
		record, err := s.company.Get(ctx, companydomain.GetRequest{
			Identifier:        req.Identifier,
			Refresh:           req.Refresh,
			NotificationEmail: req.NotificationEmail,
		})
		if err != nil {
			report.CompanyDataError = describeError(err)
			s.log.Warn("company data source failed", zap.String("identifier", req.Identifier), zap.Error(err))
			return
		}
		if record.LifecycleStatus == versioning.LifecycleFailed {
			report.CompanyDataError = describeFailure(record.StatusCode)
			return
		}
		report.CompanyData = &record
	}()

	go func() {
		defer wg.Done()
		result, err := s.negative.Get(ctx, negativedomain.GetRequest{
			Identifier:        req.Identifier,
			Refresh:           req.Refresh,
			NotificationEmail: req.NotificationEmail,
		})
		if err != nil {
			report.NegativeEventError = describeError(err)
			s.log.Warn("negative event source failed", zap.String("identifier", req.Identifier), zap.Error(err))
			return
		}
		if result.Request.LifecycleStatus == versioning.LifecycleFailed {
			report.NegativeEventError = describeFailure(result.Request.StatusCode)
			return
		}
		report.NegativeEvent = &result
	}()

	wg.Wait()
	return report
}

func describeError(err error) *SourceError {
	return &SourceError{Type: "internal_error", Message: err.Error()}
}

func describeFailure(statusCode *int) *SourceError {
	return &SourceError{Type: "upstream_failure", StatusCode: statusCode}
}
