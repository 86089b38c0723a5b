package server

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bflows/riskproxy/internal/aggregate"
	companydomain "github.com/bflows/riskproxy/internal/companydata/domain"
	"github.com/bflows/riskproxy/internal/config"
	creditdomain "github.com/bflows/riskproxy/internal/creditscore/domain"
	negativedomain "github.com/bflows/riskproxy/internal/negativeevent/domain"
	"github.com/bflows/riskproxy/internal/versioning"
	"github.com/bflows/riskproxy/internal/webhook"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCreditService struct {
	record creditdomain.Record
	err    error
}

func (f *fakeCreditService) Get(context.Context, creditdomain.GetRequest) (creditdomain.Record, error) {
	return f.record, f.err
}

type fakeCompanyService struct {
	correlateErr error
	correlated   int
}

func (f *fakeCompanyService) Get(context.Context, companydomain.GetRequest) (companydomain.Record, error) {
	return companydomain.Record{}, errors.New("not implemented")
}

func (f *fakeCompanyService) Correlate(context.Context, companydomain.CorrelateRequest) (companydomain.Record, error) {
	f.correlated++
	return companydomain.Record{}, f.correlateErr
}

type fakeNegativeService struct {
	correlateErr error
}

func (f *fakeNegativeService) Get(context.Context, negativedomain.GetRequest) (negativedomain.Result, error) {
	return negativedomain.Result{}, errors.New("not implemented")
}

func (f *fakeNegativeService) Correlate(context.Context, negativedomain.CorrelateRequest) (negativedomain.Result, error) {
	return negativedomain.Result{}, f.correlateErr
}

func newTestServer(t *testing.T, credit *fakeCreditService, company *fakeCompanyService, negative *fakeNegativeService) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := zap.NewNop()
	webhookSvc := webhook.New(webhook.Params{
		Log:      log,
		Company:  company,
		Negative: negative,
	})
	aggregateSvc := aggregate.New(aggregate.Params{
		Log:      log,
		Credit:   credit,
		Company:  company,
		Negative: negative,
	})

	return NewServer(ServerParams{
		Gin:          NewEngine(log),
		Cfg:          config.Config{},
		Log:          log,
		CreditSvc:    credit,
		CompanySvc:   company,
		NegativeSvc:  negative,
		WebhookSvc:   webhookSvc,
		AggregateSvc: aggregateSvc,
	})
}

func postWebhook(srv *Server, path, payload string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)
	return rec
}

func TestWebhookMatchedReturns200(t *testing.T) {
	company := &fakeCompanyService{}
	srv := newTestServer(t, &fakeCreditService{}, company, &fakeNegativeService{})

	rec := postWebhook(srv, "/webhook/company-full", `{"id": "ext-42", "status": "COMPLETED"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, company.correlated)
}

func TestWebhookUnmatchedStillReturns200(t *testing.T) {
	company := &fakeCompanyService{correlateErr: companydomain.ErrUnmatchedCallback}
	srv := newTestServer(t, &fakeCreditService{}, company, &fakeNegativeService{})

	rec := postWebhook(srv, "/webhook/company-full", `{"id": "nobody", "status": "COMPLETED"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWebhookDuplicateStillReturns200(t *testing.T) {
	negative := &fakeNegativeService{correlateErr: negativedomain.ErrAlreadyCorrelated}
	srv := newTestServer(t, &fakeCreditService{}, &fakeCompanyService{}, negative)

	rec := postWebhook(srv, "/webhook/negative-event", `{"id": "neg-7", "status": "COMPLETED"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWebhookStorageErrorReturns500(t *testing.T) {
	company := &fakeCompanyService{correlateErr: errors.New("db down")}
	srv := newTestServer(t, &fakeCreditService{}, company, &fakeNegativeService{})

	rec := postWebhook(srv, "/webhook/company-full", `{"id": "ext-42", "status": "COMPLETED"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGetCreditScoreMapsInvalidIdentifier(t *testing.T) {
	credit := &fakeCreditService{err: creditdomain.ErrInvalidIdentifier}
	srv := newTestServer(t, credit, &fakeCompanyService{}, &fakeNegativeService{})

	req := httptest.NewRequest(http.MethodGet, "/credit-score/%20", nil)
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetCompanyReportAlwaysSucceeds(t *testing.T) {
	status := 200
	credit := &fakeCreditService{record: creditdomain.Record{
		Identifier:      "12345678901",
		StatusCode:      &status,
		LifecycleStatus: versioning.LifecycleCompleted,
	}}
	srv := newTestServer(t, credit, &fakeCompanyService{}, &fakeNegativeService{})

	req := httptest.NewRequest(http.MethodGet, "/company-report/12345678901", nil)
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "credit_score")
	// The broken sources are reported inside the body, not as a failure.
	assert.Contains(t, rec.Body.String(), "internal_error")
}
