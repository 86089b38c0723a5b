package aggregate

import (
	"context"
	"errors"
	"testing"

	companydomain "github.com/bflows/riskproxy/internal/companydata/domain"
	creditdomain "github.com/bflows/riskproxy/internal/creditscore/domain"
	negativedomain "github.com/bflows/riskproxy/internal/negativeevent/domain"
	"github.com/bflows/riskproxy/internal/versioning"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type creditStub struct {
	record creditdomain.Record
	err    error
}

func (c *creditStub) Get(context.Context, creditdomain.GetRequest) (creditdomain.Record, error) {
	return c.record, c.err
}

type companyStub struct {
	record companydomain.Record
	err    error
}

func (c *companyStub) Get(context.Context, companydomain.GetRequest) (companydomain.Record, error) {
	return c.record, c.err
}

func (c *companyStub) Correlate(context.Context, companydomain.CorrelateRequest) (companydomain.Record, error) {
	return companydomain.Record{}, errors.New("not implemented")
}

type negativeStub struct {
	result negativedomain.Result
	err    error
}

func (n *negativeStub) Get(context.Context, negativedomain.GetRequest) (negativedomain.Result, error) {
	return n.result, n.err
}

func (n *negativeStub) Correlate(context.Context, negativedomain.CorrelateRequest) (negativedomain.Result, error) {
	return negativedomain.Result{}, errors.New("not implemented")
}

func intPtr(v int) *int {
	return &v
}

func TestAggregateMergesPartialFailure(t *testing.T) {
	credit := &creditStub{record: creditdomain.Record{
		Identifier:      "12345678901",
		StatusCode:      intPtr(200),
		LifecycleStatus: versioning.LifecycleCompleted,
		VersionStatus:   versioning.StatusActive,
	}}
	company := &companyStub{record: companydomain.Record{
		Identifier:      "12345678901",
		StatusCode:      intPtr(503),
		LifecycleStatus: versioning.LifecycleFailed,
		VersionStatus:   versioning.StatusActive,
	}}
	negative := &negativeStub{result: negativedomain.Result{
		Request: negativedomain.Record{
			Identifier:      "12345678901",
			LifecycleStatus: versioning.LifecyclePending,
			VersionStatus:   versioning.StatusActive,
		},
	}}

	svc := New(Params{Log: zap.NewNop(), Credit: credit, Company: company, Negative: negative})
	report := svc.Aggregate(context.Background(), Request{Identifier: "12345678901"})

	assert.Equal(t, "12345678901", report.Identifier)

	require.NotNil(t, report.CreditScore)
	assert.Equal(t, 200, *report.CreditScore.StatusCode)
	assert.Nil(t, report.CreditScoreError)

	assert.Nil(t, report.CompanyData)
	require.NotNil(t, report.CompanyDataError)
	assert.Equal(t, "upstream_failure", report.CompanyDataError.Type)
	require.NotNil(t, report.CompanyDataError.StatusCode)
	assert.Equal(t, 503, *report.CompanyDataError.StatusCode)

	require.NotNil(t, report.NegativeEvent)
	assert.Equal(t, versioning.LifecyclePending, report.NegativeEvent.Request.LifecycleStatus)
	assert.Nil(t, report.NegativeEventError)
}

func TestAggregateCapturesSourceErrors(t *testing.T) {
	credit := &creditStub{err: errors.New("db down")}
	company := &companyStub{record: companydomain.Record{
		Identifier:      "12345678901",
		LifecycleStatus: versioning.LifecycleCompleted,
	}}
	negative := &negativeStub{result: negativedomain.Result{
		Request: negativedomain.Record{
			Identifier:      "12345678901",
			LifecycleStatus: versioning.LifecycleCompleted,
		},
	}}

	svc := New(Params{Log: zap.NewNop(), Credit: credit, Company: company, Negative: negative})
	report := svc.Aggregate(context.Background(), Request{Identifier: "12345678901"})

	assert.Nil(t, report.CreditScore)
	require.NotNil(t, report.CreditScoreError)
	assert.Equal(t, "internal_error", report.CreditScoreError.Type)
	assert.Equal(t, "db down", report.CreditScoreError.Message)

	require.NotNil(t, report.CompanyData)
	require.NotNil(t, report.NegativeEvent)
}
