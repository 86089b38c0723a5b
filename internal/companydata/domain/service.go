package domain

import (
	"context"
	"errors"
)

type GetRequest struct {
	Identifier        string
	Refresh           bool
	NotificationEmail string
}

// CorrelateRequest carries a webhook callback matched against a PENDING
// record by its external correlation id.
type CorrelateRequest struct {
	ExternalID string
	Payload    []byte
	StatusCode int
	Succeeded  bool
}

type Service interface {
	Get(context.Context, GetRequest) (Record, error)
	Correlate(context.Context, CorrelateRequest) (Record, error)
}

var (
	ErrInvalidIdentifier    = errors.New("invalid_identifier")
	ErrMissingCorrelationID = errors.New("missing_correlation_id")
	ErrUnmatchedCallback    = errors.New("unmatched_callback")
	ErrAlreadyCorrelated    = errors.New("already_correlated")
)
