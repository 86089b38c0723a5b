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

type CorrelateRequest struct {
	ExternalID string
	Payload    []byte
	StatusCode int
	Succeeded  bool
}

type Service interface {
	Get(context.Context, GetRequest) (Result, error)
	Correlate(context.Context, CorrelateRequest) (Result, error)
}

var (
	ErrInvalidIdentifier    = errors.New("invalid_identifier")
	ErrMissingCorrelationID = errors.New("missing_correlation_id")
	ErrUnmatchedCallback    = errors.New("unmatched_callback")
	ErrAlreadyCorrelated    = errors.New("already_correlated")
)
