package domain

import (
	"context"
	"errors"
)

type GetRequest struct {
	Identifier string
	Refresh    bool
}

type Service interface {
	Get(context.Context, GetRequest) (Record, error)
}

var (
	ErrInvalidIdentifier = errors.New("invalid_identifier")
)
