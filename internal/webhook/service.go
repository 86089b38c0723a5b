package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	companydomain "github.com/bflows/riskproxy/internal/companydata/domain"
	"github.com/bflows/riskproxy/internal/metrics"
	negativedomain "github.com/bflows/riskproxy/internal/negativeevent/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ErrUnknownFamily is returned when a callback targets a family this service
// does not correlate.
var ErrUnknownFamily = errors.New("unknown_family")

type Params struct {
	fx.In

	Log      *zap.Logger
	Metrics  *metrics.Metrics
	Company  companydomain.Service
	Negative negativedomain.Service
}

// Service ingests upstream webhook callbacks and routes them to the owning
// family's Correlate. Unmatched and duplicate deliveries are absorbed here:
// they are logged and counted, and the caller still acknowledges the
// upstream with a success response.
type Service struct {
	log      *zap.Logger
	metrics  *metrics.Metrics
	company  companydomain.Service
	negative negativedomain.Service
}

func New(p Params) *Service {
	return &Service{
		log:      p.Log.Named("webhook.service"),
		metrics:  p.Metrics,
		company:  p.Company,
		negative: p.Negative,
	}
}

type envelope struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// IngestCallback parses the callback payload, derives the terminal outcome
// from its status field and hands it to the family service. The error return
// distinguishes outcomes for logging and metrics only; callers answer the
// upstream with 200 regardless, except for unknown families.
func (s *Service) IngestCallback(ctx context.Context, family string, payload []byte) error {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		s.metrics.RecordWebhookCallback(family, "invalid")
		s.log.Warn("malformed webhook payload",
			zap.String("family", family),
			zap.Error(err),
		)
		return nil
	}

	succeeded := strings.EqualFold(env.Status, "COMPLETED")
	statusCode := http.StatusOK
	if !succeeded {
		statusCode = http.StatusBadGateway
	}

	var err error
	switch family {
	case companydomain.Family:
		_, err = s.company.Correlate(ctx, companydomain.CorrelateRequest{
			ExternalID: env.ID,
			Payload:    payload,
			StatusCode: statusCode,
			Succeeded:  succeeded,
		})
	case negativedomain.Family:
		_, err = s.negative.Correlate(ctx, negativedomain.CorrelateRequest{
			ExternalID: env.ID,
			Payload:    payload,
			StatusCode: statusCode,
			Succeeded:  succeeded,
		})
	default:
		return ErrUnknownFamily
	}

	switch {
	case err == nil:
		s.metrics.RecordWebhookCallback(family, "matched")
		s.log.Info("webhook correlated",
			zap.String("family", family),
			zap.String("external_id", env.ID),
			zap.Bool("succeeded", succeeded),
		)
		return nil
	case errors.Is(err, companydomain.ErrAlreadyCorrelated) || errors.Is(err, negativedomain.ErrAlreadyCorrelated):
		s.metrics.RecordWebhookCallback(family, "duplicate")
		s.log.Info("duplicate webhook delivery",
			zap.String("family", family),
			zap.String("external_id", env.ID),
		)
		return nil
	case errors.Is(err, companydomain.ErrUnmatchedCallback) || errors.Is(err, negativedomain.ErrUnmatchedCallback),
		errors.Is(err, companydomain.ErrMissingCorrelationID) || errors.Is(err, negativedomain.ErrMissingCorrelationID):
		s.metrics.RecordWebhookCallback(family, "unmatched")
		s.log.Warn("unmatched webhook delivery",
			zap.String("family", family),
			zap.String("external_id", env.ID),
		)
		return nil
	default:
		s.metrics.RecordWebhookCallback(family, "error")
		s.log.Error("webhook correlation failed",
			zap.String("family", family),
			zap.String("external_id", env.ID),
			zap.Error(err),
		)
		return err
	}
}
