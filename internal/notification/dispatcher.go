package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bflows/riskproxy/internal/config"
	"github.com/bflows/riskproxy/internal/metrics"
	"github.com/bflows/riskproxy/internal/providers/email"
	"github.com/bflows/riskproxy/internal/versioning"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Notice describes a completed request cycle worth notifying about.
type Notice struct {
	Family     string
	Identifier string
	Address    string
	Lifecycle  versioning.Lifecycle
}

// Dispatcher hands off notifications without blocking the caller. Delivery
// is best-effort: transport failures are logged, never retried, and never
// surfaced to the webhook path.
type Dispatcher interface {
	Dispatch(n Notice)
}

type Params struct {
	fx.In

	Log      *zap.Logger
	Cfg      config.Config
	Provider email.Provider
	Metrics  *metrics.Metrics `optional:"true"`
}

type Service struct {
	log              *zap.Logger
	provider         email.Provider
	metrics          *metrics.Metrics
	defaultRecipient string
	queue            chan Notice
	stop             chan struct{}
	done             chan struct{}
}

func New(p Params) *Service {
	size := p.Cfg.Email.QueueSize
	if size <= 0 {
		size = 256
	}
	return &Service{
		log:              p.Log.Named("notification.dispatcher"),
		provider:         p.Provider,
		metrics:          p.Metrics,
		defaultRecipient: p.Cfg.Email.DefaultRecipient,
		queue:            make(chan Notice, size),
		stop:             make(chan struct{}),
		done:             make(chan struct{}),
	}
}

func (s *Service) Dispatch(n Notice) {
	n.Address = strings.TrimSpace(n.Address)
	if n.Address == "" {
		n.Address = s.defaultRecipient
	}
	if n.Address == "" {
		// No destination configured anywhere: not an error.
		s.log.Debug("notification skipped, no recipient",
			zap.String("family", n.Family),
			zap.String("identifier", n.Identifier),
		)
		s.metrics.RecordNotification("skipped")
		return
	}

	select {
	case s.queue <- n:
	default:
		s.log.Warn("notification queue full, dropping",
			zap.String("family", n.Family),
			zap.String("identifier", n.Identifier),
		)
		s.metrics.RecordNotification("dropped")
	}
}

func (s *Service) run() {
	defer close(s.done)
	for {
		select {
		case n := <-s.queue:
			s.send(n)
		case <-s.stop:
			return
		}
	}
}

func (s *Service) send(n Notice) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	subject, body := compose(n)
	if err := s.provider.Send(ctx, []string{n.Address}, subject, body); err != nil {
		s.log.Error("notification send failed",
			zap.String("family", n.Family),
			zap.String("identifier", n.Identifier),
			zap.Error(err),
		)
		s.metrics.RecordNotification("failed")
		return
	}
	s.metrics.RecordNotification("sent")
}

func compose(n Notice) (string, string) {
	if n.Lifecycle == versioning.LifecycleFailed {
		subject := fmt.Sprintf("Callback notification: %s request failed", n.Family)
		body := strings.Join([]string{
			fmt.Sprintf("The %s request for %s could not be completed by the provider.", n.Family, n.Identifier),
			"",
			"You can inspect the stored failure through the API.",
			"",
			"This is an automated message, please do not reply.",
		}, "\n")
		return subject, body
	}

	subject := fmt.Sprintf("Callback notification: %s data ready", n.Family)
	body := strings.Join([]string{
		fmt.Sprintf("Notification: %s data is now available.", n.Family),
		fmt.Sprintf("Identifier: %s", n.Identifier),
		"",
		"The requested data has been received and processed.",
		"You can now retrieve the complete information using the API.",
		"",
		"This is an automated message, please do not reply.",
	}, "\n")
	return subject, body
}

var Module = fx.Module("notification.dispatcher",
	fx.Provide(New),
	fx.Provide(func(s *Service) Dispatcher { return s }),
	fx.Invoke(registerHooks),
)

func registerHooks(lc fx.Lifecycle, s *Service) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go s.run()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			close(s.stop)
			select {
			case <-s.done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}
