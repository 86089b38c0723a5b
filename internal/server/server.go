package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bflows/riskproxy/internal/aggregate"
	companydomain "github.com/bflows/riskproxy/internal/companydata/domain"
	"github.com/bflows/riskproxy/internal/config"
	creditdomain "github.com/bflows/riskproxy/internal/creditscore/domain"
	negativedomain "github.com/bflows/riskproxy/internal/negativeevent/domain"
	"github.com/bflows/riskproxy/internal/webhook"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(log))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(log *zap.Logger) *gin.Engine {
	return NewEngine(log)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine       *gin.Engine
	cfg          config.Config
	log          *zap.Logger
	creditSvc    creditdomain.Service
	companySvc   companydomain.Service
	negativeSvc  negativedomain.Service
	webhookSvc   *webhook.Service
	aggregateSvc *aggregate.Service
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	Log          *zap.Logger
	CreditSvc    creditdomain.Service
	CompanySvc   companydomain.Service
	NegativeSvc  negativedomain.Service
	WebhookSvc   *webhook.Service
	AggregateSvc *aggregate.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		log:          p.Log.Named("http.server"),
		creditSvc:    p.CreditSvc,
		companySvc:   p.CompanySvc,
		negativeSvc:  p.NegativeSvc,
		webhookSvc:   p.WebhookSvc,
		aggregateSvc: p.AggregateSvc,
	}

	svc.registerRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerRoutes() {
	r := s.engine

	r.GET("/credit-score/:identifier", s.GetCreditScore)
	r.GET("/company-full/:identifier", s.GetCompanyData)
	r.GET("/negative-event", s.GetNegativeEvent)
	r.GET("/company-report/:identifier", s.GetCompanyReport)

	wh := r.Group("/webhook")
	{
		wh.POST("/company-full", s.HandleCompanyDataWebhook)
		wh.POST("/negative-event", s.HandleNegativeEventWebhook)
	}
}
