package main

import (
	"github.com/bflows/riskproxy/internal/aggregate"
	"github.com/bflows/riskproxy/internal/clock"
	"github.com/bflows/riskproxy/internal/companydata"
	"github.com/bflows/riskproxy/internal/config"
	"github.com/bflows/riskproxy/internal/creditscore"
	"github.com/bflows/riskproxy/internal/logger"
	"github.com/bflows/riskproxy/internal/metrics"
	"github.com/bflows/riskproxy/internal/migration"
	"github.com/bflows/riskproxy/internal/negativeevent"
	"github.com/bflows/riskproxy/internal/notification"
	"github.com/bflows/riskproxy/internal/providers/email"
	"github.com/bflows/riskproxy/internal/server"
	"github.com/bflows/riskproxy/internal/upstream"
	"github.com/bflows/riskproxy/internal/webhook"
	"github.com/bflows/riskproxy/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		metrics.Module,
		upstream.Module,

		// Functional domains
		email.Module,
		notification.Module,
		creditscore.Module,
		companydata.Module,
		negativeevent.Module,
		webhook.Module,
		aggregate.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
