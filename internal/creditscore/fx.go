package creditscore

import (
	"github.com/bflows/riskproxy/internal/creditscore/repository"
	"github.com/bflows/riskproxy/internal/creditscore/service"
	"go.uber.org/fx"
)

var Module = fx.Module("creditscore.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
