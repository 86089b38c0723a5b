package negativeevent

import (
	"github.com/bflows/riskproxy/internal/negativeevent/repository"
	"github.com/bflows/riskproxy/internal/negativeevent/service"
	"go.uber.org/fx"
)

var Module = fx.Module("negativeevent.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
