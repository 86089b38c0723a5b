package companydata

import (
	"github.com/bflows/riskproxy/internal/companydata/repository"
	"github.com/bflows/riskproxy/internal/companydata/service"
	"go.uber.org/fx"
)

var Module = fx.Module("companydata.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
