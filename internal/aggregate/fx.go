package aggregate

import "go.uber.org/fx"

var Module = fx.Module("aggregate.service",
	fx.Provide(New),
)
