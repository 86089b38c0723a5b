package upstream

import (
	"go.uber.org/fx"
)

var Module = fx.Module("upstream.client",
	fx.Provide(NewHTTPClient),
)
