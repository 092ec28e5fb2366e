package search

import (
	"go.uber.org/fx"
)

var Module = fx.Module("search",
	fx.Provide(
		NewRepository,
		NewService,
		NewHandler,
	),
	fx.Invoke(RegisterRoutes),
)
