package actions

import (
	"go.uber.org/fx"
)

var Module = fx.Module("actions",
	fx.Provide(
		NewRepository,
		NewService,
		NewHandler,
	),
	fx.Invoke(RegisterRoutes),
)
