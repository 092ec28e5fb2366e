package relationships

import (
	"go.uber.org/fx"
)

var Module = fx.Module("relationships",
	fx.Provide(
		NewService,
		NewHandler,
	),
	fx.Invoke(RegisterRoutes),
)
