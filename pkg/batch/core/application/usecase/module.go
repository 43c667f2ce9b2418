package usecase

import (
	"go.uber.org/fx"
)

// Module is the Fx module for the RunLauncher.
var Module = fx.Options(
	fx.Provide(fx.Annotate(
		NewSimpleRunLauncher,
		fx.As(fx.Self()),
		fx.As(new(RunLauncher)),
	)),
)
