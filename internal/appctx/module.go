package appctx

import "go.uber.org/fx"

func Module() fx.Option {
	return fx.Module(
		"appctx",
		fx.Provide(New),
	)
}
