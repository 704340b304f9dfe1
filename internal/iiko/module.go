package iiko

import "go.uber.org/fx"

func Module() fx.Option {
	return fx.Module(
		"iiko",
		fx.Provide(NewClient),
	)
}
