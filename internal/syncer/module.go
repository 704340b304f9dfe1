package syncer

import (
	"sales_targets/internal/iiko"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module(
		"syncer",
		fx.Provide(
			func(c *iiko.Client) ReportClient { return c },
			NewOrchestrator,
			func(o *Orchestrator) Syncer { return o },
			NewScheduler,
		),
	)
}
