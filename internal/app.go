package internal

import (
	"context"

	"sales_targets/internal/appctx"
	"sales_targets/internal/cli"
	"sales_targets/internal/config"
	"sales_targets/internal/iiko"
	"sales_targets/internal/llm"
	"sales_targets/internal/logging"
	"sales_targets/internal/session"
	"sales_targets/internal/syncer"

	"github.com/go-core-fx/logger"
	"go.uber.org/fx"
)

func Run() error {
	var runner *cli.Runner

	app := fx.New(
		logger.Module(),
		logger.WithFxDefaultLogger(),
		config.Module(),
		logging.Module(),
		session.Module(),
		appctx.Module(),
		iiko.Module(),
		syncer.Module(),
		llm.Module(),
		cli.Module(),
		fx.Populate(&runner),
	)

	ctx := context.Background()
	if err := app.Start(ctx); err != nil {
		return err
	}
	defer func() {
		_ = app.Stop(ctx)
	}()

	return runner.Execute()
}
