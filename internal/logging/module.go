package logging

import (
	"context"
	"os"

	"sales_targets/internal/config"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module tees every logger in the app into the log file. The decorator sits
// outside the named module: fx scopes decorations to the module declaring
// them and its children.
func Module() fx.Option {
	return fx.Options(
		fx.Module(
			"logging",
			fx.Provide(func(cfg config.Config) (*os.File, error) {
				return OpenLogFile(cfg.LogFile)
			}),
			fx.Invoke(func(lc fx.Lifecycle, logger *zap.Logger, file *os.File) {
				if file == nil {
					return
				}
				lc.Append(fx.Hook{
					OnStop: func(_ context.Context) error {
						_ = logger.Sync()
						return file.Close()
					},
				})
			}),
		),
		fx.Decorate(func(base *zap.Logger, cfg config.Config, file *os.File) *zap.Logger {
			return AttachFileLogger(base, file, cfg.Debug)
		}),
	)
}
