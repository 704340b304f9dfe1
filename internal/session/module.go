package session

import (
	"context"
	"strings"

	"sales_targets/internal/config"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

func Module() fx.Option {
	return fx.Module(
		"session",
		fx.Provide(newStore),
		fx.Provide(func(store Store) Lookup { return store }),
	)
}

func newStore(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (Store, error) {
	logger = logger.Named("session")
	addr := strings.TrimSpace(cfg.SessionRedisAddr)
	if addr == "" {
		logger.Debug("using in-memory session store")
		return NewMemoryStore(cfg.SessionTTL), nil
	}

	client, err := Dial(context.Background(), addr)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return client.Close()
		},
	})
	logger.Info("using redis session store", zap.String("addr", addr))
	return NewRedisStore(client, cfg.SessionTTL, logger), nil
}
