package syncer

import (
	"context"
	"fmt"

	"sales_targets/internal/config"
	"sales_targets/internal/iiko"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type Syncer interface {
	Sync(ctx context.Context, rng *iiko.DateRange) bool
}

// Scheduler triggers a default-range sync on a cron schedule.
type Scheduler struct {
	cron   *cron.Cron
	spec   string
	syncer Syncer
	logger *zap.Logger
}

func NewScheduler(cfg config.Config, syncer Syncer, logger *zap.Logger) (*Scheduler, error) {
	if _, err := cron.ParseStandard(cfg.SyncSchedule); err != nil {
		return nil, fmt.Errorf("invalid sync schedule %q: %w", cfg.SyncSchedule, err)
	}
	logger = logger.Named("scheduler")
	return &Scheduler{
		cron:   cron.New(cron.WithLogger(cronLogger{logger.Sugar()})),
		spec:   cfg.SyncSchedule,
		syncer: syncer,
		logger: logger,
	}, nil
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.tick); err != nil {
		return fmt.Errorf("schedule sync: %w", err)
	}
	s.cron.Start()
	s.logger.Info("sync scheduler started", zap.String("schedule", s.spec))
	return nil
}

// Stop waits for a running sync to finish or for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) tick() {
	if !s.syncer.Sync(context.Background(), nil) {
		s.logger.Warn("scheduled sync did not complete")
	}
}

type cronLogger struct {
	sugar *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, append(keysAndValues, "error", err)...)
}
