// Package syncer refreshes the sales report from iiko. One sync runs at a
// time; the report snapshot is swapped only after a complete success.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"sales_targets/internal/appctx"
	"sales_targets/internal/config"
	"sales_targets/internal/iiko"
	"sales_targets/internal/logging"
	"sales_targets/internal/report"

	"go.uber.org/zap"
)

const logoutTimeout = 10 * time.Second

var ErrSyncInProgress = errors.New("sync already in progress")

type State int32

const (
	StateIdle State = iota
	StateFetching
	StateTransforming
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateTransforming:
		return "transforming"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// ReportClient is the part of iiko.Client the orchestrator needs.
type ReportClient interface {
	FetchReport(ctx context.Context, rng iiko.DateRange, token string, server string) ([]iiko.ReportRow, error)
	Login(ctx context.Context, creds iiko.Credentials) (string, error)
	Logout(ctx context.Context, server, token string) error
}

type Orchestrator struct {
	app         *appctx.Context
	client      ReportClient
	historyFrom string
	now         func() time.Time
	logger      *zap.Logger

	state atomic.Int32
	model atomic.Pointer[report.Model]

	errMu   sync.Mutex
	lastErr error
}

func NewOrchestrator(cfg config.Config, app *appctx.Context, client ReportClient, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		app:         app,
		client:      client,
		historyFrom: cfg.HistoryFrom,
		now:         time.Now,
		logger:      logger.Named("syncer"),
	}
}

// Sync fetches and transforms the report for rng, or for the configured
// history when rng is nil. It returns false when the range is invalid, a
// sync is already running, or any step fails; the previous report is kept in
// every failure case.
func (o *Orchestrator) Sync(ctx context.Context, rng *iiko.DateRange) bool {
	resolved, err := o.resolveRange(rng)
	if err != nil {
		o.fail("sync rejected", err)
		return false
	}

	if !o.state.CompareAndSwap(int32(StateIdle), int32(StateFetching)) {
		o.fail("sync rejected", ErrSyncInProgress)
		return false
	}
	defer o.state.Store(int32(StateIdle))

	start := o.now()
	model, err := o.run(ctx, resolved)
	if err != nil {
		o.fail("sync failed", err, zap.String("range", resolved.String()))
		return false
	}

	o.model.Store(model)
	o.setLastErr(nil)
	o.logger.Info("sync finished",
		zap.String("range", resolved.String()),
		zap.Int("rows", model.Len()),
		zap.Int("departments", len(model.Departments())),
		zap.Duration("took", o.now().Sub(start)),
	)
	return true
}

// Report returns the latest complete snapshot, nil before the first
// successful sync.
func (o *Orchestrator) Report() *report.Model {
	return o.model.Load()
}

func (o *Orchestrator) State() State {
	return State(o.state.Load())
}

// LastError is the diagnostic of the most recent Sync call, nil on success.
func (o *Orchestrator) LastError() error {
	o.errMu.Lock()
	defer o.errMu.Unlock()
	return o.lastErr
}

func (o *Orchestrator) run(ctx context.Context, rng iiko.DateRange) (*report.Model, error) {
	creds := o.app.Credentials()
	if err := o.app.ValidateCredentials(creds); err != nil {
		return nil, err
	}

	token, release, err := o.token(ctx, creds)
	if err != nil {
		return nil, err
	}
	defer release()

	rows, err := o.client.FetchReport(ctx, rng, token, creds.Server)
	if err != nil {
		return nil, fmt.Errorf("fetch report: %w", err)
	}

	o.state.Store(int32(StateTransforming))
	return report.Transform(rows, rng, o.now()), nil
}

// token prefers a configured token; otherwise it logs in and returns a
// release func that logs out again.
func (o *Orchestrator) token(ctx context.Context, creds iiko.Credentials) (string, func(), error) {
	if token := strings.TrimSpace(creds.Token); token != "" {
		return token, func() {}, nil
	}

	token, err := o.client.Login(ctx, creds)
	if err != nil {
		return "", nil, fmt.Errorf("login: %w", err)
	}

	release := func() {
		logoutCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), logoutTimeout)
		defer cancel()
		if err := o.client.Logout(logoutCtx, creds.Server, token); err != nil {
			o.logger.Warn("iiko logout failed", logging.Secret("token", token), zap.Error(err))
		}
	}
	return token, release, nil
}

func (o *Orchestrator) resolveRange(rng *iiko.DateRange) (iiko.DateRange, error) {
	if rng == nil {
		return iiko.Through(o.historyFrom, o.now())
	}
	if err := rng.Validate(); err != nil {
		return iiko.DateRange{}, err
	}
	return *rng, nil
}

func (o *Orchestrator) fail(msg string, err error, fields ...zap.Field) {
	o.setLastErr(err)
	o.logger.Error(msg, append(fields, zap.Error(err))...)
}

func (o *Orchestrator) setLastErr(err error) {
	o.errMu.Lock()
	o.lastErr = err
	o.errMu.Unlock()
}
