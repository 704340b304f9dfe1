package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"sales_targets/internal/appctx"
	"sales_targets/internal/config"
	"sales_targets/internal/iiko"
	"sales_targets/internal/llm"
	"sales_targets/internal/session"
	"sales_targets/internal/syncer"
	"sales_targets/internal/targets"

	"go.uber.org/zap"
)

const (
	commandReport  = "report"
	commandWatch   = "watch"
	commandSession = "session"

	stopTimeout = 30 * time.Second
)

var (
	ErrUnauthenticated   = errors.New("session token is missing or expired")
	ErrUnknownDepartment = errors.New("department not found in report")
)

type Runner struct {
	cfg          config.Config
	logger       *zap.Logger
	app          *appctx.Context
	orchestrator *syncer.Orchestrator
	scheduler    *syncer.Scheduler
	sessions     session.Store
	llmClient    *llm.Client
}

func NewRunner(
	cfg config.Config,
	logger *zap.Logger,
	app *appctx.Context,
	orchestrator *syncer.Orchestrator,
	scheduler *syncer.Scheduler,
	sessions session.Store,
	llmClient *llm.Client,
) *Runner {
	return &Runner{
		cfg:          cfg,
		logger:       logger.Named("cli"),
		app:          app,
		orchestrator: orchestrator,
		scheduler:    scheduler,
		sessions:     sessions,
		llmClient:    llmClient,
	}
}

func (r *Runner) Execute() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return r.run(ctx, os.Args[1:], os.Stdout)
}

func (r *Runner) run(ctx context.Context, args []string, out io.Writer) error {
	opts, err := parseOptions(args, r.app.Credentials())
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if opts.CredentialsSet {
		if err := r.app.UpdateCredentials(opts.Server, opts.User, opts.Password); err != nil {
			return err
		}
	}

	switch opts.Command {
	case commandReport:
		return r.runReport(ctx, opts, out)
	case commandWatch:
		return r.runWatch(ctx, out)
	case commandSession:
		return r.runSession(ctx, opts, out)
	default:
		return fmt.Errorf("unknown command %q", opts.Command)
	}
}

// parseOptions seeds the credential flags from the current credentials so a
// partial override keeps the configured values.
func parseOptions(args []string, creds iiko.Credentials) (Options, error) {
	var opts Options

	fs := flag.NewFlagSet("sales-targets", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] [report|watch|session]\n", fs.Name())
		fs.PrintDefaults()
	}

	fs.StringVar(&opts.Server, "server", creds.Server, "iiko server API URL, e.g. https://host/resto/api (IIKO_SERVER)")
	fs.StringVar(&opts.User, "user", creds.User, "iiko user (IIKO_USER)")
	fs.StringVar(&opts.Password, "password", "", "iiko password, defaults to IIKO_PASSWORD")
	fs.StringVar(&opts.From, "from", "", "Start date (YYYY-MM-DD)")
	fs.StringVar(&opts.To, "to", "", "End date (YYYY-MM-DD)")
	fs.StringVar(&opts.Department, "department", "", "Only report this department")
	fs.StringVar(&opts.TargetsFile, "targets", "", "Form-encoded targets file (sel_<branch>_<n>=...)")
	fs.StringVar(&opts.Session, "session", "", "Session token, required when REQUIRE_SESSION is set")
	fs.StringVar(&opts.Identity, "as", "", "Identity to issue a session for (session command)")
	fs.BoolVar(&opts.Digest, "digest", false, "Add an LLM summary of target progress")
	fs.BoolVar(&opts.JSON, "json", false, "Output JSON format")

	if err := fs.Parse(args); err != nil {
		return Options{}, err
	}

	passwordSet := false
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "server", "user":
			opts.CredentialsSet = true
		case "password":
			opts.CredentialsSet = true
			passwordSet = true
		}
	})
	// Kept out of the flag default so usage output never prints it.
	if !passwordSet {
		opts.Password = creds.Password
	}

	rest := fs.Args()
	switch len(rest) {
	case 0:
		opts.Command = commandReport
	case 1:
		opts.Command = strings.ToLower(strings.TrimSpace(rest[0]))
	default:
		return Options{}, fmt.Errorf("only one command is supported")
	}
	return opts, nil
}

func (r *Runner) runReport(ctx context.Context, opts Options, out io.Writer) error {
	if r.cfg.RequireSession && !r.app.Authenticated(ctx, opts.Session) {
		return ErrUnauthenticated
	}

	rng, err := r.resolveRange(opts)
	if err != nil {
		return err
	}

	if !r.orchestrator.Sync(ctx, rng) {
		return fmt.Errorf("синхронизация не выполнена: %w", r.orchestrator.LastError())
	}
	model := r.orchestrator.Report()
	result, err := newReportOutput(model, opts.Department)
	if err != nil {
		return err
	}

	if opts.TargetsFile != "" {
		form, err := readTargetsFile(opts.TargetsFile)
		if err != nil {
			return err
		}
		applied, err := targets.ApplyForm(r.app.Targets(), form, model.Departments())
		if err != nil {
			r.logger.Warn("some target rows were rejected", zap.Error(err))
		}
		result.Targets = &applied
		result.Progress = progressFor(targets.Compare(r.app.Targets(), model), result.Department)
	}

	if opts.Digest {
		digest, err := r.llmClient.Digest(ctx, model.Range, result.Progress)
		if err != nil {
			r.logger.Warn("sales digest unavailable", zap.Error(err))
		} else {
			result.Digest = digest
		}
	}

	if opts.JSON {
		return writeJSON(out, result)
	}
	return writeHuman(out, result)
}

// resolveRange returns nil when no bound is given so the orchestrator falls
// back to the configured history.
func (r *Runner) resolveRange(opts Options) (*iiko.DateRange, error) {
	if opts.From == "" && opts.To == "" {
		return nil, nil
	}
	from, to := opts.From, opts.To
	if from == "" {
		from = r.cfg.HistoryFrom
	}
	if to == "" {
		to = time.Now().Format(iiko.DateLayout)
	}
	rng, err := iiko.ParseDateRange(from, to)
	if err != nil {
		return nil, fmt.Errorf("неправильно задан диапазон дат для отчета: %w", err)
	}
	return &rng, nil
}

func (r *Runner) runWatch(ctx context.Context, out io.Writer) error {
	if r.orchestrator.Sync(ctx, nil) {
		fmt.Fprintln(out, "Синхронизация выполнена успешно")
	} else {
		fmt.Fprintf(out, "Синхронизация не выполнена: %v\n", r.orchestrator.LastError())
	}

	if err := r.scheduler.Start(); err != nil {
		return err
	}
	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	return r.scheduler.Stop(stopCtx)
}

func (r *Runner) runSession(ctx context.Context, opts Options, out io.Writer) error {
	token, err := r.sessions.Issue(ctx, opts.Identity)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, token)
	return nil
}
