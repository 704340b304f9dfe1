package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"sales_targets/internal/appctx"
	"sales_targets/internal/config"
	"sales_targets/internal/iiko"
	"sales_targets/internal/llm"
	"sales_targets/internal/session"
	"sales_targets/internal/syncer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const olapPayload = `{"data":[
	{"Cashier":"Smith John","Department":"Center","OrderNum":1,"DishName":"Burger","DishCategory":"Grill","DishAmountInt":7},
	{"Cashier":"Smith John","Department":"Center","OrderNum":2,"DishName":"Steak","DishCategory":"Grill","DishAmountInt":5},
	{"Cashier":"Doe Jane","Department":"Harbor","OrderNum":3,"DishName":"Latte","DishCategory":"Coffee","DishAmountInt":4},
	{"Cashier":"Doe Jane","Department":"Harbor","OrderNum":4,"DishName":"Water","DishCategory":"","DishAmountInt":1}
]}`

type fixture struct {
	runner *Runner
	calls  *atomic.Int32
	store  *session.MemoryStore
}

func newFixture(t *testing.T, cfg config.Config) fixture {
	t.Helper()
	calls := &atomic.Int32{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = io.WriteString(w, olapPayload)
	}))
	t.Cleanup(srv.Close)

	cfg.IikoServer = srv.URL
	cfg.IikoToken = "tok"
	cfg.HistoryFrom = "2024-01-01"
	cfg.SyncSchedule = "@hourly"
	cfg.Timeout = 2 * time.Second

	logger := zaptest.NewLogger(t)
	store := session.NewMemoryStore(time.Hour)
	app := appctx.New(cfg, store, logger)
	orchestrator := syncer.NewOrchestrator(cfg, app, iiko.NewClient(cfg, logger), logger)
	scheduler, err := syncer.NewScheduler(cfg, orchestrator, logger)
	require.NoError(t, err)
	llmClient, err := llm.NewClient(cfg, logger)
	require.NoError(t, err)

	return fixture{
		runner: NewRunner(cfg, logger, app, orchestrator, scheduler, store, llmClient),
		calls:  calls,
		store:  store,
	}
}

func writeTargets(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "targets.form")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestReportJSONWithTargets(t *testing.T) {
	f := newFixture(t, config.Config{})
	path := writeTargets(t, strings.Join([]string{
		"# center grill",
		"sel_Center_1=Grill&target1_Center_1=10&target2_Center_1=20&surname_Center_1=Smith",
		"sel_Harbor_1=Coffee&target1_Harbor_1=&target2_Harbor_1=3&surname_Harbor_1=Doe",
	}, "\n"))

	var out bytes.Buffer
	err := f.runner.run(context.Background(), []string{"--from", "2024-05-01", "--to", "2024-05-10", "--targets", path, "--json"}, &out)
	require.NoError(t, err)

	var got reportOutput
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "2024-05-01", got.From)
	assert.Equal(t, "2024-05-10", got.To)
	assert.Equal(t, 4, got.Rows)
	require.Len(t, got.Departments, 2)
	assert.Equal(t, "Center", got.Departments[0].Department)
	assert.Equal(t, 12.0, got.Departments[0].Categories[0].Amount)

	require.NotNil(t, got.Targets)
	assert.Equal(t, 1, got.Targets.Applied)
	assert.Equal(t, 1, got.Targets.Skipped)
	require.Len(t, got.Progress, 1)
	assert.Equal(t, 12.0, got.Progress[0].Actual)
	assert.True(t, got.Progress[0].Reached1)
	assert.False(t, got.Progress[0].Reached2)
}

func TestReportHumanOutput(t *testing.T) {
	f := newFixture(t, config.Config{})

	var out bytes.Buffer
	require.NoError(t, f.runner.run(context.Background(), []string{"--from", "2024-05-01", "--to", "2024-05-10"}, &out))
	assert.Contains(t, out.String(), "Отчет: 2024-05-01..2024-05-10 (строк: 4)")
	assert.Contains(t, out.String(), "  - Grill: 12")
	assert.Contains(t, out.String(), "  - Uncategorized: 1")
}

func TestReportRejectsReversedRangeWithoutCallingServer(t *testing.T) {
	f := newFixture(t, config.Config{})

	var out bytes.Buffer
	err := f.runner.run(context.Background(), []string{"--from", "2024-05-10", "--to", "2024-05-01"}, &out)
	var vErr *iiko.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Zero(t, f.calls.Load())
}

func TestReportRequiresSession(t *testing.T) {
	f := newFixture(t, config.Config{RequireSession: true})

	err := f.runner.run(context.Background(), []string{"report"}, io.Discard)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.Zero(t, f.calls.Load())

	var out bytes.Buffer
	require.NoError(t, f.runner.run(context.Background(), []string{"--as", "manager", "session"}, &out))
	token := strings.TrimSpace(out.String())

	require.NoError(t, f.runner.run(context.Background(), []string{"--session", token, "--json"}, io.Discard))
	assert.Equal(t, int32(1), f.calls.Load())
}

func TestRunRejectsUnknownCommandAndBadCredentials(t *testing.T) {
	f := newFixture(t, config.Config{})

	assert.Error(t, f.runner.run(context.Background(), []string{"dance"}, io.Discard))
	assert.Error(t, f.runner.run(context.Background(), []string{"--server", "nope", "--user", "u", "--password", "p"}, io.Discard))
	assert.Error(t, f.runner.run(context.Background(), []string{"report", "extra"}, io.Discard))
}

func TestCredentialFlagsOverrideConfiguredValues(t *testing.T) {
	f := newFixture(t, config.Config{IikoPassword: "secret"})
	server := f.runner.app.Credentials().Server

	require.NoError(t, f.runner.run(context.Background(), []string{"--user", "manager", "--from", "2024-05-01", "--to", "2024-05-02"}, io.Discard))

	creds := f.runner.app.Credentials()
	assert.Equal(t, server, creds.Server)
	assert.Equal(t, "manager", creds.User)
	assert.Equal(t, "secret", creds.Password)
	assert.Empty(t, creds.Token)

	require.NoError(t, f.runner.run(context.Background(), []string{"--password", "other", "--from", "2024-05-01", "--to", "2024-05-02"}, io.Discard))
	creds = f.runner.app.Credentials()
	assert.Equal(t, server, creds.Server)
	assert.Equal(t, "manager", creds.User)
	assert.Equal(t, "other", creds.Password)
}

func TestReportFiltersDepartment(t *testing.T) {
	f := newFixture(t, config.Config{})
	path := writeTargets(t, "sel_Center_1=Grill&target1_Center_1=10&target2_Center_1=20&surname_Center_1=Smith\n"+
		"sel_Harbor_1=Coffee&target1_Harbor_1=1&target2_Harbor_1=3&surname_Harbor_1=Doe")

	var out bytes.Buffer
	require.NoError(t, f.runner.run(context.Background(), []string{"--from", "2024-05-01", "--to", "2024-05-10", "--department", "Harbor", "--targets", path, "--json"}, &out))

	var got reportOutput
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "Harbor", got.Department)
	assert.Equal(t, 2, got.Rows)
	require.Len(t, got.Departments, 1)
	assert.Equal(t, "Harbor", got.Departments[0].Department)
	require.Len(t, got.Progress, 1)
	assert.Equal(t, "Harbor", got.Progress[0].BranchID)

	out.Reset()
	require.NoError(t, f.runner.run(context.Background(), []string{"--from", "2024-05-01", "--to", "2024-05-10", "--department", "Center"}, &out))
	assert.Contains(t, out.String(), "Филиал: Center")
	assert.Contains(t, out.String(), "  - Grill: 12")
	assert.NotContains(t, out.String(), "Coffee")

	err := f.runner.run(context.Background(), []string{"--from", "2024-05-01", "--to", "2024-05-10", "--department", "Airport"}, io.Discard)
	assert.ErrorIs(t, err, ErrUnknownDepartment)
}

func TestWatchSyncsAndStopsOnCancel(t *testing.T) {
	f := newFixture(t, config.Config{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	var out bytes.Buffer
	go func() {
		done <- f.runner.run(ctx, []string{"watch"}, &out)
	}()

	require.Eventually(t, func() bool { return f.calls.Load() == 1 }, 2*time.Second, 20*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
	assert.Contains(t, out.String(), "Синхронизация выполнена успешно")
	assert.NotNil(t, f.runner.orchestrator.Report())
}

func TestReadTargetsFile(t *testing.T) {
	path := writeTargets(t, "sel_B1_1=Grill\n\n  target1_B1_1=10&target2_B1_1=20\n#comment\nsurname_B1_1=%D0%98%D0%B2%D0%B0%D0%BD%D0%BE%D0%B2\n")
	form, err := readTargetsFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Grill", form.Get("sel_B1_1"))
	assert.Equal(t, "20", form.Get("target2_B1_1"))
	assert.Equal(t, "Иванов", form.Get("surname_B1_1"))

	_, err = readTargetsFile(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
