package runner_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/opsync/internal/config"
	"github.com/systmms/opsync/internal/materialize"
	"github.com/systmms/opsync/internal/metrics"
	"github.com/systmms/opsync/internal/onepassword"
	"github.com/systmms/opsync/internal/runner"
	"github.com/systmms/opsync/internal/template"
	"github.com/systmms/opsync/internal/testutil"
)

var responses = testutil.OnePasswordMockResponses{}

type fakeMaterializer struct {
	calls []string
	fail  map[string]error
}

func (f *fakeMaterializer) Materialize(_ context.Context, item config.WorkItem) error {
	f.calls = append(f.calls, item.Name)
	return f.fail[item.Name]
}

type fakeRenderer struct {
	calls  []string
	result template.Result
	err    error
}

func (f *fakeRenderer) Render(_ context.Context, item config.WorkItem) (template.Result, error) {
	f.calls = append(f.calls, item.Name)
	return f.result, f.err
}

func TestRunner_DispatchesInOrder(t *testing.T) {
	t.Parallel()

	mat := &fakeMaterializer{}
	ren := &fakeRenderer{result: template.Result{Lookups: 2, Written: true}}
	rec := testutil.NewRecorder()

	def := &config.Definition{Items: []config.WorkItem{
		{Name: "cert", Type: config.TypeFile, Item: "tls", Destination: "cert.pem"},
		{Name: "db", Type: config.TypeTemplate, Source: "db.tpl", Destination: "db.env"},
		{Name: "key", Type: config.TypeFile, Item: "ssh", Destination: "id_ed25519"},
	}}

	summary := runner.New(mat, ren, rec).Run(context.Background(), def)

	assert.Equal(t, []string{"cert", "key"}, mat.calls)
	assert.Equal(t, []string{"db"}, ren.calls)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 3, summary.Succeeded)
	assert.True(t, summary.OK())

	events := rec.Events()
	require.Len(t, events, 6)
	for i, name := range []string{"cert", "db", "key"} {
		assert.Equal(t, testutil.EventProgress, events[2*i].Kind)
		assert.Equal(t, testutil.EventSuccess, events[2*i+1].Kind)
		assert.Equal(t, name, events[2*i+1].Step.Item)
	}
	assert.Equal(t, "db.tpl", events[2].Step.Source)
	assert.Empty(t, events[0].Step.Source)
}

func TestRunner_FailureDoesNotStopLaterItems(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	mat := &fakeMaterializer{fail: map[string]error{"first": boom}}
	rec := testutil.NewRecorder()

	def := &config.Definition{Items: []config.WorkItem{
		{Name: "first", Type: config.TypeFile, Item: "a", Destination: "a"},
		{Name: "second", Type: config.TypeFile, Item: "b", Destination: "b"},
	}}

	summary := runner.New(mat, &fakeRenderer{}, rec).Run(context.Background(), def)

	assert.Equal(t, []string{"first", "second"}, mat.calls)
	assert.Equal(t, 1, summary.Failed())
	assert.Equal(t, 1, summary.Succeeded)
	assert.False(t, summary.OK())
	assert.ErrorIs(t, summary.Failures[0].Err, boom)
	assert.Equal(t, "first", summary.Failures[0].Item.Name)

	assert.Equal(t, 1, rec.Count(testutil.EventFailure))
	assert.Equal(t, 1, rec.Count(testutil.EventSuccess))
}

func TestRunner_UnknownTypeIsSkipped(t *testing.T) {
	t.Parallel()

	mat := &fakeMaterializer{}
	ren := &fakeRenderer{}
	rec := testutil.NewRecorder()

	def := &config.Definition{Items: []config.WorkItem{
		{Name: "mystery", Type: "secret", Destination: "x"},
	}}

	summary := runner.New(mat, ren, rec).Run(context.Background(), def)

	assert.Empty(t, mat.calls)
	assert.Empty(t, ren.calls)
	assert.Equal(t, 1, summary.Skipped)
	assert.True(t, summary.OK())

	events := rec.Events()
	require.Len(t, events, 1)
	assert.Equal(t, testutil.EventWarn, events[0].Kind)
	assert.Contains(t, events[0].Message, `unknown type "secret"`)
}

func TestRunner_NoItems(t *testing.T) {
	t.Parallel()

	rec := testutil.NewRecorder()
	r := runner.New(&fakeMaterializer{}, &fakeRenderer{}, rec)

	assert.Equal(t, runner.Summary{}, r.Run(context.Background(), &config.Definition{}))
	assert.Equal(t, runner.Summary{}, r.Run(context.Background(), nil))
	assert.Empty(t, rec.Events())
}

func TestRunner_Metrics(t *testing.T) {
	t.Parallel()

	m := metrics.NewSyncMetrics()
	ren := &fakeRenderer{
		result: template.Result{Lookups: 3, Failures: []template.Failure{{}}},
		err:    errors.New("incomplete"),
	}
	clock := time.Unix(1700000000, 0)
	r := runner.New(&fakeMaterializer{}, ren, testutil.NewRecorder(),
		runner.WithMetrics(m),
		runner.WithClock(func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		}))

	def := &config.Definition{Items: []config.WorkItem{
		{Name: "cert", Type: config.TypeFile, Item: "tls", Destination: "cert.pem"},
		{Name: "db", Type: config.TypeTemplate, Source: "db.tpl", Destination: "db.env"},
		{Name: "other", Type: "secret", Destination: "x"},
	}}
	r.Run(context.Background(), def)

	path := filepath.Join(t.TempDir(), "opsync.prom")
	require.NoError(t, m.WriteFile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)

	assert.Contains(t, out, `opsync_items_total{status="success",type="file"} 1`)
	assert.Contains(t, out, `opsync_items_total{status="failure",type="template"} 1`)
	assert.Contains(t, out, `opsync_items_total{status="skipped",type="secret"} 1`)
	assert.Contains(t, out, `opsync_lookups_total{status="success"} 2`)
	assert.Contains(t, out, `opsync_lookups_total{status="failure"} 1`)
	assert.Contains(t, out, `opsync_item_duration_seconds_sum{type="file"} 1`)
}

// End to end over the real materializer and engine with a mocked `op`.
func TestRunner_EndToEnd(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "db.env.tpl")
	require.NoError(t, os.WriteFile(src, []byte("host={{host}}\nuser={{creds.user}}\npass={{Vault2.creds.pass}}\n"), 0o644))

	backend := testutil.NewMockCommandExecutor()
	backend.AddResponse("op document get tls-cert --vault Infra", testutil.MockResponse{Stdout: []byte("-----BEGIN CERTIFICATE-----\n")})
	backend.AddJSONResponse("op item get db --format json --vault Infra", responses.Item("db", "host", "10.0.0.5"))
	backend.AddJSONResponse("op item get creds --format json --vault Infra", responses.Item("creds", "user", "admin"))
	backend.AddJSONResponse("op item get creds --format json --vault Vault2", responses.Item("creds", "pass", "s3cr3t"))
	backend.AddErrorResponse("op document get ghost", responses.NotFound("ghost"), 1)

	client := onepassword.New(backend)
	rec := testutil.NewRecorder()
	r := runner.New(materialize.New(client), template.New(client, rec), rec)

	def := &config.Definition{Items: []config.WorkItem{
		{Name: "ghost", Type: config.TypeFile, Item: "ghost", Destination: filepath.Join(dir, "ghost")},
		{Name: "cert", Type: config.TypeFile, Vault: "Infra", Item: "tls-cert", Destination: filepath.Join(dir, "cert.pem")},
		{Name: "db", Type: config.TypeTemplate, Vault: "Infra", Source: src, Destination: filepath.Join(dir, "db.env")},
	}}

	summary := r.Run(context.Background(), def)
	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed())

	cert, err := os.ReadFile(filepath.Join(dir, "cert.pem"))
	require.NoError(t, err)
	assert.Equal(t, "-----BEGIN CERTIFICATE-----\n", string(cert))

	env, err := os.ReadFile(filepath.Join(dir, "db.env"))
	require.NoError(t, err)
	assert.Equal(t, "host=10.0.0.5\nuser=admin\npass=s3cr3t\n", string(env))

	_, err = os.Stat(filepath.Join(dir, "ghost"))
	assert.True(t, os.IsNotExist(err))

	assert.Len(t, rec.Lookups(), 3)
}
