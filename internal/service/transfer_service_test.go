package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcogbarcellos/pgstudio/internal/events"
	"github.com/marcogbarcellos/pgstudio/internal/infrastructure/pgtools"
	"github.com/marcogbarcellos/pgstudio/internal/model"
	"github.com/marcogbarcellos/pgstudio/internal/pkg/apperr"
)

type fakeRunner struct {
	targets []pgtools.Target
	outcome model.ToolOutcome
	err     error
	dumps   []model.DumpRequest
	xfers   []model.TransferRequest
}

func (r *fakeRunner) Dump(_ context.Context, t pgtools.Target, req model.DumpRequest) (model.ToolOutcome, error) {
	r.targets = append(r.targets, t)
	r.dumps = append(r.dumps, req)
	return r.outcome, r.err
}

func (r *fakeRunner) Restore(_ context.Context, t pgtools.Target, _ model.RestoreRequest) (model.ToolOutcome, error) {
	r.targets = append(r.targets, t)
	return r.outcome, r.err
}

func (r *fakeRunner) Transfer(_ context.Context, src, dst pgtools.Target, req model.TransferRequest) (model.ToolOutcome, error) {
	r.targets = append(r.targets, src, dst)
	r.xfers = append(r.xfers, req)
	return r.outcome, r.err
}

type fakeDetector struct{ status model.ToolsStatus }

func (d fakeDetector) Detect(context.Context) model.ToolsStatus { return d.status }

func newTransferFixture(t *testing.T) (*TransferService, *fakeRunner, *recorder) {
	t.Helper()
	ctx := context.Background()
	st := newStore(t)
	secrets := newSecrets()
	for _, id := range []string{"src", "dst"} {
		desc := testDescriptor(id)
		desc.Port = 6543
		require.NoError(t, st.SaveConnection(ctx, model.RecordFromDescriptor(desc)))
		require.NoError(t, secrets.SetPassword(id, "secret-"+id))
	}
	runner := &fakeRunner{outcome: model.ToolOutcome{Status: model.OutcomeSuccess}}
	rec := &recorder{}
	path := "/usr/bin/pg_dump"
	detector := fakeDetector{status: model.ToolsStatus{DumpPath: &path}}
	return NewTransferService(runner, detector, st, secrets, rec), runner, rec
}

func TestTransferResolvesStoredCredentials(t *testing.T) {
	svc, runner, rec := newTransferFixture(t)

	outcome, err := svc.Transfer(context.Background(), model.TransferRequest{
		SourceID: "src",
		TargetID: "dst",
		Tables:   []string{"orders"},
		Clean:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeSuccess, outcome.Status)

	require.Len(t, runner.targets, 2)
	assert.Equal(t, pgtools.Target{Host: "localhost", Port: 6543, User: "postgres", Database: "appdb", Password: "secret-src"}, runner.targets[0])
	assert.Equal(t, "secret-dst", runner.targets[1].Password)
	assert.Equal(t, []string{"orders"}, runner.xfers[0].Tables)

	finished := rec.named(events.TransferFinishedEvent)
	require.Len(t, finished, 1)
	payload := finished[0].Payload.(events.TransferFinishedPayload)
	assert.Equal(t, "transfer", payload.Kind)
	assert.Equal(t, "src", payload.Source)
	assert.Equal(t, "dst", payload.Target)
	assert.Equal(t, "success", payload.Status)
	assert.NotEmpty(t, payload.OperationID)
}

func TestDumpDefaultsAndValidation(t *testing.T) {
	ctx := context.Background()
	svc, runner, _ := newTransferFixture(t)

	_, err := svc.Dump(ctx, model.DumpRequest{ConnectionID: "src"})
	assert.True(t, apperr.Is(err, apperr.InvalidInput))

	_, err = svc.Dump(ctx, model.DumpRequest{ConnectionID: "ghost", OutputPath: "/tmp/x"})
	assert.True(t, apperr.Is(err, apperr.NotFound))

	_, err = svc.Dump(ctx, model.DumpRequest{ConnectionID: "src", OutputPath: "/tmp/x"})
	require.NoError(t, err)
	assert.Equal(t, model.DumpCustom, runner.dumps[0].Format)
}

func TestRestoreFailureEvents(t *testing.T) {
	ctx := context.Background()
	svc, runner, rec := newTransferFixture(t)

	runner.outcome = model.ToolOutcome{Status: model.OutcomeFailure, Stderr: "ERROR:  permission denied"}
	outcome, err := svc.Restore(ctx, model.RestoreRequest{ConnectionID: "dst", InputPath: "/tmp/in.dump"})
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeFailure, outcome.Status)

	runner.err = apperr.New(apperr.ToolNotFound, "pg_restore not found on system")
	_, err = svc.Restore(ctx, model.RestoreRequest{ConnectionID: "dst", InputPath: "/tmp/in.dump"})
	assert.True(t, apperr.Is(err, apperr.ToolNotFound))

	finished := rec.named(events.TransferFinishedEvent)
	require.Len(t, finished, 2)
	first := finished[0].Payload.(events.TransferFinishedPayload)
	assert.Equal(t, "ERROR:  permission denied", first.Error)
	second := finished[1].Payload.(events.TransferFinishedPayload)
	assert.Equal(t, "failure", second.Status)
	assert.Equal(t, "pg_restore not found on system", second.Error)
}

func TestDetectTools(t *testing.T) {
	svc, _, _ := newTransferFixture(t)
	status := svc.DetectTools(context.Background())
	require.NotNil(t, status.DumpPath)
	assert.Nil(t, status.RestorePath)
}
