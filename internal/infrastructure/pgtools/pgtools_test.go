package pgtools

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcogbarcellos/pgstudio/internal/model"
	"github.com/marcogbarcellos/pgstudio/internal/pkg/apperr"
)

// recordArgs writes the argument vector and PGPASSWORD of the fake tool next
// to $RECORD_DIR/<tool>.
const recordArgs = `if [ -n "$RECORD_DIR" ]; then
  name=$(basename "$0")
  printf '%s\n' "$@" > "$RECORD_DIR/$name.args"
  printf '%s' "$PGPASSWORD" > "$RECORD_DIR/$name.pw"
fi
`

func writeTool(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+recordArgs+body), 0o755))
	return path
}

// isolatedLocator only looks in dir.
func isolatedLocator(dir string) *Locator {
	return &Locator{
		extraDirs: []string{dir},
		lookPath:  func(string) (string, error) { return "", errors.New("not found") },
	}
}

type fixture struct {
	bin    string
	record string
	runner *Runner
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	f := fixture{bin: t.TempDir(), record: t.TempDir()}
	f.runner = NewRunner(isolatedLocator(f.bin))
	f.runner.environ = func() []string {
		return append(os.Environ(), "RECORD_DIR="+f.record)
	}
	return f
}

func (f fixture) args(t *testing.T, tool string) []string {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join(f.record, tool+".args"))
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
}

func (f fixture) password(t *testing.T, tool string) string {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join(f.record, tool+".pw"))
	require.NoError(t, err)
	return string(raw)
}

var (
	source = Target{Host: "db.internal", Port: 5433, User: "app", Database: "shop", Password: "s3cret"}
	target = Target{Host: "localhost", Port: 5432, User: "postgres", Database: "shop_copy", Password: "other"}
)

func TestLocatorSearchOrder(t *testing.T) {
	extra := t.TempDir()
	fixed := t.TempDir()
	writeTool(t, fixed, "pg_dump", "")
	l := &Locator{extraDirs: []string{extra}, fixedDirs: []string{fixed}}

	assert.Equal(t, filepath.Join(fixed, "pg_dump"), l.Locate("pg_dump"))

	writeTool(t, extra, "pg_dump", "")
	assert.Equal(t, filepath.Join(extra, "pg_dump"), l.Locate("pg_dump"))
	assert.Empty(t, l.Locate("pg_restore"))
}

func TestLocatorSkipsNonExecutable(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "psql"), []byte("not a program"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "pg_dump"), 0o755))

	l := isolatedLocator(dir)
	assert.Empty(t, l.Locate("psql"))
	assert.Empty(t, l.Locate("pg_dump"))
}

func TestLocatorBundledVersionsNewestFirst(t *testing.T) {
	root := t.TempDir()
	for _, v := range []string{"9.6", "14", "latest", "15", "10.2"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, v, "bin"), 0o755))
	}
	assert.Equal(t, []string{"15", "14", "10.2", "9.6", "latest"}, bundledVersions(root))

	writeTool(t, filepath.Join(root, "9.6", "bin"), "pg_restore", "")
	writeTool(t, filepath.Join(root, "14", "bin"), "pg_restore", "")
	l := &Locator{versionsDir: root}
	assert.Equal(t, filepath.Join(root, "14", "bin", "pg_restore"), l.Locate("pg_restore"))
}

func TestLocatorFallsBackToPath(t *testing.T) {
	dir := t.TempDir()
	tool := writeTool(t, dir, "psql", "")
	l := &Locator{lookPath: func(name string) (string, error) {
		return filepath.Join(dir, name), nil
	}}
	assert.Equal(t, tool, l.Locate("psql"))
}

func TestLocatorDetect(t *testing.T) {
	f := newFixture(t)
	writeTool(t, f.bin, ToolDump, `echo "pg_dump (PostgreSQL) 16.2"`)
	writeTool(t, f.bin, ToolRestore, "")

	status := f.runner.Locator().Detect(context.Background())
	require.NotNil(t, status.DumpPath)
	require.NotNil(t, status.RestorePath)
	require.NotNil(t, status.Version)
	assert.Nil(t, status.PsqlPath)
	assert.Equal(t, "pg_dump (PostgreSQL) 16.2", *status.Version)
}

func TestArgs(t *testing.T) {
	assert.Equal(t,
		[]string{"-h", "db.internal", "-p", "5433", "-U", "app", "-d", "shop", "-F", "d", "-f", "/tmp/out", "--schema-only", "-t", "public.users", "-t", "orders"},
		DumpArgs(source, model.DumpDirectory, true, []string{"public.users", "orders"}, "/tmp/out"),
	)
	assert.Equal(t,
		[]string{"-h", "db.internal", "-p", "5433", "-U", "app", "-d", "shop", "-F", "c", "-f", "x.dump"},
		DumpArgs(source, model.DumpFormat("weird"), false, nil, "x.dump"),
	)
	assert.Equal(t,
		[]string{"-h", "localhost", "-p", "5432", "-U", "postgres", "-d", "shop_copy", "--clean", "--schema-only", "in.dump"},
		RestoreArgs(target, true, true, "in.dump"),
	)
	assert.Equal(t,
		[]string{"-h", "localhost", "-p", "5432", "-U", "postgres", "-d", "shop_copy", "-v", "ON_ERROR_STOP=1", "-f", "in.sql"},
		PsqlArgs(target, "in.sql"),
	)
	assert.Equal(t,
		[]string{"-h", "db.internal", "-p", "5433", "-U", "app", "-d", "shop", "-F", "c", "-t", "users"},
		TransferDumpArgs(source, false, []string{"users"}),
	)
	assert.Equal(t,
		[]string{"-h", "localhost", "-p", "5432", "-U", "postgres", "-d", "shop_copy"},
		TransferRestoreArgs(target, false),
	)
}

func TestTargetFromDescriptorDefaultsPort(t *testing.T) {
	got := TargetFromDescriptor(model.ConnectionDescriptor{Host: "h", User: "u", Database: "d", Password: "p"})
	assert.Equal(t, Target{Host: "h", Port: model.DefaultPort, User: "u", Database: "d", Password: "p"}, got)
}

func TestDetectRestoreFormat(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
		return p
	}

	assert.Equal(t, FormatArchive, DetectRestoreFormat(write("a.dump", "PGDMP\x01\x0e")))
	assert.Equal(t, FormatPlainSQL, DetectRestoreFormat(write("a.sql", "CREATE TABLE t (id int);")))
	assert.Equal(t, FormatPlainSQL, DetectRestoreFormat(write("short.sql", "PG")))
	assert.Equal(t, FormatPlainSQL, DetectRestoreFormat(write("empty.sql", "")))
	assert.Equal(t, FormatArchive, DetectRestoreFormat(dir))
	assert.Equal(t, FormatArchive, DetectRestoreFormat(filepath.Join(dir, "missing")))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		code   int
		stderr string
		strict model.OutcomeStatus
		lax    model.OutcomeStatus
	}{
		{"clean exit", 0, "", model.OutcomeSuccess, model.OutcomeSuccess},
		{"clean exit with notices", 0, "NOTICE: x", model.OutcomeSuccess, model.OutcomeSuccess},
		{"warnings only", 1, "pg_restore: warning: errors ignored on restore: 2", model.OutcomeFailure, model.OutcomeWarning},
		{"server error", 1, `pg_restore: error: could not execute query: ERROR:  relation "t" already exists`, model.OutcomeFailure, model.OutcomeFailure},
		{"lowercase error is not fatal", 1, "pg_restore: error: input file is too short", model.OutcomeFailure, model.OutcomeWarning},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.strict, ClassifyStrict(tt.code, tt.stderr).Status)
			got := ClassifyRestore(tt.code, tt.stderr)
			assert.Equal(t, tt.lax, got.Status)
			assert.Equal(t, tt.stderr, got.Stderr)
		})
	}
}

func TestDumpSuccess(t *testing.T) {
	f := newFixture(t)
	writeTool(t, f.bin, ToolDump, `out=""
while [ $# -gt 0 ]; do
  if [ "$1" = "-f" ]; then out="$2"; fi
  shift
done
printf 'dumpdata' > "$out"
`)
	out := filepath.Join(t.TempDir(), "shop.dump")

	outcome, err := f.runner.Dump(context.Background(), source, model.DumpRequest{
		Format:     model.DumpCustom,
		Tables:     []string{"users"},
		OutputPath: out,
	})
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeSuccess, outcome.Status)
	assert.Equal(t, out, outcome.FilePath)
	assert.Equal(t, int64(len("dumpdata")), outcome.SizeBytes)
	assert.Equal(t, DumpArgs(source, model.DumpCustom, false, []string{"users"}, out), f.args(t, ToolDump))
	assert.Equal(t, "s3cret", f.password(t, ToolDump))
	assert.NotContains(t, f.args(t, ToolDump), "s3cret")
}

func TestDumpFailureKeepsPath(t *testing.T) {
	f := newFixture(t)
	writeTool(t, f.bin, ToolDump, `echo 'pg_dump: error: connection to server failed' >&2
exit 1`)

	outcome, err := f.runner.Dump(context.Background(), source, model.DumpRequest{OutputPath: "/nowhere/x.dump"})
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeFailure, outcome.Status)
	assert.Equal(t, "/nowhere/x.dump", outcome.FilePath)
	assert.Zero(t, outcome.SizeBytes)
	assert.Contains(t, outcome.Stderr, "connection to server failed")
}

func TestDumpToolNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.runner.Dump(context.Background(), source, model.DumpRequest{OutputPath: "x"})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.ToolNotFound))
	assert.Equal(t, "pg_dump not found on system", err.Error())
}

func TestRestorePlainWithoutPsql(t *testing.T) {
	f := newFixture(t)
	writeTool(t, f.bin, ToolRestore, "")
	in := filepath.Join(t.TempDir(), "in.sql")
	require.NoError(t, os.WriteFile(in, []byte("SELECT 1;"), 0o644))

	outcome, err := f.runner.Restore(context.Background(), target, model.RestoreRequest{InputPath: in})
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeFailure, outcome.Status)
	assert.Equal(t, MissingPsqlMessage, outcome.Stderr)
}

func TestRestorePlainUsesPsql(t *testing.T) {
	f := newFixture(t)
	writeTool(t, f.bin, ToolPsql, "")
	in := filepath.Join(t.TempDir(), "in.sql")
	require.NoError(t, os.WriteFile(in, []byte("SELECT 1;"), 0o644))

	outcome, err := f.runner.Restore(context.Background(), target, model.RestoreRequest{InputPath: in, Clean: true})
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeSuccess, outcome.Status)
	assert.Equal(t, PsqlArgs(target, in), f.args(t, ToolPsql))
	assert.Equal(t, "other", f.password(t, ToolPsql))
}

func TestRestoreArchiveClassification(t *testing.T) {
	in := filepath.Join(t.TempDir(), "in.dump")
	require.NoError(t, os.WriteFile(in, []byte("PGDMP...."), 0o644))

	tests := []struct {
		name string
		body string
		want model.OutcomeStatus
	}{
		{"success", "exit 0", model.OutcomeSuccess},
		{"warning", "echo 'pg_restore: warning: errors ignored on restore: 1' >&2\nexit 1", model.OutcomeWarning},
		{"failure", "echo 'ERROR:  permission denied for schema public' >&2\nexit 1", model.OutcomeFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			writeTool(t, f.bin, ToolRestore, tt.body)

			outcome, err := f.runner.Restore(context.Background(), target, model.RestoreRequest{InputPath: in, SchemaOnly: true})
			require.NoError(t, err)
			assert.Equal(t, tt.want, outcome.Status)
			assert.Equal(t, RestoreArgs(target, false, true, in), f.args(t, ToolRestore))
		})
	}
}

func TestTransferStreamsDumpIntoRestore(t *testing.T) {
	f := newFixture(t)
	received := filepath.Join(t.TempDir(), "received")
	writeTool(t, f.bin, ToolDump, `printf 'PGDMP-archive-bytes'`)
	writeTool(t, f.bin, ToolRestore, `cat > "`+received+`"`)

	outcome, err := f.runner.Transfer(context.Background(), source, target, model.TransferRequest{
		Tables: []string{"users"},
		Clean:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeSuccess, outcome.Status)

	data, err := os.ReadFile(received)
	require.NoError(t, err)
	assert.Equal(t, "PGDMP-archive-bytes", string(data))
	assert.Equal(t, TransferDumpArgs(source, false, []string{"users"}), f.args(t, ToolDump))
	assert.Equal(t, TransferRestoreArgs(target, true), f.args(t, ToolRestore))
	assert.Equal(t, "s3cret", f.password(t, ToolDump))
	assert.Equal(t, "other", f.password(t, ToolRestore))
}

func TestTransferClassifiesRestoreSide(t *testing.T) {
	f := newFixture(t)
	writeTool(t, f.bin, ToolDump, `echo 'pg_dump: warning: something odd' >&2
exit 1`)
	writeTool(t, f.bin, ToolRestore, `cat > /dev/null
echo 'pg_restore: warning: errors ignored on restore: 1' >&2
exit 1`)

	outcome, err := f.runner.Transfer(context.Background(), source, target, model.TransferRequest{})
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeWarning, outcome.Status)
	assert.Contains(t, outcome.Stderr, "errors ignored on restore")
	assert.Contains(t, outcome.Stderr, "pg_dump: warning: something odd")

	writeTool(t, f.bin, ToolRestore, `cat > /dev/null
echo 'ERROR:  relation "users" already exists' >&2
exit 1`)
	outcome, err = f.runner.Transfer(context.Background(), source, target, model.TransferRequest{})
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeFailure, outcome.Status)
}

func TestTransferRequiresBothTools(t *testing.T) {
	f := newFixture(t)
	writeTool(t, f.bin, ToolDump, "")

	_, err := f.runner.Transfer(context.Background(), source, target, model.TransferRequest{})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.ToolNotFound))
	assert.Contains(t, err.Error(), "pg_restore")
}

func TestRestorePlainStopsOnFirstError(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want model.OutcomeStatus
	}{
		{"clean script", "SELECT 1;", model.OutcomeSuccess},
		{"failing statement", "SELEC 1;", model.OutcomeFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			// Mimics psql: a failed statement only changes the exit code when
			// ON_ERROR_STOP is set.
			writeTool(t, f.bin, ToolPsql, `stop=0
file=""
while [ $# -gt 0 ]; do
  if [ "$1" = "-v" ] && [ "$2" = "ON_ERROR_STOP=1" ]; then stop=1; fi
  if [ "$1" = "-f" ]; then file="$2"; fi
  shift
done
if grep -q SELEC "$file" && ! grep -q SELECT "$file"; then
  echo 'psql:in.sql:1: ERROR:  syntax error at or near "SELEC"' >&2
  if [ "$stop" = 1 ]; then exit 3; fi
fi
exit 0
`)
			in := filepath.Join(t.TempDir(), "in.sql")
			require.NoError(t, os.WriteFile(in, []byte(tt.sql), 0o644))

			outcome, err := f.runner.Restore(context.Background(), target, model.RestoreRequest{InputPath: in})
			require.NoError(t, err)
			assert.Equal(t, tt.want, outcome.Status)
			if tt.want == model.OutcomeFailure {
				assert.Contains(t, outcome.Stderr, "syntax error")
			}
		})
	}
}
