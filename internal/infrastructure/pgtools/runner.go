// Package pgtools drives the Postgres client binaries (pg_dump, pg_restore
// and psql) for dumps, restores and server-to-server transfers.
package pgtools

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/marcogbarcellos/pgstudio/internal/model"
	"github.com/marcogbarcellos/pgstudio/internal/pkg/apperr"
	"github.com/marcogbarcellos/pgstudio/internal/pkg/redact"
)

// MissingPsqlMessage is reported when a plain SQL file cannot be restored.
const MissingPsqlMessage = "psql not found on system. Plain SQL restore requires psql."

// Runner executes the tools found by its Locator.
type Runner struct {
	locator *Locator
	environ func() []string
}

func NewRunner(locator *Locator) *Runner {
	return &Runner{locator: locator, environ: os.Environ}
}

// Locator exposes the locator used to find binaries.
func (r *Runner) Locator() *Locator { return r.locator }

func (r *Runner) require(name string) (string, error) {
	path := r.locator.Locate(name)
	if path == "" {
		return "", apperr.Newf(apperr.ToolNotFound, "%s not found on system", name)
	}
	return path, nil
}

// Dump writes a dump of t to req.OutputPath. A tool that runs and fails is
// reported as a failure outcome; only a missing or unstartable binary is an
// error.
func (r *Runner) Dump(ctx context.Context, t Target, req model.DumpRequest) (model.ToolOutcome, error) {
	path, err := r.require(ToolDump)
	if err != nil {
		return model.ToolOutcome{}, err
	}

	args := DumpArgs(t, req.Format, req.SchemaOnly, req.Tables, req.OutputPath)
	code, stderr, err := r.run(ctx, path, args, t)
	if err != nil {
		return model.ToolOutcome{}, err
	}

	outcome := ClassifyStrict(code, stderr)
	outcome.FilePath = req.OutputPath
	if outcome.Status == model.OutcomeSuccess {
		outcome.SizeBytes = pathSize(req.OutputPath)
	}
	return outcome, nil
}

// Restore loads req.InputPath into t. Plain SQL goes through psql, archives
// and directories through pg_restore.
func (r *Runner) Restore(ctx context.Context, t Target, req model.RestoreRequest) (model.ToolOutcome, error) {
	format := DetectRestoreFormat(req.InputPath)
	slog.DebugContext(ctx, "restore input inspected",
		slog.String("path", req.InputPath),
		slog.String("format", format.String()),
	)

	if format == FormatPlainSQL {
		psql := r.locator.Locate(ToolPsql)
		if psql == "" {
			return model.ToolOutcome{Status: model.OutcomeFailure, Stderr: MissingPsqlMessage}, nil
		}
		code, stderr, err := r.run(ctx, psql, PsqlArgs(t, req.InputPath), t)
		if err != nil {
			return model.ToolOutcome{}, err
		}
		return ClassifyStrict(code, stderr), nil
	}

	path, err := r.require(ToolRestore)
	if err != nil {
		return model.ToolOutcome{}, err
	}
	code, stderr, err := r.run(ctx, path, RestoreArgs(t, req.Clean, req.SchemaOnly, req.InputPath), t)
	if err != nil {
		return model.ToolOutcome{}, err
	}
	return ClassifyRestore(code, stderr), nil
}

// Transfer streams a custom-format dump of src straight into pg_restore
// against dst. Nothing is written to disk. Only the restore side decides the
// outcome; a failing dump is logged and its stderr appended.
func (r *Runner) Transfer(ctx context.Context, src, dst Target, req model.TransferRequest) (model.ToolOutcome, error) {
	dumpPath, err := r.require(ToolDump)
	if err != nil {
		return model.ToolOutcome{}, err
	}
	restorePath, err := r.require(ToolRestore)
	if err != nil {
		return model.ToolOutcome{}, err
	}

	pr, pw, err := os.Pipe()
	if err != nil {
		return model.ToolOutcome{}, apperr.Wrap(apperr.Process, "failed to create transfer pipe", err)
	}

	var dumpErrBuf, restoreErrBuf bytes.Buffer
	dump := r.command(ctx, dumpPath, TransferDumpArgs(src, req.SchemaOnly, req.Tables), src)
	dump.Stdout = pw
	dump.Stderr = &dumpErrBuf

	restore := r.command(ctx, restorePath, TransferRestoreArgs(dst, req.Clean), dst)
	restore.Stdin = pr
	restore.Stderr = &restoreErrBuf

	if err := dump.Start(); err != nil {
		_ = pr.Close()
		_ = pw.Close()
		return model.ToolOutcome{}, apperr.Wrap(apperr.Process, "failed to start pg_dump", err)
	}
	if err := restore.Start(); err != nil {
		_ = pr.Close()
		_ = pw.Close()
		_ = dump.Process.Kill()
		_ = dump.Wait()
		return model.ToolOutcome{}, apperr.Wrap(apperr.Process, "failed to start pg_restore", err)
	}
	// The children hold their own ends; closing ours lets pg_restore see EOF.
	_ = pr.Close()
	_ = pw.Close()

	start := time.Now()
	var dumpErr, restoreErr error
	var g errgroup.Group
	g.Go(func() error {
		dumpErr = dump.Wait()
		return nil
	})
	g.Go(func() error {
		restoreErr = restore.Wait()
		return nil
	})
	_ = g.Wait()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return model.ToolOutcome{}, apperr.Wrap(apperr.Process, "transfer cancelled", ctxErr)
	}

	dumpCode, err := exitCode(dumpErr)
	if err != nil {
		return model.ToolOutcome{}, apperr.Wrap(apperr.Process, "pg_dump did not exit cleanly", err)
	}
	restoreCode, err := exitCode(restoreErr)
	if err != nil {
		return model.ToolOutcome{}, apperr.Wrap(apperr.Process, "pg_restore did not exit cleanly", err)
	}

	stderr := restoreErrBuf.String()
	if dumpCode != 0 {
		slog.WarnContext(ctx, "pg_dump exited with error during transfer",
			slog.Int("exitCode", dumpCode),
			slog.String("stderr", redact.Mask(dumpErrBuf.String())),
		)
		stderr = joinStderr(stderr, dumpErrBuf.String())
	}

	outcome := ClassifyRestore(restoreCode, stderr)
	slog.InfoContext(ctx, "transfer finished",
		slog.String("status", string(outcome.Status)),
		slog.Int("dumpExitCode", dumpCode),
		slog.Int("restoreExitCode", restoreCode),
		slog.Duration("duration", time.Since(start)),
	)
	return outcome, nil
}

func (r *Runner) command(ctx context.Context, path string, args []string, t Target) *exec.Cmd {
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Env = t.env(r.environ())
	return cmd
}

// run executes one tool to completion and returns its exit code and stderr.
func (r *Runner) run(ctx context.Context, path string, args []string, t Target) (int, string, error) {
	cmd := r.command(ctx, path, args, t)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	tool := filepath.Base(path)
	slog.DebugContext(ctx, "running tool",
		slog.String("tool", tool),
		slog.String("args", redact.Mask(strings.Join(args, " "))),
		slog.Any("env", redact.Env(pgEnv(cmd.Env))),
	)

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return 0, "", apperr.Wrap(apperr.Process, "failed to start "+tool, err)
	}
	code, err := exitCode(cmd.Wait())
	if err != nil {
		return 0, "", apperr.Wrap(apperr.Process, tool+" did not exit cleanly", err)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return 0, "", apperr.Wrap(apperr.Process, tool+" cancelled", ctxErr)
	}

	slog.InfoContext(ctx, "tool finished",
		slog.String("tool", tool),
		slog.Int("exitCode", code),
		slog.Duration("duration", time.Since(start)),
	)
	if code != 0 {
		slog.DebugContext(ctx, "tool stderr", slog.String("tool", tool), slog.String("stderr", redact.Mask(stderr.String())))
	}
	return code, stderr.String(), nil
}

// pgEnv keeps the libpq variables of env.
func pgEnv(env []string) []string {
	var out []string
	for _, kv := range env {
		if strings.HasPrefix(kv, "PG") {
			out = append(out, kv)
		}
	}
	return out
}

// exitCode maps the result of Wait to a process exit code. A process killed
// by a signal reports -1.
func exitCode(err error) (int, error) {
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return 0, err
}

func joinStderr(restore, dump string) string {
	restore = strings.TrimRight(restore, "\n")
	dump = strings.TrimRight(dump, "\n")
	switch {
	case restore == "":
		return dump
	case dump == "":
		return restore
	default:
		return restore + "\n" + dump
	}
}

// pathSize is the size of a file, or the total size of the files under a
// directory for directory-format dumps.
func pathSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	if !info.IsDir() {
		return info.Size()
	}
	var total int64
	_ = filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if fi, err := d.Info(); err == nil {
			total += fi.Size()
		}
		return nil
	})
	return total
}
