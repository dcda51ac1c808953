package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"syscall"

	"github.com/marcogbarcellos/pgstudio/internal/pkg/logctx"
)

const appName = "pgstudio"

// fileLog owns the daemon's log file so SIGHUP can reopen it after an
// external rotation.
type fileLog struct {
	mu    sync.Mutex
	file  *os.File
	path  string
	level slog.Leveler
}

func (l *fileLog) open() *slog.Logger {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		_ = l.file.Close()
		l.file = nil
	}
	logDir := defaultLogDir()
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return stderrLogger(l.level)
	}
	l.path = filepath.Join(logDir, fmt.Sprintf("%s.log", appName))
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return stderrLogger(l.level)
	}
	l.file = f
	h := slog.NewJSONHandler(f, &slog.HandlerOptions{Level: l.level})
	return logctx.WrapLogger(slog.New(h).With(slog.String("app", appName)))
}

// reopenOnHUP swaps the default logger every time SIGHUP arrives.
func (l *fileLog) reopenOnHUP() (stop func()) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	go func() {
		for range hup {
			slog.SetDefault(l.open())
			slog.Info("log file reopened", slog.String("path", l.path))
		}
	}()
	return func() {
		signal.Stop(hup)
		close(hup)
	}
}

func (l *fileLog) close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		_ = l.file.Close()
	}
}

// stderrLogger is used by one-shot commands and as the daemon's fallback.
func stderrLogger(level slog.Leveler) *slog.Logger {
	h := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return logctx.WrapLogger(slog.New(h).With(slog.String("app", appName)))
}

func parseLevel(s string, def slog.Level) slog.Leveler {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "err":
		return slog.LevelError
	default:
		return def
	}
}

func defaultLogDir() string {
	if x := os.Getenv("XDG_STATE_HOME"); x != "" {
		return filepath.Join(x, appName)
	}
	home, _ := os.UserHomeDir()
	if runtime.GOOS == "darwin" && home != "" {
		return filepath.Join(home, "Library", "Logs", appName)
	}
	if home != "" {
		return filepath.Join(home, ".local", "state", appName)
	}
	return filepath.Join(os.TempDir(), appName)
}
