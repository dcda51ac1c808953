package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/marcogbarcellos/pgstudio/internal/httpapi"
	"github.com/marcogbarcellos/pgstudio/internal/rpc"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the backend daemon (HTTP API, event stream and JSON-RPC)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if code := serve(opts); code != 0 {
				return exitError{code: code}
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.Int("port", 0, "HTTP API TCP port")
	f.String("socket", "", "HTTP API unix socket path (preferred over --port)")
	f.Int("rpc-port", 0, "JSON-RPC TCP port (0 disables unless --rpc-socket is set)")
	f.String("rpc-socket", "", "JSON-RPC unix socket path")
	f.Bool("standalone", false, "run without parent-process monitoring (foreground mode)")
	f.Int("max-rows", 0, "row cap kept per background query")
	return cmd
}

type closer interface {
	Shutdown() error
	Addr() string
}

func serve(opts *rootOptions) int {
	cfg := opts.cfg
	logs := &fileLog{level: parseLevel(cfg.LogLevel, slog.LevelInfo)}
	slog.SetDefault(logs.open())
	stopHUP := logs.reopenOnHUP()
	defer stopHUP()
	defer logs.close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var parentDone <-chan struct{}
	if !cfg.Standalone {
		ch := make(chan struct{})
		parentDone = ch
		go monitorParentAlive(ch, cancel)
	} else {
		slog.InfoContext(ctx, "standalone mode: parent monitor disabled")
	}

	a, err := openApp(ctx, cfg)
	if err != nil {
		slog.ErrorContext(ctx, "failed to start backend", slog.Any("err", err))
		return 1
	}
	defer a.Close()

	var servers []closer
	defer func() {
		for _, s := range servers {
			if err := s.Shutdown(); err != nil {
				slog.ErrorContext(ctx, "server forced to shutdown", slog.String("addr", s.Addr()), slog.Any("err", err))
			}
		}
	}()

	handler := httpapi.NewHandler(a.services)
	var api *httpapi.Server
	if cfg.Listen.Socket != "" {
		api, err = httpapi.NewUnixServer(ctx, handler, a.hub, cfg.Listen.Socket)
	} else {
		api, err = httpapi.NewServer(ctx, handler, a.hub, cfg.Listen.Port)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to create http server", slog.Any("err", err))
		return 1
	}
	servers = append(servers, api)

	if cfg.RPC.Enabled() {
		rpcHandler := rpc.NewHandler(a.services)
		var rs *rpc.Server
		if cfg.RPC.Socket != "" {
			rs, err = rpc.NewUnixServer(ctx, rpcHandler, cfg.RPC.Socket)
		} else {
			rs, err = rpc.NewServer(ctx, rpcHandler, cfg.RPC.Port)
		}
		if err != nil {
			slog.ErrorContext(ctx, "failed to create rpc server", slog.Any("err", err))
			return 1
		}
		servers = append(servers, rs)
	}

	slog.InfoContext(ctx, "server started", slog.String("version", Version), slog.String("dataDir", cfg.DataDir))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)
	select {
	case <-quit:
	case <-parentDone:
		slog.WarnContext(ctx, "parent process died, shutting down")
	}

	slog.InfoContext(ctx, "shutting down")
	return 0
}

// monitorParentAlive watches file descriptor 3, a pipe whose write end the
// launching process holds. EOF means the parent died.
func monitorParentAlive(done chan<- struct{}, cancel context.CancelFunc) {
	pipe := os.NewFile(3, "parent-pipe")
	if pipe == nil {
		return
	}
	defer func() { _ = pipe.Close() }()

	buf := make([]byte, 1)
	if _, err := pipe.Read(buf); err != nil {
		cancel()
		close(done)
	}
}
