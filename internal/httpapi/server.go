package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/marcogbarcellos/pgstudio/internal/events"
)

const (
	sseHeartbeat    = 15 * time.Second
	shutdownTimeout = 5 * time.Second
)

// Server exposes the HTTP API and the SSE event stream.
type Server struct {
	handler    *Handler
	events     *events.Hub
	httpServer *http.Server
	listener   net.Listener
	socketPath string
}

// NewServer listens on the given TCP port. Port 0 picks a free one.
func NewServer(ctx context.Context, handler *Handler, eventsHub *events.Hub, port int) (*Server, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("failed to listen on port %d: %w", port, err)
	}
	return newServer(ctx, handler, eventsHub, ln, ""), nil
}

// NewUnixServer listens on a unix socket, replacing a stale one.
func NewUnixServer(ctx context.Context, handler *Handler, eventsHub *events.Hub, socketPath string) (*Server, error) {
	_ = os.Remove(socketPath)
	ln, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on unix socket %s: %w", socketPath, err)
	}
	return newServer(ctx, handler, eventsHub, ln, socketPath), nil
}

func newServer(ctx context.Context, handler *Handler, eventsHub *events.Hub, ln net.Listener, socketPath string) *Server {
	s := &Server{handler: handler, events: eventsHub, listener: ln, socketPath: socketPath}
	// Dumps, transfers and long queries answer after minutes, so there is
	// no write timeout.
	s.httpServer = &http.Server{
		Handler:           s.buildMux(),
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.ErrorContext(ctx, "http server stopped", slog.Any("err", err))
		}
	}()
	slog.InfoContext(ctx, "http api listening", slog.String("addr", s.Addr()))
	return s
}

func (s *Server) buildMux() *http.ServeMux {
	h := s.handler
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /events", s.handleEvents)

	mux.HandleFunc("GET /connections", h.listConnections)
	mux.HandleFunc("POST /connections", h.saveConnection)
	mux.HandleFunc("GET /connections/active", h.activeConnections)
	mux.HandleFunc("POST /connections/test", h.testConnection)
	mux.HandleFunc("POST /connections/import", h.importConnections)
	mux.HandleFunc("GET /connections/{id}", h.getConnection)
	mux.HandleFunc("PUT /connections/{id}", h.saveConnection)
	mux.HandleFunc("DELETE /connections/{id}", h.deleteConnection)
	mux.HandleFunc("POST /connections/{id}/connect", h.connect)
	mux.HandleFunc("POST /connections/{id}/disconnect", h.disconnect)
	mux.HandleFunc("POST /connections/{id}/database", h.switchDatabase)

	mux.HandleFunc("POST /connections/{id}/queries", h.executeQuery)
	mux.HandleFunc("POST /connections/{id}/jobs", h.submitQuery)
	mux.HandleFunc("GET /jobs/{jobId}", h.getJob)
	mux.HandleFunc("POST /jobs/{jobId}/cancel", h.cancelJob)
	mux.HandleFunc("GET /jobs/{jobId}/result", h.getJobResult)

	mux.HandleFunc("GET /connections/{id}/databases", h.listDatabases)
	mux.HandleFunc("GET /connections/{id}/schemas", h.listSchemas)
	mux.HandleFunc("GET /connections/{id}/schemas/{schema}/tables", h.listTables)
	mux.HandleFunc("GET /connections/{id}/schemas/{schema}/tables/{table}/data", h.tableData)
	mux.HandleFunc("GET /connections/{id}/schemas/{schema}/tables/{table}/{facet}", h.tableFacet)
	mux.HandleFunc("GET /connections/{id}/schema-context", h.schemaContext)
	mux.HandleFunc("GET /connections/{id}/usage", h.topTables)

	mux.HandleFunc("GET /history", h.listHistory)
	mux.HandleFunc("GET /connections/{id}/history", h.listHistory)
	mux.HandleFunc("GET /connections/{id}/history/search", h.searchTableHistory)
	mux.HandleFunc("DELETE /history", h.deleteHistoryBySQL)
	mux.HandleFunc("DELETE /history/{historyId}", h.deleteHistory)
	mux.HandleFunc("GET /saved-queries", h.listSavedQueries)
	mux.HandleFunc("POST /saved-queries", h.saveQuery)
	mux.HandleFunc("DELETE /saved-queries/{queryId}", h.deleteSavedQuery)

	mux.HandleFunc("GET /tools", h.detectTools)
	mux.HandleFunc("POST /dump", h.dump)
	mux.HandleFunc("POST /restore", h.restore)
	mux.HandleFunc("POST /transfer", h.transfer)

	mux.HandleFunc("GET /ai/status", h.aiStatus)
	mux.HandleFunc("GET /ai/config", h.aiConfig)
	mux.HandleFunc("PUT /ai/config", h.configureAI)
	mux.HandleFunc("GET /ai/prompts", h.searchPrompts)
	mux.HandleFunc("POST /ai/sql", h.nlToSQL)
	mux.HandleFunc("POST /ai/explain", h.explain)
	mux.HandleFunc("POST /ai/optimize", h.optimize)
	mux.HandleFunc("POST /ai/complete", h.complete)
	mux.HandleFunc("POST /ai/chat", h.chat)
	return mux
}

// Addr is the bound address: the socket path or host:port.
func (s *Server) Addr() string {
	if s.socketPath != "" {
		return s.socketPath
	}
	return s.listener.Addr().String()
}

func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := s.httpServer.Shutdown(ctx)
	if s.socketPath != "" {
		_ = os.Remove(s.socketPath)
	}
	return err
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.events == nil {
		http.Error(w, "event stream unavailable", http.StatusServiceUnavailable)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	ctx := r.Context()
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		slog.DebugContext(ctx, "failed to clear write deadline for SSE", slog.Any("err", err))
	}

	w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	eventCh, unsubscribe := s.events.Subscribe()
	defer unsubscribe()

	heartbeat := time.NewTicker(sseHeartbeat)
	defer heartbeat.Stop()

	if _, err := w.Write([]byte(": connected\n\n")); err == nil {
		flusher.Flush()
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			if _, err := w.Write([]byte(": ping\n\n")); err != nil {
				return
			}
			flusher.Flush()
		case evt, ok := <-eventCh:
			if !ok {
				return
			}
			if err := writeEvent(w, evt); err != nil {
				slog.DebugContext(ctx, "sse write failed", slog.Any("err", err))
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, evt events.Event) error {
	payload, err := json.Marshal(evt.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal sse payload: %w", err)
	}
	if !evt.Timestamp.IsZero() {
		if _, err := fmt.Fprintf(w, "id: %d\n", evt.Timestamp.UnixNano()); err != nil {
			return err
		}
	}
	if evt.Name != "" {
		if _, err := fmt.Fprintf(w, "event: %s\n", evt.Name); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", payload)
	return err
}
