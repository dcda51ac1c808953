package rpc

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

	"golang.org/x/exp/jsonrpc2"
)

const shutdownTimeout = 5 * time.Second

// Server serves JSON-RPC 2.0 over HTTP POST /rpc, on TCP or a unix socket.
type Server struct {
	handler    *Handler
	httpServer *http.Server
	listener   net.Listener
	socketPath string
}

// JSONRPCRequest is the HTTP envelope of a call.
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      any             `json:"id"`
}

type JSONRPCResponse struct {
	JSONRPC string    `json:"jsonrpc"`
	Result  any       `json:"result,omitempty"`
	Error   *RPCError `json:"error,omitempty"`
	ID      any       `json:"id"`
}

type RPCError struct {
	Code    int64  `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// NewServer listens on the given TCP port. Port 0 picks a free one.
func NewServer(ctx context.Context, handler *Handler, port int) (*Server, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("failed to listen on port %d: %w", port, err)
	}
	return newServer(ctx, handler, ln, ""), nil
}

// NewUnixServer listens on a unix socket, replacing a stale one.
func NewUnixServer(ctx context.Context, handler *Handler, socketPath string) (*Server, error) {
	_ = os.Remove(socketPath)
	ln, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on unix socket %s: %w", socketPath, err)
	}
	return newServer(ctx, handler, ln, socketPath), nil
}

func newServer(ctx context.Context, handler *Handler, ln net.Listener, socketPath string) *Server {
	s := &Server{handler: handler, listener: ln, socketPath: socketPath}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /rpc", s.handleHTTPRequest)
	mux.HandleFunc("GET /healthcheck", s.handleHealthRequest)

	s.httpServer = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.ErrorContext(ctx, "rpc server stopped", slog.Any("err", err))
		}
	}()
	slog.InfoContext(ctx, "json-rpc listening", slog.String("addr", s.Addr()))
	return s
}

func (s *Server) handleHTTPRequest(w http.ResponseWriter, r *http.Request) {
	var req JSONRPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, nil, &RPCError{Code: CodeParseError, Message: "Parse error"})
		return
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		s.sendError(w, req.ID, &RPCError{Code: CodeInvalidRequest, Message: "Invalid Request"})
		return
	}

	var id jsonrpc2.ID
	switch v := req.ID.(type) {
	case float64:
		id = jsonrpc2.Int64ID(int64(v))
	case string:
		id = jsonrpc2.StringID(v)
	case nil:
	default:
		s.sendError(w, req.ID, &RPCError{Code: CodeInvalidRequest, Message: "Invalid Request ID"})
		return
	}

	result, err := s.handler.Handle(r.Context(), &jsonrpc2.Request{ID: id, Method: req.Method, Params: req.Params})
	if err != nil {
		s.sendError(w, req.ID, toRPCError(err))
		return
	}
	s.sendResult(w, req.ID, result)
}

func (s *Server) handleHealthRequest(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) sendResult(w http.ResponseWriter, id any, result any) {
	s.write(w, JSONRPCResponse{JSONRPC: "2.0", Result: result, ID: id})
}

func (s *Server) sendError(w http.ResponseWriter, id any, rpcErr *RPCError) {
	s.write(w, JSONRPCResponse{JSONRPC: "2.0", Error: rpcErr, ID: id})
}

func (s *Server) write(w http.ResponseWriter, resp JSONRPCResponse) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Debug("failed to write rpc response", slog.Any("err", err))
	}
}

// Shutdown stops the server and removes the unix socket if one was used.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := s.httpServer.Shutdown(ctx)
	if s.socketPath != "" {
		_ = os.Remove(s.socketPath)
	}
	return err
}

// Addr returns the socket path or the bound host:port.
func (s *Server) Addr() string {
	if s.socketPath != "" {
		return s.socketPath
	}
	return s.listener.Addr().String()
}
