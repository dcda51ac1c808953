package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/marcogbarcellos/pgstudio/internal/events"
	"github.com/marcogbarcellos/pgstudio/internal/model"
	"github.com/marcogbarcellos/pgstudio/internal/pkg/apperr"
	"github.com/marcogbarcellos/pgstudio/internal/pkg/logctx"
)

const verifyTimeout = 5 * time.Second

// liveSession is a registered session plus the descriptor it was opened
// with, minus the password.
type liveSession struct {
	session     Session
	desc        model.ConnectionDescriptor
	connectedAt time.Time
}

// ActiveConnection describes one registered session.
type ActiveConnection struct {
	ID          string    `json:"id"`
	Name        string    `json:"name,omitempty"`
	Database    string    `json:"database"`
	ConnectedAt time.Time `json:"connectedAt"`
}

// ConnectionRegistry owns the live sessions keyed by connection id. Sessions
// are opened and closed outside the lock; only the map swap is exclusive.
type ConnectionRegistry struct {
	open     SessionOpener
	resolver descriptorResolver
	events   events.Publisher

	mu       sync.RWMutex
	sessions map[string]*liveSession
}

func NewConnectionRegistry(open SessionOpener, store ConnectionStore, secrets SecretStore, publisher events.Publisher) *ConnectionRegistry {
	return &ConnectionRegistry{
		open:     open,
		resolver: descriptorResolver{store: store, secrets: secrets},
		events:   publisher,
		sessions: make(map[string]*liveSession),
	}
}

// Connect opens a session for desc and registers it, replacing and closing
// any session already registered under desc.ID. On failure the registry is
// left as it was.
func (r *ConnectionRegistry) Connect(ctx context.Context, desc model.ConnectionDescriptor) error {
	if desc.Port == 0 {
		desc.Port = model.DefaultPort
	}
	if desc.SSLMode == "" {
		desc.SSLMode = model.SSLModePrefer
	}
	if err := desc.Validate(); err != nil {
		return apperr.Wrap(apperr.InvalidInput, "invalid connection", err)
	}

	ctx = logctx.WithConnectionID(ctx, desc.ID)
	r.emit(desc.ID, events.ConnectionStateConnecting, desc.Database, fmt.Sprintf("connecting to %s", desc.Database), nil)

	session, err := r.open(ctx, desc)
	if err != nil {
		if apperr.KindOf(err) == apperr.Internal {
			err = apperr.Wrap(apperr.Connection, "failed to connect", err)
		}
		slog.ErrorContext(ctx, "database connect failed", slog.Any("err", err))
		r.emit(desc.ID, events.ConnectionStateFailed, desc.Database, "", err)
		return err
	}

	stored := desc
	stored.Password = ""
	entry := &liveSession{session: session, desc: stored, connectedAt: time.Now()}

	r.mu.Lock()
	previous := r.sessions[desc.ID]
	r.sessions[desc.ID] = entry
	r.mu.Unlock()

	if previous != nil {
		if err := previous.session.Close(); err != nil {
			slog.WarnContext(ctx, "failed to close replaced session", slog.Any("err", err))
		}
	}

	slog.InfoContext(ctx, "database connected",
		slog.String("host", desc.Host),
		slog.String("database", desc.Database),
		slog.Bool("replaced", previous != nil),
	)
	r.emit(desc.ID, events.ConnectionStateConnected, desc.Database, fmt.Sprintf("connected to %s", desc.Database), nil)
	return nil
}

// ConnectStored connects a saved connection. An empty password is read from
// the secret store.
func (r *ConnectionRegistry) ConnectStored(ctx context.Context, id, password string) error {
	desc, err := r.resolver.resolve(ctx, id, password)
	if err != nil {
		return err
	}
	return r.Connect(ctx, desc)
}

// SwitchDatabase reconnects a saved connection against another database on
// the same server. The current session stays registered if the new one
// cannot be opened.
func (r *ConnectionRegistry) SwitchDatabase(ctx context.Context, id, database string) error {
	if database == "" {
		return apperr.New(apperr.InvalidInput, "database is required")
	}
	desc, err := r.resolver.resolve(ctx, id, "")
	if err != nil {
		return err
	}
	return r.Connect(ctx, desc.WithDatabase(database))
}

// Disconnect drops the session for id. Unknown ids are ignored.
func (r *ConnectionRegistry) Disconnect(ctx context.Context, id string) error {
	r.mu.Lock()
	entry := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if entry == nil {
		return nil
	}
	ctx = logctx.WithConnectionID(ctx, id)
	if err := entry.session.Close(); err != nil {
		slog.WarnContext(ctx, "failed to close session", slog.Any("err", err))
	}
	slog.InfoContext(ctx, "database disconnected")
	r.emit(id, events.ConnectionStateDisconnected, entry.desc.Database, "", nil)
	return nil
}

// Get returns the live session for id.
func (r *ConnectionRegistry) Get(id string) (Session, error) {
	r.mu.RLock()
	entry := r.sessions[id]
	r.mu.RUnlock()
	if entry == nil {
		return nil, apperr.Newf(apperr.NotConnected, "No active connection with id: %s", id)
	}
	return entry.session, nil
}

// TestConnection opens a throwaway session and returns the server version.
func (r *ConnectionRegistry) TestConnection(ctx context.Context, desc model.ConnectionDescriptor) (string, error) {
	if desc.Port == 0 {
		desc.Port = model.DefaultPort
	}
	if desc.SSLMode == "" {
		desc.SSLMode = model.SSLModePrefer
	}
	if desc.ID == "" {
		desc.ID = "test"
	}
	if err := desc.Validate(); err != nil {
		return "", apperr.Wrap(apperr.InvalidInput, "invalid connection", err)
	}

	session, err := r.open(ctx, desc)
	if err != nil {
		if apperr.KindOf(err) == apperr.Internal {
			err = apperr.Wrap(apperr.Connection, "failed to connect", err)
		}
		return "", err
	}
	defer func() {
		if err := session.Close(); err != nil {
			slog.WarnContext(ctx, "failed to close test session", slog.Any("err", err))
		}
	}()

	version, err := session.ServerVersion(ctx)
	if err != nil {
		return "", err
	}
	return version, nil
}

// Verify pings the session for id and drops it when the ping fails, so the
// caller has to reconnect. Used after a query was cancelled mid-flight.
func (r *ConnectionRegistry) Verify(ctx context.Context, id string) error {
	r.mu.RLock()
	entry := r.sessions[id]
	r.mu.RUnlock()
	if entry == nil {
		return apperr.Newf(apperr.NotConnected, "No active connection with id: %s", id)
	}

	pingCtx, cancel := context.WithTimeout(ctx, verifyTimeout)
	defer cancel()
	pingErr := entry.session.Ping(pingCtx)
	if pingErr == nil {
		return nil
	}

	ctx = logctx.WithConnectionID(ctx, id)
	r.mu.Lock()
	// A concurrent Connect may already have replaced the broken session.
	current := r.sessions[id] == entry
	if current {
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	if current {
		_ = entry.session.Close()
		slog.WarnContext(ctx, "session dropped after failed ping", slog.Any("err", pingErr))
		r.emit(id, events.ConnectionStateDisconnected, entry.desc.Database, "connection lost", pingErr)
	}
	return apperr.Wrap(apperr.Connection, fmt.Sprintf("connection '%s' was lost", id), pingErr)
}

// ConnectedIDs lists the registered ids in lexical order.
func (r *ConnectionRegistry) ConnectedIDs() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// Active describes every registered session, ordered by id.
func (r *ConnectionRegistry) Active() []ActiveConnection {
	r.mu.RLock()
	out := make([]ActiveConnection, 0, len(r.sessions))
	for id, entry := range r.sessions {
		out = append(out, ActiveConnection{
			ID:          id,
			Name:        entry.desc.Name,
			Database:    entry.desc.Database,
			ConnectedAt: entry.connectedAt,
		})
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Close drops every session. Used at shutdown.
func (r *ConnectionRegistry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*liveSession)
	r.mu.Unlock()

	for id, entry := range sessions {
		if err := entry.session.Close(); err != nil {
			slog.Warn("failed to close session", slog.String("connectionId", id), slog.Any("err", err))
		}
		r.emit(id, events.ConnectionStateDisconnected, entry.desc.Database, "", nil)
	}
}

func (r *ConnectionRegistry) emit(id, state, database, message string, err error) {
	if r.events == nil {
		return
	}
	payload := events.ConnectionStatePayload{
		ConnectionID: id,
		State:        state,
		Database:     database,
		Message:      message,
	}
	if err != nil {
		payload.Error = apperr.Detail(err)
		if payload.Message == "" {
			payload.Message = payload.Error
		}
	}
	r.events.Publish(events.Event{Name: events.ConnectionStateEvent, Payload: payload})
}
