package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/marcogbarcellos/pgstudio/internal/infrastructure/storage"
	"github.com/marcogbarcellos/pgstudio/internal/model"
	"github.com/marcogbarcellos/pgstudio/internal/pkg/apperr"
	"github.com/marcogbarcellos/pgstudio/internal/pkg/cloneutil"
)

// ConnectionService manages saved connections. Records go to the store and
// passwords to the secret store, never together.
type ConnectionService struct {
	store     ConnectionStore
	secrets   SecretStore
	registry  *ConnectionRegistry
	passwords *PasswordService
}

func NewConnectionService(store ConnectionStore, secrets SecretStore, registry *ConnectionRegistry) *ConnectionService {
	return &ConnectionService{
		store:     store,
		secrets:   secrets,
		registry:  registry,
		passwords: NewPasswordService(secrets),
	}
}

// Save persists desc and returns the stored record. A missing id is
// generated. An empty password leaves the stored one untouched.
func (s *ConnectionService) Save(ctx context.Context, desc model.ConnectionDescriptor) (*model.ConnectionRecord, error) {
	if strings.TrimSpace(desc.ID) == "" {
		desc.ID = uuid.NewString()
	}
	if desc.Port == 0 {
		desc.Port = model.DefaultPort
	}
	if desc.SSLMode == "" {
		desc.SSLMode = model.SSLModePrefer
	}
	if err := desc.Validate(); err != nil {
		return nil, apperr.Wrap(apperr.InvalidInput, "invalid connection", err)
	}

	rec := model.RecordFromDescriptor(desc)
	rec.Color = cloneutil.Ptr(desc.Color)
	if err := s.store.SaveConnection(ctx, rec); err != nil {
		return nil, err
	}
	if desc.Password != "" {
		if err := s.secrets.SetPassword(desc.ID, desc.Password); err != nil {
			return nil, apperr.Wrap(apperr.Storage, "failed to store password", err)
		}
	}
	return s.store.GetConnection(ctx, desc.ID)
}

func (s *ConnectionService) List(ctx context.Context) ([]model.ConnectionRecord, error) {
	return s.store.ListConnections(ctx)
}

func (s *ConnectionService) Get(ctx context.Context, id string) (*model.ConnectionRecord, error) {
	return s.store.GetConnection(ctx, id)
}

// Delete disconnects id, then removes its record and stored password.
func (s *ConnectionService) Delete(ctx context.Context, id string) error {
	if s.registry != nil {
		_ = s.registry.Disconnect(ctx, id)
	}
	if err := s.store.DeleteConnection(ctx, id); err != nil {
		return err
	}
	if err := s.secrets.DeletePassword(id); err != nil {
		slog.WarnContext(ctx, "failed to delete stored password", slog.String("connectionId", id), slog.Any("err", err))
	}
	return nil
}

// Import saves every connection listed in the YAML file at path and returns
// the stored records in file order.
func (s *ConnectionService) Import(ctx context.Context, path string) ([]model.ConnectionRecord, error) {
	file, err := storage.NewImportLoader(path).Load()
	if err != nil {
		return nil, apperr.Wrap(apperr.InvalidInput, "failed to load import file", err)
	}

	out := make([]model.ConnectionRecord, 0, len(file.Connections))
	for _, conn := range file.Connections {
		desc := conn.Descriptor()
		if conn.Password != nil {
			password, err := s.passwords.Resolve(ctx, conn.Password)
			if err != nil {
				return out, apperr.Wrap(apperr.InvalidInput, fmt.Sprintf("connection '%s': failed to resolve password", conn.ID), err)
			}
			desc.Password = password
		}
		rec, err := s.Save(ctx, desc)
		if err != nil {
			return out, err
		}
		out = append(out, *rec)
	}
	slog.InfoContext(ctx, "connections imported", slog.String("path", path), slog.Int("count", len(out)))
	return out, nil
}
