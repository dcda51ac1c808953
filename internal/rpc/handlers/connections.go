package handlers

import (
	"context"
	"strings"

	"github.com/marcogbarcellos/pgstudio/internal/model"
	"github.com/marcogbarcellos/pgstudio/internal/pkg/logctx"
	"github.com/marcogbarcellos/pgstudio/internal/service"
)

type ConnectionParams struct {
	ConnectionID string `json:"connectionId"`
}

// DescriptorParams carries a descriptor together with its password, which
// the descriptor itself never serializes.
type DescriptorParams struct {
	model.ConnectionDescriptor
	Password string `json:"password,omitempty"`
}

func (p DescriptorParams) descriptor() model.ConnectionDescriptor {
	desc := p.ConnectionDescriptor
	desc.Password = p.Password
	return desc
}

type ImportParams struct {
	Path string `json:"path"`
}

type SwitchDatabaseParams struct {
	ConnectionID string `json:"connectionId"`
	Database     string `json:"database"`
}

type TestConnectionResult struct {
	ServerVersion string `json:"serverVersion"`
}

func listConnections(ctx context.Context, svc service.Services, _ struct{}) ([]model.ConnectionRecord, error) {
	return svc.Connections.List(ctx)
}

func getConnection(ctx context.Context, svc service.Services, p ConnectionParams) (*model.ConnectionRecord, error) {
	return svc.Connections.Get(ctx, p.ConnectionID)
}

func saveConnection(ctx context.Context, svc service.Services, p DescriptorParams) (*model.ConnectionRecord, error) {
	return svc.Connections.Save(ctx, p.descriptor())
}

func deleteConnection(ctx context.Context, svc service.Services, p ConnectionParams) (Ack, error) {
	return ack, svc.Connections.Delete(ctx, p.ConnectionID)
}

func importConnections(ctx context.Context, svc service.Services, p ImportParams) ([]model.ConnectionRecord, error) {
	return svc.Connections.Import(ctx, p.Path)
}

func testConnection(ctx context.Context, svc service.Services, p DescriptorParams) (*TestConnectionResult, error) {
	version, err := svc.Registry.TestConnection(ctx, p.descriptor())
	if err != nil {
		return nil, err
	}
	return &TestConnectionResult{ServerVersion: version}, nil
}

// connect opens a full descriptor as given, or a stored connection when
// only the id (and optionally a password) is sent.
func connect(ctx context.Context, svc service.Services, p DescriptorParams) (Ack, error) {
	ctx = logctx.WithConnectionID(ctx, p.ID)
	if strings.TrimSpace(p.Host) == "" {
		return ack, svc.Registry.ConnectStored(ctx, p.ID, p.Password)
	}
	return ack, svc.Registry.Connect(ctx, p.descriptor())
}

func disconnect(ctx context.Context, svc service.Services, p ConnectionParams) (Ack, error) {
	return ack, svc.Registry.Disconnect(ctx, p.ConnectionID)
}

func switchDatabase(ctx context.Context, svc service.Services, p SwitchDatabaseParams) (Ack, error) {
	ctx = logctx.WithConnectionID(ctx, p.ConnectionID)
	return ack, svc.Registry.SwitchDatabase(ctx, p.ConnectionID, p.Database)
}

func listActiveConnections(_ context.Context, svc service.Services, _ struct{}) ([]service.ActiveConnection, error) {
	return svc.Registry.Active(), nil
}
