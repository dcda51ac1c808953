package service

import (
	"context"

	"github.com/marcogbarcellos/pgstudio/internal/events"
	"github.com/marcogbarcellos/pgstudio/internal/infrastructure/ai"
)

// LocalStore is the persistence the services share; storage.Store
// implements all of it.
type LocalStore interface {
	ConnectionStore
	HistoryStore
	SavedQueryStore
	UsageStore
	AIConfigStore
}

// Deps are the collaborators needed to assemble Services.
type Deps struct {
	// RootCtx bounds background query jobs.
	RootCtx  context.Context
	Open     SessionOpener
	Store    LocalStore
	Secrets  SecretStore
	Events   events.Publisher
	Runner   ToolRunner
	Detector ToolDetector
	AI       *ai.Client
	// MaxRows caps rows kept per async job; PageSize is the table browse
	// default. Zero picks the package defaults.
	MaxRows  int
	PageSize int64
}

// Services groups the domain services the outer surfaces dispatch to.
type Services struct {
	Connections *ConnectionService
	Registry    *ConnectionRegistry
	Queries     *QueryService
	Catalog     *IntrospectionService
	Transfers   *TransferService
	Assistant   *AssistantService
}

// NewServices wires every service over d.
func NewServices(d Deps) Services {
	if d.RootCtx == nil {
		d.RootCtx = context.Background()
	}
	if d.AI == nil {
		d.AI = ai.NewClient(0)
	}
	registry := NewConnectionRegistry(d.Open, d.Store, d.Secrets, d.Events)
	catalog := NewIntrospectionService(registry, d.Store, d.PageSize)
	return Services{
		Connections: NewConnectionService(d.Store, d.Secrets, registry),
		Registry:    registry,
		Queries:     NewQueryService(d.RootCtx, registry, d.Store, d.Store, d.Events, d.MaxRows),
		Catalog:     catalog,
		Transfers:   NewTransferService(d.Runner, d.Detector, d.Store, d.Secrets, d.Events),
		Assistant:   NewAssistantService(d.AI, d.Store, d.Secrets, catalog, d.Store),
	}
}

// Close stops background jobs and closes every live session.
func (s Services) Close() {
	if s.Queries != nil {
		s.Queries.Stop()
	}
	if s.Registry != nil {
		s.Registry.Close()
	}
}
