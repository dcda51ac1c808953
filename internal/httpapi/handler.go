package httpapi

import (
	"github.com/marcogbarcellos/pgstudio/internal/service"
)

// Handler wires HTTP requests to domain services.
type Handler struct {
	connections *service.ConnectionService
	registry    *service.ConnectionRegistry
	queries     *service.QueryService
	catalog     *service.IntrospectionService
	transfers   *service.TransferService
	assistant   *service.AssistantService
}

func NewHandler(svc service.Services) *Handler {
	return &Handler{
		connections: svc.Connections,
		registry:    svc.Registry,
		queries:     svc.Queries,
		catalog:     svc.Catalog,
		transfers:   svc.Transfers,
		assistant:   svc.Assistant,
	}
}
