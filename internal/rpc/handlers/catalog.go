package handlers

import (
	"context"

	"github.com/marcogbarcellos/pgstudio/internal/model"
	"github.com/marcogbarcellos/pgstudio/internal/service"
)

type SchemaParams struct {
	ConnectionID string `json:"connectionId"`
	Schema       string `json:"schema"`
}

type TableParams struct {
	ConnectionID string `json:"connectionId"`
	Schema       string `json:"schema"`
	Table        string `json:"table"`
}

type TableDataParams struct {
	ConnectionID string `json:"connectionId"`
	model.TableDataRequest
}

type TopTablesParams struct {
	ConnectionID string `json:"connectionId"`
	Limit        int    `json:"limit,omitempty"`
}

func getDatabases(ctx context.Context, svc service.Services, p ConnectionParams) ([]model.DatabaseInfo, error) {
	return svc.Catalog.Databases(ctx, p.ConnectionID)
}

func getSchemas(ctx context.Context, svc service.Services, p ConnectionParams) ([]model.SchemaInfo, error) {
	return svc.Catalog.Schemas(ctx, p.ConnectionID)
}

func getTables(ctx context.Context, svc service.Services, p SchemaParams) ([]model.TableInfo, error) {
	return svc.Catalog.Tables(ctx, p.ConnectionID, p.Schema)
}

func getColumns(ctx context.Context, svc service.Services, p TableParams) ([]model.ColumnInfo, error) {
	return svc.Catalog.Columns(ctx, p.ConnectionID, p.Schema, p.Table)
}

func getConstraints(ctx context.Context, svc service.Services, p TableParams) ([]model.ConstraintInfo, error) {
	return svc.Catalog.Constraints(ctx, p.ConnectionID, p.Schema, p.Table)
}

func getIndexes(ctx context.Context, svc service.Services, p TableParams) ([]model.IndexInfo, error) {
	return svc.Catalog.Indexes(ctx, p.ConnectionID, p.Schema, p.Table)
}

func getTriggers(ctx context.Context, svc service.Services, p TableParams) ([]model.TriggerInfo, error) {
	return svc.Catalog.Triggers(ctx, p.ConnectionID, p.Schema, p.Table)
}

func getRules(ctx context.Context, svc service.Services, p TableParams) ([]model.RuleInfo, error) {
	return svc.Catalog.Rules(ctx, p.ConnectionID, p.Schema, p.Table)
}

func getPolicies(ctx context.Context, svc service.Services, p TableParams) ([]model.PolicyInfo, error) {
	return svc.Catalog.Policies(ctx, p.ConnectionID, p.Schema, p.Table)
}

func getTableData(ctx context.Context, svc service.Services, p TableDataParams) (*model.QueryResult, error) {
	return svc.Catalog.TableData(ctx, p.ConnectionID, p.TableDataRequest)
}

func getTopTables(ctx context.Context, svc service.Services, p TopTablesParams) ([]model.TableUsage, error) {
	return svc.Catalog.TopTables(ctx, p.ConnectionID, p.Limit)
}

func buildSchemaContext(ctx context.Context, svc service.Services, p ConnectionParams) (*model.SchemaContext, error) {
	return svc.Catalog.BuildSchemaContext(ctx, p.ConnectionID)
}
