// Package handlers implements the JSON-RPC methods. Every method takes its
// parameters as a named object or, positionally, as a one-element array
// holding that object.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/exp/jsonrpc2"

	"github.com/marcogbarcellos/pgstudio/internal/service"
)

// Method is the shape shared by every RPC method.
type Method func(ctx context.Context, svc service.Services, raw json.RawMessage) (any, error)

// Decode fills dest from raw params. Empty params leave dest untouched.
func Decode(raw json.RawMessage, dest any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if trimmed[0] == '[' {
		var arr []json.RawMessage
		if err := json.Unmarshal(trimmed, &arr); err != nil {
			return fmt.Errorf("%w: %v", jsonrpc2.ErrInvalidParams, err)
		}
		if len(arr) == 0 {
			return nil
		}
		trimmed = arr[0]
	}
	if err := json.Unmarshal(trimmed, dest); err != nil {
		return fmt.Errorf("%w: %v", jsonrpc2.ErrInvalidParams, err)
	}
	return nil
}

// bind adapts a typed method body to Method.
func bind[P any, R any](fn func(ctx context.Context, svc service.Services, p P) (R, error)) Method {
	return func(ctx context.Context, svc service.Services, raw json.RawMessage) (any, error) {
		var p P
		if err := Decode(raw, &p); err != nil {
			return nil, err
		}
		return fn(ctx, svc, p)
	}
}

// Ack is returned by methods that have nothing else to report.
type Ack struct {
	OK bool `json:"ok"`
}

var ack = Ack{OK: true}

// Methods maps method names to implementations.
func Methods() map[string]Method {
	return map[string]Method{
		"listConnections":       bind(listConnections),
		"getConnection":         bind(getConnection),
		"saveConnection":        bind(saveConnection),
		"deleteConnection":      bind(deleteConnection),
		"importConnections":     bind(importConnections),
		"testConnection":        bind(testConnection),
		"connect":               bind(connect),
		"disconnect":            bind(disconnect),
		"switchDatabase":        bind(switchDatabase),
		"listActiveConnections": bind(listActiveConnections),

		"executeQuery":       bind(executeQuery),
		"submitQuery":        bind(submitQuery),
		"getQueryJob":        bind(getQueryJob),
		"cancelQuery":        bind(cancelQuery),
		"getQueryResult":     bind(getQueryResult),
		"getHistory":         bind(getHistory),
		"deleteHistory":      bind(deleteHistory),
		"searchTableHistory": bind(searchTableHistory),
		"saveQuery":          bind(saveQuery),
		"listSavedQueries":   bind(listSavedQueries),
		"deleteSavedQuery":   bind(deleteSavedQuery),

		"getDatabases":       bind(getDatabases),
		"getSchemas":         bind(getSchemas),
		"getTables":          bind(getTables),
		"getColumns":         bind(getColumns),
		"getConstraints":     bind(getConstraints),
		"getIndexes":         bind(getIndexes),
		"getTriggers":        bind(getTriggers),
		"getRules":           bind(getRules),
		"getPolicies":        bind(getPolicies),
		"getTableData":       bind(getTableData),
		"getTopTables":       bind(getTopTables),
		"buildSchemaContext": bind(buildSchemaContext),

		"detectTools": bind(detectTools),
		"dump":        bind(dump),
		"restore":     bind(restore),
		"transfer":    bind(transfer),

		"getAIStatus":     bind(getAIStatus),
		"getAIConfig":     bind(getAIConfig),
		"configureAI":     bind(configureAI),
		"nlToSql":         bind(nlToSQL),
		"explainQuery":    bind(explainQuery),
		"optimizeQuery":   bind(optimizeQuery),
		"completeSql":     bind(completeSQL),
		"aiChat":          bind(aiChat),
		"searchAIPrompts": bind(searchAIPrompts),
	}
}
