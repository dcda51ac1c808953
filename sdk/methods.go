package sdk

import (
	"context"

	"github.com/marcogbarcellos/pgstudio/internal/model"
)

func (c *Client) ListConnections(ctx context.Context) ([]ConnectionRecord, error) {
	var out []ConnectionRecord
	if err := c.call(ctx, "listConnections", struct{}{}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SaveConnection stores a descriptor. An empty id lets the server assign one;
// an empty password keeps the stored secret.
func (c *Client) SaveConnection(ctx context.Context, desc ConnectionDescriptor, password string) (*ConnectionRecord, error) {
	var out ConnectionRecord
	if err := c.call(ctx, "saveConnection", descriptorParams{ConnectionDescriptor: desc, Password: password}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteConnection(ctx context.Context, id string) error {
	return c.call(ctx, "deleteConnection", connectionParams{ConnectionID: id}, &ack{})
}

// Connect opens a stored connection. The password overrides the stored one
// when set.
func (c *Client) Connect(ctx context.Context, id, password string) error {
	p := descriptorParams{ConnectionDescriptor: model.ConnectionDescriptor{ID: id}, Password: password}
	return c.call(ctx, "connect", p, &ack{})
}

func (c *Client) Disconnect(ctx context.Context, id string) error {
	return c.call(ctx, "disconnect", connectionParams{ConnectionID: id}, &ack{})
}

func (c *Client) SwitchDatabase(ctx context.Context, id, database string) error {
	p := struct {
		ConnectionID string `json:"connectionId"`
		Database     string `json:"database"`
	}{id, database}
	return c.call(ctx, "switchDatabase", p, &ack{})
}

func (c *Client) ActiveConnections(ctx context.Context) ([]ActiveConnection, error) {
	var out []ActiveConnection
	if err := c.call(ctx, "listActiveConnections", struct{}{}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ExecuteQuery(ctx context.Context, connectionID, sql string) (*QueryResult, error) {
	var out QueryResult
	if err := c.call(ctx, "executeQuery", queryParams{ConnectionID: connectionID, SQL: sql}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitQuery starts a background query and returns its job.
func (c *Client) SubmitQuery(ctx context.Context, connectionID, sql string) (*Job, error) {
	var out Job
	if err := c.call(ctx, "submitQuery", queryParams{ConnectionID: connectionID, SQL: sql}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) QueryJob(ctx context.Context, jobID string) (*Job, error) {
	var out Job
	if err := c.call(ctx, "getQueryJob", jobParams{JobID: jobID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CancelQuery(ctx context.Context, jobID string) error {
	return c.call(ctx, "cancelQuery", jobParams{JobID: jobID}, &ack{})
}

// QueryResult fetches a page of a finished job. Nil limit or offset uses the
// server defaults.
func (c *Client) QueryResult(ctx context.Context, jobID string, limit, offset *int) (*ResultPage, error) {
	var out ResultPage
	if err := c.call(ctx, "getQueryResult", jobResultParams{JobID: jobID, Limit: limit, Offset: offset}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) History(ctx context.Context, connectionID string, limit int) ([]HistoryEntry, error) {
	var out []HistoryEntry
	if err := c.call(ctx, "getHistory", historyParams{ConnectionID: connectionID, Limit: limit}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Schemas(ctx context.Context, connectionID string) ([]SchemaInfo, error) {
	var out []SchemaInfo
	if err := c.call(ctx, "getSchemas", connectionParams{ConnectionID: connectionID}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Tables(ctx context.Context, connectionID, schema string) ([]TableInfo, error) {
	var out []TableInfo
	if err := c.call(ctx, "getTables", schemaParams{ConnectionID: connectionID, Schema: schema}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Columns(ctx context.Context, connectionID, schema, table string) ([]ColumnInfo, error) {
	var out []ColumnInfo
	if err := c.call(ctx, "getColumns", tableParams{ConnectionID: connectionID, Schema: schema, Table: table}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) TableData(ctx context.Context, connectionID string, req TableDataRequest) (*QueryResult, error) {
	var out QueryResult
	if err := c.call(ctx, "getTableData", tableDataParams{ConnectionID: connectionID, TableDataRequest: req}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DetectTools(ctx context.Context) (*ToolsStatus, error) {
	var out ToolsStatus
	if err := c.call(ctx, "detectTools", struct{}{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Dump(ctx context.Context, req DumpRequest) (*ToolOutcome, error) {
	return c.tool(ctx, "dump", req)
}

func (c *Client) Restore(ctx context.Context, req RestoreRequest) (*ToolOutcome, error) {
	return c.tool(ctx, "restore", req)
}

func (c *Client) Transfer(ctx context.Context, req TransferRequest) (*ToolOutcome, error) {
	return c.tool(ctx, "transfer", req)
}

func (c *Client) tool(ctx context.Context, method string, params any) (*ToolOutcome, error) {
	var out ToolOutcome
	if err := c.call(ctx, method, params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AIStatus(ctx context.Context) (*AIStatus, error) {
	var out AIStatus
	if err := c.call(ctx, "getAIStatus", struct{}{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// NLToSQL asks the assistant to write SQL for a prompt against the
// connection's schema.
func (c *Client) NLToSQL(ctx context.Context, connectionID, prompt string) (string, error) {
	var out sqlResult
	if err := c.call(ctx, "nlToSql", nlToSQLParams{ConnectionID: connectionID, Prompt: prompt}, &out); err != nil {
		return "", err
	}
	return out.SQL, nil
}
