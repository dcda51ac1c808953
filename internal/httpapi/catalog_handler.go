package httpapi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/marcogbarcellos/pgstudio/internal/model"
)

type tablePath struct {
	id, schema, table string
}

func decodeTablePath(r *http.Request, withTable bool) (tablePath, error) {
	var p tablePath
	var err error
	if p.id, err = decodePathParam(r, "id"); err != nil {
		return p, err
	}
	if p.schema, err = decodePathParam(r, "schema"); err != nil {
		return p, err
	}
	if withTable {
		if p.table, err = decodePathParam(r, "table"); err != nil {
			return p, err
		}
	}
	return p, nil
}

func (h *Handler) listDatabases(w http.ResponseWriter, r *http.Request) {
	id, err := decodePathParam(r, "id")
	if err != nil {
		respondBadRequest(w, err)
		return
	}
	respondResult(w, r)(h.catalog.Databases(r.Context(), id))
}

func (h *Handler) listSchemas(w http.ResponseWriter, r *http.Request) {
	id, err := decodePathParam(r, "id")
	if err != nil {
		respondBadRequest(w, err)
		return
	}
	respondResult(w, r)(h.catalog.Schemas(r.Context(), id))
}

func (h *Handler) listTables(w http.ResponseWriter, r *http.Request) {
	p, err := decodeTablePath(r, false)
	if err != nil {
		respondBadRequest(w, err)
		return
	}
	respondResult(w, r)(h.catalog.Tables(r.Context(), p.id, p.schema))
}

// tableFacets lists the per-table catalog reads addressable by name.
func (h *Handler) tableFacets() map[string]func(ctx context.Context, id, schema, table string) (any, error) {
	return map[string]func(ctx context.Context, id, schema, table string) (any, error){
		"columns": func(ctx context.Context, id, schema, table string) (any, error) {
			return h.catalog.Columns(ctx, id, schema, table)
		},
		"constraints": func(ctx context.Context, id, schema, table string) (any, error) {
			return h.catalog.Constraints(ctx, id, schema, table)
		},
		"indexes": func(ctx context.Context, id, schema, table string) (any, error) {
			return h.catalog.Indexes(ctx, id, schema, table)
		},
		"triggers": func(ctx context.Context, id, schema, table string) (any, error) {
			return h.catalog.Triggers(ctx, id, schema, table)
		},
		"rules": func(ctx context.Context, id, schema, table string) (any, error) {
			return h.catalog.Rules(ctx, id, schema, table)
		},
		"policies": func(ctx context.Context, id, schema, table string) (any, error) {
			return h.catalog.Policies(ctx, id, schema, table)
		},
	}
}

func (h *Handler) tableFacet(w http.ResponseWriter, r *http.Request) {
	p, err := decodeTablePath(r, true)
	if err != nil {
		respondBadRequest(w, err)
		return
	}
	facet := r.PathValue("facet")
	read, ok := h.tableFacets()[facet]
	if !ok {
		respondError(w, http.StatusNotFound, "not_found", "unknown table facet: "+facet, nil)
		return
	}
	respondResult(w, r)(read(r.Context(), p.id, p.schema, p.table))
}

func (h *Handler) tableData(w http.ResponseWriter, r *http.Request) {
	p, err := decodeTablePath(r, true)
	if err != nil {
		respondBadRequest(w, err)
		return
	}
	q := r.URL.Query()
	req := model.TableDataRequest{
		Schema:        p.schema,
		Table:         p.table,
		SortColumn:    q.Get("sort"),
		SortDirection: q.Get("direction"),
	}
	if req.Limit, err = optionalInt64(q.Get("limit")); err != nil {
		respondBadRequest(w, err)
		return
	}
	if req.Offset, err = optionalInt64(q.Get("offset")); err != nil {
		respondBadRequest(w, err)
		return
	}
	respondResult(w, r)(h.catalog.TableData(r.Context(), p.id, req))
}

func (h *Handler) schemaContext(w http.ResponseWriter, r *http.Request) {
	id, err := decodePathParam(r, "id")
	if err != nil {
		respondBadRequest(w, err)
		return
	}
	respondResult(w, r)(h.catalog.BuildSchemaContext(r.Context(), id))
}

func (h *Handler) topTables(w http.ResponseWriter, r *http.Request) {
	id, err := decodePathParam(r, "id")
	if err != nil {
		respondBadRequest(w, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		respondBadRequest(w, err)
		return
	}
	respondResult(w, r)(h.catalog.TopTables(r.Context(), id, limit))
}

func optionalInt64(value string) (*int64, error) {
	if value == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return nil, err
	}
	return &n, nil
}
