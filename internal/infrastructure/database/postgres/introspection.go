package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/marcogbarcellos/pgstudio/internal/infrastructure/database"
	"github.com/marcogbarcellos/pgstudio/internal/model"
)

// Catalog answers metadata questions with read-only catalog queries.
type Catalog struct {
	q database.Querier
}

func NewCatalog(q database.Querier) *Catalog {
	return &Catalog{q: q}
}

const databasesQuery = `
	SELECT datname, datname = current_database() AS is_current
	FROM pg_database
	WHERE datistemplate = false
	ORDER BY datname = current_database() DESC, datname
`

// Databases lists non-template databases, the current one first.
func (c *Catalog) Databases(ctx context.Context) ([]model.DatabaseInfo, error) {
	out := make([]model.DatabaseInfo, 0)
	if err := c.q.SelectContext(ctx, &out, databasesQuery); err != nil {
		return nil, wrapQueryErr(ctx, "failed to list databases", err)
	}
	return out, nil
}

const schemasQuery = `
	SELECT schema_name, schema_owner
	FROM information_schema.schemata
	WHERE schema_name NOT IN ('pg_catalog', 'information_schema', 'pg_toast')
	ORDER BY schema_name
`

func (c *Catalog) Schemas(ctx context.Context) ([]model.SchemaInfo, error) {
	out := make([]model.SchemaInfo, 0)
	if err := c.q.SelectContext(ctx, &out, schemasQuery); err != nil {
		return nil, wrapQueryErr(ctx, "failed to list schemas", err)
	}
	return out, nil
}

const tablesQuery = `
	SELECT
		t.table_schema,
		t.table_name,
		t.table_type,
		COALESCE(cls.reltuples::bigint, 0) AS row_estimate,
		COALESCE(pg_size_pretty(pg_total_relation_size(quote_ident(t.table_schema) || '.' || quote_ident(t.table_name))), '0 bytes') AS size
	FROM information_schema.tables t
	LEFT JOIN pg_namespace ns ON ns.nspname = t.table_schema
	LEFT JOIN pg_class cls ON cls.relname = t.table_name AND cls.relnamespace = ns.oid
	WHERE t.table_schema = $1
		AND t.table_type IN ('BASE TABLE', 'VIEW')
	ORDER BY t.table_name
`

// Tables lists tables and views in schema with estimated rows and total size.
func (c *Catalog) Tables(ctx context.Context, schema string) ([]model.TableInfo, error) {
	out := make([]model.TableInfo, 0)
	if err := c.q.SelectContext(ctx, &out, tablesQuery, schema); err != nil {
		return nil, wrapQueryErr(ctx, "failed to list tables", err)
	}
	return out, nil
}

const columnsQuery = `
	SELECT
		c.column_name,
		c.data_type,
		c.is_nullable = 'YES' AS is_nullable,
		c.column_default,
		COALESCE(pk.is_pk, false) AS is_primary_key,
		COALESCE(fk.is_fk, false) AS is_foreign_key,
		fk.foreign_table,
		fk.foreign_column,
		c.ordinal_position::int AS ordinal_position
	FROM information_schema.columns c
	LEFT JOIN (
		SELECT kcu.column_name, true AS is_pk
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		WHERE tc.constraint_type = 'PRIMARY KEY'
			AND tc.table_schema = $1
			AND tc.table_name = $2
	) pk ON pk.column_name = c.column_name
	LEFT JOIN (
		SELECT
			kcu.column_name,
			true AS is_fk,
			ccu.table_name AS foreign_table,
			ccu.column_name AS foreign_column
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage ccu
			ON ccu.constraint_name = tc.constraint_name
		WHERE tc.constraint_type = 'FOREIGN KEY'
			AND tc.table_schema = $1
			AND tc.table_name = $2
	) fk ON fk.column_name = c.column_name
	WHERE c.table_schema = $1 AND c.table_name = $2
	ORDER BY c.ordinal_position
`

// Columns lists the columns of schema.table in ordinal order with key flags.
func (c *Catalog) Columns(ctx context.Context, schema, table string) ([]model.ColumnInfo, error) {
	out := make([]model.ColumnInfo, 0)
	if err := c.q.SelectContext(ctx, &out, columnsQuery, schema, table); err != nil {
		return nil, wrapQueryErr(ctx, "failed to list columns", err)
	}
	return out, nil
}

const constraintsQuery = `
	SELECT
		con.conname AS name,
		CASE con.contype
			WHEN 'p' THEN 'PRIMARY KEY'
			WHEN 'f' THEN 'FOREIGN KEY'
			WHEN 'u' THEN 'UNIQUE'
			WHEN 'c' THEN 'CHECK'
			WHEN 'x' THEN 'EXCLUSION'
			ELSE con.contype::text
		END AS constraint_type,
		COALESCE(
			(SELECT array_agg(a.attname ORDER BY k.ord)
			 FROM unnest(con.conkey) WITH ORDINALITY AS k(col, ord)
			 JOIN pg_attribute a ON a.attrelid = con.conrelid AND a.attnum = k.col),
			ARRAY[]::text[]
		)::text[] AS columns,
		pg_get_constraintdef(con.oid, true) AS definition,
		CASE WHEN con.contype = 'f'
			THEN (SELECT nsp.nspname || '.' || rel.relname
				  FROM pg_class rel JOIN pg_namespace nsp ON nsp.oid = rel.relnamespace
				  WHERE rel.oid = con.confrelid)
			ELSE NULL
		END AS foreign_table,
		CASE WHEN con.contype = 'f'
			THEN (SELECT string_agg(a.attname, ', ' ORDER BY k.ord)
				  FROM unnest(con.confkey) WITH ORDINALITY AS k(col, ord)
				  JOIN pg_attribute a ON a.attrelid = con.confrelid AND a.attnum = k.col)
			ELSE NULL
		END AS foreign_columns
	FROM pg_constraint con
	JOIN pg_class c ON c.oid = con.conrelid
	JOIN pg_namespace n ON n.oid = c.relnamespace
	WHERE n.nspname = $1 AND c.relname = $2
	ORDER BY con.contype, con.conname
`

type constraintRow struct {
	Name           string    `db:"name"`
	ConstraintType string    `db:"constraint_type"`
	Columns        textArray `db:"columns"`
	Definition     string    `db:"definition"`
	ForeignTable   *string   `db:"foreign_table"`
	ForeignColumns *string   `db:"foreign_columns"`
}

func (c *Catalog) Constraints(ctx context.Context, schema, table string) ([]model.ConstraintInfo, error) {
	var rows []constraintRow
	if err := c.q.SelectContext(ctx, &rows, constraintsQuery, schema, table); err != nil {
		return nil, wrapQueryErr(ctx, "failed to list constraints", err)
	}
	out := make([]model.ConstraintInfo, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.ConstraintInfo{
			Name:           r.Name,
			ConstraintType: r.ConstraintType,
			Columns:        []string(r.Columns),
			Definition:     r.Definition,
			ForeignTable:   r.ForeignTable,
			ForeignColumns: r.ForeignColumns,
		})
	}
	return out, nil
}

const indexesQuery = `
	SELECT
		i.relname AS index_name,
		pg_get_indexdef(i.oid) AS definition,
		ix.indisunique AS is_unique,
		ix.indisprimary AS is_primary,
		am.amname AS index_type,
		COALESCE(pg_size_pretty(pg_relation_size(i.oid)), '0 bytes') AS size,
		COALESCE((SELECT string_agg(a.attname, ', ' ORDER BY k.ord)
		 FROM unnest(ix.indkey) WITH ORDINALITY AS k(col, ord)
		 JOIN pg_attribute a ON a.attrelid = ix.indrelid AND a.attnum = k.col
		 WHERE a.attnum > 0), '') AS columns
	FROM pg_index ix
	JOIN pg_class i ON i.oid = ix.indexrelid
	JOIN pg_class t ON t.oid = ix.indrelid
	JOIN pg_namespace n ON n.oid = t.relnamespace
	JOIN pg_am am ON am.oid = i.relam
	WHERE n.nspname = $1 AND t.relname = $2
	ORDER BY i.relname
`

// Indexes lists indexes of schema.table. Expression-only keys contribute no
// column names.
func (c *Catalog) Indexes(ctx context.Context, schema, table string) ([]model.IndexInfo, error) {
	out := make([]model.IndexInfo, 0)
	if err := c.q.SelectContext(ctx, &out, indexesQuery, schema, table); err != nil {
		return nil, wrapQueryErr(ctx, "failed to list indexes", err)
	}
	return out, nil
}

const triggersQuery = `
	SELECT
		t.tgname AS name,
		CASE
			WHEN t.tgtype::int & 1 = 1 THEN 'ROW'
			ELSE 'STATEMENT'
		END AS orientation,
		CASE
			WHEN t.tgtype::int & 2 = 2 THEN 'BEFORE'
			WHEN t.tgtype::int & 64 = 64 THEN 'INSTEAD OF'
			ELSE 'AFTER'
		END AS timing,
		array_to_string(ARRAY[]::text[]
			|| CASE WHEN t.tgtype::int & 4 = 4 THEN 'INSERT' END
			|| CASE WHEN t.tgtype::int & 8 = 8 THEN 'DELETE' END
			|| CASE WHEN t.tgtype::int & 16 = 16 THEN 'UPDATE' END
			|| CASE WHEN t.tgtype::int & 32 = 32 THEN 'TRUNCATE' END,
			' OR ') AS event,
		p.proname AS function_name,
		pg_get_triggerdef(t.oid, true) AS definition,
		t.tgenabled != 'D' AS enabled
	FROM pg_trigger t
	JOIN pg_class c ON c.oid = t.tgrelid
	JOIN pg_namespace n ON n.oid = c.relnamespace
	JOIN pg_proc p ON p.oid = t.tgfoid
	WHERE n.nspname = $1 AND c.relname = $2
		AND NOT t.tgisinternal
	ORDER BY t.tgname
`

// Triggers lists user-defined triggers; internal constraint triggers are excluded.
func (c *Catalog) Triggers(ctx context.Context, schema, table string) ([]model.TriggerInfo, error) {
	out := make([]model.TriggerInfo, 0)
	if err := c.q.SelectContext(ctx, &out, triggersQuery, schema, table); err != nil {
		return nil, wrapQueryErr(ctx, "failed to list triggers", err)
	}
	return out, nil
}

const rulesQuery = `
	SELECT
		r.rulename AS name,
		CASE r.ev_type
			WHEN '1' THEN 'SELECT'
			WHEN '2' THEN 'UPDATE'
			WHEN '3' THEN 'INSERT'
			WHEN '4' THEN 'DELETE'
			ELSE r.ev_type::text
		END AS event,
		r.is_instead AS is_instead,
		pg_get_ruledef(r.oid, true) AS definition
	FROM pg_rewrite r
	JOIN pg_class c ON c.oid = r.ev_class
	JOIN pg_namespace n ON n.oid = c.relnamespace
	WHERE n.nspname = $1 AND c.relname = $2
		AND r.rulename != '_RETURN'
	ORDER BY r.rulename
`

// Rules lists rewrite rules except the implicit view rule.
func (c *Catalog) Rules(ctx context.Context, schema, table string) ([]model.RuleInfo, error) {
	out := make([]model.RuleInfo, 0)
	if err := c.q.SelectContext(ctx, &out, rulesQuery, schema, table); err != nil {
		return nil, wrapQueryErr(ctx, "failed to list rules", err)
	}
	return out, nil
}

const policiesQuery = `
	SELECT
		pol.polname AS name,
		CASE pol.polcmd
			WHEN 'r' THEN 'SELECT'
			WHEN 'a' THEN 'INSERT'
			WHEN 'w' THEN 'UPDATE'
			WHEN 'd' THEN 'DELETE'
			WHEN '*' THEN 'ALL'
			ELSE pol.polcmd::text
		END AS command,
		pol.polpermissive AS permissive,
		COALESCE(
			(SELECT array_agg(r.rolname)
			 FROM unnest(pol.polroles) AS role_oid
			 JOIN pg_roles r ON r.oid = role_oid),
			ARRAY['PUBLIC']::text[]
		)::text[] AS roles,
		pg_get_expr(pol.polqual, pol.polrelid, true) AS using_expr,
		pg_get_expr(pol.polwithcheck, pol.polrelid, true) AS check_expr
	FROM pg_policy pol
	JOIN pg_class c ON c.oid = pol.polrelid
	JOIN pg_namespace n ON n.oid = c.relnamespace
	WHERE n.nspname = $1 AND c.relname = $2
	ORDER BY pol.polname
`

type policyRow struct {
	Name       string    `db:"name"`
	Command    string    `db:"command"`
	Permissive bool      `db:"permissive"`
	Roles      textArray `db:"roles"`
	UsingExpr  *string   `db:"using_expr"`
	CheckExpr  *string   `db:"check_expr"`
}

// Policies lists row-level security policies. A policy without explicit
// roles applies to PUBLIC.
func (c *Catalog) Policies(ctx context.Context, schema, table string) ([]model.PolicyInfo, error) {
	var rows []policyRow
	if err := c.q.SelectContext(ctx, &rows, policiesQuery, schema, table); err != nil {
		return nil, wrapQueryErr(ctx, "failed to list policies", err)
	}
	out := make([]model.PolicyInfo, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.PolicyInfo{
			Name:       r.Name,
			Command:    r.Command,
			Permissive: r.Permissive,
			Roles:      []string(r.Roles),
			UsingExpr:  r.UsingExpr,
			CheckExpr:  r.CheckExpr,
		})
	}
	return out, nil
}

// textArray scans a text[] column delivered through database/sql.
type textArray []string

func (a *textArray) Scan(src any) error {
	if src == nil {
		*a = []string{}
		return nil
	}
	var out []string
	// pgtype.Map caches scan plans and is not safe for concurrent use.
	if err := pgtype.NewMap().SQLScanner(&out).Scan(src); err != nil {
		return fmt.Errorf("failed to scan text array: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	*a = out
	return nil
}
