package model

import (
	"fmt"
	"strings"
)

// SchemaContext is table and column metadata handed to the AI assistant.
// It never carries row data.
type SchemaContext struct {
	Tables []TableContext `json:"tables"`
}

type TableContext struct {
	Schema  string          `json:"schema"`
	Name    string          `json:"name"`
	Columns []ColumnContext `json:"columns"`
}

type ColumnContext struct {
	Name         string  `json:"name"`
	DataType     string  `json:"dataType"`
	IsPrimaryKey bool    `json:"isPrimaryKey"`
	IsForeignKey bool    `json:"isForeignKey"`
	ForeignRef   *string `json:"foreignRef,omitempty"`
}

// NewColumnContext projects catalog column metadata; foreign references are
// rendered as "table.column" with "?" for a missing side.
func NewColumnContext(c ColumnInfo) ColumnContext {
	out := ColumnContext{
		Name:         c.Name,
		DataType:     c.DataType,
		IsPrimaryKey: c.IsPrimaryKey,
		IsForeignKey: c.IsForeignKey,
	}
	if c.IsForeignKey {
		table, column := "?", "?"
		if c.ForeignTable != nil {
			table = *c.ForeignTable
		}
		if c.ForeignColumn != nil {
			column = *c.ForeignColumn
		}
		ref := table + "." + column
		out.ForeignRef = &ref
	}
	return out
}

// DDLSummary renders the context as compact CREATE TABLE statements for prompts.
func (s SchemaContext) DDLSummary() string {
	var b strings.Builder
	for _, t := range s.Tables {
		fmt.Fprintf(&b, "-- %s.%s\n", t.Schema, t.Name)
		fmt.Fprintf(&b, "CREATE TABLE %s.%s (\n", t.Schema, t.Name)
		for i, c := range t.Columns {
			fmt.Fprintf(&b, "  %s %s", c.Name, c.DataType)
			if c.IsPrimaryKey {
				b.WriteString(" PRIMARY KEY")
			}
			if c.ForeignRef != nil {
				fmt.Fprintf(&b, " REFERENCES %s", *c.ForeignRef)
			}
			if i < len(t.Columns)-1 {
				b.WriteString(",")
			}
			b.WriteString("\n")
		}
		b.WriteString(");\n\n")
	}
	return b.String()
}
