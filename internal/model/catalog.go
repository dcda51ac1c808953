package model

// DatabaseInfo is one non-template database on the server.
type DatabaseInfo struct {
	Name      string `json:"name" db:"datname"`
	IsCurrent bool   `json:"isCurrent" db:"is_current"`
}

// SchemaInfo is one user-visible schema.
type SchemaInfo struct {
	Name  string `json:"name" db:"schema_name"`
	Owner string `json:"owner" db:"schema_owner"`
}

const (
	TableTypeBase = "BASE TABLE"
	TableTypeView = "VIEW"
)

// TableInfo is a relation listed in information_schema.tables.
type TableInfo struct {
	Schema      string `json:"schema" db:"table_schema"`
	Name        string `json:"name" db:"table_name"`
	TableType   string `json:"tableType" db:"table_type"`
	RowEstimate int64  `json:"rowEstimate" db:"row_estimate"`
	Size        string `json:"size" db:"size"`
}

// IsBaseTableOrView reports whether t takes part in schema summaries.
func (t TableInfo) IsBaseTableOrView() bool {
	return t.TableType == TableTypeBase || t.TableType == TableTypeView
}

type ColumnInfo struct {
	Name            string  `json:"name" db:"column_name"`
	DataType        string  `json:"dataType" db:"data_type"`
	IsNullable      bool    `json:"isNullable" db:"is_nullable"`
	ColumnDefault   *string `json:"columnDefault,omitempty" db:"column_default"`
	IsPrimaryKey    bool    `json:"isPrimaryKey" db:"is_primary_key"`
	IsForeignKey    bool    `json:"isForeignKey" db:"is_foreign_key"`
	ForeignTable    *string `json:"foreignTable,omitempty" db:"foreign_table"`
	ForeignColumn   *string `json:"foreignColumn,omitempty" db:"foreign_column"`
	OrdinalPosition int32   `json:"ordinalPosition" db:"ordinal_position"`
}

type ConstraintInfo struct {
	Name           string   `json:"name"`
	ConstraintType string   `json:"constraintType"`
	Columns        []string `json:"columns"`
	Definition     string   `json:"definition"`
	ForeignTable   *string  `json:"foreignTable,omitempty"`
	ForeignColumns *string  `json:"foreignColumns,omitempty"`
}

type IndexInfo struct {
	Name       string `json:"name" db:"index_name"`
	Columns    string `json:"columns" db:"columns"`
	IsUnique   bool   `json:"isUnique" db:"is_unique"`
	IsPrimary  bool   `json:"isPrimary" db:"is_primary"`
	IndexType  string `json:"indexType" db:"index_type"`
	Definition string `json:"definition" db:"definition"`
	Size       string `json:"size" db:"size"`
}

type TriggerInfo struct {
	Name         string `json:"name" db:"name"`
	Event        string `json:"event" db:"event"`
	Timing       string `json:"timing" db:"timing"`
	Orientation  string `json:"orientation" db:"orientation"`
	FunctionName string `json:"functionName" db:"function_name"`
	Definition   string `json:"definition" db:"definition"`
	Enabled      bool   `json:"enabled" db:"enabled"`
}

type RuleInfo struct {
	Name       string `json:"name" db:"name"`
	Event      string `json:"event" db:"event"`
	IsInstead  bool   `json:"isInstead" db:"is_instead"`
	Definition string `json:"definition" db:"definition"`
}

type PolicyInfo struct {
	Name       string   `json:"name"`
	Command    string   `json:"command"`
	Permissive bool     `json:"permissive"`
	Roles      []string `json:"roles"`
	UsingExpr  *string  `json:"usingExpr,omitempty"`
	CheckExpr  *string  `json:"checkExpr,omitempty"`
}
