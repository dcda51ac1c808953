package postgres

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/marcogbarcellos/pgstudio/internal/model"
)

// semanticTypeNames are the column type names reported for common types.
// Any other type is reported by its catalog name.
var semanticTypeNames = map[uint32]string{
	pgtype.BoolOID:        "boolean",
	pgtype.Int2OID:        "smallint",
	pgtype.Int4OID:        "integer",
	pgtype.Int8OID:        "bigint",
	pgtype.Float4OID:      "real",
	pgtype.Float8OID:      "double precision",
	pgtype.NumericOID:     "numeric",
	pgtype.VarcharOID:     "varchar",
	pgtype.TextOID:        "text",
	pgtype.BPCharOID:      "char",
	pgtype.TimestampOID:   "timestamp",
	pgtype.TimestamptzOID: "timestamptz",
	pgtype.DateOID:        "date",
	pgtype.TimeOID:        "time",
	pgtype.UUIDOID:        "uuid",
	pgtype.JSONOID:        "json",
	pgtype.JSONBOID:       "jsonb",
	pgtype.ByteaOID:       "bytea",
}

// SemanticTypeName returns the display name for oid when it belongs to the
// fixed set.
func SemanticTypeName(oid uint32) (string, bool) {
	name, ok := semanticTypeNames[oid]
	return name, ok
}

// DecodeText converts one cell, received in text format, into a Value.
// A nil src is SQL NULL. Types in the fixed set without a typed rule come
// back as text. Other types, and typed cells that fail to decode, come back
// as unmapped raw text.
func DecodeText(m *pgtype.Map, oid uint32, src []byte) model.Value {
	if src == nil {
		return model.Null()
	}
	switch oid {
	case pgtype.JSONOID, pgtype.JSONBOID:
		return decodeJSON(src)
	case pgtype.BoolOID, pgtype.Int2OID, pgtype.Int4OID, pgtype.Int8OID,
		pgtype.Float4OID, pgtype.Float8OID:
	default:
		if _, ok := semanticTypeNames[oid]; ok {
			return model.Text(string(src))
		}
		return model.Unmapped(string(src))
	}

	t, ok := m.TypeForOID(oid)
	if !ok {
		return model.Unmapped(string(src))
	}
	decoded, err := t.Codec.DecodeValue(m, oid, pgtype.TextFormatCode, src)
	if err != nil {
		return model.Unmapped(string(src))
	}

	switch v := decoded.(type) {
	case bool:
		return model.Bool(v)
	case int16:
		return model.Int(int64(v))
	case int32:
		return model.Int(int64(v))
	case int64:
		return model.Int(v)
	case float32:
		return model.Float(float64(v))
	case float64:
		return model.Float(v)
	default:
		return model.Unmapped(string(src))
	}
}

// decodeJSON keeps numbers as json.Number so large integers and long
// decimals survive re-encoding unchanged.
func decodeJSON(src []byte) model.Value {
	dec := json.NewDecoder(bytes.NewReader(src))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return model.Unmapped(string(src))
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return model.Unmapped(string(src))
	}
	return model.JSON(v)
}
