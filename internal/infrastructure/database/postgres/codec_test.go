package postgres

import (
	"encoding/json"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcogbarcellos/pgstudio/internal/model"
)

func TestDecodeText(t *testing.T) {
	m := pgtype.NewMap()

	tests := []struct {
		name string
		oid  uint32
		src  []byte
		want model.Value
	}{
		{"null", pgtype.Int4OID, nil, model.Null()},
		{"bool true", pgtype.BoolOID, []byte("t"), model.Bool(true)},
		{"bool false", pgtype.BoolOID, []byte("f"), model.Bool(false)},
		{"int2", pgtype.Int2OID, []byte("-7"), model.Int(-7)},
		{"int4", pgtype.Int4OID, []byte("42"), model.Int(42)},
		{"int8", pgtype.Int8OID, []byte("9007199254740993"), model.Int(9007199254740993)},
		{"float8", pgtype.Float8OID, []byte("1.5"), model.Float(1.5)},
		{"float8 nan", pgtype.Float8OID, []byte("NaN"), model.Text("NaN")},
		{"float4 infinity", pgtype.Float4OID, []byte("Infinity"), model.Text("Infinity")},
		{"float8 -infinity", pgtype.Float8OID, []byte("-Infinity"), model.Text("-Infinity")},
		{"numeric stays exact", pgtype.NumericOID, []byte("12345678901234567890.123"), model.Text("12345678901234567890.123")},
		{"timestamptz text", pgtype.TimestamptzOID, []byte("2024-01-02 03:04:05+00"), model.Text("2024-01-02 03:04:05+00")},
		{"uuid text", pgtype.UUIDOID, []byte("6f1c1e5a-9d1e-4b53-8f8f-2f6e0c3b9a11"), model.Text("6f1c1e5a-9d1e-4b53-8f8f-2f6e0c3b9a11")},
		{"bytea text", pgtype.ByteaOID, []byte(`\x0102`), model.Text(`\x0102`)},
		{"unknown oid", pgtype.CIDROID, []byte("10.0.0.0/8"), model.Unmapped("10.0.0.0/8")},
		{"point is unmapped", pgtype.PointOID, []byte("(1,2)"), model.Unmapped("(1,2)")},
		{"interval is unmapped", pgtype.IntervalOID, []byte("1 day"), model.Unmapped("1 day")},
		{"bad int is unmapped", pgtype.Int4OID, []byte("abc"), model.Unmapped("abc")},
		{"bad bool is unmapped", pgtype.BoolOID, []byte("maybe"), model.Unmapped("maybe")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DecodeText(m, tt.oid, tt.src))
		})
	}
}

func TestDecodeTextJSON(t *testing.T) {
	m := pgtype.NewMap()

	v := DecodeText(m, pgtype.JSONBOID, []byte(`{"a": [1, 2], "b": null}`))
	assert.Equal(t, model.KindJSON, v.Kind)
	assert.Equal(t, map[string]any{"a": []any{json.Number("1"), json.Number("2")}, "b": nil}, v.JSON)

	v = DecodeText(m, pgtype.JSONOID, []byte(`{not json`))
	assert.Equal(t, model.Unmapped("{not json"), v)

	v = DecodeText(m, pgtype.JSONOID, []byte(`{} {}`))
	assert.Equal(t, model.Unmapped("{} {}"), v)
}

func TestDecodeTextJSONRoundTrip(t *testing.T) {
	m := pgtype.NewMap()

	tests := []struct {
		name string
		oid  uint32
		src  string
		want string
	}{
		{"big integer", pgtype.JSONBOID, `{"id": 9007199254740993}`, `{"id":9007199254740993}`},
		{"long decimal", pgtype.JSONBOID, `[0.1000000000000000055511151231257827]`, `[0.1000000000000000055511151231257827]`},
		{"scalar number", pgtype.JSONBOID, `42`, `42`},
		{"scalar string", pgtype.JSONOID, `"hi"`, `"hi"`},
		{"scalar null", pgtype.JSONBOID, `null`, `null`},
		{"nested", pgtype.JSONOID, `{"b": [1.50, true], "a": {}}`, `{"a":{},"b":[1.50,true]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := DecodeText(m, tt.oid, []byte(tt.src))
			assert.Equal(t, model.KindJSON, v.Kind)

			out, err := json.Marshal(v)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(out))
		})
	}
}

func TestSemanticTypeName(t *testing.T) {
	name, ok := SemanticTypeName(pgtype.Float8OID)
	assert.True(t, ok)
	assert.Equal(t, "double precision", name)

	name, ok = SemanticTypeName(pgtype.BPCharOID)
	assert.True(t, ok)
	assert.Equal(t, "char", name)

	_, ok = SemanticTypeName(pgtype.InetOID)
	assert.False(t, ok)
}
