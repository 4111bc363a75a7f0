package models

import (
	"fmt"
	"strings"
)

// ColumnDef defines a single column of a published table.
type ColumnDef struct {
	// Name is the column name in both backends.
	Name string

	// Type is the ClickHouse data type (e.g., "String", "Nullable(Float64)", "Decimal(18, 2)").
	Type string

	// PGType is the PostgreSQL data type used by the serving copy.
	PGType string

	// Codec is the optional ClickHouse compression codec (e.g., "ZSTD(1)").
	Codec string
}

// SQL returns the ClickHouse column definition for CREATE TABLE statements.
// Example: "order_id String CODEC(ZSTD(1))"
func (c ColumnDef) SQL() string {
	if c.Codec != "" {
		return fmt.Sprintf("%s %s CODEC(%s)", c.Name, c.Type, c.Codec)
	}
	return fmt.Sprintf("%s %s", c.Name, c.Type)
}

// PGSQL returns the PostgreSQL column definition.
func (c ColumnDef) PGSQL() string {
	return fmt.Sprintf("%q %s", c.Name, c.PGType)
}

// ColumnsToSchemaSQL renders ClickHouse column definitions separated by commas.
func ColumnsToSchemaSQL(columns []ColumnDef) string {
	parts := make([]string, len(columns))
	for i, c := range columns {
		parts[i] = c.SQL()
	}
	return strings.Join(parts, ",\n\t\t\t")
}

// ColumnsToPGSchemaSQL renders PostgreSQL column definitions separated by commas.
func ColumnsToPGSchemaSQL(columns []ColumnDef) string {
	parts := make([]string, len(columns))
	for i, c := range columns {
		parts[i] = c.PGSQL()
	}
	return strings.Join(parts, ", ")
}

// ColumnNames returns the column names in declaration order.
func ColumnNames(columns []ColumnDef) []string {
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Name
	}
	return names
}

// ColumnsToNameList returns a comma separated column list.
func ColumnsToNameList(columns []ColumnDef) string {
	return strings.Join(ColumnNames(columns), ", ")
}

// Row is a published record. Values must follow the order of the table's ColumnDefs.
type Row interface {
	Values() []any
}

// Keyed rows expose the unique key used for lookups by the query API.
type Keyed interface {
	RowKey() string
}

// Column constructors for the common shapes used by the layer models.
func String(name string) ColumnDef {
	return ColumnDef{Name: name, Type: "String", PGType: "text", Codec: "ZSTD(1)"}
}

func NullableString(name string) ColumnDef {
	return ColumnDef{Name: name, Type: "Nullable(String)", PGType: "text"}
}

func LowCardinality(name string) ColumnDef {
	return ColumnDef{Name: name, Type: "LowCardinality(String)", PGType: "text"}
}

func Int64(name string) ColumnDef {
	return ColumnDef{Name: name, Type: "Int64", PGType: "bigint"}
}

func NullableInt64(name string) ColumnDef {
	return ColumnDef{Name: name, Type: "Nullable(Int64)", PGType: "bigint"}
}

func Float64(name string) ColumnDef {
	return ColumnDef{Name: name, Type: "Float64", PGType: "double precision"}
}

func NullableFloat64(name string) ColumnDef {
	return ColumnDef{Name: name, Type: "Nullable(Float64)", PGType: "double precision"}
}

// Money columns hold currency with two decimal places.
func Money(name string) ColumnDef {
	return ColumnDef{Name: name, Type: "Decimal(18, 2)", PGType: "numeric(18,2)"}
}

func NullableMoney(name string) ColumnDef {
	return ColumnDef{Name: name, Type: "Nullable(Decimal(18, 2))", PGType: "numeric(18,2)"}
}

func Timestamp(name string) ColumnDef {
	return ColumnDef{Name: name, Type: "DateTime64(3, 'UTC')", PGType: "timestamptz", Codec: "Delta, ZSTD(1)"}
}

func NullableTimestamp(name string) ColumnDef {
	return ColumnDef{Name: name, Type: "Nullable(DateTime64(3, 'UTC'))", PGType: "timestamptz"}
}

// Date columns use Date32, which spans 1900-01-01 to 2299-12-31.
func Date(name string) ColumnDef {
	return ColumnDef{Name: name, Type: "Date32", PGType: "date"}
}

func Bool(name string) ColumnDef {
	return ColumnDef{Name: name, Type: "Bool", PGType: "boolean"}
}

func StringArray(name string) ColumnDef {
	return ColumnDef{Name: name, Type: "Array(String)", PGType: "text[]"}
}
