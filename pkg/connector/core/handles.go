package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/ajitpratap0/flightbridge/pkg/types"
)

// Session carries per-query information from the engine
type Session struct {
	QueryID    string            `json:"queryId"`
	User       string            `json:"user,omitempty"`
	Properties map[string]string `json:"properties,omitempty"`
}

// SchemaTableName is a fully qualified table name
type SchemaTableName struct {
	Schema string `json:"schema"`
	Table  string `json:"table"`
}

func (n SchemaTableName) String() string {
	return n.Schema + "." + n.Table
}

// ParseSchemaTableName parses "schema.table" or a bare "table" in defaultSchema
func ParseSchemaTableName(name, defaultSchema string) (SchemaTableName, error) {
	parts := strings.Split(name, ".")
	switch {
	case len(parts) == 1 && parts[0] != "":
		return SchemaTableName{Schema: defaultSchema, Table: parts[0]}, nil
	case len(parts) == 2 && parts[0] != "" && parts[1] != "":
		return SchemaTableName{Schema: parts[0], Table: parts[1]}, nil
	default:
		return SchemaTableName{}, fmt.Errorf("invalid table name %q", name)
	}
}

// TableHandle identifies a remote dataset
type TableHandle struct {
	TableName string `json:"tableName"`
}

// ColumnHandle names one column and its engine type. Handles compare by name.
type ColumnHandle struct {
	ColumnName string     `json:"columnName"`
	ColumnType types.Type `json:"columnType"`
}

// Metadata returns the column's engine-facing metadata
func (c *ColumnHandle) Metadata() ColumnMetadata {
	return ColumnMetadata{Name: c.ColumnName, Type: c.ColumnType}
}

// ColumnMetadata describes a column of a table
type ColumnMetadata struct {
	Name string     `json:"name"`
	Type types.Type `json:"type"`
}

// TableMetadata describes a table and its ordered columns
type TableMetadata struct {
	Table   SchemaTableName  `json:"table"`
	Columns []ColumnMetadata `json:"columns"`
}

// OutputTableHandle is created by BeginCreateTable and consumed by the page sink.
// ColumnHandles fixes the column order of the written batches.
type OutputTableHandle struct {
	TableHandle   *TableHandle    `json:"tableHandle"`
	ColumnHandles []*ColumnHandle `json:"columnHandles"`
}

// InsertTableHandle is created by BeginInsert and consumed by the page sink
type InsertTableHandle struct {
	TableHandle   *TableHandle    `json:"tableHandle"`
	ColumnHandles []*ColumnHandle `json:"columnHandles"`
}

// Split is one independently streamable partition of a table. Ticket is opaque and
// only meaningful against one of Locations.
type Split struct {
	Locations []string `json:"uri"`
	Ticket    []byte   `json:"ticket"`
}

// Location returns the candidate used for connecting: the last one.
func (s *Split) Location() (string, error) {
	if len(s.Locations) == 0 {
		return "", fmt.Errorf("split has no locations")
	}
	return s.Locations[len(s.Locations)-1], nil
}

func (s *Split) String() string {
	loc, _ := s.Location()
	return fmt.Sprintf("%s#%x", loc, s.Ticket)
}

// FixedSplitSource serves a precomputed list of splits
type FixedSplitSource struct {
	splits []*Split
	offset int
}

// NewFixedSplitSource creates a split source over splits
func NewFixedSplitSource(splits []*Split) *FixedSplitSource {
	return &FixedSplitSource{splits: splits}
}

func (s *FixedSplitSource) NextBatch(ctx context.Context, maxSize int) ([]*Split, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if maxSize <= 0 {
		return nil, fmt.Errorf("max batch size must be positive: %d", maxSize)
	}
	end := s.offset + maxSize
	if end > len(s.splits) {
		end = len(s.splits)
	}
	batch := s.splits[s.offset:end]
	s.offset = end
	return batch, nil
}

func (s *FixedSplitSource) IsFinished() bool {
	return s.offset >= len(s.splits)
}

func (s *FixedSplitSource) Close() {}

// Splits returns all splits of the source
func (s *FixedSplitSource) Splits() []*Split {
	return s.splits
}
