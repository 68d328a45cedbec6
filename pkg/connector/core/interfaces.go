package core

import (
	"context"

	"github.com/ajitpratap0/flightbridge/pkg/columnar"
)

// Metadata resolves schemas, tables and columns, and begins/finishes writes
type Metadata interface {
	ListSchemaNames(ctx context.Context, session *Session) ([]string, error)
	// ListTables lists tables of schema; an empty schema means all schemas.
	ListTables(ctx context.Context, session *Session, schema string) ([]SchemaTableName, error)
	GetTableHandle(ctx context.Context, session *Session, name SchemaTableName) (*TableHandle, error)
	GetColumnHandles(ctx context.Context, session *Session, table *TableHandle) (map[string]*ColumnHandle, error)
	GetTableMetadata(ctx context.Context, session *Session, table *TableHandle) (*TableMetadata, error)
	GetColumnMetadata(ctx context.Context, session *Session, table *TableHandle, column *ColumnHandle) (ColumnMetadata, error)

	BeginCreateTable(ctx context.Context, session *Session, table *TableMetadata) (*OutputTableHandle, error)
	FinishCreateTable(ctx context.Context, session *Session, handle *OutputTableHandle, fragments [][]byte) error
	BeginInsert(ctx context.Context, session *Session, table *TableHandle) (*InsertTableHandle, error)
	FinishInsert(ctx context.Context, session *Session, handle *InsertTableHandle, fragments [][]byte) error
}

// SplitManager expands a table into independently fetchable splits
type SplitManager interface {
	GetSplits(ctx context.Context, session *Session, table *TableHandle) (SplitSource, error)
}

// SplitSource hands splits to the engine scheduler in batches
type SplitSource interface {
	NextBatch(ctx context.Context, maxSize int) ([]*Split, error)
	IsFinished() bool
	Close()
}

// PageSourceProvider opens the read path for one split
type PageSourceProvider interface {
	CreatePageSource(ctx context.Context, session *Session, split *Split, table *TableHandle, columns []*ColumnHandle) (PageSource, error)
}

// PageSource is pulled by one engine worker. NextPage returns a nil page with a nil
// error when no page is available; IsFinished turns true once the source is exhausted.
type PageSource interface {
	NextPage(ctx context.Context) (*columnar.Page, error)
	IsFinished() bool
	CompletedBytes() int64
	Close() error
}

// PageSinkProvider opens the write path for create-table-as and insert
type PageSinkProvider interface {
	CreatePageSink(ctx context.Context, session *Session, handle *OutputTableHandle) (PageSink, error)
	CreateInsertPageSink(ctx context.Context, session *Session, handle *InsertTableHandle) (PageSink, error)
}

// PageSink accepts pages from one engine writer, sequentially.
type PageSink interface {
	// AppendPage returns a channel that is closed once the sink can take the next page.
	AppendPage(ctx context.Context, page *columnar.Page) (<-chan struct{}, error)
	// Finish completes the write; the returned fragments are passed to FinishCreateTable/FinishInsert.
	Finish(ctx context.Context) ([][]byte, error)
	Abort()
}

// Connector bundles the capabilities the engine calls through
type Connector interface {
	Metadata() Metadata
	SplitManager() SplitManager
	PageSourceProvider() PageSourceProvider
	PageSinkProvider() PageSinkProvider
	Shutdown(ctx context.Context) error
}

// NotBlocked is the completion signal for sinks that never apply backpressure
var NotBlocked <-chan struct{} = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()
