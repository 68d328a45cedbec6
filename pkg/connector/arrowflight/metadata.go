package arrowflight

import (
	"context"

	"go.uber.org/zap"

	"github.com/ajitpratap0/flightbridge/pkg/clients"
	"github.com/ajitpratap0/flightbridge/pkg/connector/core"
	"github.com/ajitpratap0/flightbridge/pkg/errors"
	"github.com/ajitpratap0/flightbridge/pkg/logger"
)

// DefaultSchema is the only schema; remote datasets form a flat namespace
const DefaultSchema = "default"

// Metadata resolves tables and columns against the remote service
type Metadata struct {
	clients *clients.FlightClientFactory
	logger  *zap.Logger
}

// NewMetadata creates a catalog resolver using factory for its connections
func NewMetadata(factory *clients.FlightClientFactory, log *zap.Logger) *Metadata {
	return &Metadata{
		clients: factory,
		logger:  log.With(zap.String("component", "metadata")),
	}
}

// withClient opens a client for one call and closes it before returning
func (m *Metadata) withClient(ctx context.Context, session *core.Session, fn func(*clients.FlightClient) error) error {
	client, err := m.clients.Open(ctx, session)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := client.Close(); cerr != nil {
			logger.WithContext(ctx, m.logger).Warn("failed to close flight client", zap.Error(cerr))
		}
	}()
	return fn(client)
}

func (m *Metadata) ListSchemaNames(context.Context, *core.Session) ([]string, error) {
	return []string{DefaultSchema}, nil
}

// ListTables lists flights with a single-segment path. Other path shapes and other
// schemas are not errors, they just list nothing.
func (m *Metadata) ListTables(ctx context.Context, session *core.Session, schema string) ([]core.SchemaTableName, error) {
	if schema != "" && schema != DefaultSchema {
		return nil, nil
	}

	var tables []core.SchemaTableName
	err := m.withClient(ctx, session, func(client *clients.FlightClient) error {
		infos, err := client.ListFlights(ctx)
		if err != nil {
			return err
		}
		for _, info := range infos {
			path := info.GetFlightDescriptor().GetPath()
			if len(path) != 1 {
				continue
			}
			tables = append(tables, core.SchemaTableName{Schema: DefaultSchema, Table: path[0]})
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeRemote, "unable to list tables")
	}
	return tables, nil
}

// GetTableHandle resolves name remotely. Every failure, transient or not, is reported
// as not found; the cause stays attached.
func (m *Metadata) GetTableHandle(ctx context.Context, session *core.Session, name core.SchemaTableName) (*core.TableHandle, error) {
	if name.Schema != DefaultSchema {
		return nil, errors.Newf(errors.ErrorTypeNotFound, "table %s not found", name)
	}

	var handle *core.TableHandle
	err := m.withClient(ctx, session, func(client *clients.FlightClient) error {
		info, err := client.GetFlightInfo(ctx, name.Table)
		if err != nil {
			return err
		}
		path := info.GetFlightDescriptor().GetPath()
		tableName := name.Table
		if len(path) > 0 {
			tableName = path[0]
		}
		handle = &core.TableHandle{TableName: tableName}
		return nil
	})
	if err != nil {
		logger.WithContext(ctx, m.logger).Debug("unable to fetch table details",
			zap.String("table", name.String()), zap.Error(err))
		return nil, errors.Wrap(err, errors.ErrorTypeNotFound, "table "+name.String()+" not found")
	}
	return handle, nil
}

// columns fetches the remote schema of table and maps every field
func (m *Metadata) columns(ctx context.Context, session *core.Session, table string) ([]*core.ColumnHandle, error) {
	var columns []*core.ColumnHandle
	var mapErr error
	err := m.withClient(ctx, session, func(client *clients.FlightClient) error {
		info, err := client.GetFlightInfo(ctx, table)
		if err != nil {
			return err
		}
		schema, err := client.Schema(info)
		if err != nil {
			return err
		}
		columns, mapErr = ToColumnHandles(schema)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeRemote, "unable to fetch column details")
	}
	if mapErr != nil {
		return nil, mapErr
	}
	return columns, nil
}

func (m *Metadata) GetColumnHandles(ctx context.Context, session *core.Session, table *core.TableHandle) (map[string]*core.ColumnHandle, error) {
	columns, err := m.columns(ctx, session, table.TableName)
	if err != nil {
		return nil, err
	}
	handles := make(map[string]*core.ColumnHandle, len(columns))
	for _, c := range columns {
		handles[c.ColumnName] = c
	}
	return handles, nil
}

func (m *Metadata) GetTableMetadata(ctx context.Context, session *core.Session, table *core.TableHandle) (*core.TableMetadata, error) {
	columns, err := m.columns(ctx, session, table.TableName)
	if err != nil {
		return nil, err
	}
	metadata := &core.TableMetadata{
		Table:   core.SchemaTableName{Schema: DefaultSchema, Table: table.TableName},
		Columns: make([]core.ColumnMetadata, len(columns)),
	}
	for i, c := range columns {
		metadata.Columns[i] = c.Metadata()
	}
	return metadata, nil
}

func (m *Metadata) GetColumnMetadata(_ context.Context, _ *core.Session, _ *core.TableHandle, column *core.ColumnHandle) (core.ColumnMetadata, error) {
	return column.Metadata(), nil
}

// BeginCreateTable validates the requested columns and returns the handle the sink writes
// through. Nothing is created remotely until the first flush.
func (m *Metadata) BeginCreateTable(_ context.Context, _ *core.Session, table *core.TableMetadata) (*core.OutputTableHandle, error) {
	if table.Table.Schema != "" && table.Table.Schema != DefaultSchema {
		return nil, errors.Newf(errors.ErrorTypeValidation, "schema %q does not exist", table.Table.Schema)
	}
	if len(table.Columns) == 0 {
		return nil, errors.New(errors.ErrorTypeValidation, "table must have at least one column")
	}

	seen := make(map[string]struct{}, len(table.Columns))
	columns := make([]*core.ColumnHandle, len(table.Columns))
	for i, c := range table.Columns {
		if _, dup := seen[c.Name]; dup {
			return nil, errors.Newf(errors.ErrorTypeValidation, "duplicate column %q", c.Name)
		}
		seen[c.Name] = struct{}{}
		if _, err := ToArrowType(c.Type); err != nil {
			return nil, err
		}
		columns[i] = &core.ColumnHandle{ColumnName: c.Name, ColumnType: c.Type}
	}

	return &core.OutputTableHandle{
		TableHandle:   &core.TableHandle{TableName: table.Table.Table},
		ColumnHandles: columns,
	}, nil
}

func (m *Metadata) FinishCreateTable(context.Context, *core.Session, *core.OutputTableHandle, [][]byte) error {
	return nil
}

func (m *Metadata) BeginInsert(ctx context.Context, session *core.Session, table *core.TableHandle) (*core.InsertTableHandle, error) {
	columns, err := m.columns(ctx, session, table.TableName)
	if err != nil {
		return nil, err
	}
	return &core.InsertTableHandle{TableHandle: table, ColumnHandles: columns}, nil
}

func (m *Metadata) FinishInsert(context.Context, *core.Session, *core.InsertTableHandle, [][]byte) error {
	return nil
}
