package arrowflight

import (
	"github.com/apache/arrow-go/v18/arrow"

	"github.com/ajitpratap0/flightbridge/pkg/connector/core"
	"github.com/ajitpratap0/flightbridge/pkg/errors"
	"github.com/ajitpratap0/flightbridge/pkg/types"
)

// ToEngineType maps a wire type to its engine type.
//
// Integers map by bit width only. Half floats map to real while single floats are
// unsupported; that asymmetry is kept for compatibility with existing deployments.
func ToEngineType(dt arrow.DataType) (types.Type, error) {
	switch dt.ID() {
	case arrow.INT8, arrow.UINT8:
		return types.TinyInt, nil
	case arrow.INT16, arrow.UINT16:
		return types.SmallInt, nil
	case arrow.INT32, arrow.UINT32:
		return types.Integer, nil
	case arrow.INT64, arrow.UINT64:
		return types.BigInt, nil
	case arrow.FLOAT64:
		return types.Double, nil
	case arrow.FLOAT16:
		return types.Real, nil
	case arrow.STRING:
		return types.Varchar, nil
	case arrow.BINARY:
		return types.Varbinary, nil
	case arrow.BOOL:
		return types.Boolean, nil
	case arrow.DECIMAL128, arrow.DECIMAL256:
		dec := dt.(arrow.DecimalType)
		t, err := types.Decimal(int(dec.GetPrecision()), int(dec.GetScale()))
		if err != nil {
			return types.Type{}, errors.Wrap(err, errors.ErrorTypeUnsupportedType, dt.String()+" type is not supported")
		}
		return t, nil
	case arrow.DATE32, arrow.DATE64:
		return types.Date, nil
	case arrow.TIME32, arrow.TIME64:
		return types.Time, nil
	case arrow.TIMESTAMP:
		return types.Timestamp, nil
	}
	return types.Type{}, unsupported(dt)
}

// ToArrowType maps an engine type to the wire type used when writing
func ToArrowType(t types.Type) (arrow.DataType, error) {
	switch t.Kind {
	case types.KindBigInt:
		return arrow.PrimitiveTypes.Int64, nil
	case types.KindInteger:
		return arrow.PrimitiveTypes.Int32, nil
	}
	return nil, errors.Newf(errors.ErrorTypeUnsupportedType, "%s type is not supported", t)
}

// ToColumnHandles maps every field of schema, failing on the first unmapped type
func ToColumnHandles(schema *arrow.Schema) ([]*core.ColumnHandle, error) {
	columns := make([]*core.ColumnHandle, 0, schema.NumFields())
	for _, field := range schema.Fields() {
		t, err := ToEngineType(field.Type)
		if err != nil {
			return nil, err
		}
		columns = append(columns, &core.ColumnHandle{ColumnName: field.Name, ColumnType: t})
	}
	return columns, nil
}

// ToEngineColumns maps schema to column metadata
func ToEngineColumns(schema *arrow.Schema) ([]core.ColumnMetadata, error) {
	handles, err := ToColumnHandles(schema)
	if err != nil {
		return nil, err
	}
	columns := make([]core.ColumnMetadata, len(handles))
	for i, h := range handles {
		columns[i] = h.Metadata()
	}
	return columns, nil
}

// ToArrowSchema builds the write schema of columns, in order. All fields are nullable.
func ToArrowSchema(columns []*core.ColumnHandle) (*arrow.Schema, error) {
	fields := make([]arrow.Field, len(columns))
	for i, c := range columns {
		dt, err := ToArrowType(c.ColumnType)
		if err != nil {
			return nil, err
		}
		fields[i] = arrow.Field{Name: c.ColumnName, Type: dt, Nullable: true}
	}
	return arrow.NewSchema(fields, nil), nil
}

func unsupported(dt arrow.DataType) error {
	return errors.Newf(errors.ErrorTypeUnsupportedType, "%s type is not supported", kindName(dt.ID()))
}

// kindName names a wire kind the way users see it in error messages
func kindName(id arrow.Type) string {
	switch id {
	case arrow.NULL:
		return "Null"
	case arrow.STRUCT:
		return "Struct"
	case arrow.LIST:
		return "List"
	case arrow.FIXED_SIZE_LIST:
		return "FixedSizeList"
	case arrow.FIXED_SIZE_BINARY:
		return "FixedSizeBinary"
	case arrow.SPARSE_UNION, arrow.DENSE_UNION:
		return "Union"
	case arrow.MAP:
		return "Map"
	case arrow.INTERVAL_MONTHS, arrow.INTERVAL_DAY_TIME, arrow.INTERVAL_MONTH_DAY_NANO:
		return "Interval"
	case arrow.DURATION:
		return "Duration"
	case arrow.FLOAT32:
		return "FloatingPoint(SINGLE)"
	default:
		return id.String()
	}
}
