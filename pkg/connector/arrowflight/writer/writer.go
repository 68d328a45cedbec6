// Package writer encodes engine blocks into remote columnar vectors.
package writer

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/ajitpratap0/flightbridge/pkg/columnar"
	"github.com/ajitpratap0/flightbridge/pkg/errors"
	"github.com/ajitpratap0/flightbridge/pkg/types"
)

// ColumnWriter appends engine blocks to the builder of one wire vector
type ColumnWriter interface {
	Type() types.Type
	ArrowType() arrow.DataType
	// Write appends every position of block after the builder's current length
	Write(fb array.Builder, block columnar.Block) error
}

// ForType returns the writer for an engine type. Only bigint and integer are writable.
func ForType(t types.Type) (ColumnWriter, error) {
	switch t.Kind {
	case types.KindBigInt:
		return LongWriter{}, nil
	case types.KindInteger:
		return IntegerWriter{}, nil
	}
	return nil, errors.Newf(errors.ErrorTypeUnsupportedType, "%s type is not supported", t)
}

type valueBuilder[T columnar.Fixed] interface {
	array.Builder
	Append(v T)
	Reserve(n int)
}

func writeFixed[T columnar.Fixed, B valueBuilder[T]](fb array.Builder, block columnar.Block) error {
	b, ok := fb.(B)
	if !ok {
		return errors.Newf(errors.ErrorTypeInternal, "unexpected builder %T", fb)
	}
	fixed, ok := block.(*columnar.FixedBlock[T])
	if !ok {
		return errors.Newf(errors.ErrorTypeData, "cannot encode %s block", block.Type())
	}

	b.Reserve(fixed.PositionCount())
	for i := 0; i < fixed.PositionCount(); i++ {
		if fixed.IsNull(i) {
			b.AppendNull()
			continue
		}
		b.Append(fixed.Value(i))
	}
	return nil
}
