// Package reader decodes remote columnar vectors into engine blocks.
package reader

import (
	"github.com/apache/arrow-go/v18/arrow"

	"github.com/ajitpratap0/flightbridge/pkg/columnar"
	"github.com/ajitpratap0/flightbridge/pkg/errors"
	"github.com/ajitpratap0/flightbridge/pkg/types"
)

// ColumnReader decodes a slice of one wire vector into a block of its engine type
type ColumnReader interface {
	Type() types.Type
	// Read decodes positions [offset, offset+length) of vec. Nulls are preserved.
	Read(vec arrow.Array, offset, length int) (columnar.Block, error)
}

// ForType returns the reader for an engine type
func ForType(t types.Type) (ColumnReader, error) {
	switch t.Kind {
	case types.KindBigInt:
		return BigIntReader{}, nil
	case types.KindInteger:
		return IntegerReader{}, nil
	case types.KindSmallInt:
		return SmallIntReader{}, nil
	case types.KindTinyInt:
		return TinyIntReader{}, nil
	}
	return nil, errors.Newf(errors.ErrorTypeUnsupportedType, "%s type is not supported", t)
}

// Column finds the vector named name in rec
func Column(rec arrow.Record, name string) (arrow.Array, error) {
	indices := rec.Schema().FieldIndices(name)
	if len(indices) == 0 {
		return nil, errors.Newf(errors.ErrorTypeData, "column %q not found in remote batch", name)
	}
	return rec.Column(indices[0]), nil
}

// wireInt is any integer width a remote vector can carry
type wireInt interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

type fixedVector[S wireInt] interface {
	arrow.Array
	Value(i int) S
}

func readFixed[T columnar.Fixed, V fixedVector[T]](vec arrow.Array, offset, length int) ([]T, []bool, error) {
	return readAs[T, T, V](vec, offset, length)
}

// readAs decodes a vector of S into values of T. Unsigned vectors keep their bits, so
// values above the signed maximum of the width read as negative.
func readAs[T columnar.Fixed, S wireInt, V fixedVector[S]](vec arrow.Array, offset, length int) ([]T, []bool, error) {
	typed, ok := vec.(V)
	if !ok {
		return nil, nil, errors.Newf(errors.ErrorTypeData, "unexpected %s vector", vec.DataType())
	}
	if offset < 0 || length < 0 || offset+length > typed.Len() {
		return nil, nil, errors.Newf(errors.ErrorTypeData,
			"range [%d, %d) out of bounds of vector with %d values", offset, offset+length, typed.Len())
	}

	values := make([]T, length)
	var nulls []bool
	for i := 0; i < length; i++ {
		if typed.IsNull(offset + i) {
			if nulls == nil {
				nulls = make([]bool, length)
			}
			nulls[i] = true
			continue
		}
		values[i] = T(typed.Value(offset + i))
	}
	return values, nulls, nil
}
