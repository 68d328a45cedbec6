package columnar

import (
	"fmt"

	"github.com/ajitpratap0/flightbridge/pkg/types"
)

// BlockBuilder accumulates positions for one column
type BlockBuilder interface {
	AppendNull()
	PositionCount() int
	Build() Block
}

// FixedBlockBuilder builds a FixedBlock. The null mask is only materialized on the first null.
type FixedBlockBuilder[T Fixed] struct {
	typ    types.Type
	values []T
	nulls  []bool
}

type (
	LongBlockBuilder  = FixedBlockBuilder[int64]
	IntBlockBuilder   = FixedBlockBuilder[int32]
	ShortBlockBuilder = FixedBlockBuilder[int16]
	ByteBlockBuilder  = FixedBlockBuilder[int8]
)

func newFixedBuilder[T Fixed](typ types.Type, capacity int) *FixedBlockBuilder[T] {
	return &FixedBlockBuilder[T]{typ: typ, values: make([]T, 0, capacity)}
}

// NewBlockBuilder returns a builder for typ. Only the fixed-width integer types have blocks.
func NewBlockBuilder(typ types.Type, capacity int) (BlockBuilder, error) {
	switch typ.Kind {
	case types.KindBigInt:
		return newFixedBuilder[int64](typ, capacity), nil
	case types.KindInteger:
		return newFixedBuilder[int32](typ, capacity), nil
	case types.KindSmallInt:
		return newFixedBuilder[int16](typ, capacity), nil
	case types.KindTinyInt:
		return newFixedBuilder[int8](typ, capacity), nil
	default:
		return nil, fmt.Errorf("no block representation for type %s", typ)
	}
}

func (b *FixedBlockBuilder[T]) Append(v T) {
	b.values = append(b.values, v)
	if b.nulls != nil {
		b.nulls = append(b.nulls, false)
	}
}

func (b *FixedBlockBuilder[T]) AppendNull() {
	if b.nulls == nil {
		b.nulls = make([]bool, len(b.values), cap(b.values))
	}
	var zero T
	b.values = append(b.values, zero)
	b.nulls = append(b.nulls, true)
}

func (b *FixedBlockBuilder[T]) PositionCount() int { return len(b.values) }

// Build returns the block and resets the builder
func (b *FixedBlockBuilder[T]) Build() Block {
	block := newFixedBlock(b.typ, b.values, b.nulls)
	b.values = make([]T, 0, cap(b.values))
	b.nulls = nil
	return block
}
