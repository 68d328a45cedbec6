package columnar

import (
	"fmt"

	"github.com/ajitpratap0/flightbridge/pkg/types"
)

// Block is one column of a Page
type Block interface {
	Type() types.Type
	PositionCount() int
	IsNull(position int) bool
	// SizeInBytes estimates retained memory: value width plus one null byte per position.
	SizeInBytes() int64
}

// Fixed is the set of fixed-width integer value types a FixedBlock can hold
type Fixed interface {
	~int8 | ~int16 | ~int32 | ~int64
}

// FixedBlock stores fixed-width values with an optional null mask. A nil mask means no nulls.
type FixedBlock[T Fixed] struct {
	typ    types.Type
	values []T
	nulls  []bool
}

type (
	LongBlock  = FixedBlock[int64]
	IntBlock   = FixedBlock[int32]
	ShortBlock = FixedBlock[int16]
	ByteBlock  = FixedBlock[int8]
)

func newFixedBlock[T Fixed](typ types.Type, values []T, nulls []bool) *FixedBlock[T] {
	if nulls != nil && len(nulls) != len(values) {
		panic(fmt.Sprintf("null mask length %d does not match %d values", len(nulls), len(values)))
	}
	return &FixedBlock[T]{typ: typ, values: values, nulls: nulls}
}

// NewLongBlock creates a bigint block
func NewLongBlock(values []int64, nulls []bool) *LongBlock {
	return newFixedBlock(types.BigInt, values, nulls)
}

// NewIntBlock creates an integer block
func NewIntBlock(values []int32, nulls []bool) *IntBlock {
	return newFixedBlock(types.Integer, values, nulls)
}

// NewShortBlock creates a smallint block
func NewShortBlock(values []int16, nulls []bool) *ShortBlock {
	return newFixedBlock(types.SmallInt, values, nulls)
}

// NewByteBlock creates a tinyint block
func NewByteBlock(values []int8, nulls []bool) *ByteBlock {
	return newFixedBlock(types.TinyInt, values, nulls)
}

func (b *FixedBlock[T]) Type() types.Type { return b.typ }

func (b *FixedBlock[T]) PositionCount() int { return len(b.values) }

func (b *FixedBlock[T]) IsNull(position int) bool {
	return b.nulls != nil && b.nulls[position]
}

// Value returns the value at position; the result is meaningless when IsNull is true.
func (b *FixedBlock[T]) Value(position int) T {
	return b.values[position]
}

func (b *FixedBlock[T]) SizeInBytes() int64 {
	return int64(len(b.values)) * int64(b.typ.FixedWidth()+1)
}

// MayHaveNull reports whether the block carries a null mask
func (b *FixedBlock[T]) MayHaveNull() bool {
	return b.nulls != nil
}
