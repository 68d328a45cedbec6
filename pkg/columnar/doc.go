// Package columnar implements the engine's in-memory page format.
//
// A Page is a finite row batch made of one Block per column. Blocks are immutable once
// built and carry their own null mask, so null positions survive any conversion to and
// from the Arrow vectors used on the wire.
//
// # Building pages
//
//	b, _ := columnar.NewBlockBuilder(types.BigInt, 1024)
//	lb := b.(*columnar.LongBlockBuilder)
//	lb.Append(42)
//	lb.AppendNull()
//	page, err := columnar.NewPage(2, lb.Build())
//
// # Size estimates
//
// SizeInBytes reports value width plus one null byte per position for every block. The
// write path sums these estimates to decide when its buffered Arrow batch is flushed.
package columnar
