// Package types defines the query engine's logical type system.
//
// A Type is identified by its signature, e.g. "bigint" or "decimal(10,2)". Handles that
// cross process boundaries carry the signature string, so Type encodes to JSON as one.
package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind enumerates the logical type families
type Kind int

const (
	KindUnknown Kind = iota
	KindBoolean
	KindTinyInt
	KindSmallInt
	KindInteger
	KindBigInt
	KindReal
	KindDouble
	KindDecimal
	KindVarchar
	KindVarbinary
	KindDate
	KindTime
	KindTimestamp
)

var kindNames = map[Kind]string{
	KindBoolean:   "boolean",
	KindTinyInt:   "tinyint",
	KindSmallInt:  "smallint",
	KindInteger:   "integer",
	KindBigInt:    "bigint",
	KindReal:      "real",
	KindDouble:    "double",
	KindDecimal:   "decimal",
	KindVarchar:   "varchar",
	KindVarbinary: "varbinary",
	KindDate:      "date",
	KindTime:      "time",
	KindTimestamp: "timestamp",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Type is an engine logical type. Precision and Scale are only meaningful for decimals.
type Type struct {
	Kind      Kind
	Precision int
	Scale     int
}

// Singleton types
var (
	Boolean   = Type{Kind: KindBoolean}
	TinyInt   = Type{Kind: KindTinyInt}
	SmallInt  = Type{Kind: KindSmallInt}
	Integer   = Type{Kind: KindInteger}
	BigInt    = Type{Kind: KindBigInt}
	Real      = Type{Kind: KindReal}
	Double    = Type{Kind: KindDouble}
	Varchar   = Type{Kind: KindVarchar}
	Varbinary = Type{Kind: KindVarbinary}
	Date      = Type{Kind: KindDate}
	Time      = Type{Kind: KindTime}
	Timestamp = Type{Kind: KindTimestamp}
)

// MaxDecimalPrecision is the widest decimal the engine represents
const MaxDecimalPrecision = 38

// Decimal returns a decimal type with the given precision and scale
func Decimal(precision, scale int) (Type, error) {
	if precision < 1 || precision > MaxDecimalPrecision {
		return Type{}, fmt.Errorf("decimal precision must be in range [1, %d]: %d", MaxDecimalPrecision, precision)
	}
	if scale < 0 || scale > precision {
		return Type{}, fmt.Errorf("decimal scale must be in range [0, precision]: %d", scale)
	}
	return Type{Kind: KindDecimal, Precision: precision, Scale: scale}, nil
}

// String returns the type signature
func (t Type) String() string {
	if t.Kind == KindDecimal {
		return fmt.Sprintf("decimal(%d,%d)", t.Precision, t.Scale)
	}
	return t.Kind.String()
}

// Equal reports whether two types have the same signature
func (t Type) Equal(other Type) bool {
	return t == other
}

// FixedWidth returns the value width in bytes for fixed-width types, 0 otherwise
func (t Type) FixedWidth() int {
	switch t.Kind {
	case KindBoolean, KindTinyInt:
		return 1
	case KindSmallInt:
		return 2
	case KindInteger, KindReal, KindDate:
		return 4
	case KindBigInt, KindDouble, KindTime, KindTimestamp:
		return 8
	case KindDecimal:
		if t.Precision <= 18 {
			return 8
		}
		return 16
	default:
		return 0
	}
}

// Parse parses a type signature such as "integer" or "decimal(10, 2)"
func Parse(signature string) (Type, error) {
	sig := strings.ToLower(strings.TrimSpace(signature))
	if strings.HasPrefix(sig, "decimal") {
		return parseDecimal(sig)
	}
	switch sig {
	case "int":
		return Integer, nil
	case "float":
		return Real, nil
	}
	for kind, name := range kindNames {
		if kind != KindDecimal && name == sig {
			return Type{Kind: kind}, nil
		}
	}
	return Type{}, fmt.Errorf("unknown type signature: %q", signature)
}

func parseDecimal(sig string) (Type, error) {
	rest := strings.TrimSpace(strings.TrimPrefix(sig, "decimal"))
	if rest == "" {
		return Decimal(MaxDecimalPrecision, 0)
	}
	if !strings.HasPrefix(rest, "(") || !strings.HasSuffix(rest, ")") {
		return Type{}, fmt.Errorf("malformed decimal signature: %q", sig)
	}
	parts := strings.Split(rest[1:len(rest)-1], ",")
	if len(parts) > 2 {
		return Type{}, fmt.Errorf("malformed decimal signature: %q", sig)
	}
	precision, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return Type{}, fmt.Errorf("malformed decimal precision in %q: %w", sig, err)
	}
	scale := 0
	if len(parts) == 2 {
		scale, err = strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return Type{}, fmt.Errorf("malformed decimal scale in %q: %w", sig, err)
		}
	}
	return Decimal(precision, scale)
}

// MarshalText encodes the type as its signature
func (t Type) MarshalText() ([]byte, error) {
	if t.Kind == KindUnknown {
		return nil, fmt.Errorf("cannot encode unknown type")
	}
	return []byte(t.String()), nil
}

// UnmarshalText decodes a signature
func (t *Type) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
