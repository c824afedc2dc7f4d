package shell

import (
	"strconv"
	"strings"
)

// ScalarKind identifies the coerced type of a single token.
type ScalarKind int

const (
	// ScalarText is a token that parsed as neither integer nor float.
	ScalarText ScalarKind = iota
	// ScalarInt is a token that parsed as an integer.
	ScalarInt
	// ScalarFloat is a token that parsed as a float but not an integer.
	ScalarFloat
)

// Scalar is one whitespace-delimited token coerced to its loosest numeric
// reading: integer if it parses as one, else float, else text. Exactly the
// field matching Kind is meaningful.
type Scalar struct {
	Kind  ScalarKind
	Text  string
	Int   int64
	Float float64
}

// TextScalar builds a text Scalar.
func TextScalar(s string) Scalar {
	return Scalar{Kind: ScalarText, Text: s}
}

// IntScalar builds an integer Scalar.
func IntScalar(v int64) Scalar {
	return Scalar{Kind: ScalarInt, Int: v}
}

// FloatScalar builds a float Scalar.
func FloatScalar(v float64) Scalar {
	return Scalar{Kind: ScalarFloat, Float: v}
}

// String renders the scalar back as text.
func (s Scalar) String() string {
	switch s.Kind {
	case ScalarInt:
		return strconv.FormatInt(s.Int, 10)
	case ScalarFloat:
		return strconv.FormatFloat(s.Float, 'g', -1, 64)
	default:
		return s.Text
	}
}

// Row is an ordered sequence of scalars produced by one multi-token line.
type Row []Scalar

// Value is the content contributed by one output line: a single Scalar for
// one-token lines, or a Row for multi-token lines.
type Value struct {
	Scalar Scalar
	Row    Row
}

// IsRow reports whether the value is a multi-token row.
func (v Value) IsRow() bool {
	return v.Row != nil
}

// ScalarValue builds a single-scalar Value.
func ScalarValue(s Scalar) Value {
	return Value{Scalar: s}
}

// RowValue builds a row Value.
func RowValue(scalars ...Scalar) Value {
	return Value{Row: Row(scalars)}
}

// Parsed is the result of parsing fully drained command output: an explicit
// empty marker when no line produced a value, a single Value when exactly
// one line did, or the ordered per-line sequence otherwise.
type Parsed struct {
	values []Value
}

// IsEmpty reports whether no line produced a value. An empty result is
// distinct from a sequence containing an empty row; blank lines contribute
// nothing.
func (p Parsed) IsEmpty() bool {
	return len(p.values) == 0
}

// Single returns the result value when exactly one line produced one.
func (p Parsed) Single() (Value, bool) {
	if len(p.values) == 1 {
		return p.values[0], true
	}
	return Value{}, false
}

// Values returns the ordered per-line values.
func (p Parsed) Values() []Value {
	return p.values
}

// Len returns the number of per-line values.
func (p Parsed) Len() int {
	return len(p.values)
}

// Parse converts whitespace-tabular text, such as process listings or size
// reports, into a loosely typed value structure without a schema. Each line
// is split into whitespace-delimited tokens and every token is coerced to an
// integer if it parses as one, else a float, else left as text. A line with
// one token contributes that scalar; a line with several contributes a Row.
func Parse(text string) Parsed {
	var values []Value
	for _, line := range strings.Split(text, "\n") {
		tokens := strings.Fields(line)
		if len(tokens) == 0 {
			continue
		}
		if len(tokens) == 1 {
			values = append(values, ScalarValue(coerce(tokens[0])))
			continue
		}
		row := make(Row, len(tokens))
		for i, token := range tokens {
			row[i] = coerce(token)
		}
		values = append(values, Value{Row: row})
	}
	return Parsed{values: values}
}

// coerce applies the int-then-float-then-text coercion to one token.
func coerce(token string) Scalar {
	if v, err := strconv.ParseInt(token, 10, 64); err == nil {
		return IntScalar(v)
	}
	if v, err := strconv.ParseFloat(token, 64); err == nil {
		return FloatScalar(v)
	}
	return TextScalar(token)
}
