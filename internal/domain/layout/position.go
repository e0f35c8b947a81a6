// Package layout implements the custom element positioning model shared by the
// editor preview and the live checkout page: bucket classification, in-bucket
// ordering, and style resolution.
package layout

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Bucket is one of the five layout zones an element is rendered into.
type Bucket int

const (
	BucketHeader Bucket = iota
	BucketTop
	BucketMiddle
	BucketBottom
	BucketFooter
)

// Buckets lists every bucket in render order.
var Buckets = []Bucket{BucketHeader, BucketTop, BucketMiddle, BucketBottom, BucketFooter}

func (b Bucket) String() string {
	switch b {
	case BucketHeader:
		return "header"
	case BucketTop:
		return "top"
	case BucketMiddle:
		return "middle"
	case BucketBottom:
		return "bottom"
	case BucketFooter:
		return "footer"
	default:
		return fmt.Sprintf("bucket(%d)", int(b))
	}
}

// Lower bounds of the numeric position ranges. Intervals are half-open: a
// position equal to a bound belongs to the bucket that starts there.
const (
	TopBucketStart    = 0
	MiddleBucketStart = 10
	BottomBucketStart = 100

	// FooterBucketThreshold is where the true footer bucket begins.
	FooterBucketThreshold = 1000

	// FooterStyleThreshold is where numeric positions start receiving the
	// footer visual treatment (centered, square corners, full bleed) while
	// still living in the bottom bucket. It only applies to numbers: the
	// "bottom" token shares its effective order but keeps the regular style.
	FooterStyleThreshold = 100

	// HeaderSplitThreshold separates header elements rendered before the logo
	// (strictly below it) from those rendered after the logo.
	HeaderSplitThreshold = -10
)

// Symbol is a named position token.
type Symbol string

const (
	SymbolTop    Symbol = "top"
	SymbolMiddle Symbol = "middle"
	SymbolBottom Symbol = "bottom"
)

// Effective order values for symbolic positions. They order elements
// within a bucket and never feed the numeric style thresholds.
const (
	TopDefaultOrder    = 0
	MiddleDefaultOrder = 50
	BottomDefaultOrder = 100
)

type positionKind uint8

const (
	positionUnset positionKind = iota
	positionNumeric
	positionSymbolic
)

// Position is either a signed number or a symbolic token. The zero value is an
// unset position and falls through to the middle bucket like any unknown token.
type Position struct {
	kind   positionKind
	value  float64
	symbol Symbol
}

// At returns a numeric position.
func At(value float64) Position {
	return Position{kind: positionNumeric, value: value}
}

// Named returns a symbolic position. Unknown tokens are kept verbatim.
func Named(symbol Symbol) Position {
	return Position{kind: positionSymbolic, symbol: symbol}
}

// IsNumeric reports whether the position carries a number.
func (p Position) IsNumeric() bool { return p.kind == positionNumeric }

// IsSymbolic reports whether the position carries a token.
func (p Position) IsSymbolic() bool { return p.kind == positionSymbolic }

// IsSet reports whether a position was supplied at all.
func (p Position) IsSet() bool { return p.kind != positionUnset }

// Value returns the numeric value, or zero for symbolic positions.
func (p Position) Value() float64 { return p.value }

// Symbol returns the token of a symbolic position.
func (p Position) Symbol() Symbol { return p.symbol }

// Bucket classifies the position.
func (p Position) Bucket() Bucket { return Classify(p) }

// Classify maps a position to its bucket.
func Classify(p Position) Bucket {
	if p.kind == positionNumeric {
		return classifyNumeric(p.value)
	}

	switch p.symbol {
	case SymbolTop:
		return BucketTop
	case SymbolBottom:
		return BucketBottom
	default:
		return BucketMiddle
	}
}

func classifyNumeric(v float64) Bucket {
	switch {
	case v < TopBucketStart:
		return BucketHeader
	case v < MiddleBucketStart:
		return BucketTop
	case v < BottomBucketStart:
		return BucketMiddle
	case v < FooterBucketThreshold:
		return BucketBottom
	default:
		return BucketFooter
	}
}

// EffectiveOrder is the value used to sort within a bucket.
func (p Position) EffectiveOrder() float64 {
	if p.kind == positionNumeric {
		return p.value
	}

	switch p.symbol {
	case SymbolTop:
		return TopDefaultOrder
	case SymbolBottom:
		return BottomDefaultOrder
	default:
		return MiddleDefaultOrder
	}
}

func (p Position) String() string {
	switch p.kind {
	case positionNumeric:
		return strconv.FormatFloat(p.value, 'f', -1, 64)
	case positionSymbolic:
		return string(p.symbol)
	default:
		return ""
	}
}

// MarshalJSON writes numbers as JSON numbers and tokens as strings. A
// non-finite number has no JSON form and is written as null.
func (p Position) MarshalJSON() ([]byte, error) {
	switch p.kind {
	case positionNumeric:
		if math.IsNaN(p.value) || math.IsInf(p.value, 0) {
			return []byte("null"), nil
		}
		return []byte(strconv.FormatFloat(p.value, 'f', -1, 64)), nil
	case positionSymbolic:
		return json.Marshal(string(p.symbol))
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts a number, a numeric string, or a token.
func (p *Position) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*p = Position{}
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("invalid position: %w", err)
		}
		*p = ParsePosition(s)
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("invalid position %s: %w", string(data), err)
	}
	*p = At(v)
	return nil
}

// ParsePosition interprets a textual position as sent by the editor forms.
// Only finite numbers are numeric; "NaN" and "Inf" are unknown tokens.
func ParsePosition(s string) Position {
	s = strings.TrimSpace(s)
	if s == "" {
		return Position{}
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
		return At(v)
	}
	return Named(Symbol(s))
}
