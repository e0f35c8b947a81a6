package layout

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ElementKind is the semantic kind of an element, derived from its raw type.
type ElementKind int

const (
	KindText ElementKind = iota
	KindImage
	KindFooter
)

func (k ElementKind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindFooter:
		return "footer"
	default:
		return "text"
	}
}

// Raw type values written by the editor.
const (
	TypeText   = "text"
	TypeImage  = "image"
	TypeFooter = "footer"
)

// KindOf derives the kind from a raw type string. Any type containing the
// literal "footer" (case-sensitive) is a footer kind.
func KindOf(elementType string) ElementKind {
	switch {
	case elementType == TypeImage:
		return KindImage
	case strings.Contains(elementType, TypeFooter):
		return KindFooter
	default:
		return KindText
	}
}

// CustomElement is a user-placed block on a checkout page.
type CustomElement struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"`
	Position Position `json:"position"`
	Content  string   `json:"content"`
	Styles   *Styles  `json:"styles,omitempty"`
}

// Kind returns the element's semantic kind.
func (e CustomElement) Kind() ElementKind { return KindOf(e.Type) }

// Bucket returns the bucket the element's position classifies into.
func (e CustomElement) Bucket() Bucket { return Classify(e.Position) }

// StyleBag returns the element styles, never nil.
func (e CustomElement) StyleBag() Styles {
	if e.Styles == nil {
		return Styles{}
	}
	return *e.Styles
}

// Styles holds optional presentation hints. Every field has a default applied
// by ResolveStyle.
type Styles struct {
	Color           string    `json:"color,omitempty"`
	BackgroundColor string    `json:"backgroundColor,omitempty"`
	IsBold          bool      `json:"isBold,omitempty"`
	HasBox          bool      `json:"hasBox,omitempty"`
	BoxColor        string    `json:"boxColor,omitempty"`
	ImageSize       Dimension `json:"imageSize,omitempty"`
	BorderRadius    Dimension `json:"borderRadius,omitempty"`
	FontSize        Dimension `json:"fontSize,omitempty"`
	TextAlign       string    `json:"textAlign,omitempty"`
	Padding         Dimension `json:"padding,omitempty"`
	Border          string    `json:"border,omitempty"`
	MarginBottom    Dimension `json:"marginBottom,omitempty"`
	MarginTop       Dimension `json:"marginTop,omitempty"`
	FontWeight      Value     `json:"fontWeight,omitempty"`
	LineHeight      Value     `json:"lineHeight,omitempty"`
	BorderTop       string    `json:"borderTop,omitempty"`
}

// Dimension is a length that may arrive as a JSON number (pixels) or a string.
type Dimension string

// Px builds a pixel dimension.
func Px(n int) Dimension { return Dimension(strconv.Itoa(n)) }

// IsSet reports whether a value was supplied.
func (d Dimension) IsSet() bool { return strings.TrimSpace(string(d)) != "" }

// CSS renders the dimension; bare numbers get a px suffix.
func (d Dimension) CSS() string {
	s := strings.TrimSpace(string(d))
	if s == "" {
		return ""
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return s + "px"
	}
	return s
}

// Pixels returns the numeric value when the dimension is a bare number or px.
func (d Dimension) Pixels() (float64, bool) {
	s := strings.TrimSuffix(strings.TrimSpace(string(d)), "px")
	v, err := strconv.ParseFloat(s, 64)
	return v, err == nil
}

// MarshalJSON writes bare numbers back as JSON numbers.
func (d Dimension) MarshalJSON() ([]byte, error) {
	s := strings.TrimSpace(string(d))
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return []byte(s), nil
	}
	return json.Marshal(s)
}

// UnmarshalJSON accepts numbers and strings.
func (d *Dimension) UnmarshalJSON(data []byte) error {
	s, err := looseScalar(data)
	if err != nil {
		return fmt.Errorf("invalid dimension: %w", err)
	}
	*d = Dimension(s)
	return nil
}

// Value is a unitless CSS value (font weight, line height) that may arrive as
// a number or a string.
type Value string

// MarshalJSON writes numeric values back as JSON numbers.
func (v Value) MarshalJSON() ([]byte, error) {
	s := strings.TrimSpace(string(v))
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return []byte(s), nil
	}
	return json.Marshal(s)
}

// UnmarshalJSON accepts numbers and strings.
func (v *Value) UnmarshalJSON(data []byte) error {
	s, err := looseScalar(data)
	if err != nil {
		return fmt.Errorf("invalid value: %w", err)
	}
	*v = Value(s)
	return nil
}

func looseScalar(data []byte) (string, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return "", nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}

// ParseElements decodes the JSON-encoded element array stored on a page. An
// empty string yields no elements. A JSON string wrapping the array (double
// encoding written by older editors) is unwrapped first.
func ParseElements(raw string) ([]CustomElement, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return []CustomElement{}, nil
	}

	if strings.HasPrefix(raw, `"`) {
		var inner string
		if err := json.Unmarshal([]byte(raw), &inner); err != nil {
			return nil, fmt.Errorf("failed to decode custom elements: %w", err)
		}
		return ParseElements(inner)
	}

	var elements []CustomElement
	if err := json.Unmarshal([]byte(raw), &elements); err != nil {
		return nil, fmt.Errorf("failed to decode custom elements: %w", err)
	}
	if elements == nil {
		elements = []CustomElement{}
	}
	return elements, nil
}

// EncodeElements serializes elements for storage.
func EncodeElements(elements []CustomElement) (string, error) {
	if elements == nil {
		elements = []CustomElement{}
	}
	data, err := json.Marshal(elements)
	if err != nil {
		return "", fmt.Errorf("failed to encode custom elements: %w", err)
	}
	return string(data), nil
}
