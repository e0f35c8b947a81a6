package layout

import "strings"

// Style defaults.
const (
	DefaultTextColor    = "#000000"
	DefaultBoxColor     = "#ffffff"
	DefaultBorderColor  = "#e5e7eb"
	DefaultFontSize     = "16px"
	DefaultTextAlign    = "left"
	DefaultBorderRadius = 4
	DefaultPadding      = "8px"
	DefaultImageWidth   = 200
	DefaultImageRadius  = 8
	FooterMarginTop     = "32px"
)

// Declaration is one CSS property/value pair.
type Declaration struct {
	Property string
	Value    string
}

// Style is an ordered set of CSS declarations.
type Style struct {
	decls []Declaration
}

// Get returns the value of a property.
func (s Style) Get(property string) (string, bool) {
	for _, d := range s.decls {
		if d.Property == property {
			return d.Value, true
		}
	}
	return "", false
}

// Declarations returns a copy of the declarations in emission order.
func (s Style) Declarations() []Declaration {
	out := make([]Declaration, len(s.decls))
	copy(out, s.decls)
	return out
}

// Set adds or replaces a declaration. Empty values are ignored.
func (s *Style) Set(property, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	for i, d := range s.decls {
		if d.Property == property {
			s.decls[i].Value = value
			return
		}
	}
	s.decls = append(s.decls, Declaration{Property: property, Value: value})
}

// String serializes the style for an inline style attribute. Values that could
// escape their declaration are dropped.
func (s Style) String() string {
	var b strings.Builder
	for _, d := range s.decls {
		if !SafeCSSValue(d.Value) {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("; ")
		}
		b.WriteString(d.Property)
		b.WriteString(": ")
		b.WriteString(d.Value)
	}
	return b.String()
}

// SafeCSSValue reports whether a user-supplied value can sit inside a single
// inline declaration.
func SafeCSSValue(v string) bool {
	if strings.ContainsAny(v, ";{}<>\"\\") {
		return false
	}
	lower := strings.ToLower(v)
	return !strings.Contains(lower, "url(") && !strings.Contains(lower, "expression(")
}

// IsFooterLike reports whether an element receives the footer visual
// treatment: it sits in the footer bucket, its type names a footer, or its
// numeric position reaches FooterStyleThreshold.
func IsFooterLike(el CustomElement, bucket Bucket) bool {
	if bucket == BucketFooter || el.Kind() == KindFooter {
		return true
	}
	return el.Position.IsNumeric() && el.Position.Value() >= FooterStyleThreshold
}

// ResolveStyle derives the final inline style of an element rendered in the
// given bucket. Image elements resolve through ResolveImageStyle.
func ResolveStyle(el CustomElement, bucket Bucket) Style {
	if el.Kind() == KindImage {
		return ResolveImageStyle(el)
	}

	bag := el.StyleBag()
	footerLike := IsFooterLike(el, bucket)

	var s Style
	s.Set("color", firstNonEmpty(bag.Color, DefaultTextColor))
	s.Set("background-color", resolveBackground(bag))

	if bag.Border != "" {
		s.Set("border", bag.Border)
	} else {
		s.Set("border-width", "1px")
		s.Set("border-style", "solid")
		s.Set("border-color", resolveBorderColor(bag))
	}
	s.Set("border-top", bag.BorderTop)

	fontWeight := string(bag.FontWeight)
	if fontWeight == "" {
		fontWeight = "normal"
		if bag.IsBold {
			fontWeight = "bold"
		}
	}
	s.Set("font-weight", fontWeight)
	s.Set("font-size", firstNonEmpty(bag.FontSize.CSS(), DefaultFontSize))
	s.Set("line-height", string(bag.LineHeight))

	if footerLike {
		s.Set("text-align", "center")
		s.Set("border-radius", "0")
	} else {
		s.Set("text-align", firstNonEmpty(bag.TextAlign, DefaultTextAlign))
		s.Set("border-radius", firstNonEmpty(bag.BorderRadius.CSS(), Px(DefaultBorderRadius).CSS()))
	}

	s.Set("padding", firstNonEmpty(bag.Padding.CSS(), DefaultPadding))

	if footerLike {
		s.Set("margin-top", FooterMarginTop)
	} else {
		s.Set("margin-top", bag.MarginTop.CSS())
	}
	s.Set("margin-bottom", bag.MarginBottom.CSS())

	if footerLike {
		s.Set("width", "100vw")
		s.Set("margin-left", "-50vw")
		s.Set("left", "50%")
		s.Set("position", "relative")
	} else {
		s.Set("width", "auto")
		s.Set("margin-left", "0")
		s.Set("left", "auto")
		s.Set("position", "static")
	}

	return s
}

// ResolveImageStyle resolves the only two properties images honour.
func ResolveImageStyle(el CustomElement) Style {
	bag := el.StyleBag()

	var s Style
	s.Set("width", firstNonEmpty(bag.ImageSize.CSS(), Px(DefaultImageWidth).CSS()))
	s.Set("max-width", "100%")
	s.Set("height", "auto")
	s.Set("border-radius", firstNonEmpty(bag.BorderRadius.CSS(), Px(DefaultImageRadius).CSS()))
	return s
}

func resolveBackground(bag Styles) string {
	if bag.BackgroundColor != "" {
		return bag.BackgroundColor
	}
	if bag.HasBox {
		return firstNonEmpty(bag.BoxColor, DefaultBoxColor)
	}
	return "transparent"
}

func resolveBorderColor(bag Styles) string {
	if bag.HasBox {
		return firstNonEmpty(bag.BoxColor, DefaultBorderColor)
	}
	return "transparent"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
