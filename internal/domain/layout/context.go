package layout

import "strings"

// Page presentation defaults.
const (
	DefaultPrimaryColor    = "#32bcad"
	DefaultBackgroundColor = "#f9fafb"
	DefaultHeaderHeight    = 80
	DefaultLogoSize        = 120
	DefaultLogoPosition    = "center"
)

// PageContext carries the page-level presentation fields the renderer reads.
// It is owned by the page record and never written by a render pass.
type PageContext struct {
	PrimaryColor       string
	BackgroundColor    string
	HeaderHeight       int
	LogoURL            string
	LogoPosition       string
	LogoSize           int
	ShowLogo           bool
	CustomTitle        string
	CustomSubtitle     string
	ProductName        string
	ProductDescription string
}

// Primary returns the primary color or its default.
func (c PageContext) Primary() string {
	if c.PrimaryColor != "" && SafeCSSValue(c.PrimaryColor) {
		return c.PrimaryColor
	}
	return DefaultPrimaryColor
}

// Background returns the page background color or its default.
func (c PageContext) Background() string {
	if c.BackgroundColor != "" && SafeCSSValue(c.BackgroundColor) {
		return c.BackgroundColor
	}
	return DefaultBackgroundColor
}

// Header returns the header height in pixels.
func (c PageContext) Header() int {
	if c.HeaderHeight > 0 {
		return c.HeaderHeight
	}
	return DefaultHeaderHeight
}

// Logo returns the logo width in pixels.
func (c PageContext) Logo() int {
	if c.LogoSize > 0 {
		return c.LogoSize
	}
	return DefaultLogoSize
}

// LogoAlign normalizes the logo position to left, center or right.
func (c PageContext) LogoAlign() string {
	switch strings.ToLower(strings.TrimSpace(c.LogoPosition)) {
	case "left":
		return "left"
	case "right":
		return "right"
	default:
		return DefaultLogoPosition
	}
}

// HasLogo reports whether a logo should be drawn.
func (c PageContext) HasLogo() bool {
	return c.ShowLogo && strings.TrimSpace(c.LogoURL) != ""
}

// Title returns the custom title, falling back to the product name.
func (c PageContext) Title() string {
	if t := strings.TrimSpace(c.CustomTitle); t != "" {
		return t
	}
	return c.ProductName
}

// Subtitle returns the custom subtitle, falling back to the product description.
func (c PageContext) Subtitle() string {
	if s := strings.TrimSpace(c.CustomSubtitle); s != "" {
		return s
	}
	return c.ProductDescription
}
