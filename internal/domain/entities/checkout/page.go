// Package checkout defines the payment page, payment and settings entities.
package checkout

import (
	"time"

	"github.com/pixpage/pixpage/internal/domain/layout"
)

// Page is a hosted PIX checkout page.
type Page struct {
	ID                 string    `json:"id"`
	Slug               string    `json:"slug"`
	Title              string    `json:"title"`
	ProductName        string    `json:"productName"`
	ProductDescription string    `json:"productDescription"`
	AmountCents        int64     `json:"amountCents"`
	CustomTitle        string    `json:"customTitle"`
	CustomSubtitle     string    `json:"customSubtitle"`
	PrimaryColor       string    `json:"primaryColor"`
	BackgroundColor    string    `json:"backgroundColor"`
	HeaderHeight       int       `json:"headerHeight"`
	LogoURL            string    `json:"logoUrl"`
	LogoPosition       string    `json:"logoPosition"`
	LogoSize           int       `json:"logoSize"`
	ShowLogo           bool      `json:"showLogo"`
	RequirePhone       bool      `json:"requirePhone"`
	SuccessMessage     string    `json:"successMessage"`
	CustomElements     string    `json:"customElements"`
	Active             bool      `json:"active"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// LayoutContext returns the presentation fields consumed by the renderer.
func (p *Page) LayoutContext() layout.PageContext {
	return layout.PageContext{
		PrimaryColor:       p.PrimaryColor,
		BackgroundColor:    p.BackgroundColor,
		HeaderHeight:       p.HeaderHeight,
		LogoURL:            p.LogoURL,
		LogoPosition:       p.LogoPosition,
		LogoSize:           p.LogoSize,
		ShowLogo:           p.ShowLogo,
		CustomTitle:        p.CustomTitle,
		CustomSubtitle:     p.CustomSubtitle,
		ProductName:        p.ProductName,
		ProductDescription: p.ProductDescription,
	}
}

// Elements decodes the stored custom elements.
func (p *Page) Elements() ([]layout.CustomElement, error) {
	return layout.ParseElements(p.CustomElements)
}

// SetElements encodes and stores custom elements.
func (p *Page) SetElements(elements []layout.CustomElement) error {
	raw, err := layout.EncodeElements(elements)
	if err != nil {
		return err
	}
	p.CustomElements = raw
	return nil
}

// Template is the editable presentation subset of a page exchanged with the
// AI template editor.
type Template struct {
	CustomTitle     string                 `json:"customTitle"`
	CustomSubtitle  string                 `json:"customSubtitle"`
	PrimaryColor    string                 `json:"primaryColor"`
	BackgroundColor string                 `json:"backgroundColor"`
	HeaderHeight    int                    `json:"headerHeight"`
	LogoPosition    string                 `json:"logoPosition"`
	LogoSize        int                    `json:"logoSize"`
	ShowLogo        bool                   `json:"showLogo"`
	CustomElements  []layout.CustomElement `json:"customElements"`
}

// Template extracts the editable presentation fields.
func (p *Page) Template() (Template, error) {
	elements, err := p.Elements()
	if err != nil {
		return Template{}, err
	}
	return Template{
		CustomTitle:     p.CustomTitle,
		CustomSubtitle:  p.CustomSubtitle,
		PrimaryColor:    p.PrimaryColor,
		BackgroundColor: p.BackgroundColor,
		HeaderHeight:    p.HeaderHeight,
		LogoPosition:    p.LogoPosition,
		LogoSize:        p.LogoSize,
		ShowLogo:        p.ShowLogo,
		CustomElements:  elements,
	}, nil
}

// ApplyTemplate copies the editable fields back onto the page.
func (p *Page) ApplyTemplate(t Template) error {
	p.CustomTitle = t.CustomTitle
	p.CustomSubtitle = t.CustomSubtitle
	p.PrimaryColor = t.PrimaryColor
	p.BackgroundColor = t.BackgroundColor
	p.HeaderHeight = t.HeaderHeight
	p.LogoPosition = t.LogoPosition
	p.LogoSize = t.LogoSize
	p.ShowLogo = t.ShowLogo
	return p.SetElements(t.CustomElements)
}
