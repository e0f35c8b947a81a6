// Package checkout renders hosted checkout pages: header chrome, the custom
// element buckets and the primary content slot.
package checkout

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/pixpage/pixpage/internal/domain/layout"
	"github.com/pixpage/pixpage/internal/infrastructure/observability/logging"
)

// DefaultPlaceholderURL replaces images that fail to load.
const DefaultPlaceholderURL = "https://placehold.co/400x200?text=Imagem+indispon%C3%ADvel"

// ContentProvider supplies the primary slot spliced between the top and
// middle buckets. The renderer treats its markup as opaque.
type ContentProvider interface {
	Content() (template.HTML, error)
}

// Renderer composes checkout documents. It holds no per-render state and is
// safe for concurrent use.
type Renderer struct {
	placeholderURL string
	logger         *logging.ChanneledLogger
}

// NewRenderer creates a renderer. An empty placeholder selects the default.
func NewRenderer(placeholderURL string, logger *logging.ChanneledLogger) *Renderer {
	if placeholderURL == "" {
		placeholderURL = DefaultPlaceholderURL
	}
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &Renderer{placeholderURL: placeholderURL, logger: logger}
}

type headerView struct {
	Height     int
	Align      string
	HasLogo    bool
	LogoURL    template.URL
	LogoSize   int
	Title      string
	Subtitle   string
	BeforeLogo []elementView
	AfterLogo  []elementView
}

type pageView struct {
	DocumentTitle string
	Primary       template.CSS
	Background    template.CSS
	Header        headerView
	Top           []elementView
	Slot          template.HTML
	Middle        []elementView
	Bottom        []elementView
	Footer        []elementView
}

// Render composes a full document in the fixed order header, top, slot,
// middle, bottom, footer. Element content never fails a render; only slot and
// template errors are returned.
func (r *Renderer) Render(elements []layout.CustomElement, content ContentProvider, ctx layout.PageContext) (template.HTML, error) {
	var slot template.HTML
	if content != nil {
		html, err := content.Content()
		if err != nil {
			return "", fmt.Errorf("failed to render content slot: %w", err)
		}
		slot = html
	}

	parts := layout.Partition(elements)

	view := pageView{
		DocumentTitle: ctx.Title(),
		Primary:       template.CSS(ctx.Primary()),
		Background:    template.CSS(ctx.Background()),
		Header: headerView{
			Height:     ctx.Header(),
			Align:      ctx.LogoAlign(),
			HasLogo:    ctx.HasLogo(),
			LogoURL:    imageSource(ctx.LogoURL, r.placeholderURL),
			LogoSize:   ctx.Logo(),
			Title:      ctx.Title(),
			Subtitle:   ctx.Subtitle(),
			BeforeLogo: r.elementViews(parts.BeforeLogo(), layout.BucketHeader),
			AfterLogo:  r.elementViews(parts.AfterLogo(), layout.BucketHeader),
		},
		Top:    r.elementViews(parts.Top, layout.BucketTop),
		Slot:   slot,
		Middle: r.elementViews(parts.Middle, layout.BucketMiddle),
		Bottom: r.elementViews(parts.Bottom, layout.BucketBottom),
		Footer: r.elementViews(parts.Footer, layout.BucketFooter),
	}
	if view.DocumentTitle == "" {
		view.DocumentTitle = "Checkout"
	}

	var buf bytes.Buffer
	if err := pageTemplates.ExecuteTemplate(&buf, "page", view); err != nil {
		r.logger.Render().Error("Checkout template execution failed", "error", err.Error())
		return "", fmt.Errorf("failed to execute page template: %w", err)
	}

	r.logger.Render().Debug("Checkout page rendered",
		"elements", parts.Len(),
		"header", len(parts.Header),
		"footer", len(parts.Footer),
		"bytes", buf.Len())

	return template.HTML(buf.String()), nil
}

var pageTemplates = template.Must(template.New("checkout").Parse(
	`{{define "page"}}<!DOCTYPE html>
<html lang="pt-BR">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.DocumentTitle}}</title>
<style>
:root { --pp-primary: {{.Primary}}; }
* { box-sizing: border-box; }
body { margin: 0; font-family: system-ui, -apple-system, "Segoe UI", Roboto, sans-serif; background-color: {{.Background}}; color: #111827; overflow-x: hidden; }
.pp-main { max-width: 560px; margin: 0 auto; padding: 24px 16px; }
.pp-element { margin-bottom: 16px; }
.pp-el-image { text-align: center; }
.pp-header-inner { display: flex; flex-direction: column; justify-content: center; gap: 4px; height: 100%; max-width: 960px; margin: 0 auto; padding: 8px 16px; }
.pp-title { margin: 0; font-size: 20px; }
.pp-subtitle { margin: 0; font-size: 14px; opacity: .8; }
.pp-card { background: #ffffff; border-radius: 12px; box-shadow: 0 1px 3px rgba(0,0,0,.08); padding: 24px; margin-bottom: 16px; }
.pp-field { display: block; margin-bottom: 12px; }
.pp-field span { display: block; font-size: 14px; margin-bottom: 4px; }
.pp-field input { width: 100%; padding: 10px 12px; border: 1px solid #d1d5db; border-radius: 8px; font-size: 16px; }
.pp-field small { color: #dc2626; }
.pp-button { width: 100%; padding: 14px; border: 0; border-radius: 8px; background: var(--pp-primary); color: #ffffff; font-size: 16px; font-weight: bold; cursor: pointer; }
.pp-amount { font-size: 28px; font-weight: bold; margin: 8px 0 16px; }
.pp-qr { display: block; width: 240px; max-width: 100%; margin: 0 auto 16px; }
.pp-code { width: 100%; font-family: monospace; font-size: 12px; padding: 8px; border: 1px solid #d1d5db; border-radius: 8px; resize: none; }
.pp-muted { color: #6b7280; font-size: 14px; }
.pp-footer { background-color: var(--pp-primary); color: #ffffff; padding: 24px 16px; text-align: center; }
.pp-footer-default p { margin: 4px 0; }
</style>
</head>
<body>
{{template "header" .Header}}
<main class="pp-main">
{{range .Top}}{{template "element" .}}{{end}}
<section class="pp-slot">{{.Slot}}</section>
{{range .Middle}}{{template "element" .}}{{end}}
{{range .Bottom}}{{template "element" .}}{{end}}
</main>
<footer class="pp-footer">
{{if .Footer}}{{range .Footer}}{{template "element" .}}{{end}}{{else}}<div class="pp-footer-default"><p><strong>Pagamento Seguro</strong></p><p>Processamento Imediato</p></div>{{end}}
</footer>
</body>
</html>{{end}}` +
		`{{define "header"}}<header class="pp-header" style="min-height: {{.Height}}px; background: #ffffff; border-bottom: 1px solid #e5e7eb">
<div class="pp-header-inner" style="align-items: {{if eq .Align "left"}}flex-start{{else if eq .Align "right"}}flex-end{{else}}center{{end}}; text-align: {{.Align}}">
{{range .BeforeLogo}}{{template "element" .}}{{end}}
{{if .HasLogo}}<img class="pp-logo" src="{{.LogoURL}}" alt="" style="width: {{.LogoSize}}px; max-width: 100%; height: auto">{{end}}
{{range .AfterLogo}}{{template "element" .}}{{end}}
{{if .Title}}<h1 class="pp-title">{{.Title}}</h1>{{end}}
{{if .Subtitle}}<p class="pp-subtitle">{{.Subtitle}}</p>{{end}}
</div>
</header>{{end}}` +
		`{{define "element"}}{{if .IsImage}}<div class="pp-element pp-el-image" data-element-id="{{.ID}}" data-bucket="{{.Bucket}}"><img src="{{.Src}}" alt="" style="{{.Style}}" data-fallback="{{.Fallback}}" onerror="this.onerror=null;this.src=this.dataset.fallback"></div>` +
		`{{else}}<div class="pp-element pp-el-{{.Kind}}" data-element-id="{{.ID}}" data-bucket="{{.Bucket}}"><div style="{{.Style}}">{{.HTML}}</div></div>{{end}}{{end}}`,
))
