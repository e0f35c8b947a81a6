package checkout

import (
	"html/template"
	"net/url"
	"strings"

	"github.com/pixpage/pixpage/internal/domain/layout"
	"github.com/pixpage/pixpage/internal/infrastructure/security"
)

type elementView struct {
	ID       string
	Kind     string
	Bucket   string
	IsImage  bool
	Style    template.CSS
	HTML     template.HTML
	Src      template.URL
	Fallback string
}

func (r *Renderer) elementViews(elements []layout.CustomElement, bucket layout.Bucket) []elementView {
	if len(elements) == 0 {
		return nil
	}
	views := make([]elementView, 0, len(elements))
	for _, el := range elements {
		views = append(views, r.elementView(el, bucket))
	}
	return views
}

func (r *Renderer) elementView(el layout.CustomElement, bucket layout.Bucket) elementView {
	view := elementView{
		ID:     el.ID,
		Kind:   el.Kind().String(),
		Bucket: bucket.String(),
		Style:  template.CSS(layout.ResolveStyle(el, bucket).String()),
	}

	if el.Kind() == layout.KindImage {
		view.IsImage = true
		view.Src = imageSource(el.Content, r.placeholderURL)
		view.Fallback = r.placeholderURL
		return view
	}

	// Sanitized to the restricted rich-text allow-list.
	view.HTML = template.HTML(security.RichText(el.Content))
	return view
}

var imageDataPrefixes = []string{
	"data:image/png;",
	"data:image/jpeg;",
	"data:image/jpg;",
	"data:image/gif;",
	"data:image/webp;",
}

// imageSource accepts http(s) URLs, site-relative paths and raster data URIs.
// Anything else resolves to the placeholder.
func imageSource(raw, placeholder string) template.URL {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return template.URL(placeholder)
	}

	lower := strings.ToLower(raw)
	for _, prefix := range imageDataPrefixes {
		if strings.HasPrefix(lower, prefix) && !strings.ContainsAny(raw, "\"'<> ") {
			return template.URL(raw)
		}
	}

	if strings.HasPrefix(raw, "/") && !strings.HasPrefix(raw, "//") {
		return template.URL(raw)
	}

	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return template.URL(placeholder)
	}
	return template.URL(u.String())
}
