package checkout

import (
	"bytes"
	"fmt"
	"html/template"
)

// ErrorPage renders the standalone document shown when a public checkout
// route cannot serve a page.
func ErrorPage(title, message string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := errorTemplate.Execute(&buf, map[string]string{"Title": title, "Message": message}); err != nil {
		return "", fmt.Errorf("failed to execute error page: %w", err)
	}
	return template.HTML(buf.String()), nil
}

var errorTemplate = template.Must(template.New("error").Parse(`<!DOCTYPE html>
<html lang="pt-BR">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body { margin: 0; font-family: system-ui, -apple-system, "Segoe UI", Roboto, sans-serif; background: #f9fafb; color: #111827; }
.pp-error { max-width: 480px; margin: 15vh auto 0; padding: 32px 24px; background: #fff; border-radius: 12px; text-align: center; box-shadow: 0 1px 3px rgba(0,0,0,.08); }
.pp-error h1 { margin: 0 0 8px; font-size: 22px; }
.pp-error p { margin: 0; color: #6b7280; }
</style>
</head>
<body>
<div class="pp-error"><h1>{{.Title}}</h1><p>{{.Message}}</p></div>
</body>
</html>`))
