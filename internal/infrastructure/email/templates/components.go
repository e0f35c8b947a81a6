package templates

import (
	"bytes"
	"html/template"
	"log"
	"net/url"
	"strings"

	"github.com/pixpage/pixpage/internal/infrastructure/security"
)

const defaultAccentColor = "#32bcad"

type ButtonProps struct {
	Text            string
	URL             string
	BackgroundColor string
	TextColor       string
}

type buttonTemplateData struct {
	BackgroundColor string
	URL             string
	TextColor       string
	Text            string
}

// ReceiptRow is one label/value line of a payment receipt.
type ReceiptRow struct {
	Label string
	Value string
}

var (
	buttonTemplate = template.Must(template.New("emailButton").Parse(`
    <table role="presentation" border="0" cellpadding="0" cellspacing="0" class="btn btn-primary" style="border-collapse: separate; box-sizing: border-box; width: 100%; min-width: 100%;" width="100%">
      <tbody>
        <tr>
          <td align="left" style="font-family: Helvetica, sans-serif; font-size: 16px; vertical-align: top; padding-bottom: 16px;" valign="top">
            <table role="presentation" border="0" cellpadding="0" cellspacing="0" style="border-collapse: separate; width: auto;">
              <tbody>
                <tr>
                  <td style="font-family: Helvetica, sans-serif; font-size: 16px; vertical-align: top; border-radius: 4px; text-align: center; background-color: {{.BackgroundColor}};" valign="top" align="center" bgcolor="{{.BackgroundColor}}">
                    <a href="{{.URL}}" target="_blank" style="border: solid 2px {{.BackgroundColor}}; border-radius: 4px; box-sizing: border-box; cursor: pointer; display: inline-block; font-size: 16px; font-weight: bold; margin: 0; padding: 12px 24px; text-decoration: none; background-color: {{.BackgroundColor}}; color: {{.TextColor}};">{{.Text}}</a>
                  </td>
                </tr>
              </tbody>
            </table>
          </td>
        </tr>
      </tbody>
    </table>`))

	paragraphTemplate = template.Must(template.New("emailParagraph").Parse(`<p style="font-family: Helvetica, sans-serif; font-size: 16px; font-weight: normal; margin: 0; margin-bottom: 16px;">{{.}}</p>`))

	headingTemplate = template.Must(template.New("emailHeading").Parse(`<h1 style="font-family: Helvetica, sans-serif; font-size: 22px; margin: 0 0 16px; color: {{.Color}};">{{.Text}}</h1>`))

	receiptTemplate = template.Must(template.New("emailReceipt").Parse(`
    <table role="presentation" border="0" cellpadding="0" cellspacing="0" style="border-collapse: collapse; width: 100%; margin-bottom: 16px;" width="100%">
      {{range .}}<tr>
        <td style="font-family: Helvetica, sans-serif; font-size: 14px; color: #6b7280; padding: 6px 0; border-bottom: 1px solid #f0f0f0;">{{.Label}}</td>
        <td style="font-family: Helvetica, sans-serif; font-size: 14px; color: #111827; padding: 6px 0; border-bottom: 1px solid #f0f0f0; text-align: right;" align="right">{{.Value}}</td>
      </tr>{{end}}
    </table>`))
)

// GetButton renders a call-to-action button. Unsafe URLs become "#".
func GetButton(props ButtonProps) string {
	sanitizedURL := sanitizeEmailURL(props.URL)
	if sanitizedURL == "" {
		log.Printf("Invalid or unsafe URL in email button: %s", props.URL)
		sanitizedURL = "#"
	}

	data := buttonTemplateData{
		BackgroundColor: sanitizeColor(props.BackgroundColor),
		URL:             sanitizedURL,
		TextColor:       sanitizeColorOr(props.TextColor, "#ffffff"),
		Text:            props.Text,
	}

	var buf bytes.Buffer
	if err := buttonTemplate.Execute(&buf, data); err != nil {
		log.Printf("Error executing email button template: %v", err)
		return `<div style="color: red;">Button template error</div>`
	}
	return buf.String()
}

// GetParagraph renders escaped plain text.
func GetParagraph(text string) string {
	return renderParagraph(text)
}

// GetRichParagraph renders merchant-authored rich text through the same
// allow-list used for page elements.
func GetRichParagraph(text string) string {
	return renderParagraph(template.HTML(security.RichText(text)))
}

func renderParagraph(content any) string {
	var buf bytes.Buffer
	if err := paragraphTemplate.Execute(&buf, content); err != nil {
		log.Printf("Error executing email paragraph template: %v", err)
		return `<div style="color: red;">Paragraph template error</div>`
	}
	return buf.String()
}

// GetHeading renders the message title in the accent color.
func GetHeading(text, color string) string {
	var buf bytes.Buffer
	data := struct{ Text, Color string }{Text: text, Color: sanitizeColor(color)}
	if err := headingTemplate.Execute(&buf, data); err != nil {
		log.Printf("Error executing email heading template: %v", err)
		return ""
	}
	return buf.String()
}

// GetReceipt renders label/value rows, skipping empty values.
func GetReceipt(rows []ReceiptRow) string {
	filtered := make([]ReceiptRow, 0, len(rows))
	for _, row := range rows {
		if strings.TrimSpace(row.Value) != "" {
			filtered = append(filtered, row)
		}
	}

	var buf bytes.Buffer
	if err := receiptTemplate.Execute(&buf, filtered); err != nil {
		log.Printf("Error executing email receipt template: %v", err)
		return ""
	}
	return buf.String()
}

// sanitizeEmailURL accepts only absolute http(s) URLs.
func sanitizeEmailURL(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return ""
	}
	if parsedURL.Host == "" {
		return ""
	}
	return parsedURL.String()
}

func sanitizeColor(color string) string {
	return sanitizeColorOr(color, defaultAccentColor)
}

// sanitizeColorOr validates a hex color of 3 or 6 digits.
func sanitizeColorOr(color, fallback string) string {
	color = strings.TrimSpace(color)
	if !strings.HasPrefix(color, "#") {
		return fallback
	}

	hex := color[1:]
	if len(hex) != 3 && len(hex) != 6 {
		return fallback
	}
	for _, char := range hex {
		if !((char >= '0' && char <= '9') || (char >= 'a' && char <= 'f') || (char >= 'A' && char <= 'F')) {
			return fallback
		}
	}
	return color
}
