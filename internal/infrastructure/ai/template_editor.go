package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/pixpage/pixpage/internal/domain/entities/checkout"
)

// ErrNoJSON is returned when a model reply carries no JSON object.
var ErrNoJSON = errors.New("model reply contains no JSON object")

const systemPrompt = `You edit the visual template of a PIX checkout page.
You receive the current template as JSON and an instruction in natural language.
Answer with the complete modified template as a single JSON object and nothing else.

Rules:
- Keep the same top-level keys: customTitle, customSubtitle, primaryColor,
  backgroundColor, headerHeight, logoPosition, logoSize, showLogo, customElements.
- Keep the "id" of every element you do not remove. New elements get an empty id.
- Element "type" is "text", "image" or "footer".
- Element "position" is a number or one of "top", "middle", "bottom".
  Numbers below 0 render in the header (below -10 before the logo), 0-9 top,
  10-99 middle, 100-999 bottom, 1000 and above footer.
- Text content may use only <b> <strong> <i> <em> <u> <br> <p> <span> without attributes.
- Colors are hex values like #32bcad. Sizes are numbers in pixels or CSS lengths.
- logoPosition is "left", "center" or "right".`

// TemplateEditor asks a model to rewrite a page template.
type TemplateEditor struct {
	completer Completer
}

// NewTemplateEditor creates an editor over the given completer.
func NewTemplateEditor(completer Completer) *TemplateEditor {
	return &TemplateEditor{completer: completer}
}

// Edit sends the template and command to the model and decodes the reply.
// The result is unvalidated model output.
func (e *TemplateEditor) Edit(ctx context.Context, tmpl checkout.Template, command string) (checkout.Template, error) {
	if e == nil || e.completer == nil {
		return checkout.Template{}, checkout.ErrAINotConfigured
	}

	current, err := json.MarshalIndent(tmpl, "", "  ")
	if err != nil {
		return checkout.Template{}, fmt.Errorf("failed to encode template: %w", err)
	}

	prompt := fmt.Sprintf("Current template:\n%s\n\nInstruction:\n%s", current, strings.TrimSpace(command))

	reply, err := e.completer.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		return checkout.Template{}, err
	}

	raw, err := ExtractJSON(reply)
	if err != nil {
		return checkout.Template{}, err
	}

	var edited checkout.Template
	if err := json.Unmarshal([]byte(raw), &edited); err != nil {
		return checkout.Template{}, fmt.Errorf("failed to decode model template: %w", err)
	}
	return edited, nil
}

// ExtractJSON returns the first balanced JSON object in s, skipping code
// fences and surrounding prose.
func ExtractJSON(s string) (string, error) {
	start := strings.IndexByte(s, '{')
	for start >= 0 {
		if end := matchBrace(s, start); end > start {
			candidate := s[start : end+1]
			if json.Valid([]byte(candidate)) {
				return candidate, nil
			}
		}
		next := strings.IndexByte(s[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", ErrNoJSON
}

// matchBrace returns the index of the brace closing the one at start, or -1.
func matchBrace(s string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
