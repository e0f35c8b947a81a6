package security

import (
	"html"
	"strings"

	xhtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// allowedRichTextTags is the restricted rich-text model: inline emphasis,
// paragraphs and line breaks. Attributes are never kept.
var allowedRichTextTags = map[atom.Atom]bool{
	atom.B:      true,
	atom.Strong: true,
	atom.I:      true,
	atom.Em:     true,
	atom.U:      true,
	atom.Br:     true,
	atom.P:      true,
	atom.Span:   true,
}

// droppedContentTags lose their text content as well as their markup.
var droppedContentTags = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Iframe:   true,
	atom.Object:   true,
	atom.Embed:    true,
	atom.Noscript: true,
	atom.Template: true,
	atom.Textarea: true,
	atom.Title:    true,
	atom.Svg:      true,
	atom.Math:     true,
}

// SanitizeRichText keeps the allow-listed tags without attributes, escapes all
// text and drops everything else. Unclosed allowed tags are closed at the end
// and stray end tags are discarded, so the output is always balanced.
func SanitizeRichText(input string) string {
	if input == "" {
		return ""
	}

	var out strings.Builder
	var open []atom.Atom
	skipDepth := 0

	z := xhtml.NewTokenizer(strings.NewReader(input))
	for {
		tt := z.Next()
		if tt == xhtml.ErrorToken {
			break
		}

		tok := z.Token()
		switch tt {
		case xhtml.TextToken:
			if skipDepth == 0 {
				out.WriteString(html.EscapeString(tok.Data))
			}

		case xhtml.StartTagToken, xhtml.SelfClosingTagToken:
			if droppedContentTags[tok.DataAtom] {
				if tt == xhtml.StartTagToken {
					skipDepth++
				}
				continue
			}
			if skipDepth > 0 || !allowedRichTextTags[tok.DataAtom] {
				continue
			}
			if tok.DataAtom == atom.Br {
				out.WriteString("<br/>")
				continue
			}
			if tt == xhtml.SelfClosingTagToken {
				continue
			}
			out.WriteString("<" + tok.DataAtom.String() + ">")
			open = append(open, tok.DataAtom)

		case xhtml.EndTagToken:
			if droppedContentTags[tok.DataAtom] {
				if skipDepth > 0 {
					skipDepth--
				}
				continue
			}
			if skipDepth > 0 || !allowedRichTextTags[tok.DataAtom] || tok.DataAtom == atom.Br {
				continue
			}
			idx := lastIndex(open, tok.DataAtom)
			if idx < 0 {
				continue
			}
			for i := len(open) - 1; i >= idx; i-- {
				out.WriteString("</" + open[i].String() + ">")
			}
			open = open[:idx]
		}
	}

	for i := len(open) - 1; i >= 0; i-- {
		out.WriteString("</" + open[i].String() + ">")
	}
	return out.String()
}

// RichText sanitizes text element content and converts newlines to line breaks.
func RichText(input string) string {
	sanitized := SanitizeRichText(input)
	sanitized = strings.ReplaceAll(sanitized, "\r\n", "\n")
	return strings.ReplaceAll(sanitized, "\n", "<br/>")
}

// StripTags returns only the text of the input, unescaped. Used for email
// subjects and log previews.
func StripTags(input string) string {
	var out strings.Builder
	skipDepth := 0

	z := xhtml.NewTokenizer(strings.NewReader(input))
	for {
		tt := z.Next()
		if tt == xhtml.ErrorToken {
			break
		}
		tok := z.Token()
		switch tt {
		case xhtml.TextToken:
			if skipDepth == 0 {
				out.WriteString(tok.Data)
			}
		case xhtml.StartTagToken:
			if droppedContentTags[tok.DataAtom] {
				skipDepth++
			}
		case xhtml.EndTagToken:
			if droppedContentTags[tok.DataAtom] && skipDepth > 0 {
				skipDepth--
			}
		}
	}
	return strings.TrimSpace(out.String())
}

func lastIndex(stack []atom.Atom, a atom.Atom) int {
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == a {
			return i
		}
	}
	return -1
}
