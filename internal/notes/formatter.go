// Package notes renders structured lecture content as HTML documents
package notes

import "strings"

// Section is one titled block of a notes document.
type Section struct {
	Title string
	Body  string
	Items []string
}

// Formatter assembles note sections into a single HTML fragment. Sections
// render in insertion order.
type Formatter struct {
	sections []Section
}

// NewFormatter creates an empty formatter.
func NewFormatter() *Formatter {
	return &Formatter{}
}

// AddSection appends a titled prose section. Body that already looks like
// markup passes through unescaped; plain text is escaped and wrapped in a
// paragraph.
func (f *Formatter) AddSection(title, body string) {
	f.sections = append(f.sections, Section{Title: title, Body: body})
}

// AddListSection appends a titled bullet-list section. A single item renders
// as a paragraph instead of a one-element list.
func (f *Formatter) AddListSection(title string, items []string) {
	f.sections = append(f.sections, Section{Title: title, Items: items})
}

// Clear drops all accumulated sections.
func (f *Formatter) Clear() {
	f.sections = nil
}

// HTML renders the accumulated sections.
func (f *Formatter) HTML() string {
	var b strings.Builder
	for _, s := range f.sections {
		renderSection(&b, s)
	}
	return b.String()
}

func renderSection(b *strings.Builder, s Section) {
	if len(s.Items) > 1 {
		b.WriteString("<h3>")
		b.WriteString(EscapeHTML(s.Title))
		b.WriteString("</h3>\n<ul>\n")
		for _, item := range s.Items {
			b.WriteString("<li>")
			b.WriteString(EscapeHTML(item))
			b.WriteString("</li>\n")
		}
		b.WriteString("</ul>\n")
		return
	}

	body := s.Body
	if len(s.Items) == 1 {
		body = s.Items[0]
	}

	b.WriteString("<h2>")
	b.WriteString(EscapeHTML(s.Title))
	b.WriteString("</h2>\n")
	b.WriteString(Paragraph(body))
	b.WriteString("\n")
}

// Paragraph wraps plain text in <p> tags with escaping. Text containing an
// HTML tag anywhere is treated as pre-rendered markup and passed through.
func Paragraph(body string) string {
	trimmed := strings.TrimSpace(body)
	if ContainsMarkup(trimmed) {
		return trimmed
	}
	return "<p>" + EscapeHTML(trimmed) + "</p>"
}

var knownTags = []string{
	"p", "br", "em", "strong", "b", "i", "u", "code", "pre", "span", "div",
	"ul", "ol", "li", "h1", "h2", "h3", "h4", "h5", "h6", "blockquote", "a",
}

// ContainsMarkup reports whether s holds a recognizable HTML tag. Only known
// tag names count, so prose like "x < y" or "<placeholder>" still escapes.
func ContainsMarkup(s string) bool {
	lower := strings.ToLower(s)
	if strings.Contains(lower, "</") {
		return true
	}
	for _, tag := range knownTags {
		if strings.Contains(lower, "<"+tag+">") ||
			strings.Contains(lower, "<"+tag+" ") ||
			strings.Contains(lower, "<"+tag+"/") {
			return true
		}
	}
	return false
}

// FormatKeyPoints renders key points as a bullet list, or an empty string
// when there are none.
func FormatKeyPoints(points []string) string {
	if len(points) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("<ul>\n")
	for _, p := range points {
		b.WriteString("<li>")
		b.WriteString(EscapeHTML(p))
		b.WriteString("</li>\n")
	}
	b.WriteString("</ul>")
	return b.String()
}

// FormatFormula renders a formula in a preformatted code block so spacing
// and symbols survive intact.
func FormatFormula(formula string) string {
	return "<pre><code>" + EscapeHTML(formula) + "</code></pre>"
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// EscapeHTML escapes the five characters significant to HTML.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}
