// Package insight renders the free-text analysis returned by the emissions API as safe HTML.
package insight

import (
	"html"
	"html/template"
	"regexp"
	"strings"
)

var (
	codeSpan   = regexp.MustCompile("`([^`]+)`")
	boldSpan   = regexp.MustCompile(`\*\*(.+?)\*\*`)
	italicSpan = regexp.MustCompile(`\*([^*]+?)\*`)
	numbered   = regexp.MustCompile(`^(\d+)\.\s+(.*)$`)
)

type listKind int

const (
	noList listKind = iota
	bulletList
	numberedList
)

type renderer struct {
	b     strings.Builder
	para  []string
	list  listKind
	items []string
}

// Format converts markdown-lite text into HTML. The text is escaped before any markup is
// added, so upstream content can never inject tags.
func Format(text string) template.HTML {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
	if text == "" {
		return ""
	}
	r := &renderer{}
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimRight(raw, " \t")
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			r.flush()
		case strings.HasPrefix(trimmed, "### "):
			r.heading(3, trimmed[4:])
		case strings.HasPrefix(trimmed, "## "):
			r.heading(2, trimmed[3:])
		case strings.HasPrefix(trimmed, "# "):
			r.heading(1, trimmed[2:])
		case strings.HasPrefix(trimmed, "* "), strings.HasPrefix(trimmed, "- "):
			r.item(bulletList, trimmed[2:])
		case numbered.MatchString(trimmed):
			r.item(numberedList, numbered.FindStringSubmatch(trimmed)[2])
		default:
			r.flushList()
			r.para = append(r.para, inline(trimmed))
		}
	}
	r.flush()
	return template.HTML(r.b.String())
}

// Plain strips the markup characters Format understands, for text-only outputs.
func Plain(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = codeSpan.ReplaceAllString(text, "$1")
	text = boldSpan.ReplaceAllString(text, "$1")
	text = italicSpan.ReplaceAllString(text, "$1")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "#") {
			line = strings.TrimSpace(strings.TrimLeft(line, "#"))
		}
		lines[i] = line
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func inline(s string) string {
	s = html.EscapeString(s)
	s = codeSpan.ReplaceAllString(s, "<code>$1</code>")
	s = boldSpan.ReplaceAllString(s, "<strong>$1</strong>")
	return italicSpan.ReplaceAllString(s, "<em>$1</em>")
}

func (r *renderer) heading(level int, text string) {
	r.flush()
	tag := [...]string{"", "h1", "h2", "h3"}[level]
	r.b.WriteString("<" + tag + ">" + inline(strings.TrimSpace(text)) + "</" + tag + ">")
}

func (r *renderer) item(kind listKind, text string) {
	r.flushParagraph()
	if r.list != kind {
		r.flushList()
		r.list = kind
	}
	r.items = append(r.items, inline(strings.TrimSpace(text)))
}

func (r *renderer) flush() {
	r.flushParagraph()
	r.flushList()
}

func (r *renderer) flushParagraph() {
	if len(r.para) == 0 {
		return
	}
	r.b.WriteString("<p>" + strings.Join(r.para, "<br>") + "</p>")
	r.para = r.para[:0]
}

func (r *renderer) flushList() {
	if r.list == noList {
		return
	}
	tag := "ul"
	if r.list == numberedList {
		tag = "ol"
	}
	r.b.WriteString("<" + tag + ">")
	for _, it := range r.items {
		r.b.WriteString("<li>" + it + "</li>")
	}
	r.b.WriteString("</" + tag + ">")
	r.list = noList
	r.items = r.items[:0]
}
