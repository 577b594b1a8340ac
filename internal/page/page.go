// Package page turns a captured title, URL and selection into the line-based
// body of a Scrapbox page, and builds the URLs that point at it.
package page

import (
	"net/url"
	"strings"
)

// The service rejects these characters in titles, so they are swapped for
// their full-width forms. Sources and targets are disjoint, which makes the
// replacement order-independent and reversible.
var (
	titleEscaper   = strings.NewReplacer("/", "／", "[", "［", "]", "］", "#", "＃")
	titleUnescaper = strings.NewReplacer("／", "/", "［", "[", "］", "]", "＃", "#")
)

const quotePrefix = " > "

func EscapeTitle(title string) string {
	return titleEscaper.Replace(title)
}

// UnescapeTitle reverses EscapeTitle. It is exact for titles that did not
// contain the full-width forms to begin with.
func UnescapeTitle(title string) string {
	return titleUnescaper.Replace(title)
}

// QuoteSelection renders text as a quote block, one line per newline-separated
// segment. A trailing empty segment is kept.
func QuoteSelection(text string) []string {
	segments := strings.Split(text, "\n")
	out := make([]string, len(segments))
	for i, s := range segments {
		out[i] = quotePrefix + s
	}
	return out
}

// Draft is a page ready for import. It cannot be changed once built.
type Draft struct {
	title string
	lines []string
}

// NewDraft formats a page: the escaped title, a link line back to the source,
// a blank line and, when selection is non-empty, the quoted selection followed
// by another blank line.
func NewDraft(title, sourceURL, selection string) Draft {
	t := EscapeTitle(title)
	lines := []string{t, "[" + sourceURL + " " + t + "]", ""}
	if selection != "" {
		lines = append(lines, QuoteSelection(selection)...)
		lines = append(lines, "")
	}
	return Draft{title: t, lines: lines}
}

func (d Draft) Title() string { return d.title }

// Lines returns a copy of the page lines, title first.
func (d Draft) Lines() []string {
	out := make([]string, len(d.lines))
	copy(out, d.lines)
	return out
}

// Body is the page text without the title line.
func (d Draft) Body() string {
	if len(d.lines) < 2 {
		return ""
	}
	return strings.Join(d.lines[1:], "\n")
}

// EncodeURIComponent escapes s the way browsers' encodeURIComponent does:
// everything except A-Z a-z 0-9 and -_.!~*'() is percent-encoded, and spaces
// become %20.
func EncodeURIComponent(s string) string {
	e := url.QueryEscape(s)
	e = strings.ReplaceAll(e, "+", "%20")
	return uriUnreserved.Replace(e)
}

var uriUnreserved = strings.NewReplacer("%21", "!", "%27", "'", "%28", "(", "%29", ")", "%2A", "*")

// PageURL is the canonical address of title in project.
func PageURL(baseURL, project, title string) string {
	return strings.TrimRight(baseURL, "/") + "/" + EncodeURIComponent(project) + "/" + EncodeURIComponent(title)
}

// FallbackURL opens the page editor with the draft body prefilled, creating
// the page without the import API.
func FallbackURL(baseURL, project string, d Draft) string {
	return PageURL(baseURL, project, d.Title()) + "?body=" + EncodeURIComponent(d.Body())
}
