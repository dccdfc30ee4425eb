// Package sanitize provides text sanitization for user-provided free text.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	htmlTagRegex    = regexp.MustCompile(`<[^>]*>`)
	whitespaceRegex = regexp.MustCompile(`[ \t\r\f\v]+`)
	entityReplacer  = strings.NewReplacer(
		"&lt;", "<",
		"&gt;", ">",
		"&amp;", "&",
		"&quot;", "\"",
		"&#39;", "'",
	)
)

// StripHTML removes HTML tags, including ones hidden behind encoded entities.
func StripHTML(s string) string {
	result := htmlTagRegex.ReplaceAllString(s, "")
	result = entityReplacer.Replace(result)
	result = htmlTagRegex.ReplaceAllString(result, "")
	return strings.TrimSpace(result)
}

// Text strips HTML and collapses runs of horizontal whitespace.
// Line breaks are kept so multi-line notes survive.
func Text(s string) string {
	lines := strings.Split(StripHTML(s), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(whitespaceRegex.ReplaceAllString(line, " "))
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
