package mta

import (
	"regexp"
	"strings"
)

// Riders type long-form street words; station names use the MTA short forms.
// Rewriting the query (word-bounded) recovers matches like
// "times square" → "Times Sq-42 St".
var abbreviations = []struct {
	pattern *regexp.Regexp
	short   string
}{
	{regexp.MustCompile(`\bsquare\b`), "sq"},
	{regexp.MustCompile(`\bstreet\b`), "st"},
	{regexp.MustCompile(`\bavenue\b`), "av"},
	{regexp.MustCompile(`\bboulevard\b`), "blvd"},
	{regexp.MustCompile(`\broad\b`), "rd"},
}

// rewriteQuery lowercases and applies the abbreviation rewrites.
func rewriteQuery(query string) string {
	q := strings.ToLower(strings.TrimSpace(query))
	for _, a := range abbreviations {
		q = a.pattern.ReplaceAllString(q, a.short)
	}
	return q
}
