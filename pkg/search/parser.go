// Package search parses the query micro-language and evaluates it against
// a message source.
//
// A query is free text mixed with prefixed filter tokens:
//
//	database from:jordan in:engineering has:reaction after:2024-01-01
//
// Recognised prefixes are from, in, has, before and after. A token's value
// runs to the next whitespace.
package search

import (
	"regexp"
	"strings"

	"parley/pkg/models"
)

// Query is a parsed search query.
type Query struct {
	Filter   models.SearchFilter `json:"filter"`
	FreeText string              `json:"free_text"`
}

type prefix struct {
	re  *regexp.Regexp
	set func(*models.SearchFilter, string)
}

// Prefixes are stripped in this order, each one from whatever the previous
// ones left behind. A prefix is recognized anywhere, including inside a
// longer word: "login:x" yields in:x with "log" left as free text.
var prefixes = []prefix{
	{regexp.MustCompile(`from:(\S+)`), func(f *models.SearchFilter, v string) { f.From = v }},
	{regexp.MustCompile(`in:(\S+)`), func(f *models.SearchFilter, v string) { f.In = v }},
	{regexp.MustCompile(`has:(\S+)`), func(f *models.SearchFilter, v string) { f.Has = v }},
	{regexp.MustCompile(`before:(\S+)`), func(f *models.SearchFilter, v string) { f.Before = v }},
	{regexp.MustCompile(`after:(\S+)`), func(f *models.SearchFilter, v string) { f.After = v }},
}

// ParseQuery splits raw into a filter and the remaining free text. When a
// prefix repeats, the last occurrence wins. Removed tokens leave their
// surrounding whitespace in place; only the ends of the remainder are
// trimmed.
func ParseQuery(raw string) Query {
	var q Query
	rest := raw
	for _, p := range prefixes {
		matches := p.re.FindAllStringSubmatch(rest, -1)
		if len(matches) == 0 {
			continue
		}
		for _, m := range matches {
			p.set(&q.Filter, m[1])
		}
		rest = p.re.ReplaceAllString(rest, "")
	}
	q.FreeText = strings.TrimSpace(rest)
	return q
}

// String renders q back into query syntax.
func (q Query) String() string {
	var parts []string
	add := func(k, v string) {
		if v != "" {
			parts = append(parts, k+":"+v)
		}
	}
	if q.FreeText != "" {
		parts = append(parts, q.FreeText)
	}
	add("from", q.Filter.From)
	add("in", q.Filter.In)
	add("has", q.Filter.Has)
	add("before", q.Filter.Before)
	add("after", q.Filter.After)
	return strings.Join(parts, " ")
}
