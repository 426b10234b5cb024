package search

import (
	"testing"

	"parley/pkg/models"
)

func TestParseQuery(t *testing.T) {
	tests := []struct {
		raw  string
		want Query
	}{
		{"", Query{}},
		{"   hello world  ", Query{FreeText: "hello world"}},
		{
			"database from:jordan in:engineering has:reaction",
			Query{FreeText: "database", Filter: models.SearchFilter{From: "jordan", In: "engineering", Has: "reaction"}},
		},
		{
			"before:2024-02-01 after:2024-01-01 report",
			Query{FreeText: "report", Filter: models.SearchFilter{Before: "2024-02-01", After: "2024-01-01"}},
		},
		{
			"from:alice notes from:bob",
			Query{FreeText: "notes", Filter: models.SearchFilter{From: "bob"}},
		},
		{
			"a  in:x  b",
			Query{FreeText: "a    b", Filter: models.SearchFilter{In: "x"}},
		},
		{
			"from: dangling",
			Query{FreeText: "from: dangling"},
		},
		{
			"login:x failed",
			Query{FreeText: "log failed", Filter: models.SearchFilter{In: "x"}},
		},
		{
			"from:ops:in:eng",
			Query{Filter: models.SearchFilter{From: "ops:in:eng"}},
		},
	}
	for _, tc := range tests {
		got := ParseQuery(tc.raw)
		if got != tc.want {
			t.Fatalf("ParseQuery(%q) = %+v, want %+v", tc.raw, got, tc.want)
		}
	}
}

func TestParseQueryIsIdempotentOnFreeText(t *testing.T) {
	raws := []string{
		"database from:jordan in:engineering has:reaction",
		"  quarterly   numbers before:2024-05-01 ",
		"has:link has:file deploy",
		"plain",
	}
	for _, raw := range raws {
		first := ParseQuery(raw)
		again := ParseQuery(first.FreeText)
		if again.FreeText != first.FreeText {
			t.Fatalf("free text changed on reparse: %q -> %q", first.FreeText, again.FreeText)
		}
		if !again.Filter.IsEmpty() {
			t.Fatalf("reparse of %q produced filter %+v", first.FreeText, again.Filter)
		}
	}
}

func TestQueryStringRoundTrip(t *testing.T) {
	q := Query{FreeText: "launch plan", Filter: models.SearchFilter{From: "sam", Has: "pin", After: "2024-01-01"}}
	if got := ParseQuery(q.String()); got != q {
		t.Fatalf("round trip = %+v, want %+v", got, q)
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in string
		ok bool
	}{
		{"2024-01-02", true},
		{"2024-01-02T10:00:00", true},
		{"2024-01-02T10:00:00Z", true},
		{"2024-01-02T10:00:00.123+02:00", true},
		{"yesterday", false},
		{"2024-13-01", false},
		{"", false},
	}
	for _, tc := range tests {
		if _, ok := ParseDate(tc.in); ok != tc.ok {
			t.Fatalf("ParseDate(%q) ok=%v, want %v", tc.in, ok, tc.ok)
		}
	}
}
