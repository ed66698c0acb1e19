package review

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

const fence = "```"

// reviewerOutput builds a Markdown response ending in a yaml block.
func reviewerOutput(prose, yamlBody string) string {
	return prose + "\n\n" + fence + "yaml\n" + yamlBody + "\n" + fence + "\n"
}

// TestParseVerdictCritical verifies a well-formed critical verdict with
// issues is decoded.
func TestParseVerdictCritical(t *testing.T) {
	t.Parallel()

	out := reviewerOutput("Found a problem in the query builder.", `
severity: critical
summary: SQL injection risk
issues:
  - file: db/query.go
    line: 17
    severity: critical
    title: user input concatenated into SQL
`)

	v, err := ParseVerdict(out)
	require.NoError(t, err)
	require.Equal(t, SeverityCritical, v.Severity)
	require.Equal(t, "SQL injection risk", v.Summary)
	require.Len(t, v.Issues, 1)
	require.Equal(t, "db/query.go", v.Issues[0].File)
	require.Equal(t, 17, v.Issues[0].Line)
	require.False(t, v.Unparsed)
}

// TestParseVerdictUsesLastBlock verifies earlier yaml blocks (such as
// quoted config) do not shadow the final verdict.
func TestParseVerdictUsesLastBlock(t *testing.T) {
	t.Parallel()

	out := "The change edits this config:\n\n" +
		fence + "yaml\nseverity: critical\n" + fence + "\n\n" +
		"Nothing wrong with it.\n\n" +
		fence + "go\nfunc main() {}\n" + fence + "\n" +
		reviewerOutput("", "severity: none\nsummary: looks fine")

	v, err := ParseVerdict(out)
	require.NoError(t, err)
	require.Equal(t, SeverityNone, v.Severity)
}

// TestParseVerdictAliases verifies reviewer vocabulary maps onto the three
// severities.
func TestParseVerdictAliases(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want Severity
	}{
		{"pass", SeverityNone},
		{"APPROVE", SeverityNone},
		{"warn", SeverityMinor},
		{" Medium ", SeverityMinor},
		{"fail", SeverityCritical},
		{"high", SeverityCritical},
	}

	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			out := reviewerOutput("", "severity: '"+tc.raw+"'")
			v, err := ParseVerdict(out)
			require.NoError(t, err)
			require.Equal(t, tc.want, v.Severity)
		})
	}
}

// TestParseVerdictErrors verifies malformed responses are rejected.
func TestParseVerdictErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		out  string
	}{
		{"no block", "LGTM, ship it."},
		{"missing severity", reviewerOutput("", "summary: fine")},
		{"unknown severity", reviewerOutput("", "severity: spicy")},
		{"bad yaml", reviewerOutput("", "severity: [none")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseVerdict(tc.out)
			require.Error(t, err)
		})
	}

	_, err := ParseVerdict("plain text")
	require.ErrorIs(t, err, ErrNoVerdictBlock)
}

// TestParseVerdictOrCritical verifies unparseable output fails safe.
func TestParseVerdictOrCritical(t *testing.T) {
	t.Parallel()

	v := ParseVerdictOrCritical("LGTM")
	require.Equal(t, SeverityCritical, v.Severity)
	require.True(t, v.Unparsed)
	require.Contains(t, v.Summary, "LGTM")

	long := strings.Repeat("x", 3*maxUnparsedSummary)
	v = ParseVerdictOrCritical(long)
	require.Less(t, len(v.Summary), 2*maxUnparsedSummary)

	v = ParseVerdictOrCritical(reviewerOutput("", "severity: minor"))
	require.Equal(t, SeverityMinor, v.Severity)
	require.False(t, v.Unparsed)
}

// TestParseVerdictOrCriticalTotal checks that arbitrary reviewer output
// always yields one of the three severities.
func TestParseVerdictOrCriticalTotal(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		out := rapid.String().Draw(t, "output")

		v := ParseVerdictOrCritical(out)
		if !v.Severity.Valid() {
			t.Fatalf("invalid severity %q", v.Severity)
		}
		if v.Unparsed && v.Severity != SeverityCritical {
			t.Fatalf("unparsed verdict must be critical, got %q",
				v.Severity)
		}
	})
}

// TestVerdictString verifies the terminal rendering lists issues.
func TestVerdictString(t *testing.T) {
	t.Parallel()

	v := &Verdict{
		Severity: SeverityCritical,
		Summary:  "SQL injection risk",
		Issues: []Issue{{
			File: "db/query.go", Line: 17,
			Severity: "critical", Title: "raw SQL",
		}},
	}

	out := v.String()
	require.Contains(t, out, "severity: critical")
	require.Contains(t, out, "SQL injection risk")
	require.Contains(t, out, "[critical] raw SQL (db/query.go:17)")
}
