package review

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gtext "github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

// ErrNoVerdictBlock is returned when the reviewer output has no fenced
// YAML block.
var ErrNoVerdictBlock = errors.New("no yaml verdict block in reviewer output")

// maxUnparsedSummary bounds how much raw reviewer output is echoed back in
// a synthesized verdict.
const maxUnparsedSummary = 2000

// severityAliases maps the vocabulary reviewers tend to use onto the three
// gate severities.
var severityAliases = map[string]Severity{
	"none":     SeverityNone,
	"pass":     SeverityNone,
	"ok":       SeverityNone,
	"clean":    SeverityNone,
	"approve":  SeverityNone,
	"minor":    SeverityMinor,
	"warn":     SeverityMinor,
	"warning":  SeverityMinor,
	"low":      SeverityMinor,
	"medium":   SeverityMinor,
	"comment":  SeverityMinor,
	"critical": SeverityCritical,
	"fail":     SeverityCritical,
	"high":     SeverityCritical,
	"block":    SeverityCritical,
	"reject":   SeverityCritical,
}

// NormalizeSeverity maps a reviewer-provided severity to a gate severity.
// The second return is false when the value is not recognized.
func NormalizeSeverity(raw string) (Severity, bool) {
	sev, ok := severityAliases[strings.ToLower(strings.TrimSpace(raw))]
	return sev, ok
}

// verdictDoc is the YAML shape reviewers are asked to emit.
type verdictDoc struct {
	Severity string  `yaml:"severity"`
	Summary  string  `yaml:"summary"`
	Issues   []Issue `yaml:"issues"`
}

// ParseVerdict reads the last fenced yaml block of a Markdown reviewer
// response.
func ParseVerdict(output string) (*Verdict, error) {
	block := lastYAMLBlock([]byte(output))
	if block == nil {
		return nil, ErrNoVerdictBlock
	}

	var doc verdictDoc
	if err := yaml.Unmarshal(block, &doc); err != nil {
		return nil, fmt.Errorf("decode verdict: %w", err)
	}

	if doc.Severity == "" {
		return nil, fmt.Errorf("verdict missing severity")
	}
	sev, ok := NormalizeSeverity(doc.Severity)
	if !ok {
		return nil, fmt.Errorf("unknown severity %q", doc.Severity)
	}

	return &Verdict{
		Severity: sev,
		Summary:  strings.TrimSpace(doc.Summary),
		Issues:   doc.Issues,
	}, nil
}

// ParseVerdictOrCritical is ParseVerdict with the fail-safe applied: output
// that cannot be read is reported as a critical verdict so that a human
// looks at it rather than the push slipping through.
func ParseVerdictOrCritical(output string) *Verdict {
	v, err := ParseVerdict(output)
	if err == nil {
		return v
	}

	log.Warnf("Treating unparseable reviewer output as critical: %v", err)

	raw := strings.TrimSpace(output)
	if len(raw) > maxUnparsedSummary {
		raw = cutPrefix(raw, maxUnparsedSummary) + "..."
	}
	summary := fmt.Sprintf("reviewer verdict could not be parsed (%v)", err)
	if raw != "" {
		summary += ":\n" + raw
	}

	return &Verdict{
		Severity: SeverityCritical,
		Summary:  summary,
		Unparsed: true,
	}
}

// lastYAMLBlock walks the Markdown AST and returns the content of the last
// fenced code block tagged yaml or yml.
func lastYAMLBlock(src []byte) []byte {
	doc := goldmark.New().Parser().Parse(gtext.NewReader(src))

	var last []byte
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		block, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}

		lang := strings.ToLower(string(block.Language(src)))
		if lang != "yaml" && lang != "yml" {
			return ast.WalkSkipChildren, nil
		}

		var buf bytes.Buffer
		lines := block.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			buf.Write(seg.Value(src))
		}
		last = buf.Bytes()

		return ast.WalkSkipChildren, nil
	})

	return last
}

// String renders the verdict for the terminal.
func (v *Verdict) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("severity: %s\n", v.Severity))
	if v.Summary != "" {
		sb.WriteString(v.Summary)
		sb.WriteString("\n")
	}

	for _, issue := range v.Issues {
		sb.WriteString("  - ")
		if issue.Severity != "" {
			sb.WriteString(fmt.Sprintf("[%s] ", issue.Severity))
		}
		sb.WriteString(issue.Title)
		if issue.File != "" {
			sb.WriteString(fmt.Sprintf(" (%s", issue.File))
			if issue.Line > 0 {
				sb.WriteString(fmt.Sprintf(":%d", issue.Line))
			}
			sb.WriteString(")")
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
