package review

import (
	"fmt"
	"strings"
)

// GateReviewPrompt instructs the reviewer. The gate only acts on the YAML
// block at the end, so the format section is the contract.
const GateReviewPrompt = `# Pre-Push Code Review

You are reviewing a change that a developer is about to push. Your verdict
decides whether they are asked to stop and reconsider.

## Core Principles

**HIGH-SIGNAL ISSUES ONLY**: Flag only issues that matter:
- Code that fails to compile or parse
- Clear logic errors that will produce incorrect results
- Security vulnerabilities (injection, auth bypass, secrets, data exposure)
- Data loss or corruption

**DO NOT FLAG**:
- Code style or formatting preferences
- Subjective refactoring suggestions
- Pre-existing issues not introduced by this change
- Issues a linter or type checker would catch

## Severity

- **critical**: the change should not be pushed as is (breaks production,
  loses data, opens a security hole)
- **minor**: worth a look but safe to push
- **none**: nothing worth mentioning

## Response Format

Explain your findings briefly in Markdown, then end with exactly one fenced
yaml block:

` + "```yaml" + `
severity: none | minor | critical
summary: one or two sentences
issues:
  - file: path/to/file.go
    line: 42
    severity: critical
    title: short description
` + "```" + `
`

// maxPromptPatch bounds the diff embedded in the prompt. Larger diffs are
// truncated; the file list is always complete.
const maxPromptPatch = 200_000

// BuildPrompt renders the full prompt for a review request.
func BuildPrompt(req Request) string {
	var sb strings.Builder
	sb.WriteString(GateReviewPrompt)
	sb.WriteString("\n## Change\n\n")

	if req.Title != "" {
		sb.WriteString(fmt.Sprintf("**Change:** %s\n\n", req.Title))
	}

	sb.WriteString(fmt.Sprintf("**Changed files (%d):**\n", len(req.Files)))
	for _, f := range req.Files {
		sb.WriteString(fmt.Sprintf("- %s\n", f))
	}

	patch := req.Patch
	truncated := false
	if len(patch) > maxPromptPatch {
		patch = cutPrefix(patch, maxPromptPatch)
		truncated = true
	}

	sb.WriteString("\n**Diff:**\n\n```diff\n")
	sb.WriteString(patch)
	if !strings.HasSuffix(patch, "\n") {
		sb.WriteString("\n")
	}
	sb.WriteString("```\n")

	if truncated {
		sb.WriteString(fmt.Sprintf(
			"\n(diff truncated to %d bytes; read the files "+
				"directly for the rest)\n", maxPromptPatch,
		))
	}

	return sb.String()
}
