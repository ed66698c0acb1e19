// Package gitdiff collects the change a reviewer is asked to look at: the
// files and patch between what the remote has and what is being pushed, or
// the diff of a pull request.
package gitdiff

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// PushUpdate is one line of the pre-push hook's stdin:
//
//	<local ref> SP <local sha> SP <remote ref> SP <remote sha> LF
type PushUpdate struct {
	LocalRef  string
	LocalSHA  string
	RemoteRef string
	RemoteSHA string
}

// IsDelete reports whether the update deletes the remote ref.
func (u PushUpdate) IsDelete() bool {
	return isZeroHash(u.LocalSHA)
}

// IsNewRef reports whether the remote ref does not exist yet.
func (u PushUpdate) IsNewRef() bool {
	return isZeroHash(u.RemoteSHA)
}

// ParsePushUpdates reads git's pre-push ref list. Blank lines are skipped;
// any other malformed line is an error.
func ParsePushUpdates(r io.Reader) ([]PushUpdate, error) {
	var updates []PushUpdate

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 4 {
			return nil, fmt.Errorf("push line %d: expected 4 "+
				"fields, got %d", lineNum, len(fields))
		}

		u := PushUpdate{
			LocalRef:  fields[0],
			LocalSHA:  strings.ToLower(fields[1]),
			RemoteRef: fields[2],
			RemoteSHA: strings.ToLower(fields[3]),
		}
		for _, sha := range []string{u.LocalSHA, u.RemoteSHA} {
			if !isObjectID(sha) {
				return nil, fmt.Errorf("push line %d: invalid "+
					"object id %q", lineNum, sha)
			}
		}

		updates = append(updates, u)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read push updates: %w", err)
	}

	return updates, nil
}

// isObjectID reports whether s looks like a SHA-1 or SHA-256 object id.
func isObjectID(s string) bool {
	if len(s) != 40 && len(s) != 64 {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}

	return true
}

// isZeroHash reports whether s is git's all-zero object id.
func isZeroHash(s string) bool {
	return strings.Trim(s, "0") == "" && s != ""
}

// shortRef strips the refs/heads/ (or refs/tags/) prefix for display.
func shortRef(ref string) string {
	for _, prefix := range []string{"refs/heads/", "refs/tags/"} {
		if strings.HasPrefix(ref, prefix) {
			return strings.TrimPrefix(ref, prefix)
		}
	}

	return ref
}
