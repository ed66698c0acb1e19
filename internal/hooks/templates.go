package hooks

import (
	_ "embed"
	"strings"
)

// PrePushScript is the hook installed as .git/hooks/pre-push. It hands
// git's arguments and ref list to `pushgate pre-push`.
//
//go:embed scripts/pre-push.sh
var PrePushScript string

// managedMarker identifies a hook file written by pushgate.
const managedMarker = "pushgate-managed"

// isManaged reports whether hook content was written by pushgate.
func isManaged(content string) bool {
	return strings.Contains(content, managedMarker)
}
