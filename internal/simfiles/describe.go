package simfiles

import "strings"

const (
	unknownInstance    = "unknown"
	conversationPrefix = "-conversation-panel-"
	migrationPrefix    = "javamigration.eval.x86_64."
	migrationSuffix    = "-output"
)

// DisplayInfo is the human-readable label derived from a relative path.
type DisplayInfo struct {
	DisplayName string
	RunID       string // empty when the path has no numeric run directory
	Instance    string
}

// HasRunID reports whether a run ID was found.
func (d DisplayInfo) HasRunID() bool {
	return d.RunID != ""
}

// RunIDPtr returns the run ID for JSON encoding, nil when absent.
func (d DisplayInfo) RunIDPtr() *string {
	if d.RunID == "" {
		return nil
	}
	id := d.RunID
	return &id
}

// Describe derives a display label from a slash-separated path relative to
// the scan root. Recognised layouts:
//
//	<runId>/javamigration.eval.x86_64.<instance>-output/.../-conversation-panel-<instance>/sim-requests-0.txt
//	<runId>/<instance>/output/sim-output/-conversation-panel-<instance>/sim-requests-0.txt
//
// It never fails; anything it cannot recognise falls back to "unknown".
func Describe(relPath string) DisplayInfo {
	parts := strings.Split(relPath, "/")

	info := DisplayInfo{Instance: unknownInstance}
	if isDigits(parts[0]) {
		info.RunID = parts[0]
	}

	found := false
	for _, part := range parts {
		if strings.HasPrefix(part, conversationPrefix) {
			info.Instance = strings.TrimPrefix(part, conversationPrefix)
			found = true
			break
		}
	}

	if !found {
		for _, part := range parts {
			if strings.HasPrefix(part, migrationPrefix) && strings.HasSuffix(part, migrationSuffix) {
				info.Instance = strings.TrimSuffix(strings.TrimPrefix(part, migrationPrefix), migrationSuffix)
				break
			}
		}
	}

	if info.Instance == unknownInstance && len(parts) > 1 {
		info.Instance, _, _ = strings.Cut(parts[1], ".")
	}

	if info.HasRunID() {
		info.DisplayName = info.RunID + "/" + info.Instance
	} else {
		info.DisplayName = info.Instance
	}
	return info
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
