package transcript

import (
	"regexp"
	"strings"
)

var (
	timestampLine = regexp.MustCompile(`^\d\d:\d\d:\d\d\.\d+ -->`)
	tagLine       = regexp.MustCompile(`^\[.*\]`)
	inlineMarkup  = regexp.MustCompile(`<.*?>`)
)

// ParseVTT extracts plain transcript text from a WebVTT subtitle payload.
// Header lines (WEBVTT, Kind:, Language:), cue timestamps, and sound-tag
// lines like [음악] are dropped; inline markup such as timing tags is
// stripped; repeated lines (auto-generated subtitles emit each line twice)
// are kept once. Surviving lines are joined with single spaces.
func ParseVTT(content string) string {
	seen := make(map[string]struct{})
	lines := make([]string, 0)

	for _, line := range strings.Split(content, "\n") {
		if _, dup := seen[line]; dup {
			continue
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" ||
			strings.HasPrefix(line, "WEBVTT") ||
			strings.HasPrefix(line, "Kind:") ||
			strings.HasPrefix(line, "Language:") ||
			timestampLine.MatchString(line) {
			continue
		}
		if tagLine.MatchString(trimmed) {
			continue
		}

		clean := strings.TrimSpace(inlineMarkup.ReplaceAllString(line, ""))
		if clean == "" {
			continue
		}
		lines = append(lines, clean)
		seen[clean] = struct{}{}
	}

	return strings.Join(lines, " ")
}
