package core

import (
	"regexp"
	"strings"
)

// mentionPattern matches @name tokens. Names may contain letters, digits,
// underscores and hyphens; the match stops at the first other character.
var mentionPattern = regexp.MustCompile(`@([A-Za-z0-9_-]+)`)

// ParseMentions scans free text for @name tokens and matches them
// case-insensitively against known panelist names. Unmatched tokens are
// ignored. The result preserves the order of first mention and contains no
// duplicates; returned names use the panel's canonical casing.
func ParseMentions(text string, panel []string) []string {
	if text == "" || len(panel) == 0 {
		return nil
	}

	canonical := make(map[string]string, len(panel))
	for _, name := range panel {
		canonical[strings.ToLower(name)] = name
	}

	var mentioned []string
	seen := make(map[string]bool)

	for _, m := range mentionPattern.FindAllStringSubmatch(text, -1) {
		name, ok := canonical[strings.ToLower(m[1])]
		if !ok || seen[name] {
			continue
		}
		seen[name] = true
		mentioned = append(mentioned, name)
	}

	return mentioned
}
