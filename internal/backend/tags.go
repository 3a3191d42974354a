package backend

import (
	"strings"
	"unicode"
)

// NormalizeTags strips every whitespace rune from raw and splits it on
// commas. Empty segments are dropped, so "a,,b," yields [a b] and an
// empty input yields an empty list. Commas cannot be escaped.
func NormalizeTags(raw string) []string {
	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)

	tags := []string{}
	for _, t := range strings.Split(compact, ",") {
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// JoinTags is the inverse used when a tag list is edited as free text.
func JoinTags(tags []string) string {
	return strings.Join(tags, ",")
}
