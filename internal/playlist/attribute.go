package playlist

import (
	"regexp"
	"strings"
	"sync"
)

// durationToken matches the directive and its duration, e.g. "#EXTINF:-1" or "#EXTINF:10.5".
var durationToken = regexp.MustCompile(`^#EXTINF:\s*-?[0-9]+(?:\.[0-9]+)?`)

var attrPatterns sync.Map // key -> *regexp.Regexp

// attributePattern matches key="value" capturing the value. The key must start the line or follow
// whitespace, a closing quote or a comma, so "name" never matches inside "tvg-name".
func attributePattern(key string) *regexp.Regexp {
	if re, ok := attrPatterns.Load(key); ok {
		return re.(*regexp.Regexp)
	}
	re := regexp.MustCompile(`(?:^|[\s",])` + regexp.QuoteMeta(key) + `="([^"]*)"`)
	attrPatterns.Store(key, re)
	return re
}

// DisplayName returns the trimmed text after the final comma of a metadata line.
func DisplayName(metadataLine string) string {
	idx := strings.LastIndex(metadataLine, ",")
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(metadataLine[idx+1:])
}

// ExtractAttribute returns the first value of key="value" in line, or "" when absent.
func ExtractAttribute(line, key string) string {
	m := attributePattern(key).FindStringSubmatch(attributeSpan(line))
	if m == nil {
		return ""
	}
	return m[1]
}

// UpsertAttribute sets key to value in a metadata line.
//
// An existing key="..." has its value replaced in place. A missing key is inserted right
// after the duration token. Every other attribute and the trailing display name are left
// untouched. Lines without a recognizable duration token are returned unchanged when the
// key is missing.
func UpsertAttribute(line, key, value string) string {
	span := attributeSpan(line)
	if loc := attributePattern(key).FindStringSubmatchIndex(span); loc != nil {
		return line[:loc[2]] + value + line[loc[3]:]
	}

	loc := durationToken.FindStringIndex(line)
	if loc == nil {
		return line
	}
	return line[:loc[1]] + " " + key + `="` + value + `"` + line[loc[1]:]
}

// attributeSpan is the part of a metadata line that can carry attributes:
// everything before the comma that introduces the display name. Commas inside
// quoted values are skipped.
func attributeSpan(line string) string {
	inQuotes := false
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '"':
			inQuotes = !inQuotes
		case ',':
			if !inQuotes {
				return line[:i]
			}
		}
	}
	return line
}
