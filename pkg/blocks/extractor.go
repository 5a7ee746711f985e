// Package blocks implements Pyrite's Block Extractor: a pure, stateless
// parser that splits a markdown body into addressable blocks with stable
// IDs (spec.md §4.2).
package blocks

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/markramm/pyrite/pkg/model"
)

var (
	headingPattern  = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)
	listItemPattern = regexp.MustCompile(`^(\s*)([-*+]|\d+\.)\s+`)
	fencePattern    = regexp.MustCompile("^```")
	// explicitMarker matches a trailing ^id suffix, either inline at the end
	// of a line or alone on its own line.
	explicitMarker = regexp.MustCompile(`\^([A-Za-z0-9_-]+)\s*$`)
)

// Extract parses a markdown body into an ordered, position-indexed list of
// blocks. It is pure: the same body always yields the same block sequence,
// including block IDs (spec.md §4.2 testable property).
func Extract(body string) []model.Block {
	lines := strings.Split(body, "\n")
	var out []model.Block
	currentHeading := ""
	pos := 0

	i := 0
	for i < len(lines) {
		line := lines[i]

		if strings.TrimSpace(line) == "" {
			i++
			continue
		}

		if fencePattern.MatchString(strings.TrimSpace(line)) {
			start := i
			i++
			for i < len(lines) && !fencePattern.MatchString(strings.TrimSpace(lines[i])) {
				i++
			}
			if i < len(lines) {
				i++ // consume closing fence
			}
			content := strings.Join(lines[start:i], "\n")
			out = append(out, makeBlock(content, model.BlockCode, currentHeading, pos))
			pos++
			continue
		}

		if m := headingPattern.FindStringSubmatch(line); m != nil {
			text := strings.TrimSpace(m[2])
			out = append(out, makeBlock(text, model.BlockHeading, currentHeading, pos))
			currentHeading = text
			pos++
			i++
			continue
		}

		if listItemPattern.MatchString(line) {
			start := i
			i++
			for i < len(lines) {
				if strings.TrimSpace(lines[i]) == "" {
					// A blank line continues the list only if another list
					// item or an indented continuation follows.
					j := i + 1
					for j < len(lines) && strings.TrimSpace(lines[j]) == "" {
						j++
					}
					if j >= len(lines) || !isListContinuation(lines[j]) {
						break
					}
					i = j
					continue
				}
				if isListContinuation(lines[i]) {
					i++
					continue
				}
				break
			}
			content := strings.TrimRight(strings.Join(lines[start:i], "\n"), "\n")
			out = append(out, makeBlock(content, model.BlockList, currentHeading, pos))
			pos++
			continue
		}

		// Paragraph: contiguous non-blank, non-special lines.
		start := i
		i++
		for i < len(lines) &&
			strings.TrimSpace(lines[i]) != "" &&
			!headingPattern.MatchString(lines[i]) &&
			!listItemPattern.MatchString(lines[i]) &&
			!fencePattern.MatchString(strings.TrimSpace(lines[i])) {
			i++
		}
		content := strings.Join(lines[start:i], "\n")
		out = append(out, makeBlock(content, model.BlockParagraph, currentHeading, pos))
		pos++
	}

	return out
}

// isListContinuation reports whether a line belongs to the list item above
// it: either another list marker, or an indented continuation line.
func isListContinuation(line string) bool {
	if listItemPattern.MatchString(line) {
		return true
	}
	return strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")
}

func makeBlock(content string, blockType model.BlockType, heading string, pos int) model.Block {
	id, content := extractID(content)
	if id == "" {
		id = hashID(content)
	}
	return model.Block{
		BlockID:  id,
		Heading:  heading,
		Content:  content,
		Position: pos,
		Type:     blockType,
	}
}

// extractID strips a trailing "^marker" from content, returning the marker
// (empty if absent) and the cleaned content.
func extractID(content string) (string, string) {
	lines := strings.Split(content, "\n")
	last := len(lines) - 1

	// Marker alone on the line immediately following the block's text.
	if m := explicitMarker.FindStringSubmatch(strings.TrimSpace(lines[last])); m != nil && strings.TrimSpace(lines[last]) == "^"+m[1] {
		id := m[1]
		lines = lines[:last]
		return id, strings.TrimRight(strings.Join(lines, "\n"), "\n")
	}

	// Marker as an inline suffix on the block's last line.
	if m := explicitMarker.FindStringSubmatch(lines[last]); m != nil {
		id := m[1]
		lines[last] = strings.TrimRight(explicitMarker.ReplaceAllString(lines[last], ""), " ")
		return id, strings.TrimRight(strings.Join(lines, "\n"), "\n")
	}

	return "", content
}

func hashID(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])[:8]
}
