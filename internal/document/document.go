// Package document reads document metadata and applies range edits to
// document text.
package document

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/pit/internal/task"
)

// Frontmatter returns the YAML block between leading --- delimiters, or nil
// when there is none or it does not parse.
func Frontmatter(data []byte) map[string]any {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")
	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil
	}
	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil
	}
	var fm map[string]any
	if err := yaml.Unmarshal(rest[:idx], &fm); err != nil {
		return nil
	}
	return fm
}

// Title returns the frontmatter title, else the first H1 heading, else "".
func Title(data []byte) string {
	if fm := Frontmatter(data); fm != nil {
		if s, ok := fm["title"].(string); ok && s != "" {
			return s
		}
	}
	for _, line := range strings.Split(string(data), "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}

// ReplaceRange replaces the text between two line/column points of buffer.
func ReplaceRange(buffer string, from, to task.Point, text string) (string, error) {
	start, err := task.PointOffset(buffer, from)
	if err != nil {
		return "", fmt.Errorf("document: replace start: %w", err)
	}
	end, err := task.PointOffset(buffer, to)
	if err != nil {
		return "", fmt.Errorf("document: replace end: %w", err)
	}
	if end < start {
		return "", fmt.Errorf("document: replace range %d:%d..%d:%d is inverted", from.Line, from.Col, to.Line, to.Col)
	}
	return buffer[:start] + text + buffer[end:], nil
}
