package task

import (
	"fmt"
	"strings"

	"github.com/starford/pit/internal/apperr"
)

// Point is a single location in a buffer, expressed both as an absolute
// byte offset and as a zero-based line/column pair.
type Point struct {
	Line   int `json:"line"`
	Col    int `json:"col"`
	Offset int `json:"offset"`
}

// Position is a start/end range within a buffer. It is only valid for the
// exact buffer it was computed from.
type Position struct {
	Start Point `json:"start"`
	End   Point `json:"end"`
}

// OffsetToPos converts the byte range [start, end) of buffer into a Position.
// It panics if the range does not satisfy 0 <= start <= end <= len(buffer);
// callers always derive offsets from the same buffer.
func OffsetToPos(buffer string, start, end int) Position {
	if start < 0 || start > end || end > len(buffer) {
		panic(fmt.Sprintf("task: offset range [%d, %d) outside buffer of length %d", start, end, len(buffer)))
	}
	return Position{
		Start: pointAt(buffer, start),
		End:   pointAt(buffer, end),
	}
}

func pointAt(buffer string, offset int) Point {
	prefix := buffer[:offset]
	// LastIndex yields -1 on the first line, so the column is the offset itself.
	return Point{
		Line:   strings.Count(prefix, "\n"),
		Col:    offset - strings.LastIndex(prefix, "\n") - 1,
		Offset: offset,
	}
}

// PointOffset resolves a line/column pair back to an absolute offset in
// buffer. The Offset field of p is ignored.
func PointOffset(buffer string, p Point) (int, error) {
	if p.Line < 0 || p.Col < 0 {
		return 0, fmt.Errorf("task: point %d:%d: %w", p.Line, p.Col, apperr.ErrOutOfRange)
	}
	lineStart := 0
	for i := 0; i < p.Line; i++ {
		nl := strings.IndexByte(buffer[lineStart:], '\n')
		if nl < 0 {
			return 0, fmt.Errorf("task: line %d beyond buffer: %w", p.Line, apperr.ErrOutOfRange)
		}
		lineStart += nl + 1
	}
	lineEnd := len(buffer)
	if nl := strings.IndexByte(buffer[lineStart:], '\n'); nl >= 0 {
		lineEnd = lineStart + nl
	}
	if lineStart+p.Col > lineEnd {
		return 0, fmt.Errorf("task: column %d beyond line %d: %w", p.Col, p.Line, apperr.ErrOutOfRange)
	}
	return lineStart + p.Col, nil
}
