package task

import (
	"log/slog"
	"regexp"
	"strconv"
	"time"

	"github.com/starford/pit/internal/dates"
)

var (
	// lineRe matches a list item: optional indentation, a "-" or "*"
	// marker, horizontal whitespace and the rest of the line.
	lineRe = regexp.MustCompile(`(?m)^[ \t]*([-*])[ \t]+(.*)$`)
	// checkRe captures the glyph of the first [.] box. Any glyph other
	// than a space counts as completed.
	checkRe = regexp.MustCompile(`\[(.)\]`)
)

// Extractor builds tasks from a buffer.
type Extractor struct {
	// DefaultPriority applies when a line has no parseable %prio.
	// Nil leaves such tasks unprioritised.
	DefaultPriority *int
	Dates           dates.Parser
	Now             func() time.Time
	Logger          *slog.Logger
}

// NewExtractor returns an Extractor with the natural-language date parser,
// the wall clock and the default logger.
func NewExtractor(defaultPriority *int) *Extractor {
	return &Extractor{
		DefaultPriority: defaultPriority,
		Dates:           dates.NewNatural(),
		Now:             time.Now,
		Logger:          slog.Default(),
	}
}

// Extract is a convenience wrapper around NewExtractor(defaultPriority).Extract.
func Extract(buffer string, defaultPriority *int) []Task {
	return NewExtractor(defaultPriority).Extract(buffer)
}

// Extract scans the whole buffer and returns its tasks in document order.
func (e *Extractor) Extract(buffer string) []Task {
	matches := lineRe.FindAllStringSubmatchIndex(buffer, -1)
	out := make([]Task, 0, len(matches))
	now := e.now()
	for _, m := range matches {
		start, end := m[2], m[1]
		if end > start && buffer[end-1] == '\r' {
			end--
		}
		out = append(out, e.build(buffer, OffsetToPos(buffer, start, end), now))
	}
	return out
}

func (e *Extractor) build(buffer string, pos Position, now time.Time) Task {
	t := Task{Position: pos}
	segment := t.Segment(buffer)

	if m := checkRe.FindStringSubmatch(segment); m != nil {
		t.Completed = m[1] != " "
	}

	t.Annotations = ScanAnnotations(segment)
	// Typed fields are reassigned on every match, so the last one wins,
	// including a last one that fails to parse.
	for _, a := range t.Annotations {
		switch a.Key {
		case KeyPriority:
			t.Priority = parsePriority(a.Value)
		case KeyDue:
			t.Due = e.parseDate(a, now)
		case KeyDone:
			t.Done = e.parseDate(a, now)
		}
	}

	if t.Priority == nil && e.DefaultPriority != nil {
		p := *e.DefaultPriority
		t.Priority = &p
	}
	return t
}

// parsePriority reads the leading integer of value ("3", "-1", "2x").
func parsePriority(value string) *int {
	end := 0
	if end < len(value) && (value[end] == '-' || value[end] == '+') {
		end++
	}
	digits := end
	for end < len(value) && value[end] >= '0' && value[end] <= '9' {
		end++
	}
	if end == digits {
		return nil
	}
	p, err := strconv.Atoi(value[:end])
	if err != nil {
		return nil
	}
	return &p
}

func (e *Extractor) parseDate(a Annotation, now time.Time) *time.Time {
	if e.Dates == nil {
		return nil
	}
	d, err := e.Dates.Parse(a.Value, now)
	if err != nil {
		e.logger().Debug("task: unparseable date annotation",
			slog.String("key", a.Key),
			slog.String("value", a.Value),
			slog.String("error", err.Error()))
		return nil
	}
	return &d
}

func (e *Extractor) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

func (e *Extractor) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}
