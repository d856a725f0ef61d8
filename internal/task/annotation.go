package task

import (
	"regexp"
	"strings"
)

// annotationRe matches %key=value tokens. Values containing whitespace must
// be double-quoted; an unterminated quote simply fails to match. RE2's \s is
// ASCII only, so Unicode spaces (no-break space, BOM) are listed as well.
var annotationRe = regexp.MustCompile(`%([^=\s\pZ\x{FEFF}]+)=([^"\s\pZ\x{FEFF}]+|"[^"]+")`)

// Annotation is one %key=value token found inside a task segment.
// Offset and Length are byte counts relative to the segment start and cover
// the raw token, quotes included.
type Annotation struct {
	Key    string `json:"key"`
	Value  string `json:"value"`
	Offset int    `json:"offset"`
	Length int    `json:"length"`
}

// End returns the segment offset just past the raw token.
func (a Annotation) End() int {
	return a.Offset + a.Length
}

// ScanAnnotations returns every annotation in segment, left to right.
func ScanAnnotations(segment string) []Annotation {
	matches := annotationRe.FindAllStringSubmatchIndex(segment, -1)
	out := make([]Annotation, 0, len(matches))
	for _, m := range matches {
		value := segment[m[4]:m[5]]
		if len(value) >= 2 && strings.HasPrefix(value, `"`) && strings.HasSuffix(value, `"`) {
			value = value[1 : len(value)-1]
		}
		out = append(out, Annotation{
			Key:    segment[m[2]:m[3]],
			Value:  value,
			Offset: m[0],
			Length: m[1] - m[0],
		})
	}
	return out
}

// find returns the first annotation with the given key.
func find(annotations []Annotation, key string) (Annotation, bool) {
	for _, a := range annotations {
		if a.Key == key {
			return a, true
		}
	}
	return Annotation{}, false
}
