package metadata

import (
	"strconv"
	"strings"

	"github.com/dmitrymomot/profiler/pkg/dom"
	"github.com/dmitrymomot/profiler/pkg/signal"
)

// DefaultTag is the meta tag name holding declared interests.
const DefaultTag = "profiler:interests"

// Parse reads a comma separated list of name or name:weight segments.
// Segments with an empty name, a non-integer weight or more than one colon
// are skipped.
func Parse(content string) []signal.DataPoint {
	var out []signal.DataPoint
	for _, segment := range strings.Split(content, ",") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}

		parts := strings.Split(segment, ":")
		name := strings.TrimSpace(parts[0])
		if name == "" || len(parts) > 2 {
			continue
		}

		dp := signal.DataPoint{Name: name}
		if len(parts) == 2 {
			w, err := strconv.Atoi(strings.TrimSpace(parts[1]))
			if err != nil {
				continue
			}
			dp.Weight = &w
		}
		out = append(out, dp)
	}
	return out
}

// Read parses the content of the tag meta element in doc. It returns nil
// when the document has no such tag. An empty tag means DefaultTag.
func Read(doc dom.Surface, tag string) []signal.DataPoint {
	if doc == nil {
		return nil
	}
	if tag == "" {
		tag = DefaultTag
	}
	content, ok := doc.MetaContent(tag)
	if !ok {
		return nil
	}
	return Parse(content)
}
