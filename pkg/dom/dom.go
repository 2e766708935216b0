package dom

import "strings"

// Position is an insertAdjacentHTML style placement relative to a target.
type Position string

const (
	BeforeBegin Position = "beforebegin"
	AfterBegin  Position = "afterbegin"
	BeforeEnd   Position = "beforeend"
	AfterEnd    Position = "afterend"
)

// ParsePosition maps a placement name to a Position. Unknown or empty names
// fall back to BeforeEnd (append as last child).
func ParsePosition(name string) (Position, bool) {
	switch p := Position(strings.ToLower(strings.TrimSpace(name))); p {
	case BeforeBegin, AfterBegin, BeforeEnd, AfterEnd:
		return p, true
	default:
		return BeforeEnd, false
	}
}

// Surface is the part of a page document the tracking client touches.
type Surface interface {
	// RemoveMarked removes every element carrying class and returns how many were removed.
	RemoveMarked(class string) int
	// SetInner replaces the contents of every element matching selector.
	SetInner(selector, html string) (int, error)
	// InsertAdjacent inserts html relative to every element matching selector.
	InsertAdjacent(selector string, pos Position, html string) (int, error)
	// AppendScript appends one script element with body to the document body.
	AppendScript(body string, attrs map[string]string) error
	// MetaContent returns the content of <meta name="name">.
	MetaContent(name string) (string, bool)
}
