package logger

import (
	"log/slog"
	"strconv"
	"time"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Errors groups multiple non-nil errors under the key "errors".
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// VisitorRef records the visitor identifier under "visitor_ref".
// An empty ref yields an empty Attr so unknown visitors add no noise.
func VisitorRef(ref string) slog.Attr {
	if ref == "" {
		return slog.Attr{}
	}
	return slog.String("visitor_ref", ref)
}

// SessionID records the session identifier under "session_id".
func SessionID(sid string) slog.Attr {
	if sid == "" {
		return slog.Attr{}
	}
	return slog.String("session_id", sid)
}

// VariantID records a personalization variant id under "variant_id".
func VariantID(id string) slog.Attr {
	return slog.String("variant_id", id)
}

// Generation records a personalization generation under "generation".
func Generation(id string) slog.Attr {
	return slog.String("generation", id)
}

// Endpoint records the remote endpoint under "endpoint".
func Endpoint(url string) slog.Attr {
	return slog.String("endpoint", url)
}

// Organization records the organization under "organization".
func Organization(org string) slog.Attr {
	return slog.String("organization", org)
}

// Component records the component name under "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Phase records a one-shot feature state under "phase".
func Phase(state string) slog.Attr {
	return slog.String("phase", state)
}

// Count records a cardinality under "count".
func Count(n int) slog.Attr {
	return slog.Int("count", n)
}

// Duration records a duration under "duration".
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}
