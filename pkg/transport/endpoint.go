package transport

import (
	"fmt"
	"net/url"
	"strings"
)

// Endpoint joins the service base URL, the organization and the operation
// specific path segments: Endpoint("https://t.example.com/api", "acme", "sessions")
// yields "https://t.example.com/api/acme/sessions".
func Endpoint(base, organization string, segments ...string) (string, error) {
	if strings.TrimSpace(organization) == "" {
		return "", fmt.Errorf("%w: organization is required", ErrInvalidEndpoint)
	}
	if _, err := parseEndpoint(base); err != nil {
		return "", err
	}

	parts := make([]string, 0, len(segments)+1)
	parts = append(parts, organization)
	for _, s := range segments {
		if s = strings.Trim(s, "/"); s != "" {
			parts = append(parts, s)
		}
	}

	joined, err := url.JoinPath(base, parts...)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidEndpoint, err)
	}
	return joined, nil
}
