package errors

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
)

const (
	maxAdNameLen = 120
	maxPathLen   = 500
)

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// ValidateAdName rejects blank names, names longer than 120 bytes and
// names containing control characters. Anything printable is allowed;
// the artifact filename is sanitized separately.
func ValidateAdName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return New(ErrCodeInvalidInput, "ad name cannot be empty")
	case len(name) > maxAdNameLen:
		return New(ErrCodeInvalidInput, "ad name too long (max %d characters)", maxAdNameLen)
	case hasControl(name):
		return New(ErrCodeInvalidInput, "ad name contains control characters")
	}
	return nil
}

// ValidateHexColor accepts #rgb and #rrggbb.
func ValidateHexColor(color string) error {
	if !hexColor.MatchString(color) {
		return New(ErrCodeInvalidColor, "invalid hex color: %q", color)
	}
	return nil
}

// ValidatePath checks an object-store key. Keys are relative and
// slash-separated, and never step outside the store root.
func ValidatePath(path string) error {
	var reason string
	switch {
	case path == "":
		reason = "path cannot be empty"
	case len(path) > maxPathLen:
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLen)
	case hasControl(path):
		reason = "path contains control characters"
	case strings.HasPrefix(path, "/"):
		reason = "path must be relative"
	case strings.Contains(path, ".."):
		reason = "path cannot contain .."
	case strings.ContainsRune(path, '\\'):
		reason = "path cannot contain backslashes"
	default:
		return nil
	}
	return New(ErrCodeInvalidPath, "%s", reason)
}

// ValidateURL accepts absolute http(s) URLs with a host.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidURL, "URL cannot be empty")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return Wrap(ErrCodeInvalidURL, err, "malformed URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return New(ErrCodeInvalidURL, "URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return New(ErrCodeInvalidURL, "URL must have a host")
	}
	return nil
}

func hasControl(s string) bool {
	return strings.IndexFunc(s, unicode.IsControl) >= 0
}
