package httputil

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// StatusError is a non-2xx HTTP response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d %s", e.Code, http.StatusText(e.Code))
}

// CheckStatus returns nil for 2xx codes. Server errors and 429 come back
// wrapped in [RetryableError]; other codes as a bare [StatusError].
func CheckStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code >= 500 || code == http.StatusTooManyRequests:
		return &RetryableError{Err: &StatusError{Code: code}}
	default:
		return &StatusError{Code: code}
	}
}

// CheckResponse is [CheckStatus] plus the response's Retry-After header,
// which is carried on the [RetryableError].
func CheckResponse(resp *http.Response) error {
	err := CheckStatus(resp.StatusCode)
	if re, ok := err.(*RetryableError); ok {
		re.After = retryAfter(resp.Header.Get("Retry-After"), time.Now())
	}
	return err
}

// retryAfter parses delta-seconds or an HTTP date. Unparseable and past
// values yield zero.
func retryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(max(secs, 0)) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil && t.After(now) {
		return t.Sub(now)
	}
	return 0
}
