package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"new", New(ErrCodeInvalidGeometry, "container %vx%v", 0, 314), "INVALID_GEOMETRY: container 0x314"},
		{"wrap", Wrap(ErrCodeStorage, errors.New("disk full"), "upload %s", "a.png"), "STORAGE_ERROR: upload a.png: disk full"},
		{"wrap nil cause", Wrap(ErrCodeCapture, nil, "encode"), "CAPTURE_FAILED: encode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrapChain(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(ErrCodeNetwork, cause, "fetch image")

	if errors.Unwrap(err) != cause {
		t.Error("Unwrap() should return the cause")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause")
	}

	var e *Error
	if !errors.As(fmt.Errorf("remote: %w", err), &e) || e.Code != ErrCodeNetwork {
		t.Errorf("errors.As through fmt wrap = %v", e)
	}
}

func TestCodeLookup(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		code  Code
		coded bool
	}{
		{"direct", New(ErrCodeImageLoad, "a.png"), ErrCodeImageLoad, true},
		{"outermost wins", Wrap(ErrCodeCapture, New(ErrCodeFontLoad, "inner"), "outer"), ErrCodeCapture, true},
		{"behind fmt wrap", fmt.Errorf("ctx: %w", New(ErrCodeNotFound, "ad")), ErrCodeNotFound, true},
		{"foreign", errors.New("plain"), "", false},
		{"nil", nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.code {
				t.Errorf("GetCode() = %q, want %q", got, tt.code)
			}
			if got := Coded(tt.err); got != tt.coded {
				t.Errorf("Coded() = %v, want %v", got, tt.coded)
			}
			if tt.code != "" && !Is(tt.err, tt.code) {
				t.Errorf("Is(%q) = false", tt.code)
			}
			if Is(tt.err, ErrCodeInternal) {
				t.Error("Is(INTERNAL_ERROR) should be false")
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"coded", Wrap(ErrCodeStorage, errors.New("s3: 503"), "could not save the ad"), "could not save the ad"},
		{"foreign", errors.New("plain error"), "plain error"},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.want {
				t.Errorf("UserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid geometry", New(ErrCodeInvalidGeometry, "w=0"), http.StatusBadRequest},
		{"invalid color", New(ErrCodeInvalidColor, "nope"), http.StatusBadRequest},
		{"invalid url", New(ErrCodeInvalidURL, "ftp://x"), http.StatusBadRequest},
		{"not found", New(ErrCodeNotFound, "ad"), http.StatusNotFound},
		{"rate limited", New(ErrCodeRateLimited, "slow down"), http.StatusTooManyRequests},
		{"network", Wrap(ErrCodeNetwork, errors.New("reset"), "fetch"), http.StatusBadGateway},
		{"timeout", New(ErrCodeTimeout, "remote render"), http.StatusGatewayTimeout},
		{"unsupported", New(ErrCodeUnsupported, "webp output"), http.StatusNotImplemented},
		{"storage", New(ErrCodeStorage, "upload"), http.StatusInternalServerError},
		{"plain", errors.New("plain"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatus(tt.err); got != tt.want {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}
