package ai

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestTypedErrorsKeepAPIDetail(t *testing.T) {
	base := &APIError{StatusCode: 401, RequestID: "req_77", Message: "invalid key"}

	cases := []struct {
		err  error
		want string
	}{
		{&AuthError{base}, "rejected the API key"},
		{&ModelNotFoundError{base}, "default_model"},
		{&QuotaExceededError{base}, "quota"},
		{&ServerError{base}, "provider failure"},
		{&BadRequestError{base}, "request refused"},
	}
	for _, tc := range cases {
		msg := tc.err.Error()
		if !strings.Contains(msg, tc.want) {
			t.Fatalf("message %q missing %q", msg, tc.want)
		}
		if !strings.Contains(msg, "req_77") || !strings.Contains(msg, "invalid key") {
			t.Fatalf("message %q dropped the wrapped API detail", msg)
		}
	}
}

func TestRateLimitErrorRetryHint(t *testing.T) {
	base := &APIError{StatusCode: 429}
	withWait := &RateLimitError{APIError: base, RetryAfter: 3 * time.Second}
	if msg := withWait.Error(); !strings.Contains(msg, "~3s") {
		t.Fatalf("expected retry hint in %q", msg)
	}
	noWait := &RateLimitError{APIError: base}
	if msg := noWait.Error(); strings.Contains(msg, "~") {
		t.Fatalf("unexpected retry hint in %q", msg)
	}
}

func TestUnreachableErrorNamesHost(t *testing.T) {
	e := &UnreachableError{Host: "http://127.0.0.1:11434", Err: errors.New("connection refused")}
	if msg := e.Error(); !strings.Contains(msg, "127.0.0.1:11434") {
		t.Fatalf("expected host in %q", msg)
	}
}
