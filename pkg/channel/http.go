package channel

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"
)

// maxExcerptLen bounds the response excerpt stored on an attempt so large
// endpoint responses cannot bloat the attempt log.
const maxExcerptLen = 200

// httpCall performs one HTTP request with the adapter's per-attempt timeout
// layered on the caller's context, and classifies the result into an
// Attempt. This is the single place transport and remote failures are told
// apart, shared by every HTTP-backed adapter.
func httpCall(ctx context.Context, s *settings, integrationID, method, url string, headers map[string]string, body []byte) Attempt {
	attempt := Attempt{
		IntegrationID: integrationID,
		Timestamp:     time.Now().UTC(),
	}

	reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, method, url, bytes.NewReader(body))
	if err != nil {
		attempt.Status = StatusTransportError
		attempt.Error = fmt.Sprintf("failed to create request: %v", err)
		return attempt
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		attempt.Status = StatusTransportError
		if reqCtx.Err() == context.DeadlineExceeded {
			attempt.Error = fmt.Sprintf("request timed out: %v", err)
		} else {
			attempt.Error = err.Error()
		}
		return attempt
	}
	defer func() { _ = resp.Body.Close() }()

	attempt.StatusCode = resp.StatusCode
	// 64KB read cap prevents memory exhaustion from oversized responses.
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	attempt.Response = excerpt(raw)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		attempt.Status = StatusSuccess
		return attempt
	}

	attempt.Status = StatusHTTPError
	attempt.Error = fmt.Sprintf("endpoint returned status %d", resp.StatusCode)
	if attempt.Response != "" {
		attempt.Error += ": " + attempt.Response
	}
	return attempt
}

// excerpt flattens and truncates a response body for safe logging. The cut
// backs up to a rune boundary so a multi-byte character is never split into
// an invalid-UTF-8 tail.
func excerpt(body []byte) string {
	s := strings.ReplaceAll(string(body), "\n", " ")
	s = strings.TrimSpace(s)
	if len(s) > maxExcerptLen {
		cut := maxExcerptLen
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut] + "..."
	}
	return s
}

// fold merges per-destination sub-attempts into the single attempt a
// multi-destination adapter returns. The fold succeeds only when every
// destination succeeded; otherwise the first failing destination's
// classification is surfaced.
func fold(integrationID string, parts []Attempt, okNote string) Attempt {
	merged := Attempt{
		IntegrationID: integrationID,
		Status:        StatusSuccess,
		Response:      okNote,
		Timestamp:     time.Now().UTC(),
	}
	for _, p := range parts {
		if p.Success() {
			continue
		}
		merged.Status = p.Status
		merged.StatusCode = p.StatusCode
		merged.Error = p.Error
		merged.Response = p.Response
		break
	}
	return merged
}

// failedAttempt builds a transport-classified attempt for failures that
// happen before any network call is made.
func failedAttempt(integrationID, reason string) Attempt {
	return Attempt{
		IntegrationID: integrationID,
		Status:        StatusTransportError,
		Error:         reason,
		Timestamp:     time.Now().UTC(),
	}
}
