package transcribe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// TranscriptionError is the permanent failure of one chunk. It aborts
// the whole job; a transcript with a silently missing chunk would
// corrupt every timestamp after it.
type TranscriptionError struct {
	ChunkIndex int
	StatusCode int
	Body       string
	Exhausted  bool
	Err        error
}

func (e *TranscriptionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "transcribe chunk %d", e.ChunkIndex)
	if e.Exhausted {
		b.WriteString(": retry budget exhausted")
	}
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": http %d", e.StatusCode)
	}
	if e.Body != "" {
		fmt.Fprintf(&b, ": %s", e.Body)
	}
	if e.Body == "" && e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *TranscriptionError) Unwrap() error {
	return e.Err
}

// attempt outcomes of the retry state machine. Transient failures are
// retried while budget remains; permanent failures abort immediately.
type outcome int

const (
	outcomeTransient outcome = iota
	outcomePermanent
)

// classify maps one failed attempt to its outcome. Rate limiting and
// network timeouts are transient; everything else, including responses
// saying the uploaded bytes are not decodable audio, is permanent.
func classify(err error) outcome {
	if errors.Is(err, context.Canceled) {
		return outcomePermanent
	}

	if status, ok := statusCode(err); ok {
		if status == http.StatusTooManyRequests {
			return outcomeTransient
		}
		return outcomePermanent
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return outcomeTransient
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return outcomeTransient
	}

	return outcomePermanent
}

// statusCode extracts the HTTP status from a go-openai error, when the
// failure reached the API at all.
func statusCode(err error) (int, bool) {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return apiErr.HTTPStatusCode, true
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return reqErr.HTTPStatusCode, true
	}
	return 0, false
}

func responseBody(err error) string {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}

// isUndecodableAudio recognizes the API complaining about the chunk's
// bytes rather than about load or networking. Only used for logging;
// the failure is permanent either way.
func isUndecodableAudio(err error) bool {
	status, ok := statusCode(err)
	if !ok || status != http.StatusBadRequest {
		return false
	}
	body := strings.ToLower(responseBody(err))
	return strings.Contains(body, "decode") ||
		strings.Contains(body, "file format") ||
		strings.Contains(body, "corrupted")
}
