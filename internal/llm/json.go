package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
)

// ParseError means the model's output did not match the structured output
// contract even after stricter-format retries.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unparsable model output: %v (raw: %s)", e.Err, Truncate(e.Raw, 200))
}

func (e *ParseError) Unwrap() error { return e.Err }

// parseRetries bounds stricter-format retries after the first unparsable
// response.
const parseRetries = 2

const strictFormatReminder = "\n\nIMPORTANT: Your previous response could not be parsed. " +
	"Respond with ONLY the requested JSON. No prose, no markdown fences, no commentary."

// GenerateJSON runs a generation call whose response must be JSON matching
// v. Transport failures are retried with backoff inside each attempt;
// unparsable output triggers up to parseRetries further attempts with a
// stricter format instruction appended.
func GenerateJSON(ctx context.Context, gen Generator, prompt string, v any, log zerolog.Logger) error {
	p := prompt
	var lastErr error
	var lastRaw string

	for attempt := 0; attempt <= parseRetries; attempt++ {
		out, err := generateWithRetry(ctx, gen, p)
		if err != nil {
			return err
		}
		raw := StripCodeBlock(out)
		if err := json.Unmarshal([]byte(raw), v); err == nil {
			return nil
		} else {
			lastErr = err
			lastRaw = raw
		}
		log.Warn().Int("attempt", attempt).Err(lastErr).Msg("model output not parsable, retrying with strict format instruction")
		if attempt == 0 {
			p = prompt + strictFormatReminder
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return &ParseError{Raw: lastRaw, Err: lastErr}
}

var codeBlockRe = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

// StripCodeBlock removes a surrounding markdown fence, which models add
// even when told not to.
func StripCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if m := codeBlockRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}

// Truncate shortens s for log and error messages.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
