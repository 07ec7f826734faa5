package llm

import (
	"context"
	"fmt"
	"sync"
)

// Fake is a scripted Generator for tests. Responses are returned in order;
// when the script runs out the last response repeats. A nil script means
// every call fails with Err.
type Fake struct {
	mu        sync.Mutex
	Responses []string
	Err       error

	calls []string
}

func (f *Fake) Generate(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := len(f.calls)
	f.calls = append(f.calls, prompt)

	if f.Err != nil {
		return "", f.Err
	}
	if len(f.Responses) == 0 {
		return "", fmt.Errorf("fake generator: no scripted response for call %d", n)
	}
	if n >= len(f.Responses) {
		n = len(f.Responses) - 1
	}
	return f.Responses[n], nil
}

// Calls returns the prompts seen so far.
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}
