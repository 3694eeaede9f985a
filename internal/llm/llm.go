// Package llm defines the capability the review pipeline needs from a
// generative model: text in, text out.
package llm

import (
	"context"
	"fmt"
	"time"
)

// Client generates a completion for a single prompt.
//
// Generate makes exactly one attempt. Implementations must not retry on their
// own; a failed call is reported to the caller as-is.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ClientFunc adapts an ordinary function to Client.
type ClientFunc func(ctx context.Context, prompt string) (string, error)

func (f ClientFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// WithTimeout bounds every Generate call on c. A call that runs past d
// returns an error wrapping context.DeadlineExceeded. A non-positive d
// returns c unchanged.
func WithTimeout(c Client, d time.Duration) Client {
	if d <= 0 {
		return c
	}
	return ClientFunc(func(ctx context.Context, prompt string) (string, error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()

		out, err := c.Generate(ctx, prompt)
		if err != nil {
			if ctx.Err() != nil {
				return "", fmt.Errorf("llm: generate timed out after %s: %w", d, ctx.Err())
			}
			return "", err
		}
		return out, nil
	})
}
