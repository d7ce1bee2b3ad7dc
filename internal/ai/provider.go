package ai

import (
	"context"
	"errors"

	"golang.org/x/sync/semaphore"
)

var (
	// ErrUnavailable covers provider/network failures after any retries.
	ErrUnavailable = errors.New("ai provider unavailable")
	// ErrTimeout means every attempt against the provider timed out.
	ErrTimeout = errors.New("ai provider timeout")
	// ErrBadOutput means the provider answered but not with decodable content.
	ErrBadOutput = errors.New("ai provider returned malformed output")
)

// Request is one completion call. JSONMode asks the provider for a JSON
// object response where the backend supports it.
type Request struct {
	Model    string
	System   string
	Prompt   string
	JSONMode bool
}

// CompletionProvider abstracts the two provider backends (hosted
// chat-completions API and self-hosted generation endpoint) plus the test
// fake. Selection happens at construction time, never at call time.
type CompletionProvider interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Gate bounds the number of provider calls in flight across the process.
type Gate struct {
	sem *semaphore.Weighted
}

func NewGate(limit int) *Gate {
	if limit <= 0 {
		limit = 4
	}
	return &Gate{sem: semaphore.NewWeighted(int64(limit))}
}

func (g *Gate) acquire(ctx context.Context) error {
	return g.sem.Acquire(ctx, 1)
}

func (g *Gate) release() {
	g.sem.Release(1)
}
