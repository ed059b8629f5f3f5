package session

import (
	"context"

	"github.com/Ander2716/rag-voice-client/internal/answer"
)

// Committer dispatches a received answer beyond on-screen display.
type Committer interface {
	Commit(context.Context, string) error
}

// CommitFunc adapts a function to the Committer interface.
type CommitFunc func(context.Context, string) error

func (f CommitFunc) Commit(ctx context.Context, text string) error {
	return f(ctx, text)
}

// Submitter sends a finalized query to the answering endpoint.
type Submitter interface {
	Submit(context.Context, string) (answer.Answer, error)
}

// SubmitFunc adapts a function to the Submitter interface.
type SubmitFunc func(context.Context, string) (answer.Answer, error)

func (f SubmitFunc) Submit(ctx context.Context, query string) (answer.Answer, error) {
	return f(ctx, query)
}
