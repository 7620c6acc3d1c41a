package domain

import (
	"errors"
	"io"
	"strings"
)

// TokenStream is a lazy, finite, non-restartable sequence of text
// fragments from a generation call. Recv returns io.EOF when the
// stream ends. Consumers may Close mid-stream to abort production and
// release the underlying connection; fragments already delivered are
// not retracted.
type TokenStream interface {
	Recv() (string, error)
	Close() error
}

// Answer is the result of routing and dispatching a user query.
// Exactly one of Text or Stream is populated.
type Answer struct {
	Decision RoutingDecision
	Text     string
	Stream   TokenStream
}

// Streamed reports whether the response arrives as a token stream.
func (a *Answer) Streamed() bool {
	return a.Stream != nil
}

// Collect drains the stream into Text and closes it. A no-op for
// non-streamed answers. Partial output is kept if the stream fails
// mid-way; the error is still returned.
func (a *Answer) Collect() (string, error) {
	if a.Stream == nil {
		return a.Text, nil
	}
	defer a.Stream.Close()

	var sb strings.Builder
	for {
		fragment, err := a.Stream.Recv()
		sb.WriteString(fragment)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			a.Text = sb.String()
			return a.Text, err
		}
	}
	a.Text = sb.String()
	a.Stream = nil
	return a.Text, nil
}
