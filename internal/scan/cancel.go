package scan

import (
	"context"
	"sync/atomic"
)

// CancellationToken is polled at page boundaries. Once it reports true the
// scan stops before touching another page.
type CancellationToken interface {
	IsCancelled() bool
}

// Flag is a CancellationToken raised explicitly with Cancel. The zero value
// is ready to use and safe to share between goroutines.
type Flag struct {
	cancelled atomic.Bool
}

// NewFlag creates an unraised flag
func NewFlag() *Flag {
	return &Flag{}
}

// Cancel raises the flag
func (f *Flag) Cancel() {
	f.cancelled.Store(true)
}

// IsCancelled reports whether Cancel has been called
func (f *Flag) IsCancelled() bool {
	return f.cancelled.Load()
}

type contextToken struct {
	ctx context.Context
}

// ContextToken adapts a context: the token is cancelled once ctx is done.
func ContextToken(ctx context.Context) CancellationToken {
	return contextToken{ctx: ctx}
}

func (c contextToken) IsCancelled() bool {
	return c.ctx.Err() != nil
}

type anyToken []CancellationToken

// AnyOf is cancelled as soon as one of tokens is. Nil tokens are ignored.
func AnyOf(tokens ...CancellationToken) CancellationToken {
	return anyToken(tokens)
}

func (a anyToken) IsCancelled() bool {
	for _, t := range a {
		if t != nil && t.IsCancelled() {
			return true
		}
	}
	return false
}

type neverToken struct{}

func (neverToken) IsCancelled() bool { return false }

// Never is a token that is never cancelled
var Never CancellationToken = neverToken{}
