package rpc

import (
	"context"
	"encoding/json"

	"github.com/devaloi/guestbook/internal/auth"
)

// Kind distinguishes reads from writes. Queries are served on GET, mutations on POST.
type Kind string

const (
	KindQuery    Kind = "query"
	KindMutation Kind = "mutation"
)

// Handler executes a procedure on raw JSON input.
type Handler func(ctx context.Context, input json.RawMessage) (any, error)

// Middleware wraps a procedure handler.
type Middleware func(Handler) Handler

// Procedure is a named remote operation.
type Procedure struct {
	Path   string
	Kind   Kind
	Handle Handler
}

// Void is the output of procedures that return nothing. It encodes as null.
type Void struct{}

func (Void) MarshalJSON() ([]byte, error) { return []byte("null"), nil }

func (*Void) UnmarshalJSON([]byte) error { return nil }

// Query declares an input-less read procedure.
func Query[Out any](path string, fn func(ctx context.Context) (Out, error)) Procedure {
	return Procedure{
		Path: path,
		Kind: KindQuery,
		Handle: func(ctx context.Context, _ json.RawMessage) (any, error) {
			return fn(ctx)
		},
	}
}

// Mutation declares a write procedure taking a JSON-decoded input.
func Mutation[In, Out any](path string, fn func(ctx context.Context, in In) (Out, error)) Procedure {
	return Procedure{
		Path: path,
		Kind: KindMutation,
		Handle: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var in In
			if len(raw) == 0 {
				return nil, Errorf(CodeBadRequest, "input required")
			}
			if err := json.Unmarshal(raw, &in); err != nil {
				return nil, Errorf(CodeBadRequest, "invalid input: %v", err)
			}
			return fn(ctx, in)
		},
	}
}

// Use returns a copy of p wrapped in mws, outermost first.
func (p Procedure) Use(mws ...Middleware) Procedure {
	for i := len(mws) - 1; i >= 0; i-- {
		p.Handle = mws[i](p.Handle)
	}
	return p
}

// Protected rejects calls made without a session.
func Protected(next Handler) Handler {
	return func(ctx context.Context, input json.RawMessage) (any, error) {
		if auth.SessionFrom(ctx) == nil {
			return nil, Errorf(CodeUnauthorized, "sign in required")
		}
		return next(ctx, input)
	}
}
