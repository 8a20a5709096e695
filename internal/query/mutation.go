package query

import "context"

// Mutation wraps a write with lifecycle hooks.
//
// OnMutate runs before Fn. OnSuccess or OnError runs after Fn returns, then
// OnSettled runs unconditionally.
type Mutation[In, Out any] struct {
	Fn        func(ctx context.Context, in In) (Out, error)
	OnMutate  func(ctx context.Context, in In)
	OnSuccess func(ctx context.Context, out Out, in In)
	OnError   func(ctx context.Context, err error, in In)
	OnSettled func(ctx context.Context, out Out, err error, in In)
}

// Mutate runs the mutation and its hooks, returning Fn's result.
func (m *Mutation[In, Out]) Mutate(ctx context.Context, in In) (Out, error) {
	if m.OnMutate != nil {
		m.OnMutate(ctx, in)
	}
	out, err := m.Fn(ctx, in)
	if err != nil {
		if m.OnError != nil {
			m.OnError(ctx, err, in)
		}
	} else if m.OnSuccess != nil {
		m.OnSuccess(ctx, out, in)
	}
	if m.OnSettled != nil {
		m.OnSettled(ctx, out, err, in)
	}
	return out, err
}
