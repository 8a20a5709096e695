package query

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMutationHookOrderOnSuccess(t *testing.T) {
	req := require.New(t)
	var order []string
	m := &Mutation[string, int]{
		Fn: func(_ context.Context, in string) (int, error) {
			order = append(order, "fn:"+in)
			return len(in), nil
		},
		OnMutate:  func(context.Context, string) { order = append(order, "mutate") },
		OnSuccess: func(context.Context, int, string) { order = append(order, "success") },
		OnError:   func(context.Context, error, string) { order = append(order, "error") },
		OnSettled: func(context.Context, int, error, string) { order = append(order, "settled") },
	}

	out, err := m.Mutate(context.Background(), "abc")
	req.NoError(err)
	req.Equal(3, out)
	req.Equal([]string{"mutate", "fn:abc", "success", "settled"}, order)
}

func TestMutationSettlesOnFailure(t *testing.T) {
	req := require.New(t)
	boom := errors.New("boom")
	var settledErr error
	var order []string
	m := &Mutation[string, int]{
		Fn:        func(context.Context, string) (int, error) { return 0, boom },
		OnSuccess: func(context.Context, int, string) { order = append(order, "success") },
		OnError:   func(context.Context, error, string) { order = append(order, "error") },
		OnSettled: func(_ context.Context, _ int, err error, _ string) {
			order = append(order, "settled")
			settledErr = err
		},
	}

	_, err := m.Mutate(context.Background(), "x")
	req.ErrorIs(err, boom)
	req.ErrorIs(settledErr, boom)
	req.Equal([]string{"error", "settled"}, order)
}

func TestMutationWithoutHooks(t *testing.T) {
	m := &Mutation[int, int]{Fn: func(_ context.Context, in int) (int, error) { return in * 2, nil }}
	out, err := m.Mutate(context.Background(), 21)
	require.NoError(t, err)
	require.Equal(t, 42, out)
}
