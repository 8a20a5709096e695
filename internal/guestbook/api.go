package guestbook

import (
	"context"

	"github.com/devaloi/guestbook/internal/domain"
	"github.com/devaloi/guestbook/internal/query"
	"github.com/devaloi/guestbook/internal/rpc"
)

// Remote is the client view of the guestbook procedures.
type Remote interface {
	GetAll(ctx context.Context) ([]domain.Message, error)
	PostMessage(ctx context.Context, msg domain.Message) error
}

// API calls the guestbook procedures over an rpc.Client.
type API struct {
	client *rpc.Client
}

// NewAPI creates an API.
func NewAPI(c *rpc.Client) *API {
	return &API{client: c}
}

func (a *API) GetAll(ctx context.Context) ([]domain.Message, error) {
	return rpc.CallQuery[[]domain.Message](ctx, a.client, PathGetAll)
}

func (a *API) PostMessage(ctx context.Context, msg domain.Message) error {
	_, err := rpc.CallMutation[domain.Message, rpc.Void](ctx, a.client, PathPostMessage, msg)
	return err
}

func (a *API) GetSecretMessage(ctx context.Context) (string, error) {
	return rpc.CallQuery[string](ctx, a.client, PathSecretMessage)
}

// Utils binds the procedures to a query cache.
type Utils struct {
	GetAll      *query.Query[[]domain.Message]
	PostMessage *query.Mutation[domain.Message, struct{}]
}

// NewUtils mounts getAll in cache and builds the postMessage mutation with
// its optimistic update: on mutate the in-flight getAll fetch is cancelled
// and the pending message appended to the cached list; once settled getAll
// is invalidated.
func NewUtils(cache *query.Cache, remote Remote) *Utils {
	u := &Utils{GetAll: query.NewQuery(cache, PathGetAll, remote.GetAll)}
	u.PostMessage = &query.Mutation[domain.Message, struct{}]{
		Fn: func(ctx context.Context, msg domain.Message) (struct{}, error) {
			return struct{}{}, remote.PostMessage(ctx, msg)
		},
		OnMutate: func(_ context.Context, msg domain.Message) {
			u.GetAll.Cancel()
			if prev, ok := u.GetAll.GetData(); ok {
				next := make([]domain.Message, 0, len(prev)+1)
				next = append(next, prev...)
				u.GetAll.SetData(append(next, msg))
			}
		},
		OnSettled: func(ctx context.Context, _ struct{}, _ error, _ domain.Message) {
			// A failed refetch is recorded on the getAll entry.
			_ = u.GetAll.Invalidate(ctx)
		},
	}
	return u
}
