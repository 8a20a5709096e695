// Package guestbook defines the guestbook procedures: the server side
// served through an rpc.Router and the typed client bound to a query cache.
package guestbook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/devaloi/guestbook/internal/domain"
	"github.com/devaloi/guestbook/internal/rpc"
	"github.com/devaloi/guestbook/internal/store"
)

// Procedure paths.
const (
	PathGetAll        = domain.TopicGetAll
	PathPostMessage   = "guestbook.postMessage"
	PathSecretMessage = "auth.getSecretMessage"
)

// SecretMessage is what signed-in callers of auth.getSecretMessage receive.
const SecretMessage = "you can now see this secret message!"

// Publisher announces that the data behind a topic changed.
type Publisher interface {
	Publish(topic string)
}

// Service implements the procedures on top of a message store.
type Service struct {
	store store.Store
	pub   Publisher
	log   *slog.Logger
}

// NewService creates a Service. pub may be nil.
func NewService(s store.Store, pub Publisher, log *slog.Logger) *Service {
	return &Service{store: s, pub: pub, log: log}
}

// GetAll returns every message in insertion order.
func (s *Service) GetAll(ctx context.Context) ([]domain.Message, error) {
	msgs, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}
	return msgs, nil
}

// PostMessage validates and stores msg, then invalidates getAll for live
// subscribers.
func (s *Service) PostMessage(ctx context.Context, msg domain.Message) (rpc.Void, error) {
	if err := msg.Validate(); err != nil {
		return rpc.Void{}, err
	}
	if err := s.store.Save(ctx, msg); err != nil {
		return rpc.Void{}, fmt.Errorf("save message: %w", err)
	}
	s.log.Info("message posted", "name", msg.Name, "length", len([]rune(msg.Message)))
	if s.pub != nil {
		s.pub.Publish(domain.TopicGetAll)
	}
	return rpc.Void{}, nil
}

// GetSecretMessage is only reachable with a session.
func (s *Service) GetSecretMessage(context.Context) (string, error) {
	return SecretMessage, nil
}

// Procedures returns the procedures to register on a router.
func (s *Service) Procedures() []rpc.Procedure {
	return []rpc.Procedure{
		rpc.Query(PathGetAll, s.GetAll),
		rpc.Mutation(PathPostMessage, s.PostMessage).Use(rpc.Protected),
		rpc.Query(PathSecretMessage, s.GetSecretMessage).Use(rpc.Protected),
	}
}

// Local adapts s to Remote for in-process callers such as the server-rendered page.
func (s *Service) Local() Remote {
	return local{s}
}

type local struct{ s *Service }

func (l local) GetAll(ctx context.Context) ([]domain.Message, error) {
	return l.s.GetAll(ctx)
}

func (l local) PostMessage(ctx context.Context, msg domain.Message) error {
	_, err := l.s.PostMessage(ctx, msg)
	return err
}
