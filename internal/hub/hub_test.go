package hub

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/devaloi/guestbook/internal/domain"
	"github.com/devaloi/guestbook/internal/testutil"
)

func newHub(t *testing.T, maxTopics int) *Hub {
	t.Helper()
	h := New(maxTopics, slog.New(slog.DiscardHandler))
	go h.Run()
	t.Cleanup(h.Stop)
	return h
}

func TestHubCreateTopic(t *testing.T) {
	t.Parallel()
	h := newHub(t, 100)

	s := testutil.NewMockSubscriber("alice")
	h.Subscribe(s, domain.TopicGetAll)

	require.Eventually(t, func() bool {
		topics := h.Topics()
		return len(topics) == 1 && topics[0].Subscribers == 1
	}, time.Second, 10*time.Millisecond)
	require.Equal(t, domain.TopicGetAll, h.Topics()[0].Name)
}

func TestHubPublishReachesSubscribers(t *testing.T) {
	t.Parallel()
	h := newHub(t, 100)

	a := testutil.NewMockSubscriber("alice")
	b := testutil.NewMockSubscriber("bob")
	other := testutil.NewMockSubscriber("carol")
	h.Subscribe(a, domain.TopicGetAll)
	h.Subscribe(b, domain.TopicGetAll)
	h.Subscribe(other, "something.else")
	require.Eventually(t, func() bool { return len(h.Topics()) == 2 }, time.Second, 10*time.Millisecond)

	h.Publish(domain.TopicGetAll)

	for _, s := range []*testutil.MockSubscriber{a, b} {
		require.Eventually(t, func() bool { return s.Count(domain.EventInvalidate) == 1 }, time.Second, 10*time.Millisecond, s.Name)
		require.Equal(t, domain.Event{Type: domain.EventInvalidate, Topic: domain.TopicGetAll}, s.Events()[0])
	}
	time.Sleep(50 * time.Millisecond)
	require.Empty(t, other.Events())
}

func TestHubPublishWithoutSubscribers(t *testing.T) {
	t.Parallel()
	h := newHub(t, 100)
	h.Publish(domain.TopicGetAll)
	require.Empty(t, h.Topics())
}

func TestHubAutoCleanup(t *testing.T) {
	t.Parallel()
	h := newHub(t, 100)

	s := testutil.NewMockSubscriber("alice")
	h.Subscribe(s, "temp")
	require.Eventually(t, func() bool { return len(h.Topics()) == 1 }, time.Second, 10*time.Millisecond)

	h.Unsubscribe(s, "temp")
	require.Eventually(t, func() bool { return len(h.Topics()) == 0 }, time.Second, 10*time.Millisecond)
}

func TestHubMaxTopics(t *testing.T) {
	t.Parallel()
	h := newHub(t, 2)

	h.Subscribe(testutil.NewMockSubscriber("alice"), "one")
	h.Subscribe(testutil.NewMockSubscriber("bob"), "two")
	carol := testutil.NewMockSubscriber("carol")
	h.Subscribe(carol, "three")

	require.Eventually(t, func() bool { return carol.Count(domain.EventError) == 1 }, time.Second, 10*time.Millisecond)
	require.Len(t, h.Topics(), 2)
	require.Equal(t, "max topics reached", carol.Events()[0].Message)
}

func TestHubCallsAfterStopDoNotBlock(t *testing.T) {
	h := New(1, slog.New(slog.DiscardHandler))
	go h.Run()
	h.Stop()
	h.Stop()

	done := make(chan struct{})
	go func() {
		for range 1000 {
			h.Publish("x")
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked after stop")
	}
}
