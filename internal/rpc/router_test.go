package rpc

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/devaloi/guestbook/internal/auth"
	"github.com/devaloi/guestbook/internal/domain"
)

type echoInput struct {
	Text string `json:"text"`
}

func newTestServer(t *testing.T, metrics *Metrics, ps ...Procedure) *httptest.Server {
	t.Helper()
	rt := NewRouter(slog.Default(), metrics)
	rt.Register(ps...)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "Bearer ok" {
				r = r.WithContext(auth.WithSession(r.Context(), &domain.Session{User: domain.User{Name: "Ada"}}))
			}
			next.ServeHTTP(w, r)
		})
	})
	r.Mount("/api/trpc", rt.Handler())
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestQueryRoundTrip(t *testing.T) {
	req := require.New(t)
	srv := newTestServer(t, nil, Query("greeting.hello", func(context.Context) ([]string, error) {
		return []string{"a", "b"}, nil
	}))
	c := NewClient(srv.URL, srv.Client(), nil)

	got, err := CallQuery[[]string](context.Background(), c, "greeting.hello")
	req.NoError(err)
	req.Equal([]string{"a", "b"}, got)
}

func TestMutationRoundTrip(t *testing.T) {
	req := require.New(t)
	var received echoInput
	srv := newTestServer(t, nil, Mutation("echo.set", func(_ context.Context, in echoInput) (Void, error) {
		received = in
		return Void{}, nil
	}))
	c := NewClient(srv.URL, srv.Client(), nil)

	_, err := CallMutation[echoInput, Void](context.Background(), c, "echo.set", echoInput{Text: "hi"})
	req.NoError(err)
	req.Equal("hi", received.Text)
}

func TestWireEnvelope(t *testing.T) {
	req := require.New(t)
	srv := newTestServer(t, nil,
		Query("q.one", func(context.Context) (int, error) { return 1, nil }),
		Mutation("m.void", func(context.Context, echoInput) (Void, error) { return Void{}, nil }),
	)

	resp, err := http.Get(srv.URL + "/api/trpc/q.one")
	req.NoError(err)
	body := readAll(t, resp)
	req.Equal(`{"result":{"data":1}}`, body)

	resp, err = http.Post(srv.URL+"/api/trpc/m.void", "application/json", strings.NewReader(`{"text":"x"}`))
	req.NoError(err)
	req.Equal(`{"result":{"data":null}}`, readAll(t, resp))
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   Code
		status int
		is     error
	}{
		{"validation", domain.ErrInvalidMessage, CodeBadRequest, http.StatusBadRequest, domain.ErrInvalidMessage},
		{"auth", domain.ErrUnauthorized, CodeUnauthorized, http.StatusUnauthorized, domain.ErrUnauthorized},
		{"not found", domain.ErrNotFound, CodeNotFound, http.StatusNotFound, domain.ErrNotFound},
		{"unexpected", errors.New("disk on fire"), CodeInternal, http.StatusInternalServerError, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			srv := newTestServer(t, nil, Query("fail", func(context.Context) (int, error) { return 0, tt.err }))

			resp, err := http.Get(srv.URL + "/api/trpc/fail")
			req.NoError(err)
			resp.Body.Close()
			req.Equal(tt.status, resp.StatusCode)

			_, err = CallQuery[int](context.Background(), NewClient(srv.URL, nil, nil), "fail")
			var rpcErr *Error
			req.ErrorAs(err, &rpcErr)
			req.Equal(tt.code, rpcErr.Code)
			if tt.is != nil {
				req.ErrorIs(err, tt.is)
			}
			if tt.code == CodeInternal {
				req.NotContains(rpcErr.Message, "disk on fire")
			}
		})
	}
}

func TestUnknownProcedure(t *testing.T) {
	srv := newTestServer(t, nil)
	_, err := CallQuery[int](context.Background(), NewClient(srv.URL, nil, nil), "nope")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMethodNotSupported(t *testing.T) {
	req := require.New(t)
	srv := newTestServer(t, nil,
		Query("q", func(context.Context) (int, error) { return 1, nil }),
		Mutation("m", func(context.Context, echoInput) (Void, error) { return Void{}, nil }),
	)

	resp, err := http.Post(srv.URL+"/api/trpc/q", "application/json", nil)
	req.NoError(err)
	resp.Body.Close()
	req.Equal(http.StatusMethodNotAllowed, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/trpc/m")
	req.NoError(err)
	resp.Body.Close()
	req.Equal(http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestMutationRejectsBadInput(t *testing.T) {
	req := require.New(t)
	srv := newTestServer(t, nil, Mutation("m", func(context.Context, echoInput) (Void, error) { return Void{}, nil }))

	for _, body := range []string{"", "{not json"} {
		resp, err := http.Post(srv.URL+"/api/trpc/m", "application/json", strings.NewReader(body))
		req.NoError(err)
		resp.Body.Close()
		req.Equal(http.StatusBadRequest, resp.StatusCode, body)
	}
}

func TestProtectedProcedure(t *testing.T) {
	req := require.New(t)
	p := Query("secret", func(ctx context.Context) (string, error) {
		return "hello " + auth.SessionFrom(ctx).User.Name, nil
	}).Use(Protected)
	srv := newTestServer(t, nil, p)

	_, err := CallQuery[string](context.Background(), NewClient(srv.URL, nil, nil), "secret")
	req.ErrorIs(err, domain.ErrUnauthorized)

	token := func() (string, error) { return "ok", nil }
	got, err := CallQuery[string](context.Background(), NewClient(srv.URL, nil, token), "secret")
	req.NoError(err)
	req.Equal("hello Ada", got)
}

func TestMetricsCountCalls(t *testing.T) {
	req := require.New(t)
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	srv := newTestServer(t, m,
		Query("ok", func(context.Context) (int, error) { return 1, nil }),
		Query("bad", func(context.Context) (int, error) { return 0, domain.ErrInvalidMessage }),
	)
	c := NewClient(srv.URL, nil, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for i := 0; i < 3; i++ {
		_, err := CallQuery[int](ctx, c, "ok")
		req.NoError(err)
	}
	_, err := CallQuery[int](ctx, c, "bad")
	req.Error(err)

	req.Equal(3.0, testutil.ToFloat64(m.requests.WithLabelValues("ok", "OK")))
	req.Equal(1.0, testutil.ToFloat64(m.requests.WithLabelValues("bad", string(CodeBadRequest))))
}

func TestMetricsCollapseUnknownPaths(t *testing.T) {
	req := require.New(t)
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	srv := newTestServer(t, m, Query("ok", func(context.Context) (int, error) { return 1, nil }))

	for _, path := range []string{"junk1", "junk2", "junk3"} {
		resp, err := http.Get(srv.URL + "/api/trpc/" + path)
		req.NoError(err)
		resp.Body.Close()
		req.Equal(http.StatusNotFound, resp.StatusCode)
	}

	req.Equal(1, testutil.CollectAndCount(m.requests))
	req.Equal(1, testutil.CollectAndCount(m.duration))
	req.Equal(3.0, testutil.ToFloat64(m.requests.WithLabelValues(unknownPath, string(CodeNotFound))))
}

func TestRegisterTwicePanics(t *testing.T) {
	rt := NewRouter(slog.Default(), nil)
	p := Query("dup", func(context.Context) (int, error) { return 0, nil })
	rt.Register(p)
	require.Panics(t, func() { rt.Register(p) })
	require.Equal(t, []string{"dup"}, rt.Paths())
}

func readAll(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	var b strings.Builder
	_, err := io.Copy(&b, resp.Body)
	require.NoError(t, err)
	return strings.TrimSpace(b.String())
}
