package rpc

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/devaloi/guestbook/internal/rpc"

// maxInputSize bounds a mutation body.
const maxInputSize = 64 << 10

// unknownPath labels calls to unregistered procedures so arbitrary URLs
// cannot grow the metric and span name sets.
const unknownPath = "unknown"

type envelope struct {
	Result *result `json:"result,omitempty"`
	Error  *Error  `json:"error,omitempty"`
}

type result struct {
	Data any `json:"data"`
}

// Router dispatches HTTP requests to registered procedures.
type Router struct {
	procs   map[string]Procedure
	log     *slog.Logger
	metrics *Metrics
	tracer  trace.Tracer
}

// NewRouter creates an empty router. metrics may be nil.
func NewRouter(log *slog.Logger, metrics *Metrics) *Router {
	return &Router{
		procs:   make(map[string]Procedure),
		log:     log,
		metrics: metrics,
		tracer:  otel.Tracer(tracerName),
	}
}

// Register adds procedures. Registering the same path twice panics.
func (rt *Router) Register(ps ...Procedure) {
	for _, p := range ps {
		if _, dup := rt.procs[p.Path]; dup {
			panic(fmt.Sprintf("rpc: procedure %q registered twice", p.Path))
		}
		rt.procs[p.Path] = p
	}
}

// Paths lists the registered procedure paths, sorted.
func (rt *Router) Paths() []string {
	paths := make([]string, 0, len(rt.procs))
	for p := range rt.procs {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Handler returns an http.Handler serving /{path}. Mount it under /api/trpc.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()
	r.HandleFunc("/{path}", rt.serve)
	return r
}

func (rt *Router) serve(w http.ResponseWriter, r *http.Request) {
	path := chi.URLParam(r, "path")
	start := time.Now()

	label := path
	if _, ok := rt.procs[path]; !ok {
		label = unknownPath
	}

	ctx, span := rt.tracer.Start(r.Context(), "rpc "+label,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attribute.String("rpc.path", label)))
	defer span.End()

	data, err := rt.dispatch(w, r.WithContext(ctx), path)
	if err == nil {
		rt.metrics.observe(label, "", time.Since(start))
		writeJSON(w, http.StatusOK, envelope{Result: &result{Data: data}})
		return
	}

	rpcErr, known := toError(err)
	if !known {
		rt.log.Error("procedure failed", "path", path, "error", err)
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, string(rpcErr.Code))
	rt.metrics.observe(label, rpcErr.Code, time.Since(start))
	writeJSON(w, rpcErr.HTTPStatus(), envelope{Error: rpcErr})
}

func (rt *Router) dispatch(w http.ResponseWriter, r *http.Request, path string) (any, error) {
	p, ok := rt.procs[path]
	if !ok {
		return nil, Errorf(CodeNotFound, "no procedure %q", path)
	}

	var input json.RawMessage
	switch {
	case p.Kind == KindQuery && r.Method == http.MethodGet:
		if raw := r.URL.Query().Get("input"); raw != "" {
			input = json.RawMessage(raw)
		}
	case p.Kind == KindMutation && r.Method == http.MethodPost:
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxInputSize))
		if err != nil {
			return nil, Errorf(CodeBadRequest, "read input: %v", err)
		}
		input = body
	default:
		return nil, Errorf(CodeMethodNotSupported, "%s not allowed for %s %q", r.Method, p.Kind, path)
	}

	return p.Handle(r.Context(), input)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
