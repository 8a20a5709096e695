package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// TokenSource yields the bearer token for a call, or "" for anonymous calls.
type TokenSource func() (string, error)

// Client calls procedures on a remote Router.
type Client struct {
	baseURL string
	http    *http.Client
	token   TokenSource
}

// NewClient creates a client for the router mounted at baseURL + "/api/trpc".
// token may be nil.
func NewClient(baseURL string, hc *http.Client, token TokenSource) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc, token: token}
}

// Call invokes the procedure at path and decodes its output into out.
func (c *Client) Call(ctx context.Context, kind Kind, path string, input, out any) error {
	url := c.baseURL + "/api/trpc/" + path
	method := http.MethodGet
	var body io.Reader
	if kind == KindMutation {
		method = http.MethodPost
		data, err := json.Marshal(input)
		if err != nil {
			return fmt.Errorf("encode input: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != nil {
		token, err := c.token()
		if err != nil {
			return fmt.Errorf("session token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env struct {
		Result *struct {
			Data json.RawMessage `json:"data"`
		} `json:"result"`
		Error *Error `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return &Error{Code: CodeInternal, Message: fmt.Sprintf("%s: undecodable response (%v)", resp.Status, err)}
	}
	if env.Error != nil {
		return env.Error
	}
	if env.Result == nil {
		return &Error{Code: CodeInternal, Message: resp.Status + ": empty response"}
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(env.Result.Data, out)
}

// CallQuery invokes an input-less query.
func CallQuery[Out any](ctx context.Context, c *Client, path string) (Out, error) {
	var out Out
	err := c.Call(ctx, KindQuery, path, nil, &out)
	return out, err
}

// CallMutation invokes a mutation.
func CallMutation[In, Out any](ctx context.Context, c *Client, path string, in In) (Out, error) {
	var out Out
	err := c.Call(ctx, KindMutation, path, in, &out)
	return out, err
}
