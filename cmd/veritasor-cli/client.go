package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/soomtochukwu/Veritasor-Contracts-sub001/rpc"
)

type client struct {
	endpoint string
	caller   string
	token    func() (string, error)
	http     *http.Client
}

func newClient(endpoint, caller string, token func() (string, error)) *client {
	return &client{
		endpoint: strings.TrimRight(strings.TrimSpace(endpoint), "/"),
		caller:   strings.TrimSpace(caller),
		token:    token,
		http:     &http.Client{Timeout: 15 * time.Second},
	}
}

// apiError is a non-2xx response decoded from the server's error body.
type apiError struct {
	Status int
	Body   rpc.ErrorBody
}

func (e *apiError) Error() string {
	if e.Body.Code != "" {
		return fmt.Sprintf("%d %s: %s", e.Status, e.Body.Code, e.Body.Error)
	}
	return fmt.Sprintf("%d: %s", e.Status, e.Body.Error)
}

type requestOpts struct {
	asCaller bool
	admin    bool
}

func (c *client) call(ctx context.Context, method, path string, body, out interface{}, opts requestOpts) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if opts.asCaller {
		if c.caller == "" {
			return fmt.Errorf("caller required; pass --caller or set %s", callerEnv)
		}
		req.Header.Set(rpc.CallerHeader, c.caller)
	}
	if opts.admin && c.token != nil {
		token, err := c.token()
		if err != nil {
			return err
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
	if resp.StatusCode >= 300 {
		apiErr := &apiError{Status: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr.Body); err != nil {
			apiErr.Body.Error = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
