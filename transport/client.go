/*
Copyright 2023 - 2026 Dima Krasner

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package transport sends signed HTTP requests to other servers: signed GET
// for actor and public-key resolution, signed POST for activity delivery.
package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/brocaactivitypub/broca/httpsig"
	"golang.org/x/net/http2"
)

const userAgent = "broca/1.0"

// ActivityContentType is the media type used for both outgoing delivery
// POSTs and the Accept header of actor/object fetches.
const ActivityContentType = `application/activity+json`

// Client sends signed requests on behalf of a local actor or the system
// actor, enforcing the same scheme/host restrictions federated peers expect.
type Client struct {
	HTTP *http.Client
}

// New returns a Client with the given per-request timeout. The underlying
// transport negotiates HTTP/2 over TLS where the peer supports it, falling
// back to HTTP/1.1 otherwise, per the "HTTP/1.1 or HTTP/2" wire protocol
// requirement.
func New(timeout time.Duration) *Client {
	tr := &http.Transport{}
	if err := http2.ConfigureTransport(tr); err != nil {
		tr = &http.Transport{}
	}
	return &Client{HTTP: &http.Client{Timeout: timeout, Transport: tr}}
}

// Get issues a signed GET request to url, authenticated as key.
func (c *Client) Get(ctx context.Context, key httpsig.Key, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", url, err)
	}
	req.Header.Set("Accept", ActivityContentType)
	return c.send(key, req)
}

// Post issues a signed POST request carrying body to url, authenticated as
// key.
func (c *Client) Post(ctx context.Context, key httpsig.Key, url string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", url, err)
	}
	req.Body = io.NopCloser(bytes.NewReader(body))
	req.ContentLength = int64(len(body))
	req.Header.Set("Content-Type", ActivityContentType)
	return c.send(key, req)
}

func (c *Client) send(key httpsig.Key, req *http.Request) (*http.Response, error) {
	if req.URL.Scheme != "https" {
		return nil, fmt.Errorf("invalid scheme in %s: %s", req.URL, req.URL.Scheme)
	}

	switch req.URL.Hostname() {
	case "localhost", "localhost.localdomain", "127.0.0.1", "::1":
		return nil, fmt.Errorf("invalid host in %s: %s", req.URL, req.URL.Host)
	}

	req.Header.Set("User-Agent", userAgent)

	if err := httpsig.Sign(req, key, time.Now()); err != nil {
		return nil, fmt.Errorf("failed to sign request to %s: %w", req.URL, err)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to %s: %w", req.URL, err)
	}

	return resp, nil
}
