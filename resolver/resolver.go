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

// Package resolver fetches and caches remote actor profiles, used by the
// delivery engine to pick a target inbox and by signature verification to
// locate a signer's public key.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/brocaactivitypub/broca/ap"
	"github.com/brocaactivitypub/broca/httpsig"
	"github.com/brocaactivitypub/broca/lock"
	"github.com/brocaactivitypub/broca/transport"
)

var (
	ErrInvalidScheme = errors.New("invalid scheme")
	ErrFetchFailed   = errors.New("failed to fetch actor")
)

const maxResponseBodySize = 1 << 20

type cacheEntry struct {
	actor   *ap.Actor
	fetched time.Time
}

// Resolver fetches actor profiles over HTTPS, signing every request as the
// given key, and caches them in memory for cacheTTL.
type Resolver struct {
	client   *transport.Client
	cacheTTL time.Duration

	mu    sync.Mutex
	cache map[string]cacheEntry
	locks []lock.Lock
}

// New returns a Resolver that performs at most one fetch at a time per
// actor ID and at most maxConcurrentRequests concurrent fetches overall,
// caching successful fetches for cacheTTL.
func New(client *transport.Client, cacheTTL time.Duration, maxConcurrentRequests int) *Resolver {
	if maxConcurrentRequests <= 0 {
		maxConcurrentRequests = 1
	}

	locks := make([]lock.Lock, maxConcurrentRequests)
	for i := range locks {
		locks[i] = lock.New()
	}

	return &Resolver{
		client:   client,
		cacheTTL: cacheTTL,
		cache:    map[string]cacheEntry{},
		locks:    locks,
	}
}

// Resolve fetches the actor identified by id, authenticating the request as
// key. A cached, unexpired profile is returned without a network round
// trip.
func (r *Resolver) Resolve(ctx context.Context, key httpsig.Key, id string) (*ap.Actor, error) {
	if cached, ok := r.cached(id); ok {
		return cached, nil
	}

	l := r.locks[crc32.ChecksumIEEE([]byte(id))%uint32(len(r.locks))]
	if err := l.Lock(ctx); err != nil {
		return nil, err
	}
	defer l.Unlock()

	if cached, ok := r.cached(id); ok {
		return cached, nil
	}

	actor, err := r.fetch(ctx, key, id)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.cache[id] = cacheEntry{actor: actor, fetched: time.Now()}
	r.mu.Unlock()

	return actor, nil
}

func (r *Resolver) cached(id string) (*ap.Actor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.cache[id]
	if !ok || time.Since(entry.fetched) >= r.cacheTTL {
		return nil, false
	}
	return entry.actor, true
}

func (r *Resolver) fetch(ctx context.Context, key httpsig.Key, id string) (*ap.Actor, error) {
	resp, err := r.client.Get(ctx, key, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFetchFailed, id, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFetchFailed, id, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s: %d: %s", ErrFetchFailed, id, resp.StatusCode, body)
	}

	var actor ap.Actor
	if err := actor.Scan(body); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFetchFailed, id, err)
	}

	return &actor, nil
}
