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

// Package keyfetch resolves the public key behind an HTTP Signature's keyId,
// consulting the public-key cache before falling back to a signed actor
// fetch performed as the server's system actor.
package keyfetch

import (
	"context"
	"crypto/rsa"
	"fmt"
	"time"

	"github.com/brocaactivitypub/broca/data"
	"github.com/brocaactivitypub/broca/httpsig"
	"github.com/brocaactivitypub/broca/resolver"
	"github.com/brocaactivitypub/broca/store"
)

// Fetcher resolves a keyId to an RSA public key, using store as the
// public-key cache and resolver to fetch the owning actor when uncached.
// Every uncached fetch is signed as systemKey (the system actor's own
// key), so strict peers that require authenticated fetches accept it.
type Fetcher struct {
	Store     *store.Store
	Resolver  *resolver.Resolver
	SystemKey httpsig.Key
	CacheTTL  time.Duration
}

// Fetch returns the RSA public key published under keyId, by owning actor
// ID (the keyId with any fragment stripped is assumed to equal the actor's
// own ID, per convention; the fetched actor's publicKey.id is still
// cross-checked against keyId).
func (f *Fetcher) Fetch(ctx context.Context, keyID string) (*rsa.PublicKey, error) {
	now := time.Now()

	if pem, err := f.Store.CachedKey(ctx, keyID, now); err == nil {
		return data.DecodePublicKey(pem)
	}

	actor, err := f.Resolver.Resolve(ctx, f.SystemKey, keyID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve owner of %s: %w", keyID, err)
	}

	if actor.PublicKey.ID != keyID {
		return nil, fmt.Errorf("key owner %s does not publish %s", actor.ID, keyID)
	}

	if actor.PublicKey.PublicKeyPem == "" {
		return nil, fmt.Errorf("actor %s has no public key", actor.ID)
	}

	key, err := data.DecodePublicKey(actor.PublicKey.PublicKeyPem)
	if err != nil {
		return nil, fmt.Errorf("failed to decode public key for %s: %w", keyID, err)
	}

	if err := f.Store.CacheKey(ctx, keyID, actor.PublicKey.PublicKeyPem, now, f.CacheTTL); err != nil {
		return nil, fmt.Errorf("failed to cache public key for %s: %w", keyID, err)
	}

	return key, nil
}

// Evict drops a cached key, forcing the next Fetch to refetch it. Callers
// should invoke this after a verification failure against a cached key, in
// case the remote actor rotated its key.
func (f *Fetcher) Evict(ctx context.Context, keyID string) error {
	return f.Store.EvictKey(ctx, keyID)
}
