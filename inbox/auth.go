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

package inbox

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/brocaactivitypub/broca/httpsig"
)

// ErrUnauthorized is returned when neither the admin bearer token nor a
// valid HTTP Signature authenticates an inbound request.
var ErrUnauthorized = errors.New("unauthorized")

// Authenticate runs the short-circuit authentication chain: an admin bearer
// token addressed to the system actor's inbox is accepted outright; absent
// that, a valid HTTP Signature is required whenever signature-required mode
// is on. It reports whether the request was accepted as administrative.
func (p *Processor) Authenticate(ctx context.Context, r *http.Request, body []byte, targetUsername string) (admin bool, err error) {
	if targetUsername == p.Config.SystemActorUsername && p.Config.AdminAPIToken != "" {
		if token, ok := bearerToken(r); ok && subtle.ConstantTimeCompare([]byte(token), []byte(p.Config.AdminAPIToken)) == 1 {
			return true, nil
		}
	}

	if p.Config.RequireHTTPSignatures != nil && !*p.Config.RequireHTTPSignatures {
		return false, nil
	}

	sig, err := httpsig.Extract(r, body, p.Config.PrimaryDomain, time.Now(), p.Config.MaxRequestAge)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}

	key, err := p.KeyFetch.Fetch(ctx, sig.KeyID)
	if err != nil {
		return false, fmt.Errorf("%w: failed to resolve %s: %w", ErrUnauthorized, sig.KeyID, err)
	}

	if err := sig.Verify(key); err != nil {
		// the signer may have rotated its key since the cached fetch; evict
		// and let the next attempt refill the cache
		p.KeyFetch.Evict(ctx, sig.KeyID)
		return false, fmt.Errorf("%w: signature verification failed for %s: %w", ErrUnauthorized, sig.KeyID, err)
	}

	return false, nil
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) {
		return "", false
	}
	return strings.TrimPrefix(h, prefix), true
}
