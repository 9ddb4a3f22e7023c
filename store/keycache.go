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

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrKeyNotCached is returned by CachedKey when keyID has no unexpired entry.
var ErrKeyNotCached = errors.New("key not cached")

// CachedKey returns the PEM-encoded public key cached under keyID, if it
// hasn't expired yet.
func (s *Store) CachedKey(ctx context.Context, keyID string, now time.Time) (string, error) {
	var pem string
	var expires int64
	err := s.DB.QueryRowContext(ctx, `select pem, expires from keycache where keyid = ?`, keyID).Scan(&pem, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrKeyNotCached
	} else if err != nil {
		return "", fmt.Errorf("failed to look up cached key %s: %w", keyID, err)
	}

	if now.Unix() >= expires {
		return "", ErrKeyNotCached
	}

	return pem, nil
}

// CacheKey stores keyID's PEM-encoded public key, replacing any prior entry,
// with an expiry of now+ttl.
func (s *Store) CacheKey(ctx context.Context, keyID, pem string, now time.Time, ttl time.Duration) error {
	if _, err := s.DB.ExecContext(
		ctx,
		`insert into keycache(keyid, pem, expires) values(?, ?, ?) on conflict(keyid) do update set pem = excluded.pem, expires = excluded.expires`,
		keyID, pem, now.Add(ttl).Unix(),
	); err != nil {
		return fmt.Errorf("failed to cache key %s: %w", keyID, err)
	}
	return nil
}

// EvictKey drops a cached key, forcing the next lookup to refetch it. Used
// when a signature verification fails against a cached key, in case the
// remote actor rotated its key.
func (s *Store) EvictKey(ctx context.Context, keyID string) error {
	if _, err := s.DB.ExecContext(ctx, `delete from keycache where keyid = ?`, keyID); err != nil {
		return fmt.Errorf("failed to evict cached key %s: %w", keyID, err)
	}
	return nil
}
