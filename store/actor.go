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

	"github.com/brocaactivitypub/broca/ap"
)

var ErrActorNotFound = errors.New("actor not found")

// InsertActor persists a freshly minted local actor and its private key, PEM-encoded.
func (s *Store) InsertActor(ctx context.Context, username string, actor *ap.Actor, privateKeyPem string) error {
	if _, err := s.DB.ExecContext(ctx, `insert into persons(id, username, actor, privkey) values(?, ?, ?, ?)`, actor.ID, username, actor, privateKeyPem); err != nil {
		return fmt.Errorf("failed to insert actor %s: %w", actor.ID, err)
	}
	return nil
}

// ActorByUsername fetches a local actor by its username.
func (s *Store) ActorByUsername(ctx context.Context, username string) (*ap.Actor, error) {
	var actor ap.Actor
	if err := s.DB.QueryRowContext(ctx, `select actor from persons where username = ?`, username).Scan(&actor); errors.Is(err, sql.ErrNoRows) {
		return nil, ErrActorNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to fetch actor %s: %w", username, err)
	}
	return &actor, nil
}

// ActorByID fetches a local actor by its ID (the full actor URI).
func (s *Store) ActorByID(ctx context.Context, id string) (*ap.Actor, error) {
	var actor ap.Actor
	if err := s.DB.QueryRowContext(ctx, `select actor from persons where id = ?`, id).Scan(&actor); errors.Is(err, sql.ErrNoRows) {
		return nil, ErrActorNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to fetch actor %s: %w", id, err)
	}
	return &actor, nil
}

// PrivateKeyByUsername fetches a local actor's PEM-encoded private key.
func (s *Store) PrivateKeyByUsername(ctx context.Context, username string) (string, error) {
	var pem string
	if err := s.DB.QueryRowContext(ctx, `select privkey from persons where username = ?`, username).Scan(&pem); errors.Is(err, sql.ErrNoRows) {
		return "", ErrActorNotFound
	} else if err != nil {
		return "", fmt.Errorf("failed to fetch private key for %s: %w", username, err)
	}
	return pem, nil
}

// UpdateActor overwrites a local actor's stored representation.
func (s *Store) UpdateActor(ctx context.Context, actor *ap.Actor) error {
	res, err := s.DB.ExecContext(ctx, `update persons set actor = ? where id = ?`, actor, actor.ID)
	if err != nil {
		return fmt.Errorf("failed to update actor %s: %w", actor.ID, err)
	}

	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrActorNotFound
	}

	return nil
}

// DeleteActorByUsername removes a local actor.
func (s *Store) DeleteActorByUsername(ctx context.Context, username string) error {
	res, err := s.DB.ExecContext(ctx, `delete from persons where username = ?`, username)
	if err != nil {
		return fmt.Errorf("failed to delete actor %s: %w", username, err)
	}

	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrActorNotFound
	}

	return nil
}
