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

var ErrObjectNotFound = errors.New("object not found")

// IndexObject records that objectID was minted as part of activityID, in
// username's outbox, so ObjectByID can find it without a full stream scan.
func (s *Store) IndexObject(ctx context.Context, username, objectID, activityID string) error {
	if _, err := s.DB.ExecContext(
		ctx,
		`insert into objectindex(username, objectid, activityid) values(?, ?, ?) on conflict(objectid) do nothing`,
		username, objectID, activityID,
	); err != nil {
		return fmt.Errorf("failed to index object %s: %w", objectID, err)
	}
	return nil
}

// ObjectByID fetches the object identified by objectID from username's
// outbox, unwrapping it from its Create envelope.
func (s *Store) ObjectByID(ctx context.Context, username, objectID string) (*ap.Object, error) {
	var activityID string
	if err := s.DB.QueryRowContext(
		ctx,
		`select activityid from objectindex where username = ? and objectid = ?`,
		username, objectID,
	).Scan(&activityID); errors.Is(err, sql.ErrNoRows) {
		return nil, ErrObjectNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to look up object %s: %w", objectID, err)
	}

	activity, err := s.ActivityByID(ctx, username, StreamOutbox, activityID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch object %s: %w", objectID, err)
	}

	obj, ok := activity.UnwrapObject()
	if !ok {
		return nil, ErrObjectNotFound
	}
	return obj, nil
}
