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
	"fmt"

	"github.com/brocaactivitypub/broca/ap"
)

// Stream names identify the append-only activity streams kept per actor.
const (
	StreamInbox  = "inbox"
	StreamOutbox = "outbox"
)

// AppendActivity records activity under username's stream, identified by
// activityID. A second append of the same activity ID is a silent no-op,
// making delivery and redelivery idempotent.
func (s *Store) AppendActivity(ctx context.Context, username, stream, activityID string, activity *ap.Activity) error {
	if _, err := s.DB.ExecContext(
		ctx,
		`insert into streams(username, stream, activityid, activity) values(?, ?, ?, ?) on conflict(username, stream, activityid) do nothing`,
		username, stream, activityID, activity,
	); err != nil {
		return fmt.Errorf("failed to append %s to %s/%s: %w", activityID, username, stream, err)
	}
	return nil
}

// StreamPage is one page of a username's stream, read newest-first.
type StreamPage struct {
	Activities []*ap.Activity
	Next       string
}

// ReadStream returns up to limit activities from username's stream, ordered
// newest-first starting after the activity identified by after (empty to
// start at the top), along with the activity ID to resume from for the next
// page.
func (s *Store) ReadStream(ctx context.Context, username, stream, after string, limit int) (*StreamPage, error) {
	var (
		rows *sql.Rows
		err  error
	)

	if after == "" {
		rows, err = s.DB.QueryContext(
			ctx,
			`select activityid, activity from streams where username = ? and stream = ? order by inserted desc, activityid desc limit ?`,
			username, stream, limit+1,
		)
	} else {
		rows, err = s.DB.QueryContext(
			ctx,
			`select activityid, activity from streams where username = ? and stream = ? and inserted <= (select inserted from streams where username = ? and stream = ? and activityid = ?) and activityid != ? order by inserted desc, activityid desc limit ?`,
			username, stream, username, stream, after, after, limit+1,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s/%s: %w", username, stream, err)
	}
	defer rows.Close()

	page := &StreamPage{}
	for rows.Next() {
		var id string
		var activity ap.Activity
		if err := rows.Scan(&id, &activity); err != nil {
			return nil, fmt.Errorf("failed to scan %s/%s entry: %w", username, stream, err)
		}
		if len(page.Activities) == limit {
			page.Next = id
			break
		}
		page.Activities = append(page.Activities, &activity)
	}

	return page, rows.Err()
}

// CountStream returns the total number of activities in username's stream.
func (s *Store) CountStream(ctx context.Context, username, stream string) (int, error) {
	var count int
	if err := s.DB.QueryRowContext(ctx, `select count(*) from streams where username = ? and stream = ?`, username, stream).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count %s/%s: %w", username, stream, err)
	}
	return count, nil
}

// ReadOutboxPage adapts ReadStream's StreamPage return into the plain
// (activities, cursor) shape the collections query engine expects,
// letting that package depend on store only through a narrow interface
// rather than importing this package's types directly.
func (s *Store) ReadOutboxPage(ctx context.Context, username, after string, limit int) ([]*ap.Activity, string, error) {
	page, err := s.ReadStream(ctx, username, StreamOutbox, after, limit)
	if err != nil {
		return nil, "", err
	}
	return page.Activities, page.Next, nil
}

// ActivityByID fetches a single activity from username's stream.
func (s *Store) ActivityByID(ctx context.Context, username, stream, activityID string) (*ap.Activity, error) {
	var activity ap.Activity
	if err := s.DB.QueryRowContext(ctx, `select activity from streams where username = ? and stream = ? and activityid = ?`, username, stream, activityID).Scan(&activity); err != nil {
		return nil, fmt.Errorf("failed to fetch %s from %s/%s: %w", activityID, username, stream, err)
	}
	return &activity, nil
}
