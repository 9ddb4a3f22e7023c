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
)

var ErrBlobNotFound = errors.New("blob not found")

// Blob is a stored media attachment.
type Blob struct {
	ContentType string
	Data        []byte
}

// InsertBlob stores a downloaded or locally-uploaded media attachment under
// username, identified by id.
func (s *Store) InsertBlob(ctx context.Context, username, id, contentType string, data []byte) error {
	if _, err := s.DB.ExecContext(
		ctx,
		`insert into blobs(username, id, contenttype, data) values(?, ?, ?, ?) on conflict(username, id) do update set contenttype = excluded.contenttype, data = excluded.data`,
		username, id, contentType, data,
	); err != nil {
		return fmt.Errorf("failed to store blob %s/%s: %w", username, id, err)
	}
	return nil
}

// Blob fetches a stored media attachment.
func (s *Store) Blob(ctx context.Context, username, id string) (*Blob, error) {
	var b Blob
	if err := s.DB.QueryRowContext(ctx, `select contenttype, data from blobs where username = ? and id = ?`, username, id).Scan(&b.ContentType, &b.Data); errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBlobNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to fetch blob %s/%s: %w", username, id, err)
	}
	return &b, nil
}

// DeleteBlob removes a stored media attachment.
func (s *Store) DeleteBlob(ctx context.Context, username, id string) error {
	if _, err := s.DB.ExecContext(ctx, `delete from blobs where username = ? and id = ?`, username, id); err != nil {
		return fmt.Errorf("failed to delete blob %s/%s: %w", username, id, err)
	}
	return nil
}
