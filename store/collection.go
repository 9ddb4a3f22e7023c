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

	"github.com/brocaactivitypub/broca/collections"
)

var ErrCollectionNotFound = errors.New("collection not found")

// InsertCollection persists a newly created custom collection.
func (s *Store) InsertCollection(ctx context.Context, d *collections.Definition) error {
	if _, err := s.DB.ExecContext(
		ctx,
		`insert into collections(username, id, name, description, type, visibility, sortorder, maxitems, items, queryfilter) values(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.Username, d.ID, d.Name, d.Description, d.Type, d.Visibility, d.SortOrder, d.MaxItems, d.Items, d.Filter,
	); err != nil {
		return fmt.Errorf("failed to insert collection %s/%s: %w", d.Username, d.ID, err)
	}
	return nil
}

// Collection fetches one custom collection by owner and id.
func (s *Store) Collection(ctx context.Context, username, id string) (*collections.Definition, error) {
	d := collections.Definition{Username: username, ID: id}
	err := s.DB.QueryRowContext(
		ctx,
		`select name, description, type, visibility, sortorder, maxitems, items, queryfilter from collections where username = ? and id = ?`,
		username, id,
	).Scan(&d.Name, &d.Description, &d.Type, &d.Visibility, &d.SortOrder, &d.MaxItems, &d.Items, &d.Filter)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCollectionNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to fetch collection %s/%s: %w", username, id, err)
	}
	return &d, nil
}

// Collections lists every custom collection owned by username.
func (s *Store) Collections(ctx context.Context, username string) ([]*collections.Definition, error) {
	rows, err := s.DB.QueryContext(
		ctx,
		`select id, name, description, type, visibility, sortorder, maxitems, items, queryfilter from collections where username = ? order by inserted`,
		username,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections for %s: %w", username, err)
	}
	defer rows.Close()

	var list []*collections.Definition
	for rows.Next() {
		d := collections.Definition{Username: username}
		if err := rows.Scan(&d.ID, &d.Name, &d.Description, &d.Type, &d.Visibility, &d.SortOrder, &d.MaxItems, &d.Items, &d.Filter); err != nil {
			return nil, fmt.Errorf("failed to scan collection for %s: %w", username, err)
		}
		list = append(list, &d)
	}
	return list, rows.Err()
}

// UpdateCollection overwrites a custom collection's mutable fields.
func (s *Store) UpdateCollection(ctx context.Context, d *collections.Definition) error {
	res, err := s.DB.ExecContext(
		ctx,
		`update collections set name = ?, description = ?, visibility = ?, sortorder = ?, maxitems = ?, items = ?, queryfilter = ? where username = ? and id = ?`,
		d.Name, d.Description, d.Visibility, d.SortOrder, d.MaxItems, d.Items, d.Filter, d.Username, d.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update collection %s/%s: %w", d.Username, d.ID, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrCollectionNotFound
	}
	return nil
}

// DeleteCollection removes a custom collection.
func (s *Store) DeleteCollection(ctx context.Context, username, id string) error {
	res, err := s.DB.ExecContext(ctx, `delete from collections where username = ? and id = ?`, username, id)
	if err != nil {
		return fmt.Errorf("failed to delete collection %s/%s: %w", username, id, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrCollectionNotFound
	}
	return nil
}

// AppendCollectionItem appends itemID to a MANUAL collection's member list.
// A duplicate append is a no-op.
func (s *Store) AppendCollectionItem(ctx context.Context, username, id, itemID string) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	d, err := s.Collection(ctx, username, id)
	if err != nil {
		return err
	}

	for _, existing := range d.Items {
		if existing == itemID {
			return tx.Commit()
		}
	}
	d.Items = append(d.Items, itemID)

	if _, err := tx.ExecContext(ctx, `update collections set items = ? where username = ? and id = ?`, d.Items, username, id); err != nil {
		return fmt.Errorf("failed to append %s to collection %s/%s: %w", itemID, username, id, err)
	}

	return tx.Commit()
}

// RemoveCollectionItem removes itemID from a MANUAL collection's member
// list, if present.
func (s *Store) RemoveCollectionItem(ctx context.Context, username, id, itemID string) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	d, err := s.Collection(ctx, username, id)
	if err != nil {
		return err
	}

	filtered := d.Items[:0]
	for _, existing := range d.Items {
		if existing != itemID {
			filtered = append(filtered, existing)
		}
	}
	d.Items = filtered

	if _, err := tx.ExecContext(ctx, `update collections set items = ? where username = ? and id = ?`, d.Items, username, id); err != nil {
		return fmt.Errorf("failed to remove %s from collection %s/%s: %w", itemID, username, id, err)
	}

	return tx.Commit()
}
