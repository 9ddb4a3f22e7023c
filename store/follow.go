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
	"fmt"
)

// Direction distinguishes a relation where remoteactorid follows username
// (DirectionFollower) from one where username follows remoteactorid
// (DirectionFollowing).
const (
	DirectionFollower  = "follower"
	DirectionFollowing = "following"
)

// AddFollow records that remoteActorID is in the given direction's relation
// with username. Recording the same relation twice is a no-op.
func (s *Store) AddFollow(ctx context.Context, username, remoteActorID, direction string) error {
	if _, err := s.DB.ExecContext(
		ctx,
		`insert into follows(username, remoteactorid, direction) values(?, ?, ?) on conflict(username, remoteactorid, direction) do nothing`,
		username, remoteActorID, direction,
	); err != nil {
		return fmt.Errorf("failed to add %s relation %s/%s: %w", direction, username, remoteActorID, err)
	}
	return nil
}

// RemoveFollow deletes a follow relation, if any.
func (s *Store) RemoveFollow(ctx context.Context, username, remoteActorID, direction string) error {
	if _, err := s.DB.ExecContext(ctx, `delete from follows where username = ? and remoteactorid = ? and direction = ?`, username, remoteActorID, direction); err != nil {
		return fmt.Errorf("failed to remove %s relation %s/%s: %w", direction, username, remoteActorID, err)
	}
	return nil
}

// IsFollowing reports whether a follow relation exists.
func (s *Store) IsFollowing(ctx context.Context, username, remoteActorID, direction string) (bool, error) {
	var exists bool
	if err := s.DB.QueryRowContext(
		ctx,
		`select exists (select 1 from follows where username = ? and remoteactorid = ? and direction = ?)`,
		username, remoteActorID, direction,
	).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check %s relation %s/%s: %w", direction, username, remoteActorID, err)
	}
	return exists, nil
}

// Relations returns every remote actor ID in the given direction's relation
// with username, ordered by insertion.
func (s *Store) Relations(ctx context.Context, username, direction string) ([]string, error) {
	rows, err := s.DB.QueryContext(ctx, `select remoteactorid from follows where username = ? and direction = ? order by inserted`, username, direction)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s relations for %s: %w", direction, username, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan %s relation for %s: %w", direction, username, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CountRelations returns the size of the given direction's relation set.
func (s *Store) CountRelations(ctx context.Context, username, direction string) (int, error) {
	var count int
	if err := s.DB.QueryRowContext(ctx, `select count(*) from follows where username = ? and direction = ?`, username, direction).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count %s relations for %s: %w", direction, username, err)
	}
	return count, nil
}
