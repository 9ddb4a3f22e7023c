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
	"time"

	"github.com/brocaactivitypub/broca/ap"
	"github.com/google/uuid"
)

// Delivery queue item statuses, per the state machine: a PENDING item is
// claimed into PROCESSING, then settles into DELIVERED or, after exhausting
// retries, DEAD; a transient failure returns it to PENDING for a later
// attempt. A PROCESSING item whose lease expires unclaimed also reverts to
// PENDING.
const (
	StatusPending    = "PENDING"
	StatusProcessing = "PROCESSING"
	StatusDelivered  = "DELIVERED"
	StatusFailed     = "FAILED"
	StatusDead       = "DEAD"
)

// QueueItem is one delivery attempt: a single activity addressed to a single
// target inbox.
type QueueItem struct {
	ID             string
	Activity       *ap.Activity
	TargetInbox    string
	SenderActorID  string
	SenderUsername string
	Status         string
	Attempts       int
	MaxAttempts    int
}

// Enqueue inserts a new delivery queue item, ready for immediate claim.
func (s *Store) Enqueue(ctx context.Context, senderUsername, senderActorID, targetInbox string, activity *ap.Activity, maxAttempts int) error {
	if _, err := s.DB.ExecContext(
		ctx,
		`insert into deliveryqueue(id, activity, targetinbox, senderactorid, senderusername, maxattempts) values(?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), activity, targetInbox, senderActorID, senderUsername, maxAttempts,
	); err != nil {
		return fmt.Errorf("failed to enqueue delivery of %s to %s: %w", activity.ID, targetInbox, err)
	}
	return nil
}

// ReclaimExpiredLeases reverts PROCESSING items whose lease has expired back
// to PENDING, so a worker that died mid-delivery doesn't strand its items.
func (s *Store) ReclaimExpiredLeases(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.DB.ExecContext(
		ctx,
		`update deliveryqueue set status = ? where status = ? and lease < ?`,
		StatusPending, StatusProcessing, now.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to reclaim expired leases: %w", err)
	}
	return res.RowsAffected()
}

// ClaimBatch atomically claims up to limit PENDING items whose nextattempt
// has arrived, marking them PROCESSING under a lease that expires at
// now+leaseTime.
func (s *Store) ClaimBatch(ctx context.Context, now time.Time, leaseTime time.Duration, limit int) ([]QueueItem, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(
		ctx,
		`select id, activity, targetinbox, senderactorid, senderusername, status, attempts, maxattempts
		from deliveryqueue
		where status = ? and nextattempt <= ?
		order by nextattempt
		limit ?`,
		StatusPending, now.Unix(), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query delivery queue: %w", err)
	}

	var items []QueueItem
	for rows.Next() {
		var item QueueItem
		if err := rows.Scan(&item.ID, &item.Activity, &item.TargetInbox, &item.SenderActorID, &item.SenderUsername, &item.Status, &item.Attempts, &item.MaxAttempts); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan delivery queue item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	lease := now.Add(leaseTime).Unix()
	for i := range items {
		if _, err := tx.ExecContext(ctx, `update deliveryqueue set status = ?, lease = ? where id = ?`, StatusProcessing, lease, items[i].ID); err != nil {
			return nil, fmt.Errorf("failed to claim %s: %w", items[i].ID, err)
		}
		items[i].Status = StatusProcessing
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return items, nil
}

// MarkDelivered settles a queue item as successfully delivered.
func (s *Store) MarkDelivered(ctx context.Context, id string) error {
	if _, err := s.DB.ExecContext(ctx, `update deliveryqueue set status = ? where id = ?`, StatusDelivered, id); err != nil {
		return fmt.Errorf("failed to mark %s delivered: %w", id, err)
	}
	return nil
}

// MarkFailed records a failed attempt. If attempts has reached maxAttempts
// the item settles as DEAD; otherwise it's returned to PENDING with
// nextAttempt pushed out by backoff.
func (s *Store) MarkFailed(ctx context.Context, id string, attempts int, maxAttempts int, nextAttempt time.Time, lastError string) error {
	status := StatusPending
	if attempts >= maxAttempts {
		status = StatusDead
	}

	if _, err := s.DB.ExecContext(
		ctx,
		`update deliveryqueue set status = ?, attempts = ?, nextattempt = ?, lasterror = ? where id = ?`,
		status, attempts, nextAttempt.Unix(), lastError, id,
	); err != nil {
		return fmt.Errorf("failed to mark %s failed: %w", id, err)
	}
	return nil
}

// QueueStats summarizes the delivery queue by status, for operator
// visibility.
type QueueStats struct {
	Pending    int
	Processing int
	Delivered  int
	Failed     int
	Dead       int
}

// Stats reports the current count of delivery queue items per status.
func (s *Store) Stats(ctx context.Context) (*QueueStats, error) {
	rows, err := s.DB.QueryContext(ctx, `select status, count(*) from deliveryqueue group by status`)
	if err != nil {
		return nil, fmt.Errorf("failed to query delivery queue stats: %w", err)
	}
	defer rows.Close()

	stats := &QueueStats{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan delivery queue stats: %w", err)
		}
		switch status {
		case StatusPending:
			stats.Pending = count
		case StatusProcessing:
			stats.Processing = count
		case StatusDelivered:
			stats.Delivered = count
		case StatusFailed:
			stats.Failed = count
		case StatusDead:
			stats.Dead = count
		}
	}
	return stats, rows.Err()
}

// Cleanup deletes settled (DELIVERED or DEAD) queue items created before
// olderThan, bounding the queue table's growth.
func (s *Store) Cleanup(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.DB.ExecContext(
		ctx,
		`delete from deliveryqueue where status in (?, ?) and created < ?`,
		StatusDelivered, StatusDead, olderThan.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up delivery queue: %w", err)
	}
	return res.RowsAffected()
}
