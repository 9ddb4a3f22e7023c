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

package delivery

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/brocaactivitypub/broca/cfg"
	"github.com/brocaactivitypub/broca/data"
	"github.com/brocaactivitypub/broca/httpsig"
	"github.com/brocaactivitypub/broca/store"
	"github.com/brocaactivitypub/broca/transport"
)

// Worker drains the delivery queue on a tick, delivering claimed items with
// bounded concurrency and purging settled items periodically.
type Worker struct {
	Store  *store.Store
	Client *transport.Client
	Config *cfg.Config
	Log    *slog.Logger

	lastCleanup time.Time
}

// Run blocks, polling the delivery queue every ProcessingInterval until ctx
// is canceled.
func (w *Worker) Run(ctx context.Context) {
	t := time.NewTicker(w.Config.DeliveryProcessingInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := w.Tick(ctx); err != nil {
				w.Log.Error("Delivery tick failed", "error", err)
			}
		}
	}
}

// Tick reclaims expired leases, claims and delivers one batch, and runs
// cleanup if due.
func (w *Worker) Tick(ctx context.Context) error {
	now := time.Now()

	if _, err := w.Store.ReclaimExpiredLeases(ctx, now); err != nil {
		w.Log.Warn("Failed to reclaim expired delivery leases", "error", err)
	}

	items, err := w.Store.ClaimBatch(ctx, now, w.Config.DeliveryLeaseTime, w.Config.DeliveryBatchSize)
	if err != nil {
		return err
	}

	w.deliverBatch(ctx, items)

	if now.Sub(w.lastCleanup) >= time.Hour {
		w.lastCleanup = now
		if n, err := w.Store.Cleanup(ctx, now.Add(-w.Config.DeliveryRetention)); err != nil {
			w.Log.Warn("Delivery queue cleanup failed", "error", err)
		} else if n > 0 {
			w.Log.Info("Cleaned up delivery queue", "count", n)
		}
	}

	return nil
}

func (w *Worker) deliverBatch(ctx context.Context, items []store.QueueItem) {
	sem := make(chan struct{}, w.Config.DeliveryConcurrency)
	var wg sync.WaitGroup

	for _, item := range items {
		wg.Add(1)
		sem <- struct{}{}
		go func(item store.QueueItem) {
			defer wg.Done()
			defer func() { <-sem }()
			// a claimed item runs to completion or DeliveryTimeout even
			// after ctx is canceled, so shutdown doesn't abort it midway
			w.deliverOne(context.WithoutCancel(ctx), item)
		}(item)
	}

	wg.Wait()
}

func (w *Worker) deliverOne(ctx context.Context, item store.QueueItem) {
	sender, err := w.Store.ActorByUsername(ctx, item.SenderUsername)
	if err != nil {
		w.fail(ctx, item, "no such sender: "+err.Error())
		return
	}

	pem, err := w.Store.PrivateKeyByUsername(ctx, item.SenderUsername)
	if err != nil {
		w.fail(ctx, item, "no private key: "+err.Error())
		return
	}

	privateKey, err := data.DecodePrivateKey(pem)
	if err != nil {
		w.fail(ctx, item, "invalid private key: "+err.Error())
		return
	}

	body, err := json.Marshal(item.Activity)
	if err != nil {
		w.fail(ctx, item, "failed to serialize activity: "+err.Error())
		return
	}

	key := httpsig.Key{ID: sender.PublicKey.ID, PrivateKey: privateKey}

	deliverCtx, cancel := context.WithTimeout(ctx, w.Config.DeliveryTimeout)
	defer cancel()

	resp, err := w.Client.Post(deliverCtx, key, item.TargetInbox, body)
	if err != nil {
		w.fail(ctx, item, err.Error())
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 || resp.StatusCode == http.StatusAccepted {
		if err := w.Store.MarkDelivered(ctx, item.ID); err != nil {
			w.Log.Error("Failed to mark item delivered", "id", item.ID, "error", err)
		}
		return
	}

	w.fail(ctx, item, resp.Status)
}

func (w *Worker) fail(ctx context.Context, item store.QueueItem, reason string) {
	attempts := item.Attempts + 1
	nextAttempt := time.Now().Add(w.backoff(attempts))

	if err := w.Store.MarkFailed(ctx, item.ID, attempts, item.MaxAttempts, nextAttempt, reason); err != nil {
		w.Log.Error("Failed to record delivery failure", "id", item.ID, "error", err)
	}

	w.Log.Warn("Delivery attempt failed", "id", item.ID, "target", item.TargetInbox, "attempt", attempts, "reason", reason)
}

// backoff returns the wait before the given next attempt number, per
// Config.DeliveryBackoff (indexed by next attempt count, clamped to the
// last entry for every attempt beyond the schedule's length).
func (w *Worker) backoff(attempt int) time.Duration {
	schedule := w.Config.DeliveryBackoff
	if attempt <= 0 {
		return schedule[0]
	}
	if attempt > len(schedule) {
		return schedule[len(schedule)-1]
	}
	return schedule[attempt-1]
}
