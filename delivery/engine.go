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

// Package delivery implements durable, at-least-once fan-out of outgoing
// activities to remote inboxes: enqueueing, batched claiming, signed
// delivery and retry with backoff.
package delivery

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/brocaactivitypub/broca/ap"
	"github.com/brocaactivitypub/broca/cfg"
	"github.com/brocaactivitypub/broca/httpsig"
	"github.com/brocaactivitypub/broca/resolver"
	"github.com/brocaactivitypub/broca/store"
)

// RoutingMode selects how Enqueue turns an outgoing activity into a set of
// recipient actor IDs.
type RoutingMode int

const (
	// RouteRecipients fans out to the activity's to/cc/bto/bcc/audience.
	RouteRecipients RoutingMode = iota
	// RouteTarget delivers to a single explicit recipient. The publisher
	// uses it for Follow, Undo(Follow), Accept and Reject; Like and
	// Announce are routed by their addressing, not to the object's owner.
	RouteTarget
	// RouteFollowers delivers to every follower of the sending actor.
	RouteFollowers
)

// Engine resolves routing and persists delivery queue items. Delivery
// itself is performed by [Worker].
type Engine struct {
	Store    *store.Store
	Resolver *resolver.Resolver
	Config   *cfg.Config
	Log      *slog.Logger
}

// Enqueue resolves mode into a set of recipient actor IDs, fetches each
// recipient's actor profile to determine its inbox, groups recipients by
// shared inbox, and persists one PENDING queue item per unique inbox URL.
// A recipient whose profile cannot be fetched is skipped and logged; it
// does not abort enqueueing for other recipients.
func (e *Engine) Enqueue(ctx context.Context, senderUsername string, sender *ap.Actor, senderKey httpsig.Key, activity *ap.Activity, mode RoutingMode, target string) error {
	recipients, err := e.recipients(ctx, senderUsername, activity, mode, target)
	if err != nil {
		return fmt.Errorf("failed to resolve recipients for %s: %w", activity.ID, err)
	}

	inboxes := map[string]bool{}
	for _, id := range recipients {
		if id == ap.Public || id == "" {
			continue
		}

		actor, err := e.Resolver.Resolve(ctx, senderKey, id)
		if err != nil {
			e.Log.Warn("Failed to resolve recipient", "id", id, "error", err)
			continue
		}

		inbox := actor.Inbox
		if shared, ok := actor.Endpoints["sharedInbox"]; ok && shared != "" {
			inbox = shared
		}
		if inbox == "" {
			e.Log.Warn("Recipient has no inbox", "id", id)
			continue
		}

		inboxes[inbox] = true
	}

	for inbox := range inboxes {
		if err := e.Store.Enqueue(ctx, senderUsername, sender.ID, inbox, activity, e.Config.DeliveryMaxAttempts); err != nil {
			return fmt.Errorf("failed to enqueue delivery of %s to %s: %w", activity.ID, inbox, err)
		}
	}

	return nil
}

func (e *Engine) recipients(ctx context.Context, senderUsername string, activity *ap.Activity, mode RoutingMode, target string) ([]string, error) {
	switch mode {
	case RouteTarget:
		if target == "" {
			return nil, fmt.Errorf("routing mode target requires a target recipient")
		}
		return []string{target}, nil

	case RouteFollowers:
		return e.Store.Relations(ctx, senderUsername, store.DirectionFollower)

	default:
		return activity.Recipients().Keys(), nil
	}
}
