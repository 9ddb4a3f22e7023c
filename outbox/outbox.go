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

// Package outbox validates, persists and queues activities a local actor
// publishes.
package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/brocaactivitypub/broca/ap"
	"github.com/brocaactivitypub/broca/cfg"
	"github.com/brocaactivitypub/broca/delivery"
	"github.com/brocaactivitypub/broca/httpsig"
	"github.com/brocaactivitypub/broca/store"
	"github.com/brocaactivitypub/broca/urls"
	"github.com/google/uuid"
)

// ErrMalformed is returned for a request body that isn't a valid activity.
var ErrMalformed = errors.New("malformed activity")

// Publisher implements POST {actor}/outbox: it mints missing IDs, persists
// the activity and hands it to the delivery engine.
type Publisher struct {
	Store    *store.Store
	Delivery *delivery.Engine
	Config   *cfg.Config
	Log      *slog.Logger
	URLs     urls.Builder
}

// Publish validates body as an activity authored by sender, mints any
// missing activity/object ID, persists it to username's outbox stream and
// enqueues delivery. It returns the stored activity, whose ID is the
// Location an HTTP handler should report on 201.
func (p *Publisher) Publish(ctx context.Context, username string, sender *ap.Actor, senderKey httpsig.Key, body []byte) (*ap.Activity, error) {
	var activity ap.Activity
	if err := json.Unmarshal(body, &activity); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	activity.Actor = sender.ID

	if activity.ID == "" {
		activity.ID = p.URLs.Activity(uuid.NewString())
	}

	if obj, ok := activity.UnwrapObject(); ok {
		if obj.ID == "" {
			obj.ID = p.URLs.Object(username, uuid.NewString())
		}

		if err := p.Store.AppendActivity(ctx, username, store.StreamOutbox, activity.ID, &activity); err != nil {
			return nil, fmt.Errorf("failed to persist %s to %s's outbox: %w", activity.ID, username, err)
		}

		if err := p.Store.IndexObject(ctx, username, obj.ID, activity.ID); err != nil {
			return nil, fmt.Errorf("failed to index object for %s: %w", activity.ID, err)
		}
	} else if err := p.Store.AppendActivity(ctx, username, store.StreamOutbox, activity.ID, &activity); err != nil {
		return nil, fmt.Errorf("failed to persist %s to %s's outbox: %w", activity.ID, username, err)
	}

	if activity.Type == ap.Add || activity.Type == ap.Remove {
		if err := p.applyCollectionSideEffect(ctx, username, &activity, activity.Type == ap.Add); err != nil {
			p.Log.Warn("Collection side effect failed", "activity", activity.ID, "error", err)
		}
	}

	if p.Config.EnableActivityDelivery != nil && *p.Config.EnableActivityDelivery {
		mode, target := p.routingFor(&activity, sender)
		if err := p.Delivery.Enqueue(ctx, username, sender, senderKey, &activity, mode, target); err != nil {
			// delivery is asynchronous and best-effort from the publisher's
			// point of view; a routing failure is logged, not surfaced as a
			// publish failure
			p.Log.Warn("Failed to enqueue delivery", "activity", activity.ID, "error", err)
		}
	}

	return &activity, nil
}

// routingFor picks how to fan out activity, per its type. Follow, Undo
// (of Follow) and Accept/Reject of a Follow have exactly one recipient
// that isn't necessarily named in to/cc, so they route directly to it.
// Everything else routes to its addressed recipients, except when the
// sole recipient is the sender's own followers collection, which expands
// to every current follower.
func (p *Publisher) routingFor(activity *ap.Activity, sender *ap.Actor) (delivery.RoutingMode, string) {
	switch activity.Type {
	case ap.Follow:
		if target, ok := activity.Object.(string); ok && target != "" {
			return delivery.RouteTarget, target
		}

	case ap.Undo:
		if inner, ok := activity.UnwrapActivity(); ok && inner.Type == ap.Follow {
			if target, ok := inner.Object.(string); ok && target != "" {
				return delivery.RouteTarget, target
			}
		}

	case ap.Accept, ap.Reject:
		if inner, ok := activity.UnwrapActivity(); ok && inner.Actor != "" {
			return delivery.RouteTarget, inner.Actor
		}
	}

	recipients := activity.Recipients().Keys()
	if sender.Followers != "" && len(recipients) == 1 && recipients[0] == sender.Followers {
		return delivery.RouteFollowers, ""
	}

	return delivery.RouteRecipients, ""
}
