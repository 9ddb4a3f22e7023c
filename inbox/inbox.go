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

// Package inbox authenticates, persists and applies the side effects of
// incoming activities delivered to a local actor's inbox.
package inbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/brocaactivitypub/broca/ap"
	"github.com/brocaactivitypub/broca/cfg"
	"github.com/brocaactivitypub/broca/collections"
	"github.com/brocaactivitypub/broca/keyfetch"
	"github.com/brocaactivitypub/broca/store"
	"github.com/brocaactivitypub/broca/urls"
	"github.com/google/uuid"
)

// ErrMalformed is returned for a request body that isn't a valid activity.
var ErrMalformed = errors.New("malformed activity")

// Processor implements the inbox processing pipeline: authentication,
// attachment mirroring, persistence and dispatch.
type Processor struct {
	Store    *store.Store
	KeyFetch *keyfetch.Fetcher
	Config   *cfg.Config
	Log      *slog.Logger
	URLs     urls.Builder

	// MediaClient fetches remote attachments for mirroring. Unlike outbound
	// federation requests, attachment downloads are not signed: the object
	// is public media on a third-party host, not an AP request a peer
	// authenticates.
	MediaClient *http.Client
}

// Process authenticates nothing itself (the caller runs Authenticate first
// and passes the outcome in admin); it unmarshals body, mirrors remote
// attachments, persists the activity to username's inbox stream, and
// applies type-specific side effects. Side-effect failures are logged, not
// returned: per §7 of the design, inbox acceptance is decoupled from
// side-effect success.
func (p *Processor) Process(ctx context.Context, username string, body []byte, admin bool) (*ap.Activity, error) {
	var activity ap.Activity
	if err := json.Unmarshal(body, &activity); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	if activity.ID == "" {
		activity.ID = p.URLs.Activity(uuid.NewString())
	}

	if obj, ok := activity.UnwrapObject(); ok {
		p.mirrorAttachments(ctx, username, obj)
	}

	if err := p.Store.AppendActivity(ctx, username, store.StreamInbox, activity.ID, &activity); err != nil {
		return nil, fmt.Errorf("failed to persist %s to %s's inbox: %w", activity.ID, username, err)
	}

	if err := p.dispatch(ctx, username, &activity, body, admin); err != nil {
		p.Log.Warn("Inbox side effect failed", "activity", activity.ID, "type", activity.Type, "error", err)
	}

	return &activity, nil
}

func (p *Processor) dispatch(ctx context.Context, username string, activity *ap.Activity, rawBody []byte, admin bool) error {
	switch activity.Type {
	case ap.Follow:
		return p.Store.AddFollow(ctx, username, activity.Actor, store.DirectionFollower)

	case ap.Undo:
		inner, ok := activity.UnwrapActivity()
		if !ok || inner.Type != ap.Follow {
			return nil
		}
		return p.Store.RemoveFollow(ctx, username, activity.Actor, store.DirectionFollower)

	case ap.Accept, ap.Reject:
		return nil

	case ap.Create:
		if admin && username == p.Config.SystemActorUsername {
			return p.adminCreate(ctx, rawBody)
		}
		return nil

	case ap.Update:
		if admin {
			return p.adminUpdate(ctx, rawBody)
		}
		return nil

	case ap.Delete:
		if admin {
			return p.adminDelete(ctx, activity)
		}
		return nil

	case ap.Like, ap.Announce:
		return nil

	case ap.Add:
		return p.mutateCollection(ctx, username, activity, true)

	case ap.Remove:
		return p.mutateCollection(ctx, username, activity, false)

	default:
		return nil
	}
}

// mutateCollection appends or removes activity's object from the custom
// collection named by activity.Target, iff that collection belongs to
// username (§4.4 side-effect integration).
func (p *Processor) mutateCollection(ctx context.Context, username string, activity *ap.Activity, add bool) error {
	slug, ok := p.URLs.ParseCollectionTarget(activity.Target, username)
	if !ok {
		return nil
	}

	objectID, ok := activity.Object.(string)
	if !ok {
		if obj, ok := activity.UnwrapObject(); ok {
			objectID = obj.ID
		} else {
			return fmt.Errorf("Add/Remove object has no id")
		}
	}
	if objectID == "" {
		return fmt.Errorf("Add/Remove object has no id")
	}

	def, err := p.Store.Collection(ctx, username, slug)
	if err != nil {
		return err
	}

	if def.Type == collections.Query {
		return fmt.Errorf("collection %s/%s is a query collection, not manually editable", username, slug)
	}

	if add {
		return p.Store.AppendCollectionItem(ctx, username, slug, objectID)
	}
	return p.Store.RemoveCollectionItem(ctx, username, slug, objectID)
}
