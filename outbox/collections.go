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

package outbox

import (
	"context"
	"fmt"

	"github.com/brocaactivitypub/broca/ap"
	"github.com/brocaactivitypub/broca/collections"
)

// applyCollectionSideEffect mutates the MANUAL collection named by
// activity.Target, iff it belongs to username, for an outbound Add or
// Remove. A target outside username's own collections, or naming a QUERY
// collection, is left untouched — Add/Remove only has meaning here as an
// operation on one's own manual collections.
func (p *Publisher) applyCollectionSideEffect(ctx context.Context, username string, activity *ap.Activity, add bool) error {
	slug, ok := p.URLs.ParseCollectionTarget(activity.Target, username)
	if !ok {
		return nil
	}

	objectID, ok := activity.Object.(string)
	if !ok {
		if obj, ok := activity.UnwrapObject(); ok {
			objectID = obj.ID
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
