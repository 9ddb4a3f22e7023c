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

package server

import (
	"context"
	"net/http"

	"github.com/brocaactivitypub/broca/ap"
	"github.com/brocaactivitypub/broca/store"
)

// activityTypeScanLimit bounds how many outbox entries handleActivityTypeCollection
// inspects per page, the same defensive limit the custom collection query
// engine applies to its own outbox scans.
const activityTypeScanLimit = 2000

// handleActivityTypeCollection returns a handler for liked and shared:
// both list the object IDs of a specific activity type (Like, Announce)
// username itself has published, so they're scans over username's own
// outbox rather than separate stored state.
func (s *Server) handleActivityTypeCollection(slug, activityType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := r.PathValue("username")
		if _, err := s.Store.ActorByUsername(r.Context(), username); err != nil {
			s.writeError(w, err)
			return
		}

		id := s.URLs.Actor(username) + "/" + slug

		ids, err := s.matchedObjectIDs(r.Context(), username, ap.ActivityType(activityType))
		if err != nil {
			s.writeError(w, err)
			return
		}

		if r.URL.Query().Get("page") != "true" {
			s.writeJSON(w, http.StatusOK, &ap.Collection{
				Context:    "https://www.w3.org/ns/activitystreams",
				ID:         id,
				Type:       ap.OrderedCollection,
				TotalItems: int64(len(ids)),
				First:      id + "?page=true",
			})
			return
		}

		after := r.URL.Query().Get("after")
		page, next := paginateStrings(ids, after, s.pageSize())

		out := &ap.CollectionPage{
			Context:    "https://www.w3.org/ns/activitystreams",
			ID:         pageURL(id, after),
			Type:       ap.OrderedCollectionPage,
			PartOf:     id,
			TotalItems: int64(len(ids)),
		}
		for _, m := range page {
			out.OrderedItems = append(out.OrderedItems, m)
		}
		if next != "" {
			out.Next = pageURL(id, next)
		}

		s.writeJSON(w, http.StatusOK, out)
	}
}

// matchedObjectIDs scans username's outbox for activities of activityType
// and returns the IDs of the objects they reference, oldest-first (Like
// and Announce always wrap a plain object ID, never an embedded object,
// per ValidateOrigin's own handling of those types).
func (s *Server) matchedObjectIDs(ctx context.Context, username string, activityType ap.ActivityType) ([]string, error) {
	page, err := s.Store.ReadStream(ctx, username, store.StreamOutbox, "", activityTypeScanLimit)
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, activity := range page.Activities {
		if activity.Type != activityType {
			continue
		}
		if objectID, ok := activity.Object.(string); ok && objectID != "" {
			ids = append(ids, objectID)
		}
	}

	for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 {
		ids[i], ids[j] = ids[j], ids[i]
	}

	return ids, nil
}
