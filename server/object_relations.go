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

// objectRelationScanLimit bounds how many inbox entries handleObjectRelation
// inspects per request, the same defensive cap matchedObjectIDs and the
// custom collection query engine apply to their own stream scans.
const objectRelationScanLimit = 2000

// handleObjectRelation returns a handler for an object's replies, likes or
// shares: every one of these is reported to username by a remote peer
// delivering to their inbox (a reply is a Create whose object replies to
// ours, a like/share is a Like/Announce naming ours), so all three are
// computed from the same inbox scan rather than tracked as separate
// stored state.
func (s *Server) handleObjectRelation(relation string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := r.PathValue("username")
		oid := r.PathValue("oid")

		if _, err := s.Store.ActorByUsername(r.Context(), username); err != nil {
			s.writeError(w, err)
			return
		}

		objectID := s.URLs.Object(username, oid)
		id := objectID + "/" + relation

		ids, err := s.matchedObjectRelations(r.Context(), username, objectID, relation)
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

// matchedObjectRelations scans username's inbox for activities reporting
// relation against objectID, returning the reporting actor's ID for
// likes/shares, or the replying object's own ID for replies, oldest-first.
func (s *Server) matchedObjectRelations(ctx context.Context, username, objectID, relation string) ([]string, error) {
	page, err := s.Store.ReadStream(ctx, username, store.StreamInbox, "", objectRelationScanLimit)
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, activity := range page.Activities {
		switch relation {
		case "likes":
			if activity.Type != ap.Like {
				continue
			}
			if target, ok := activity.Object.(string); ok && target == objectID {
				ids = append(ids, activity.Actor)
			}

		case "shares":
			if activity.Type != ap.Announce {
				continue
			}
			if target, ok := activity.Object.(string); ok && target == objectID {
				ids = append(ids, activity.Actor)
			}

		case "replies":
			if activity.Type != ap.Create {
				continue
			}
			obj, ok := activity.UnwrapObject()
			if !ok || obj.InReplyTo != objectID {
				continue
			}
			ids = append(ids, obj.ID)
		}
	}

	for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 {
		ids[i], ids[j] = ids[j], ids[i]
	}

	return ids, nil
}
