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
	"net/http"

	"github.com/brocaactivitypub/broca/ap"
)

// handleRelation returns a handler serving the followers or following
// collection, per direction. Both are rendered straight from the follows
// table rather than the outbox, since a relation isn't an activity.
// Inbound Follow and Undo(Follow) maintain the follower rows; no code path
// records following rows.
func (s *Server) handleRelation(direction string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := r.PathValue("username")
		if _, err := s.Store.ActorByUsername(r.Context(), username); err != nil {
			s.writeError(w, err)
			return
		}

		var id string
		switch direction {
		case "following":
			id = s.URLs.Following(username)
		default:
			id = s.URLs.Followers(username)
		}

		if r.URL.Query().Get("page") != "true" {
			total, err := s.Store.CountRelations(r.Context(), username, direction)
			if err != nil {
				s.writeError(w, err)
				return
			}
			s.writeJSON(w, http.StatusOK, &ap.Collection{
				Context:    "https://www.w3.org/ns/activitystreams",
				ID:         id,
				Type:       ap.OrderedCollection,
				TotalItems: int64(total),
				First:      id + "?page=true",
			})
			return
		}

		members, err := s.Store.Relations(r.Context(), username, direction)
		if err != nil {
			s.writeError(w, err)
			return
		}

		page, next := paginateStrings(members, r.URL.Query().Get("after"), s.pageSize())

		out := &ap.CollectionPage{
			Context:    "https://www.w3.org/ns/activitystreams",
			ID:         pageURL(id, r.URL.Query().Get("after")),
			Type:       ap.OrderedCollectionPage,
			PartOf:     id,
			TotalItems: int64(len(members)),
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

// paginateStrings slices items into one page of size pageSize, resuming
// after the member identified by after (empty to start at the top).
func paginateStrings(items []string, after string, pageSize int) (page []string, next string) {
	start := 0
	if after != "" {
		for i, v := range items {
			if v == after {
				start = i + 1
				break
			}
		}
	}
	if start >= len(items) {
		return nil, ""
	}

	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	page = items[start:end]
	if end < len(items) {
		next = page[len(page)-1]
	}
	return page, next
}
