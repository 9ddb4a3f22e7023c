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

// writeStreamPage renders one of username's append-only streams (inbox or
// outbox) as an OrderedCollection summary, or one OrderedCollectionPage of
// it when the request asks for a page, mirroring how the custom collection
// engine paginates query collections over the very same stream.
func (s *Server) writeStreamPage(w http.ResponseWriter, r *http.Request, username, stream, id string) {
	if r.URL.Query().Get("page") != "true" {
		total, err := s.Store.CountStream(r.Context(), username, stream)
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

	after := r.URL.Query().Get("after")
	page, err := s.Store.ReadStream(r.Context(), username, stream, after, s.pageSize())
	if err != nil {
		s.writeError(w, err)
		return
	}

	total, err := s.Store.CountStream(r.Context(), username, stream)
	if err != nil {
		s.writeError(w, err)
		return
	}

	out := &ap.CollectionPage{
		Context:    "https://www.w3.org/ns/activitystreams",
		ID:         pageURL(id, after),
		Type:       ap.OrderedCollectionPage,
		PartOf:     id,
		TotalItems: int64(total),
	}
	for _, activity := range page.Activities {
		out.OrderedItems = append(out.OrderedItems, activity)
	}
	if page.Next != "" {
		out.Next = pageURL(id, page.Next)
	}

	s.writeJSON(w, http.StatusOK, out)
}

func pageURL(id, cursor string) string {
	if cursor == "" {
		return id + "?page=true"
	}
	return id + "?page=true&after=" + cursor
}

func (s *Server) pageSize() int {
	if s.Config.CollectionPageSize > 0 {
		return s.Config.CollectionPageSize
	}
	return 20
}
