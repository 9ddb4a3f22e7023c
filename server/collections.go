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

	"github.com/brocaactivitypub/broca/collections"
)

// handleCollectionCatalog lists username's PUBLIC custom collections, the
// same catalog advertised via the actor profile's broca:collections
// extension, but addressable on its own as a plain collection of
// collection URLs.
func (s *Server) handleCollectionCatalog(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")
	if _, err := s.Store.ActorByUsername(r.Context(), username); err != nil {
		s.writeError(w, err)
		return
	}

	defs, err := s.Store.Collections(r.Context(), username)
	if err != nil {
		s.writeError(w, err)
		return
	}

	catalog := s.Collection.Catalog(r.Context(), defs)
	urls := make([]string, 0, len(catalog))
	for _, c := range catalog {
		urls = append(urls, s.URLs.Collection(username, c.ID))
	}

	s.writeJSON(w, http.StatusOK, urls)
}

// handleCollectionPage serves a single custom collection, either as its
// unpaginated summary or, with ?page=true, one page of its members.
// PRIVATE collections require the admin bearer token; PUBLIC and UNLISTED
// are open to anyone who names their URL.
func (s *Server) handleCollectionPage(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")
	cid := r.PathValue("cid")

	def, err := s.Store.Collection(r.Context(), username, cid)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := collections.CheckVisibility(def, s.isAdmin(r)); err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}

	if r.URL.Query().Get("page") != "true" {
		out, err := s.Collection.Render(r.Context(), def)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, out)
		return
	}

	out, err := s.Collection.RenderPage(r.Context(), def, r.URL.Query().Get("after"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, out)
}
