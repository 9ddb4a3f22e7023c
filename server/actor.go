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

// handleActor serves a local actor's profile. broca:collections is
// populated with the actor's PUBLIC custom collections;
// broca:adminOperations advertises whether this deployment accepts admin
// requests, and how. privateKeyPem is never part of [ap.Actor], so there's
// nothing to redact here regardless of the requester's authentication.
func (s *Server) handleActor(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")

	actor, err := s.Store.ActorByUsername(r.Context(), username)
	if err != nil {
		s.writeError(w, err)
		return
	}

	defs, err := s.Store.Collections(r.Context(), username)
	if err != nil {
		s.writeError(w, err)
		return
	}

	catalog := s.Collection.Catalog(r.Context(), defs)
	if len(catalog) > 0 {
		index := map[string]string{}
		for _, c := range catalog {
			index[c.ID] = s.URLs.Collection(username, c.ID)
		}
		if actor.Extensions == nil {
			actor.Extensions = ap.Extensions{}
		}
		actor.Extensions.Set("broca:collections", index)
	}

	if s.Config.EnableAdminOperations {
		if actor.Extensions == nil {
			actor.Extensions = ap.Extensions{}
		}
		actor.Extensions.Set("broca:adminOperations", map[string]any{
			"enabled": true,
			"auth":    []string{"Bearer"},
		})
	}

	s.writeJSON(w, http.StatusOK, actor)
}
