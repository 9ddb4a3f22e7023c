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

	"github.com/brocaactivitypub/broca/store"
)

// handleOutboxPost implements POST {actor}/outbox: publishing on a local
// actor's behalf is an operator action, not something a remote peer can
// trigger, so it's gated the same way inbox listing and PRIVATE collection
// reads are.
func (s *Server) handleOutboxPost(w http.ResponseWriter, r *http.Request) {
	if !s.isAdmin(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	username := r.PathValue("username")

	sender, err := s.Store.ActorByUsername(r.Context(), username)
	if err != nil {
		s.writeError(w, err)
		return
	}

	senderKey, err := s.signingKey(r, username)
	if err != nil {
		s.writeError(w, err)
		return
	}

	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	activity, err := s.Outbox.Publish(r.Context(), username, sender, senderKey, body)
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Location", activity.ID)
	s.writeJSON(w, http.StatusCreated, activity)
}

// handleOutboxGet lists a local actor's published activities. Unlike the
// inbox, an outbox is public per the federation surface: anyone can read
// what an actor has published.
func (s *Server) handleOutboxGet(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")
	if _, err := s.Store.ActorByUsername(r.Context(), username); err != nil {
		s.writeError(w, err)
		return
	}

	s.writeStreamPage(w, r, username, store.StreamOutbox, s.URLs.Outbox(username))
}
