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

// handleInboxPost implements POST {actor}/inbox: the delivery entrypoint
// every federated peer posts activities to. Acceptance (202) is decoupled
// from side-effect success, per the processor's own contract.
func (s *Server) handleInboxPost(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")

	if _, err := s.Store.ActorByUsername(r.Context(), username); err != nil {
		s.writeError(w, err)
		return
	}

	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	admin, err := s.Inbox.Authenticate(r.Context(), r, body, username)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if _, err := s.Inbox.Process(r.Context(), username, body, admin); err != nil {
		s.writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

// handleInboxGet lists a local actor's own inbox. Unlike outbox and public
// collections, an inbox is never addressed to the world: only an
// authenticated operator may read it back.
func (s *Server) handleInboxGet(w http.ResponseWriter, r *http.Request) {
	if !s.isAdmin(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	username := r.PathValue("username")
	if _, err := s.Store.ActorByUsername(r.Context(), username); err != nil {
		s.writeError(w, err)
		return
	}

	s.writeStreamPage(w, r, username, store.StreamInbox, s.URLs.Inbox(username))
}
