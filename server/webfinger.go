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
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// jrd is a WebFinger JSON Resource Descriptor, just enough of RFC 7033 to
// point a remote resolver at a local actor's profile.
type jrd struct {
	Subject string `json:"subject"`
	Links   []link `json:"links"`
}

type link struct {
	Rel  string `json:"rel"`
	Type string `json:"type,omitempty"`
	Href string `json:"href"`
}

// handleWebFinger resolves acct:username@domain to a local actor's profile
// URL. Only the acct scheme is accepted; anything else is a 400, and an
// unknown or foreign-domain account is a 404.
func (s *Server) handleWebFinger(w http.ResponseWriter, r *http.Request) {
	resource := r.URL.Query().Get("resource")
	const prefix = "acct:"
	if !strings.HasPrefix(resource, prefix) {
		http.Error(w, "unsupported resource", http.StatusBadRequest)
		return
	}

	account := strings.TrimPrefix(resource, prefix)
	username, domain, ok := strings.Cut(account, "@")
	if !ok || username == "" || domain != s.Config.PrimaryDomain {
		http.Error(w, "account not found", http.StatusNotFound)
		return
	}

	actor, err := s.Store.ActorByUsername(r.Context(), username)
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/jrd+json")
	w.WriteHeader(http.StatusOK)
	doc := jrd{
		Subject: fmt.Sprintf("acct:%s@%s", username, domain),
		Links: []link{
			{Rel: "self", Type: activityContentType, Href: actor.ID},
		},
	}
	if err := json.NewEncoder(w).Encode(doc); err != nil {
		s.Log.Warn("Failed to encode WebFinger response", "error", err)
	}
}
