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

import "net/http"

// handleObject serves a single object a local actor has published, keyed
// by the ID minted for it when it was published (distinct from the ID of
// the Create activity that wrapped it).
func (s *Server) handleObject(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")
	oid := r.PathValue("oid")

	objectID := s.URLs.Object(username, oid)

	obj, err := s.Store.ObjectByID(r.Context(), username, objectID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, obj)
}
