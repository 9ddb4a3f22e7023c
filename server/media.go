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

// handleMedia serves a mirrored or locally-uploaded attachment by its
// stored blob ID.
func (s *Server) handleMedia(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")
	blobID := r.PathValue("blobID")

	blob, err := s.Store.Blob(r.Context(), username, blobID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", blob.ContentType)
	w.WriteHeader(http.StatusOK)
	w.Write(blob.Data)
}
