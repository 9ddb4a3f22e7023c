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
	"errors"
	"io"
	"net/http"

	"github.com/brocaactivitypub/broca/inbox"
	"github.com/brocaactivitypub/broca/outbox"
	"github.com/brocaactivitypub/broca/store"
)

const activityContentType = `application/activity+json`

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", activityContentType)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Log.Warn("Failed to encode response", "error", err)
	}
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, s.Config.MaxRequestBodySize+1))
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return nil, false
	}
	if int64(len(body)) > s.Config.MaxRequestBodySize {
		http.Error(w, "request body too large", http.StatusBadRequest)
		return nil, false
	}
	return body, true
}

// writeError maps a store/inbox/outbox error to the appropriate status
// code, per the error taxonomy: not-found conditions become 404,
// malformed/validation errors become 400, authorization failures become
// 401, everything else is a 500.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrActorNotFound),
		errors.Is(err, store.ErrObjectNotFound),
		errors.Is(err, store.ErrCollectionNotFound),
		errors.Is(err, store.ErrBlobNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)

	case errors.Is(err, inbox.ErrMalformed), errors.Is(err, outbox.ErrMalformed):
		http.Error(w, err.Error(), http.StatusBadRequest)

	case errors.Is(err, inbox.ErrUnauthorized):
		http.Error(w, err.Error(), http.StatusUnauthorized)

	default:
		s.Log.Error("Request failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
