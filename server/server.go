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

// Package server exposes broca's federation surface over HTTP: actor
// profiles, inbox/outbox, relation and custom collections, object lookup,
// WebFinger and media, per the routes described in its design.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/brocaactivitypub/broca/cfg"
	"github.com/brocaactivitypub/broca/collections"
	"github.com/brocaactivitypub/broca/data"
	"github.com/brocaactivitypub/broca/httpsig"
	"github.com/brocaactivitypub/broca/inbox"
	"github.com/brocaactivitypub/broca/outbox"
	"github.com/brocaactivitypub/broca/store"
	"github.com/brocaactivitypub/broca/urls"
)

// Server wires every collaborator a handler needs to answer a request.
type Server struct {
	Store      *store.Store
	Inbox      *inbox.Processor
	Outbox     *outbox.Publisher
	Collection *collections.Engine
	Config     *cfg.Config
	Log        *slog.Logger
	URLs       urls.Builder
}

// NewHandler builds the complete routing table.
func (s *Server) NewHandler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /.well-known/webfinger", s.handleWebFinger)

	mux.HandleFunc("GET /users/{username}", s.handleActor)
	mux.HandleFunc("POST /users/{username}/inbox", s.handleInboxPost)
	mux.HandleFunc("GET /users/{username}/inbox", s.handleInboxGet)
	mux.HandleFunc("POST /users/{username}/outbox", s.handleOutboxPost)
	mux.HandleFunc("GET /users/{username}/outbox", s.handleOutboxGet)
	mux.HandleFunc("GET /users/{username}/followers", s.handleRelation(store.DirectionFollower))
	mux.HandleFunc("GET /users/{username}/following", s.handleRelation(store.DirectionFollowing))
	mux.HandleFunc("GET /users/{username}/liked", s.handleActivityTypeCollection("liked", "Like"))
	mux.HandleFunc("GET /users/{username}/shared", s.handleActivityTypeCollection("shared", "Announce"))
	mux.HandleFunc("GET /users/{username}/objects/{oid}", s.handleObject)
	mux.HandleFunc("GET /users/{username}/objects/{oid}/replies", s.handleObjectRelation("replies"))
	mux.HandleFunc("GET /users/{username}/objects/{oid}/likes", s.handleObjectRelation("likes"))
	mux.HandleFunc("GET /users/{username}/objects/{oid}/shares", s.handleObjectRelation("shares"))
	mux.HandleFunc("GET /users/{username}/collections", s.handleCollectionCatalog)
	mux.HandleFunc("GET /users/{username}/collections/{cid}", s.handleCollectionPage)
	mux.HandleFunc("GET /users/{username}/media/{blobID}", s.handleMedia)

	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		s.Log.Debug("Received request for unknown path", "path", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
	})

	return http.TimeoutHandler(mux, requestTimeout, "")
}

// requestTimeout bounds how long any single inbound request handler may
// run, mirroring tootik's own fixed server-side timeout.
const requestTimeout = time.Second * 30

// signingKey loads username's local private key and builds the httpsig.Key
// used to sign outbound requests made on its behalf (actor fetches during
// delivery routing).
func (s *Server) signingKey(r *http.Request, username string) (httpsig.Key, error) {
	pemKey, err := s.Store.PrivateKeyByUsername(r.Context(), username)
	if err != nil {
		return httpsig.Key{}, err
	}

	privateKey, err := data.DecodePrivateKey(pemKey)
	if err != nil {
		return httpsig.Key{}, err
	}

	return httpsig.Key{ID: s.URLs.Key(username), PrivateKey: privateKey}, nil
}
