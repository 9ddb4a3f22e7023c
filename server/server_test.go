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
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/brocaactivitypub/broca/ap"
	"github.com/brocaactivitypub/broca/cfg"
	"github.com/brocaactivitypub/broca/collections"
	"github.com/brocaactivitypub/broca/data"
	"github.com/brocaactivitypub/broca/inbox"
	"github.com/brocaactivitypub/broca/migrations"
	"github.com/brocaactivitypub/broca/outbox"
	"github.com/brocaactivitypub/broca/store"
	"github.com/brocaactivitypub/broca/urls"
	"github.com/stretchr/testify/assert"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	f, err := os.CreateTemp("", "broca-*.sqlite3")
	assert.NoError(t, err)
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := store.Open(f.Name(), "_journal_mode=WAL")
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	assert.NoError(t, migrations.Run(context.Background(), log, db.DB))

	config := cfg.Config{
		BaseURL:               "https://town.example",
		PrimaryDomain:         "town.example",
		EnableAdminOperations: true,
		AdminAPIToken:         "s3cr3t",
	}
	config.RequireHTTPSignatures = new(bool)
	*config.RequireHTTPSignatures = false
	config.EnableActivityDelivery = new(bool)
	*config.EnableActivityDelivery = false
	config.FillDefaults()

	urlBuilder := urls.New(config.BaseURL, config.RoutePrefix)

	return &Server{
		Store: db,
		Inbox: &inbox.Processor{
			Store:       db,
			Config:      &config,
			Log:         log,
			URLs:        urlBuilder,
			MediaClient: http.DefaultClient,
		},
		Outbox: &outbox.Publisher{
			Store:  db,
			Config: &config,
			Log:    log,
			URLs:   urlBuilder,
		},
		Collection: &collections.Engine{Store: db, URLs: urlBuilder, PageSize: config.CollectionPageSize},
		Config:     &config,
		Log:        log,
		URLs:       urlBuilder,
	}
}

func createTestActor(t *testing.T, s *Server, username string) *ap.Actor {
	t.Helper()

	privateKey, err := data.GenerateKey()
	assert.NoError(t, err)

	publicKeyPem, err := data.EncodePublicKey(&privateKey.PublicKey)
	assert.NoError(t, err)

	privateKeyPem, err := data.EncodePrivateKey(privateKey)
	assert.NoError(t, err)

	id := s.URLs.Actor(username)
	actor := &ap.Actor{
		ID:                id,
		Type:              ap.Person,
		Inbox:             s.URLs.Inbox(username),
		Outbox:            s.URLs.Outbox(username),
		Followers:         s.URLs.Followers(username),
		Following:         s.URLs.Following(username),
		PreferredUsername: username,
		PublicKey: ap.PublicKey{
			ID:           s.URLs.Key(username),
			Owner:        id,
			PublicKeyPem: publicKeyPem,
		},
	}

	assert.NoError(t, s.Store.InsertActor(context.Background(), username, actor, privateKeyPem))
	return actor
}

func TestHandleActor_NotFound(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/users/ghost", nil)
	req.SetPathValue("username", "ghost")
	w := httptest.NewRecorder()

	s.handleActor(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleActor_Found(t *testing.T) {
	s := newTestServer(t)
	createTestActor(t, s, "alice")

	req := httptest.NewRequest(http.MethodGet, "/users/alice", nil)
	req.SetPathValue("username", "alice")
	w := httptest.NewRecorder()

	s.handleActor(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var actor ap.Actor
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &actor))
	assert.Equal(t, "alice", actor.PreferredUsername)
}

func TestHandleWebFinger(t *testing.T) {
	s := newTestServer(t)
	createTestActor(t, s, "alice")

	req := httptest.NewRequest(http.MethodGet, "/.well-known/webfinger?resource=acct:alice@town.example", nil)
	w := httptest.NewRecorder()

	s.handleWebFinger(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var doc jrd
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, "acct:alice@town.example", doc.Subject)
	assert.Len(t, doc.Links, 1)
	assert.Equal(t, s.URLs.Actor("alice"), doc.Links[0].Href)
}

func TestHandleWebFinger_UnknownAccount(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/.well-known/webfinger?resource=acct:ghost@town.example", nil)
	w := httptest.NewRecorder()

	s.handleWebFinger(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleInboxPost_AcceptsWithoutSignatureWhenDisabled(t *testing.T) {
	s := newTestServer(t)
	createTestActor(t, s, "alice")

	body := `{"type":"Follow","actor":"https://remote.example/users/bob","object":"https://town.example/users/alice"}`
	req := httptest.NewRequest(http.MethodPost, "/users/alice/inbox", strings.NewReader(body))
	req.SetPathValue("username", "alice")
	w := httptest.NewRecorder()

	s.handleInboxPost(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)

	following, err := s.Store.Relations(context.Background(), "alice", store.DirectionFollower)
	assert.NoError(t, err)
	assert.Equal(t, []string{"https://remote.example/users/bob"}, following)
}

func TestHandleInboxPost_MalformedBody(t *testing.T) {
	s := newTestServer(t)
	createTestActor(t, s, "alice")

	req := httptest.NewRequest(http.MethodPost, "/users/alice/inbox", strings.NewReader("not json"))
	req.SetPathValue("username", "alice")
	w := httptest.NewRecorder()

	s.handleInboxPost(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleOutboxPost_RequiresAdmin(t *testing.T) {
	s := newTestServer(t)
	createTestActor(t, s, "alice")

	req := httptest.NewRequest(http.MethodPost, "/users/alice/outbox", strings.NewReader(`{"type":"Create"}`))
	req.SetPathValue("username", "alice")
	w := httptest.NewRecorder()

	s.handleOutboxPost(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandleOutboxPost_PublishesAndIndexesObject(t *testing.T) {
	s := newTestServer(t)
	createTestActor(t, s, "alice")

	body := `{"type":"Create","object":{"type":"Note","content":"hello"}}`
	req := httptest.NewRequest(http.MethodPost, "/users/alice/outbox", strings.NewReader(body))
	req.SetPathValue("username", "alice")
	req.Header.Set("Authorization", "Bearer s3cr3t")
	w := httptest.NewRecorder()

	s.handleOutboxPost(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.NotEmpty(t, w.Header().Get("Location"))

	var activity ap.Activity
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &activity))
	assert.Equal(t, w.Header().Get("Location"), activity.ID)

	obj, ok := activity.UnwrapObject()
	assert.True(t, ok)

	fetched, err := s.Store.ObjectByID(context.Background(), "alice", obj.ID)
	assert.NoError(t, err)
	assert.Equal(t, "hello", fetched.Content)
}

func TestHandleRelation_EmptyCollection(t *testing.T) {
	s := newTestServer(t)
	createTestActor(t, s, "alice")

	req := httptest.NewRequest(http.MethodGet, "/users/alice/followers", nil)
	req.SetPathValue("username", "alice")
	w := httptest.NewRecorder()

	s.handleRelation(store.DirectionFollower)(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var c ap.Collection
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &c))
	assert.EqualValues(t, 0, c.TotalItems)
}

func TestHandleMedia_NotFound(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/users/alice/media/missing", nil)
	req.SetPathValue("username", "alice")
	req.SetPathValue("blobID", "missing")
	w := httptest.NewRecorder()

	s.handleMedia(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
