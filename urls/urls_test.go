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

package urls

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuilder_ActorURLs(t *testing.T) {
	b := New("https://example.com/", "")

	assert.Equal(t, "https://example.com/users/alice", b.Actor("alice"))
	assert.Equal(t, "https://example.com/users/alice#main-key", b.Key("alice"))
	assert.Equal(t, "https://example.com/users/alice/inbox", b.Inbox("alice"))
	assert.Equal(t, "https://example.com/users/alice/outbox", b.Outbox("alice"))
	assert.Equal(t, "https://example.com/users/alice/followers", b.Followers("alice"))
	assert.Equal(t, "https://example.com/users/alice/following", b.Following("alice"))
	assert.Equal(t, "https://example.com/users/alice/liked", b.Liked("alice"))
	assert.Equal(t, "https://example.com/users/alice/shared", b.Shared("alice"))
}

func TestBuilder_RoutePrefix(t *testing.T) {
	b := New("https://example.com", "/ap")
	assert.Equal(t, "https://example.com/ap/users/alice", b.Actor("alice"))
}

func TestBuilder_ActivityAndObject(t *testing.T) {
	b := New("https://example.com", "")
	assert.Equal(t, "https://example.com/activities/abc-123", b.Activity("abc-123"))
	assert.Equal(t, "https://example.com/users/alice/objects/abc-123", b.Object("alice", "abc-123"))
}

func TestBuilder_CollectionAndMedia(t *testing.T) {
	b := New("https://example.com", "")
	assert.Equal(t, "https://example.com/users/alice/collections/favorites", b.Collection("alice", "favorites"))
	assert.Equal(t, "https://example.com/users/alice/media/blob-1", b.Media("alice", "blob-1"))
}

func TestParseCollectionTarget(t *testing.T) {
	b := New("https://example.com", "")

	slug, ok := b.ParseCollectionTarget("https://example.com/users/alice/collections/favorites", "alice")
	assert.True(t, ok)
	assert.Equal(t, "favorites", slug)

	_, ok = b.ParseCollectionTarget("https://example.com/users/bob/collections/favorites", "alice")
	assert.False(t, ok)

	_, ok = b.ParseCollectionTarget("https://example.com/users/alice/collections/", "alice")
	assert.False(t, ok)

	_, ok = b.ParseCollectionTarget("https://example.com/users/alice/collections/a/b", "alice")
	assert.False(t, ok)
}

func TestParseActor(t *testing.T) {
	b := New("https://example.com", "")

	username, ok := b.ParseActor("https://example.com/users/alice")
	assert.True(t, ok)
	assert.Equal(t, "alice", username)

	_, ok = b.ParseActor("https://other.example/users/alice")
	assert.False(t, ok)

	_, ok = b.ParseActor("https://example.com/users/alice/inbox")
	assert.False(t, ok)
}
