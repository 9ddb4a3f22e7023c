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

// Package urls builds and parses the server's ActivityPub URIs, so every
// other package mints and recognizes the same shapes instead of
// hand-assembling paths.
package urls

import (
	"strings"
)

// Builder mints URLs rooted at baseURL+routePrefix.
type Builder struct {
	BaseURL     string
	RoutePrefix string
}

// New returns a Builder for the given base URL and route prefix.
func New(baseURL, routePrefix string) Builder {
	return Builder{BaseURL: strings.TrimSuffix(baseURL, "/"), RoutePrefix: routePrefix}
}

func (b Builder) root() string {
	return b.BaseURL + b.RoutePrefix
}

// Actor returns a local actor's profile URL.
func (b Builder) Actor(username string) string {
	return b.root() + "/users/" + username
}

// Key returns a local actor's public key ID, per the #main-key convention.
func (b Builder) Key(username string) string {
	return b.Actor(username) + "#main-key"
}

// Inbox returns a local actor's inbox URL.
func (b Builder) Inbox(username string) string {
	return b.Actor(username) + "/inbox"
}

// Outbox returns a local actor's outbox URL.
func (b Builder) Outbox(username string) string {
	return b.Actor(username) + "/outbox"
}

// Followers returns a local actor's followers collection URL.
func (b Builder) Followers(username string) string {
	return b.Actor(username) + "/followers"
}

// Following returns a local actor's following collection URL.
func (b Builder) Following(username string) string {
	return b.Actor(username) + "/following"
}

// Liked returns a local actor's liked collection URL.
func (b Builder) Liked(username string) string {
	return b.Actor(username) + "/liked"
}

// Shared returns a local actor's shared (announced) collection URL.
func (b Builder) Shared(username string) string {
	return b.Actor(username) + "/shared"
}

// Activity returns a freshly minted activity's URL.
func (b Builder) Activity(id string) string {
	return b.root() + "/activities/" + id
}

// Object returns a local object's URL, scoped under its author.
func (b Builder) Object(username, id string) string {
	return b.Actor(username) + "/objects/" + id
}

// Collection returns a custom collection's URL.
func (b Builder) Collection(username, slug string) string {
	return b.Actor(username) + "/collections/" + slug
}

// Media returns a stored blob's URL.
func (b Builder) Media(username, blobID string) string {
	return b.Actor(username) + "/media/" + blobID
}

// ParseCollectionTarget reports whether target names a custom collection
// belonging to username, returning its slug.
func (b Builder) ParseCollectionTarget(target, username string) (slug string, ok bool) {
	prefix := b.Collection(username, "")
	if !strings.HasPrefix(target, prefix) {
		return "", false
	}
	slug = target[len(prefix):]
	if slug == "" || strings.Contains(slug, "/") {
		return "", false
	}
	return slug, true
}

// ParseActor reports whether id names a local actor, returning its
// username.
func (b Builder) ParseActor(id string) (username string, ok bool) {
	prefix := b.root() + "/users/"
	if !strings.HasPrefix(id, prefix) {
		return "", false
	}
	rest := id[len(prefix):]
	if rest == "" || strings.Contains(rest, "/") {
		return "", false
	}
	return rest, true
}
