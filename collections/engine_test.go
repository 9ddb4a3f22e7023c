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

package collections

import (
	"context"
	"testing"

	"github.com/brocaactivitypub/broca/ap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	defs       map[string]*Definition
	activities []*ap.Activity
}

func (f *fakeStore) Collection(ctx context.Context, username, id string) (*Definition, error) {
	d, ok := f.defs[id]
	if !ok {
		return nil, ErrInvalidID
	}
	return d, nil
}

func (f *fakeStore) ReadOutboxPage(ctx context.Context, username, after string, limit int) ([]*ap.Activity, string, error) {
	if len(f.activities) > limit {
		return f.activities[:limit], "", nil
	}
	return f.activities, "", nil
}

type fakeURLs struct{}

func (fakeURLs) Collection(username, slug string) string {
	return "https://example.com/users/" + username + "/collections/" + slug
}

func TestEngineRenderPage_Manual(t *testing.T) {
	def := &Definition{Username: "alice", ID: "favorites", Type: Manual, SortOrder: Chrono, Items: ItemList{"a", "b", "c"}}
	e := &Engine{Store: &fakeStore{defs: map[string]*Definition{"favorites": def}}, URLs: fakeURLs{}}

	page, err := e.RenderPage(context.Background(), def, "")
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b", "c"}, page.OrderedItems)
	assert.Equal(t, int64(3), page.TotalItems)
	assert.Empty(t, page.Next)
}

func TestEngineRenderPage_ManualReverseChrono(t *testing.T) {
	def := &Definition{Username: "alice", ID: "favorites", Type: Manual, SortOrder: ReverseChrono, Items: ItemList{"a", "b", "c"}}
	e := &Engine{Store: &fakeStore{defs: map[string]*Definition{"favorites": def}}, URLs: fakeURLs{}}

	page, err := e.RenderPage(context.Background(), def, "")
	require.NoError(t, err)
	assert.Equal(t, []any{"c", "b", "a"}, page.OrderedItems)
}

func TestEngineRenderPage_Query(t *testing.T) {
	note := &ap.Object{ID: "https://example.com/objects/1", Type: ap.Note}
	create := &ap.Activity{ID: "https://example.com/activities/1", Type: ap.Create}
	create.Object = note

	like := &ap.Activity{ID: "https://example.com/activities/2", Type: ap.Like}

	def := &Definition{
		Username:  "alice",
		ID:        "notes",
		Type:      Query,
		SortOrder: ReverseChrono,
		Filter:    Filter{ActivityTypes: []string{"Create"}},
	}
	e := &Engine{
		Store: &fakeStore{
			defs:       map[string]*Definition{"notes": def},
			activities: []*ap.Activity{like, create},
		},
		URLs: fakeURLs{},
	}

	page, err := e.RenderPage(context.Background(), def, "")
	require.NoError(t, err)
	require.Len(t, page.OrderedItems, 1)
	assert.Equal(t, note.ID, page.OrderedItems[0])
}

func TestEngineRender_FirstURL(t *testing.T) {
	def := &Definition{Username: "alice", ID: "favorites", Type: Manual, Items: ItemList{"a"}}
	e := &Engine{Store: &fakeStore{defs: map[string]*Definition{"favorites": def}}, URLs: fakeURLs{}}

	col, err := e.Render(context.Background(), def)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/users/alice/collections/favorites", col.ID)
	assert.Equal(t, "https://example.com/users/alice/collections/favorites?page=true", col.First)
	assert.Equal(t, int64(1), col.TotalItems)
}

func TestCheckVisibility(t *testing.T) {
	assert.NoError(t, CheckVisibility(&Definition{Visibility: Public}, false))
	assert.NoError(t, CheckVisibility(&Definition{Visibility: Unlisted}, false))
	assert.ErrorIs(t, CheckVisibility(&Definition{Visibility: Private}, false), ErrForbidden)
	assert.NoError(t, CheckVisibility(&Definition{Visibility: Private}, true))
}

func TestCatalog_PublicOnly(t *testing.T) {
	e := &Engine{}
	defs := []*Definition{
		{ID: "a", Visibility: Public, Items: ItemList{"1"}},
		{ID: "b", Visibility: Unlisted},
		{ID: "c", Visibility: Private},
	}
	out := e.Catalog(context.Background(), defs)
	require.Len(t, out, 1)
	assert.Equal(t, "a", out[0].ID)
	assert.Equal(t, int64(1), out[0].TotalItems)
}

func TestManualPage_Pagination(t *testing.T) {
	items := make(ItemList, 0, defaultPageSize+5)
	for i := 0; i < defaultPageSize+5; i++ {
		items = append(items, string(rune('a'+i)))
	}
	def := &Definition{SortOrder: Chrono, Items: items}

	page, next := manualPage(def, "", defaultPageSize)
	assert.Len(t, page, defaultPageSize)
	assert.NotEmpty(t, next)

	page2, next2 := manualPage(def, next, defaultPageSize)
	assert.Len(t, page2, 5)
	assert.Empty(t, next2)
}
