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
	"errors"
	"fmt"
	"slices"

	"github.com/brocaactivitypub/broca/ap"
)

// scanLimit bounds how many outbox entries a QUERY collection inspects
// while hunting for a page of matches, so an unbound, rarely-matching
// filter can't force an unbounded table scan per request.
const scanLimit = 2000

// defaultPageSize is used when Engine.PageSize is unset.
const defaultPageSize = 20

var ErrForbidden = errors.New("collection is not visible to this requester")

// Store is the subset of persistence operations the engine needs,
// satisfied by *store.Store (via its ReadOutboxPage adapter). Declared
// here, rather than imported from store, to keep collections free of a
// dependency on the store package, which itself depends on collections
// for the Definition type.
type Store interface {
	Collection(ctx context.Context, username, id string) (*Definition, error)
	ReadOutboxPage(ctx context.Context, username, after string, limit int) ([]*ap.Activity, string, error)
}

// Engine renders custom collections as paginated ActivityPub wire objects.
type Engine struct {
	Store Store
	URLs  interface {
		Collection(username, slug string) string
	}
	// PageSize is the number of items rendered per page (cfg.Config's
	// CollectionPageSize). Defaults to defaultPageSize when unset.
	PageSize int
}

func (e *Engine) pageSize() int {
	if e.PageSize > 0 {
		return e.PageSize
	}
	return defaultPageSize
}

// Summary describes one advertised collection, for building the
// broca:collections index on an actor's profile.
type Summary struct {
	ID         string
	Name       string
	TotalItems int64
}

// Catalog lists every PUBLIC collection owned by username, for the
// broca:collections profile extension. UNLISTED and PRIVATE collections
// are deliberately omitted: they're reachable only by a requester who
// already knows (or is authorized for) their URL.
func (e *Engine) Catalog(ctx context.Context, defs []*Definition) []Summary {
	var out []Summary
	for _, d := range defs {
		if d.Visibility != Public {
			continue
		}
		out = append(out, Summary{ID: d.ID, Name: d.Name, TotalItems: int64(len(d.Items))})
	}
	return out
}

// CheckVisibility enforces a collection's visibility against the
// requester: PUBLIC and UNLISTED are open to anyone who can name the
// collection's URL (UNLISTED is simply not advertised), PRIVATE requires
// admin authentication.
func CheckVisibility(d *Definition, admin bool) error {
	if d.Visibility == Private && !admin {
		return ErrForbidden
	}
	return nil
}

// Render produces the unpaginated Collection summary for d.
func (e *Engine) Render(ctx context.Context, d *Definition) (*ap.Collection, error) {
	total, err := e.total(ctx, d)
	if err != nil {
		return nil, err
	}

	id := e.URLs.Collection(d.Username, d.ID)
	return &ap.Collection{
		Context:    "https://www.w3.org/ns/activitystreams",
		ID:         id,
		Type:       ap.OrderedCollection,
		TotalItems: total,
		First:      id + "?page=true",
	}, nil
}

// RenderPage produces one OrderedCollectionPage of d's members, resuming
// after the cursor (empty to start at the top).
func (e *Engine) RenderPage(ctx context.Context, d *Definition, after string) (*ap.CollectionPage, error) {
	var (
		items []string
		next  string
		err   error
	)

	switch d.Type {
	case Manual:
		items, next = manualPage(d, after, e.pageSize())
	case Query:
		items, next, err = e.queryPage(ctx, d, after)
	default:
		return nil, fmt.Errorf("unsupported collection type: %s", d.Type)
	}
	if err != nil {
		return nil, err
	}

	total, err := e.total(ctx, d)
	if err != nil {
		return nil, err
	}

	id := e.URLs.Collection(d.Username, d.ID)
	page := &ap.CollectionPage{
		Context:    "https://www.w3.org/ns/activitystreams",
		ID:         pageURL(id, after),
		Type:       ap.OrderedCollectionPage,
		PartOf:     id,
		TotalItems: total,
	}
	for _, item := range items {
		page.OrderedItems = append(page.OrderedItems, item)
	}
	if next != "" {
		page.Next = pageURL(id, next)
	}
	return page, nil
}

func pageURL(id, cursor string) string {
	if cursor == "" {
		return id + "?page=true"
	}
	return id + "?page=true&after=" + cursor
}

func (e *Engine) total(ctx context.Context, d *Definition) (int64, error) {
	if d.Type == Manual {
		return int64(len(d.Items)), nil
	}

	matches, _, err := e.matchQuery(ctx, d, "", scanLimit)
	if err != nil {
		return 0, err
	}
	return int64(len(matches)), nil
}

// manualPage paginates a MANUAL collection's stored member list in its
// persisted order, which is insertion order, oldest-first: kept as-is for
// MANUAL and CHRONO, reversed for REVERSE_CHRONO.
func manualPage(d *Definition, after string, pageSize int) ([]string, string) {
	items := slices.Clone(d.Items)
	if d.SortOrder == ReverseChrono {
		slices.Reverse(items)
	}

	start := 0
	if after != "" {
		if idx := slices.Index(items, after); idx >= 0 {
			start = idx + 1
		}
	}
	if start >= len(items) {
		return nil, ""
	}

	end := min(start+pageSize, len(items))
	page := items[start:end]

	var next string
	if end < len(items) {
		next = page[len(page)-1]
	}
	return page, next
}

// queryPage scans username's outbox for entries matching d.Filter, sorts
// per d.SortOrder and returns one page's worth of object/activity IDs
// starting after the cursor.
func (e *Engine) queryPage(ctx context.Context, d *Definition, after string) ([]string, string, error) {
	matches, _, err := e.matchQuery(ctx, d, "", scanLimit)
	if err != nil {
		return nil, "", err
	}

	start := 0
	if after != "" {
		if idx := slices.Index(matches, after); idx >= 0 {
			start = idx + 1
		}
	}
	if start >= len(matches) {
		return nil, "", nil
	}

	end := min(start+e.pageSize(), len(matches))
	page := matches[start:end]

	var next string
	if end < len(matches) {
		next = page[len(page)-1]
	}
	return page, next, nil
}

// matchQuery reads up to limit activities from username's outbox,
// unwraps each, applies d.Filter and returns the matching IDs (an
// object's ID when the entry is a Create envelope, the activity's own ID
// otherwise), most-recent-first, reordered per d.SortOrder.
func (e *Engine) matchQuery(ctx context.Context, d *Definition, after string, limit int) ([]string, string, error) {
	activities, cursor, err := e.Store.ReadOutboxPage(ctx, d.Username, after, limit)
	if err != nil {
		return nil, "", err
	}

	var ids []string
	for _, activity := range activities {
		entry := Unwrap(activity)
		if !d.Filter.Matches(entry) {
			continue
		}
		if entry.Object != nil {
			ids = append(ids, entry.Object.ID)
		} else {
			ids = append(ids, entry.Activity.ID)
		}
	}

	if d.SortOrder == Chrono {
		slices.Reverse(ids)
	}

	return ids, cursor, nil
}
