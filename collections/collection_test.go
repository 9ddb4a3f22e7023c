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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefinitionValidate_Happyflow(t *testing.T) {
	d := Definition{ID: "favorites", Name: "Favorites", Type: Manual}
	assert.NoError(t, d.Validate())
}

func TestDefinitionValidate_InvalidID(t *testing.T) {
	d := Definition{ID: "-nope", Name: "x", Type: Manual}
	assert.ErrorIs(t, d.Validate(), ErrInvalidID)
}

func TestDefinitionValidate_ReservedID(t *testing.T) {
	d := Definition{ID: "followers", Name: "x", Type: Manual}
	assert.ErrorIs(t, d.Validate(), ErrReservedID)
}

func TestDefinitionValidate_EmptyName(t *testing.T) {
	d := Definition{ID: "x", Type: Manual}
	assert.ErrorIs(t, d.Validate(), ErrEmptyName)
}

func TestDefinitionValidate_ManualWithFilter(t *testing.T) {
	d := Definition{ID: "x", Name: "x", Type: Manual, Filter: Filter{ActivityTypes: []string{"Create"}}}
	assert.ErrorIs(t, d.Validate(), ErrManualHasFilter)
}

func TestDefinitionValidate_QueryWithItems(t *testing.T) {
	d := Definition{ID: "x", Name: "x", Type: Query, Items: ItemList{"a"}}
	assert.ErrorIs(t, d.Validate(), ErrQueryHasItems)
}

func TestDefinitionValidate_UnsupportedType(t *testing.T) {
	d := Definition{ID: "x", Name: "x", Type: "BOGUS"}
	assert.Error(t, d.Validate())
}

func TestFilterValueScan_RoundTrip(t *testing.T) {
	after, err := time.Parse(time.RFC3339, "2026-01-01T00:00:00Z")
	assert.NoError(t, err)
	has := true
	f := Filter{ActivityTypes: []string{"Create"}, AfterDate: &after, HasAttachment: &has}

	raw, err := f.Value()
	assert.NoError(t, err)

	var out Filter
	assert.NoError(t, out.Scan(raw))
	assert.Equal(t, f.ActivityTypes, out.ActivityTypes)
	assert.True(t, out.AfterDate.Equal(after))
	assert.True(t, *out.HasAttachment)
}

func TestFilterIsEmpty(t *testing.T) {
	assert.True(t, (&Filter{}).IsEmpty())
	assert.False(t, (&Filter{SearchQuery: "x"}).IsEmpty())
}

func TestItemListValueScan_RoundTrip(t *testing.T) {
	l := ItemList{"a", "b", "c"}
	raw, err := l.Value()
	assert.NoError(t, err)

	var out ItemList
	assert.NoError(t, out.Scan(raw))
	assert.Equal(t, l, out)
}
