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

	"github.com/brocaactivitypub/broca/ap"
	"github.com/stretchr/testify/assert"
)

func createActivity(id string, obj *ap.Object) *ap.Activity {
	a := &ap.Activity{ID: id, Type: ap.Create}
	a.Object = obj
	return a
}

func TestUnwrap_Create(t *testing.T) {
	obj := &ap.Object{ID: "https://example.com/objects/1", Type: ap.Note}
	entry := Unwrap(createActivity("https://example.com/activities/1", obj))
	assert.NotNil(t, entry.Object)
	assert.Equal(t, obj.ID, entry.Object.ID)
}

func TestUnwrap_NonCreate(t *testing.T) {
	a := &ap.Activity{ID: "https://example.com/activities/2", Type: ap.Like}
	entry := Unwrap(a)
	assert.Nil(t, entry.Object)
	assert.Equal(t, a.ID, entry.Activity.ID)
}

func TestFilterMatches_EmptyMatchesEverything(t *testing.T) {
	f := &Filter{}
	assert.True(t, f.Matches(Unwrap(&ap.Activity{ID: "x", Type: ap.Like})))
}

func TestFilterMatches_ActivityType(t *testing.T) {
	f := &Filter{ActivityTypes: []string{"Like"}}
	assert.True(t, f.Matches(Unwrap(&ap.Activity{ID: "x", Type: ap.Like})))
	assert.False(t, f.Matches(Unwrap(&ap.Activity{ID: "y", Type: ap.Announce})))
}

func TestFilterMatches_ObjectTypeAndTag(t *testing.T) {
	note := &ap.Object{ID: "o1", Type: ap.Note, Tag: ap.Array[ap.Tag]{{Name: "gophers"}}}
	entry := Unwrap(createActivity("a1", note))

	assert.True(t, (&Filter{ObjectTypes: []string{"Note"}}).Matches(entry))
	assert.False(t, (&Filter{ObjectTypes: []string{"Article"}}).Matches(entry))
	assert.True(t, (&Filter{Tags: []string{"GOPHERS"}}).Matches(entry))
	assert.False(t, (&Filter{Tags: []string{"golang"}}).Matches(entry))
}

func TestFilterMatches_DateRange(t *testing.T) {
	published := ap.Time{Time: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)}
	note := &ap.Object{ID: "o1", Type: ap.Note, Published: &published}
	entry := Unwrap(createActivity("a1", note))

	before := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	after := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)

	assert.True(t, (&Filter{AfterDate: &before}).Matches(entry))
	assert.False(t, (&Filter{AfterDate: &after}).Matches(entry))
	assert.True(t, (&Filter{BeforeDate: &after}).Matches(entry))
	assert.False(t, (&Filter{BeforeDate: &before}).Matches(entry))
}

func TestFilterMatches_DateRangeWithoutPublished(t *testing.T) {
	note := &ap.Object{ID: "o1", Type: ap.Note}
	entry := Unwrap(createActivity("a1", note))

	before := time.Now()
	assert.False(t, (&Filter{AfterDate: &before}).Matches(entry))
}

func TestFilterMatches_AttachmentAndReply(t *testing.T) {
	withAttachment := &ap.Object{ID: "o1", Type: ap.Note, Attachment: []ap.Attachment{{URL: "https://example.com/a.png"}}}
	reply := &ap.Object{ID: "o2", Type: ap.Note, InReplyTo: "https://example.com/objects/0"}

	hasAttachment := true
	assert.True(t, (&Filter{HasAttachment: &hasAttachment}).Matches(Unwrap(createActivity("a1", withAttachment))))
	assert.False(t, (&Filter{HasAttachment: &hasAttachment}).Matches(Unwrap(createActivity("a2", reply))))

	isReply := true
	assert.True(t, (&Filter{IsReply: &isReply}).Matches(Unwrap(createActivity("a2", reply))))
	assert.False(t, (&Filter{IsReply: &isReply}).Matches(Unwrap(createActivity("a1", withAttachment))))
}

func TestFilterMatches_SearchQuery(t *testing.T) {
	note := &ap.Object{ID: "o1", Type: ap.Note, Content: "Hello Gophers"}
	entry := Unwrap(createActivity("a1", note))

	assert.True(t, (&Filter{SearchQuery: "gopher"}).Matches(entry))
	assert.False(t, (&Filter{SearchQuery: "rustacean"}).Matches(entry))
}

func TestFilterMatches_NonCreateEntryFailsObjectFilters(t *testing.T) {
	entry := Unwrap(&ap.Activity{ID: "a1", Type: ap.Like})
	assert.True(t, (&Filter{}).Matches(entry))
	assert.False(t, (&Filter{ObjectTypes: []string{"Note"}}).Matches(entry))
}
