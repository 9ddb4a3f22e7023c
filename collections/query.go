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
	"slices"

	"github.com/brocaactivitypub/broca/ap"
)

// Entry is one (unwrapped) item scanned out of an actor's outbox: the
// envelope activity as persisted, plus the object it wraps, if any. A
// non-Create activity has no separate Object and is matched on its own
// fields.
type Entry struct {
	Activity *ap.Activity
	Object   *ap.Object
}

// Matches reports whether entry satisfies every populated field of f. An
// empty filter matches everything.
func (f *Filter) Matches(entry Entry) bool {
	if len(f.ActivityTypes) > 0 && !slices.Contains(f.ActivityTypes, string(entry.Activity.Type)) {
		return false
	}

	if entry.Object == nil {
		return len(f.ObjectTypes) == 0 &&
			len(f.Tags) == 0 &&
			f.AfterDate == nil &&
			f.BeforeDate == nil &&
			f.HasAttachment == nil &&
			f.IsReply == nil &&
			f.SearchQuery == ""
	}

	if len(f.ObjectTypes) > 0 && !slices.Contains(f.ObjectTypes, string(entry.Object.Type)) {
		return false
	}

	if len(f.Tags) > 0 {
		matched := false
		for _, tag := range f.Tags {
			if entry.Object.HasTag(tag) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	if entry.Object.Published != nil {
		published := entry.Object.Published.Time
		if f.AfterDate != nil && !published.After(*f.AfterDate) {
			return false
		}
		if f.BeforeDate != nil && published.After(*f.BeforeDate) {
			return false
		}
	} else if f.AfterDate != nil || f.BeforeDate != nil {
		return false
	}

	if f.HasAttachment != nil && entry.Object.HasAttachment() != *f.HasAttachment {
		return false
	}

	if f.IsReply != nil && entry.Object.IsReply() != *f.IsReply {
		return false
	}

	if f.SearchQuery != "" && !entry.Object.MatchesSearch(f.SearchQuery) {
		return false
	}

	return true
}

// Unwrap turns an outbox activity into a query Entry, surfacing the nested
// object of a Create envelope and leaving every other activity type as-is.
func Unwrap(activity *ap.Activity) Entry {
	if activity.Type == ap.Create {
		if obj, ok := activity.UnwrapObject(); ok {
			return Entry{Activity: activity, Object: obj}
		}
	}
	return Entry{Activity: activity}
}
