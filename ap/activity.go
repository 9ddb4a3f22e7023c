/*
Copyright 2023 - 2025 Dima Krasner

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

package ap

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
)

type ActivityType string

const (
	Create   ActivityType = "Create"
	Update   ActivityType = "Update"
	Delete   ActivityType = "Delete"
	Follow   ActivityType = "Follow"
	Accept   ActivityType = "Accept"
	Reject   ActivityType = "Reject"
	Undo     ActivityType = "Undo"
	Like     ActivityType = "Like"
	Announce ActivityType = "Announce"
	Add      ActivityType = "Add"
	Remove   ActivityType = "Remove"
)

// Public is the special "everyone" audience member.
const Public = "https://www.w3.org/ns/activitystreams#Public"

// MaxActivityDepth bounds how deeply an Undo may wrap another activity.
const MaxActivityDepth = 3

var (
	ErrInvalidActivity     = errors.New("invalid activity")
	ErrUnsupportedActivity = errors.New("unsupported activity type")

	knownActivityTypes = map[ActivityType]struct{}{
		Create:   {},
		Update:   {},
		Delete:   {},
		Follow:   {},
		Accept:   {},
		Reject:   {},
		Undo:     {},
		Like:     {},
		Announce: {},
		Add:      {},
		Remove:   {},
	}
)

type anyActivity struct {
	Context   any             `json:"@context"`
	ID        string          `json:"id"`
	Type      ActivityType    `json:"type"`
	Actor     string          `json:"actor"`
	Object    json.RawMessage `json:"object"`
	Target    string          `json:"target,omitempty"`
	To        Audience        `json:"to"`
	CC        Audience        `json:"cc"`
	BTo       Audience        `json:"bto"`
	BCC       Audience        `json:"bcc"`
	AudienceF Audience        `json:"audience"`
	Published *Time           `json:"published,omitempty"`
}

// Activity represents an ActivityPub activity envelope.
// Object can point to another Activity, an [Object] or a plain string ID.
type Activity struct {
	Context   any          `json:"@context,omitempty"`
	ID        string       `json:"id"`
	Type      ActivityType `json:"type"`
	Actor     string       `json:"actor"`
	Object    any          `json:"object"`
	Target    string       `json:"target,omitempty"`
	To        Audience     `json:"to,omitempty"`
	CC        Audience     `json:"cc,omitempty"`
	BTo       Audience     `json:"bto,omitempty"`
	BCC       Audience     `json:"bcc,omitempty"`
	AudienceF Audience     `json:"audience,omitempty"`
	Published *Time        `json:"published,omitempty"`
}

// IsPublic reports whether the activity is addressed to the public audience.
func (a *Activity) IsPublic() bool {
	return a.To.Contains(Public) || a.CC.Contains(Public) || a.AudienceF.Contains(Public)
}

// Recipients collects every actor ID named in to/cc/bto/bcc/audience.
func (a *Activity) Recipients() Audience {
	r := Audience{}
	for _, id := range a.To.Keys() {
		r.Add(id)
	}
	for _, id := range a.CC.Keys() {
		r.Add(id)
	}
	for _, id := range a.BTo.Keys() {
		r.Add(id)
	}
	for _, id := range a.BCC.Keys() {
		r.Add(id)
	}
	for _, id := range a.AudienceF.Keys() {
		r.Add(id)
	}
	return r
}

// UnwrapObject returns the wrapped object's inner *Object when the activity
// directly carries one (as opposed to a nested Activity or a bare string ID).
func (a *Activity) UnwrapObject() (*Object, bool) {
	o, ok := a.Object.(*Object)
	return o, ok
}

// UnwrapActivity returns the wrapped inner *Activity when the activity
// carries a nested activity (e.g. Undo(Follow)), as opposed to an Object or
// a bare string ID.
func (a *Activity) UnwrapActivity() (*Activity, bool) {
	inner, ok := a.Object.(*Activity)
	return inner, ok
}

func (a *Activity) UnmarshalJSON(b []byte) error {
	var common anyActivity
	if err := json.Unmarshal(b, &common); err != nil {
		return err
	}

	if _, ok := knownActivityTypes[common.Type]; !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedActivity, common.Type)
	}

	a.Context = common.Context
	a.ID = common.ID
	a.Type = common.Type
	a.Actor = common.Actor
	a.Target = common.Target
	a.To = common.To
	a.CC = common.CC
	a.BTo = common.BTo
	a.BCC = common.BCC
	a.AudienceF = common.AudienceF
	a.Published = common.Published

	if len(common.Object) == 0 {
		return nil
	}

	var object Object
	var activity Activity
	var link string
	if err := json.Unmarshal(common.Object, &activity); err == nil && activity.Type != "" {
		a.Object = &activity
	} else if err := json.Unmarshal(common.Object, &object); err == nil && (object.ID != "" || object.Type != "") {
		a.Object = &object
	} else if err := json.Unmarshal(common.Object, &link); err == nil {
		a.Object = link
	} else {
		return ErrInvalidActivity
	}

	return nil
}

func (a *Activity) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	default:
		return fmt.Errorf("unsupported conversion from %T to %T", src, a)
	}
}

func (a *Activity) Value() (driver.Value, error) {
	buf, err := json.Marshal(a)
	return string(buf), err
}

func (a *Activity) LogValue() slog.Value {
	if o, ok := a.Object.(*Object); ok {
		return slog.GroupValue(slog.String("id", a.ID), slog.String("type", string(a.Type)), slog.String("actor", a.Actor), slog.Group("object", "kind", "object", "id", o.ID, "type", string(o.Type)))
	} else if inner, ok := a.Object.(*Activity); ok {
		return slog.GroupValue(slog.String("id", a.ID), slog.String("type", string(a.Type)), slog.String("actor", a.Actor), slog.Group("object", "kind", "activity", "id", inner.ID, "type", string(inner.Type)))
	} else if s, ok := a.Object.(string); ok {
		return slog.GroupValue(slog.String("id", a.ID), slog.String("type", string(a.Type)), slog.String("actor", a.Actor), slog.Group("object", "kind", "string", "id", s))
	}
	return slog.GroupValue(slog.String("id", a.ID), slog.String("type", string(a.Type)), slog.String("actor", a.Actor))
}
