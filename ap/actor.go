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
	"fmt"
)

type ActorType string

const (
	Person       ActorType = "Person"
	Group        ActorType = "Group"
	Application  ActorType = "Application"
	Service      ActorType = "Service"
	Organization ActorType = "Organization"
)

// PublicKey is the security/v1 public key descriptor carried on every actor.
type PublicKey struct {
	ID           string `json:"id"`
	Owner        string `json:"owner"`
	PublicKeyPem string `json:"publicKeyPem"`
}

// Actor represents an ActivityPub actor: Person, Service, Application, Organization or Group.
// Extensions carries any JSON key not recognized by this struct, preserved verbatim on
// round trip (the broca:collections / broca:adminOperations namespace lives here).
type Actor struct {
	Context                   any               `json:"@context,omitempty"`
	ID                        string            `json:"id"`
	Type                      ActorType         `json:"type"`
	Inbox                     string            `json:"inbox"`
	Outbox                    string            `json:"outbox"`
	Followers                 string            `json:"followers,omitempty"`
	Following                 string            `json:"following,omitempty"`
	Liked                     string            `json:"liked,omitempty"`
	Endpoints                 map[string]string `json:"endpoints,omitempty"`
	PreferredUsername         string            `json:"preferredUsername"`
	Name                      string            `json:"name,omitempty"`
	Summary                   string            `json:"summary,omitempty"`
	PublicKey                 PublicKey         `json:"publicKey"`
	Icon                      *Attachment       `json:"icon,omitempty"`
	Image                     *Attachment       `json:"image,omitempty"`
	ManuallyApprovesFollowers bool              `json:"manuallyApprovesFollowers,omitempty"`
	Published                 *Time             `json:"published,omitempty"`
	Updated                   *Time             `json:"updated,omitempty"`
	Attachment                []Attachment      `json:"attachment,omitempty"`

	Extensions Extensions `json:"-"`
}

// actorAlias avoids infinite recursion in custom (Un)MarshalJSON.
type actorAlias Actor

func (a *Actor) UnmarshalJSON(b []byte) error {
	var alias actorAlias
	if err := json.Unmarshal(b, &alias); err != nil {
		return err
	}
	*a = Actor(alias)

	known := map[string]struct{}{
		"@context": {}, "id": {}, "type": {}, "inbox": {}, "outbox": {}, "followers": {},
		"following": {}, "liked": {}, "endpoints": {}, "preferredUsername": {}, "name": {},
		"summary": {}, "publicKey": {}, "icon": {}, "image": {}, "manuallyApprovesFollowers": {},
		"published": {}, "updated": {}, "attachment": {},
	}
	ext, err := extractExtensions(b, known)
	if err != nil {
		return err
	}
	a.Extensions = ext
	return nil
}

func (a Actor) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(actorAlias(a))
	if err != nil {
		return nil, err
	}
	return mergeExtensions(base, a.Extensions)
}

func (a *Actor) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	default:
		return fmt.Errorf("unsupported conversion from %T to %T", src, a)
	}
}

func (a *Actor) Value() (driver.Value, error) {
	buf, err := json.Marshal(a)
	return string(buf), err
}
