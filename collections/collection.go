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

// Package collections implements per-actor custom collections: manual,
// ordered member lists and saved query filters over an actor's outbox,
// both exposed through the same paginated ActivityPub wire format as the
// standard followers/following/liked collections.
package collections

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"
)

type Type string

const (
	Manual Type = "MANUAL"
	Query  Type = "QUERY"
)

type Visibility string

const (
	Public   Visibility = "PUBLIC"
	Unlisted Visibility = "UNLISTED"
	Private  Visibility = "PRIVATE"
)

type SortOrder string

const (
	Chrono        SortOrder = "CHRONO"
	ReverseChrono SortOrder = "REVERSE_CHRONO"
	ManualOrder   SortOrder = "MANUAL"
)

// idPattern matches a URL-safe collection slug: 1-64 characters, lowercase
// alphanumeric, dash or underscore, not starting with a dash or underscore.
var idPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

// reserved holds the standard AP collection and endpoint names a custom
// collection's id must not shadow.
var reserved = map[string]bool{
	"inbox":       true,
	"outbox":      true,
	"followers":   true,
	"following":   true,
	"liked":       true,
	"shares":      true,
	"collections": true,
	"endpoints":   true,
}

var (
	ErrInvalidID         = errors.New("invalid collection id")
	ErrReservedID        = errors.New("collection id is reserved")
	ErrEmptyName         = errors.New("collection name is required")
	ErrManualHasFilter   = errors.New("manual collections must not have a query filter")
	ErrQueryHasItems     = errors.New("query collections must not have a member item list")
	ErrUnsupportedFilter = errors.New("query collections require a query filter")
)

// Filter is the declarative query collections run against an actor's
// outbox. Every populated field is ANDed together.
type Filter struct {
	ActivityTypes []string   `json:"activityTypes,omitempty"`
	ObjectTypes   []string   `json:"objectTypes,omitempty"`
	Tags          []string   `json:"tags,omitempty"`
	AfterDate     *time.Time `json:"afterDate,omitempty"`
	BeforeDate    *time.Time `json:"beforeDate,omitempty"`
	HasAttachment *bool      `json:"hasAttachment,omitempty"`
	IsReply       *bool      `json:"isReply,omitempty"`
	SearchQuery   string     `json:"searchQuery,omitempty"`
}

func (f *Filter) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*f = Filter{}
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, f)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), f)
	default:
		return fmt.Errorf("unsupported conversion from %T to %T", src, f)
	}
}

func (f Filter) Value() (driver.Value, error) {
	buf, err := json.Marshal(f)
	return string(buf), err
}

// IsEmpty reports whether no filter field is populated.
func (f *Filter) IsEmpty() bool {
	return len(f.ActivityTypes) == 0 &&
		len(f.ObjectTypes) == 0 &&
		len(f.Tags) == 0 &&
		f.AfterDate == nil &&
		f.BeforeDate == nil &&
		f.HasAttachment == nil &&
		f.IsReply == nil &&
		f.SearchQuery == ""
}

// Definition is a custom collection's persisted configuration.
type Definition struct {
	Username    string
	ID          string
	Name        string
	Description string
	Type        Type
	Visibility  Visibility
	SortOrder   SortOrder
	MaxItems    *int
	Items       ItemList
	Filter      Filter
}

// ItemList is a MANUAL collection's ordered member ID list.
type ItemList []string

func (l *ItemList) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, l)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported conversion from %T to %T", src, l)
	}
}

func (l ItemList) Value() (driver.Value, error) {
	buf, err := json.Marshal(l)
	return string(buf), err
}

// Validate enforces the creation/update invariants: a well-formed,
// non-reserved id, a non-empty name, and type-appropriate exclusivity
// between the member item list and the query filter.
func (d *Definition) Validate() error {
	if !idPattern.MatchString(d.ID) {
		return fmt.Errorf("%w: %s", ErrInvalidID, d.ID)
	}
	if reserved[d.ID] {
		return fmt.Errorf("%w: %s", ErrReservedID, d.ID)
	}
	if d.Name == "" {
		return ErrEmptyName
	}

	switch d.Type {
	case Manual:
		if !d.Filter.IsEmpty() {
			return ErrManualHasFilter
		}
	case Query:
		if len(d.Items) > 0 {
			return ErrQueryHasItems
		}
	default:
		return fmt.Errorf("unsupported collection type: %s", d.Type)
	}

	return nil
}
