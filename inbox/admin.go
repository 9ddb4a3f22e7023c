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

package inbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/brocaactivitypub/broca/ap"
	"github.com/brocaactivitypub/broca/collections"
	"github.com/brocaactivitypub/broca/data"
)

// ErrProtectedActor is returned when an admin operation targets the system
// actor, which is never updatable or deletable.
var ErrProtectedActor = errors.New("system actor is protected")

// createEnvelope captures the fields an admin Create activity's raw JSON
// carries that the generically-decoded [ap.Activity] does not: an
// actor-creation request's preferredUsername, or a collection-creation
// request's broca:collectionDefinition extension. ap.Activity.Object
// decodes only into an [ap.Object] or a nested [ap.Activity], so
// Actor-shaped fields are lost along the way, and admin dispatch re-parses
// the original body directly.
type createEnvelope struct {
	Object struct {
		Type              string `json:"type"`
		PreferredUsername string `json:"preferredUsername"`
		Name              string `json:"name"`
		Summary           string `json:"summary"`
		AttributedTo      string `json:"attributedTo"`
	} `json:"object"`
	CollectionDefinition json.RawMessage `json:"broca:collectionDefinition"`
}

type objectEnvelope struct {
	Object json.RawMessage `json:"object"`
}

// collectionDefinitionDTO is the wire form of broca:collectionDefinition.
type collectionDefinitionDTO struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Type        collections.Type    `json:"type"`
	Visibility  collections.Visibility `json:"visibility"`
	SortOrder   collections.SortOrder  `json:"sortOrder"`
	MaxItems    *int                `json:"maxItems,omitempty"`
	Filter      collections.Filter  `json:"filter"`
}

func (p *Processor) adminCreate(ctx context.Context, rawBody []byte) error {
	var env createEnvelope
	if err := json.Unmarshal(rawBody, &env); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	switch ap.ActorType(env.Object.Type) {
	case ap.Person, ap.Service, ap.Application, ap.Organization, ap.Group:
		if env.Object.PreferredUsername == "" {
			return fmt.Errorf("admin actor creation requires preferredUsername")
		}
		return p.createActor(ctx, ap.ActorType(env.Object.Type), env.Object.PreferredUsername, env.Object.Name, env.Object.Summary)

	case "Collection":
		if len(env.CollectionDefinition) == 0 {
			return fmt.Errorf("admin collection creation requires broca:collectionDefinition")
		}
		return p.createCollection(ctx, env.Object.AttributedTo, env.CollectionDefinition)

	default:
		return fmt.Errorf("unsupported admin create object type: %s", env.Object.Type)
	}
}

// createActor generates an RSA-2048 key pair, materializes a local actor's
// standard endpoints and persists it.
func (p *Processor) createActor(ctx context.Context, actorType ap.ActorType, username, name, summary string) error {
	privateKey, err := data.GenerateKey()
	if err != nil {
		return fmt.Errorf("failed to generate key pair for %s: %w", username, err)
	}

	publicKeyPem, err := data.EncodePublicKey(&privateKey.PublicKey)
	if err != nil {
		return fmt.Errorf("failed to encode public key for %s: %w", username, err)
	}

	privateKeyPem, err := data.EncodePrivateKey(privateKey)
	if err != nil {
		return fmt.Errorf("failed to encode private key for %s: %w", username, err)
	}

	id := p.URLs.Actor(username)

	actor := ap.Actor{
		Context:            []string{"https://www.w3.org/ns/activitystreams", "https://w3id.org/security/v1"},
		ID:                 id,
		Type:               actorType,
		Inbox:              p.URLs.Inbox(username),
		Outbox:             p.URLs.Outbox(username),
		Followers:          p.URLs.Followers(username),
		Following:          p.URLs.Following(username),
		Liked:              p.URLs.Liked(username),
		PreferredUsername:  username,
		Name:               name,
		Summary:            summary,
		PublicKey: ap.PublicKey{
			ID:           p.URLs.Key(username),
			Owner:        id,
			PublicKeyPem: publicKeyPem,
		},
	}

	return p.Store.InsertActor(ctx, username, &actor, privateKeyPem)
}

// createCollection creates a custom collection owned by the actor named in
// attributedTo, per the attached broca:collectionDefinition.
func (p *Processor) createCollection(ctx context.Context, attributedTo string, raw json.RawMessage) error {
	username, ok := p.URLs.ParseActor(attributedTo)
	if !ok {
		return fmt.Errorf("collection owner is not a local actor: %s", attributedTo)
	}

	var dto collectionDefinitionDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	def := collections.Definition{
		Username:    username,
		ID:          dto.ID,
		Name:        dto.Name,
		Description: dto.Description,
		Type:        dto.Type,
		Visibility:  dto.Visibility,
		SortOrder:   dto.SortOrder,
		MaxItems:    dto.MaxItems,
		Filter:      dto.Filter,
	}

	if err := def.Validate(); err != nil {
		return err
	}

	return p.Store.InsertCollection(ctx, &def)
}

// adminUpdate applies an admin Update(Actor): every mutable field is
// overwritten from the incoming representation; id, type, preferredUsername,
// the standard endpoints and key material are preserved regardless of what
// the request carries.
func (p *Processor) adminUpdate(ctx context.Context, rawBody []byte) error {
	var env objectEnvelope
	if err := json.Unmarshal(rawBody, &env); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	var incoming ap.Actor
	if err := json.Unmarshal(env.Object, &incoming); err != nil || incoming.ID == "" {
		// not an actor update; nothing to do
		return nil
	}

	username, ok := p.URLs.ParseActor(incoming.ID)
	if !ok {
		return fmt.Errorf("update target is not a local actor: %s", incoming.ID)
	}
	if username == p.Config.SystemActorUsername {
		return ErrProtectedActor
	}

	existing, err := p.Store.ActorByUsername(ctx, username)
	if err != nil {
		return err
	}

	existing.Name = incoming.Name
	existing.Summary = incoming.Summary
	existing.Icon = incoming.Icon
	existing.Image = incoming.Image
	existing.Attachment = incoming.Attachment
	existing.ManuallyApprovesFollowers = incoming.ManuallyApprovesFollowers
	for k, v := range incoming.Extensions {
		if existing.Extensions == nil {
			existing.Extensions = ap.Extensions{}
		}
		existing.Extensions[k] = v
	}

	return p.Store.UpdateActor(ctx, existing)
}

// adminDelete deletes the local actor named by activity's object, refusing
// to delete the system actor.
func (p *Processor) adminDelete(ctx context.Context, activity *ap.Activity) error {
	var target string
	if s, ok := activity.Object.(string); ok {
		target = s
	} else if obj, ok := activity.UnwrapObject(); ok {
		target = obj.ID
	}
	if target == "" {
		return fmt.Errorf("delete activity has no target")
	}

	username, ok := p.URLs.ParseActor(target)
	if !ok {
		return fmt.Errorf("delete target is not a local actor: %s", target)
	}
	if username == p.Config.SystemActorUsername {
		return ErrProtectedActor
	}

	return p.Store.DeleteActorByUsername(ctx, username)
}
