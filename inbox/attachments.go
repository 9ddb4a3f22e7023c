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
	"io"
	"net/http"
	"strings"

	"github.com/brocaactivitypub/broca/ap"
	"github.com/google/uuid"
)

const maxAttachmentSize = 8 << 20

// mirrorAttachments downloads every remote URL in obj's attachment list to
// blob storage and rewrites it to the local blob URL, in place; icon and
// image URLs are not mirrored. A download
// failure is logged and the original URL is kept; it never aborts inbox
// processing.
func (p *Processor) mirrorAttachments(ctx context.Context, username string, obj *ap.Object) {
	if obj == nil {
		return
	}

	for i := range obj.Attachment {
		obj.Attachment[i].URL = p.mirrorOne(ctx, username, obj.Attachment[i].URL, obj.Attachment[i].MediaType)
	}
}

func (p *Processor) mirrorOne(ctx context.Context, username, url, mediaType string) string {
	if url == "" || !strings.HasPrefix(url, "https://") {
		return url
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		p.Log.Warn("Failed to build attachment request", "url", url, "error", err)
		return url
	}

	resp, err := p.MediaClient.Do(req)
	if err != nil {
		p.Log.Warn("Failed to fetch attachment", "url", url, "error", err)
		return url
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		p.Log.Warn("Attachment fetch failed", "url", url, "status", resp.StatusCode)
		return url
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAttachmentSize+1))
	if err != nil {
		p.Log.Warn("Failed to read attachment body", "url", url, "error", err)
		return url
	}
	if len(data) > maxAttachmentSize {
		p.Log.Warn("Attachment too large, keeping remote URL", "url", url)
		return url
	}

	contentType := mediaType
	if contentType == "" {
		contentType = resp.Header.Get("Content-Type")
	}

	blobID := uuid.NewString()
	if err := p.Store.InsertBlob(ctx, username, blobID, contentType, data); err != nil {
		p.Log.Warn("Failed to store mirrored attachment", "url", url, "error", err)
		return url
	}

	return p.URLs.Media(username, blobID)
}
