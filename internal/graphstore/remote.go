// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package graphstore

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/pdiddy/noesis/internal/httputil"
	"github.com/pdiddy/noesis/pkg/types"
)

// maxSnapshotBytes bounds a downloaded snapshot.
const maxSnapshotBytes = 256 << 20

// Remote fetches a graph snapshot over HTTP. The format comes from the
// response Content-Type and falls back to the URL extension.
type Remote struct {
	url    string
	client *http.Client
}

// NewRemote returns a Remote store for rawURL. A nil client uses
// http.DefaultClient.
func NewRemote(rawURL string, client *http.Client) *Remote {
	if client == nil {
		client = http.DefaultClient
	}
	return &Remote{url: rawURL, client: client}
}

// IsRemote reports whether location is an http or https URL.
func IsRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// LoadGraph downloads and decodes the snapshot, retrying on 429 and 503.
func (r *Remote) LoadGraph(ctx context.Context) (*types.GraphData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return nil, fmt.Errorf("graph url %s: %w", r.url, err)
	}
	req.Header.Set("Accept", "application/json, application/yaml;q=0.9")

	resp, err := httputil.DoWithRetry(ctx, r.client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("fetching graph %s: %w", r.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching graph %s: status %d", r.url, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSnapshotBytes))
	if err != nil {
		return nil, fmt.Errorf("reading graph %s: %w", r.url, err)
	}

	g, err := decodeGraph(data, r.format(resp.Header.Get("Content-Type")))
	if err != nil {
		return nil, fmt.Errorf("graph url %s: %w", r.url, err)
	}
	return g, nil
}

// format maps the response media type onto a snapshot extension.
func (r *Remote) format(contentType string) string {
	mediaType, _, _ := mime.ParseMediaType(contentType)
	switch {
	case mediaType == "application/json" || strings.HasSuffix(mediaType, "+json"):
		return ".json"
	case strings.Contains(mediaType, "yaml"):
		return ".yaml"
	}
	if u, err := url.Parse(r.url); err == nil {
		return path.Ext(u.Path)
	}
	return ""
}
