/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal HTTP client for the thin sync API.
// The desktop app uses it under a feature flag to list scripts and push
// serialized revisions.
type Client struct {
	BaseURL string
	Token   string // bearer token
	client  *http.Client
}

// NewClient creates a new backend client. baseURL may include a trailing slash; it will be normalized.
func NewClient(baseURL string, token string) *Client {
	b := strings.TrimRight(baseURL, "/")
	return &Client{
		BaseURL: b,
		Token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, dest any) error {
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return err
	}
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rdr)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("server %s %s: %s", method, u.Path, resp.Status)
	}
	if dest == nil {
		return nil
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	return dec.Decode(dest)
}

// Script is a minimal projection for listing.
type Script struct {
	ID        int64     `json:"id"`
	StableID  string    `json:"stable_id"`
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int64     `json:"version"`
}

// ListScripts returns the scripts known to the backend.
func (c *Client) ListScripts(ctx context.Context) ([]Script, error) {
	var list []Script
	if err := c.doJSON(ctx, http.MethodGet, "/api/scripts", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// RevisionEnvelope matches the server response for the latest revision of a script.
type RevisionEnvelope struct {
	StableID  string          `json:"stable_id"`
	Version   int64           `json:"version"`
	CreatedAt string          `json:"created_at"`
	Payload   json.RawMessage `json:"payload"`
}

// GetLatestRevision fetches the most recent pushed revision for a script.
func (c *Client) GetLatestRevision(ctx context.Context, stableID string) (*RevisionEnvelope, error) {
	var env RevisionEnvelope
	path := fmt.Sprintf("/api/scripts/%s/latest", url.PathEscape(stableID))
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// PushRevision uploads a serialized script payload as a new revision and
// returns the server-assigned version.
func (c *Client) PushRevision(ctx context.Context, stableID, name string, payload []byte) (int64, error) {
	req := map[string]any{
		"name":    name,
		"payload": json.RawMessage(payload),
	}
	var resp struct {
		StableID string `json:"stable_id"`
		Version  int64  `json:"version"`
	}
	path := fmt.Sprintf("/api/scripts/%s/revisions", url.PathEscape(stableID))
	if err := c.doJSON(ctx, http.MethodPost, path, req, &resp); err != nil {
		return 0, err
	}
	return resp.Version, nil
}

// SyncSink adapts the client to the autosave sink interface so a project can
// mirror every persisted snapshot to the backend.
type SyncSink struct {
	Client   *Client
	StableID string
	Name     string
}

// PersistScript pushes the serialized document as a new backend revision.
func (s *SyncSink) PersistScript(ctx context.Context, payload []byte) error {
	if s.Client == nil {
		return fmt.Errorf("sync sink has no client")
	}
	_, err := s.Client.PushRevision(ctx, s.StableID, s.Name, payload)
	return err
}
