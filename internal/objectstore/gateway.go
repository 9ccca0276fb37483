// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package objectstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"golang.org/x/oauth2/clientcredentials"
)

// GatewayConfig configures the HTTP object gateway backend.
//
// The gateway exposes:
//
//	GET    {url}/objects/{key}        raw object bytes (404 when absent)
//	PUT    {url}/objects/{key}        store body with its Content-Type
//	DELETE {url}/objects/{key}
//	GET    {url}/objects?prefix={p}   {"keys": [...]}
//
// Objects are publicly readable at {PublicBaseURL}/{key}.
type GatewayConfig struct {
	URL           string
	PublicBaseURL string

	// OAuth2 client credentials; when TokenURL is empty requests are sent
	// unauthenticated.
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
}

// Gateway is a Store backed by an HTTP object gateway.
type Gateway struct {
	httpClient *http.Client
	baseURL    string
	publicURL  string
}

// NewGateway creates a gateway store. The context scopes the OAuth2 token
// source.
func NewGateway(ctx context.Context, cfg GatewayConfig) *Gateway {
	client := http.DefaultClient
	if cfg.TokenURL != "" {
		creds := &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			Scopes:       cfg.Scopes,
		}
		client = creds.Client(ctx)
	}
	return newGatewayWithClient(client, cfg)
}

func newGatewayWithClient(client *http.Client, cfg GatewayConfig) *Gateway {
	base := strings.TrimRight(cfg.URL, "/")
	public := cfg.PublicBaseURL
	if public == "" {
		public = base + "/public"
	}
	return &Gateway{
		httpClient: client,
		baseURL:    base,
		publicURL:  public,
	}
}

func (g *Gateway) objectURL(key string) string {
	return publicURL(g.baseURL+"/objects", key)
}

// Get downloads the object under key.
func (g *Gateway) Get(ctx context.Context, key string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.objectURL(key), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("get object %s: %w", key, ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("object gateway returned HTTP %d for %s", resp.StatusCode, key)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", key, err)
	}
	return data, nil
}

// Put uploads data under key.
func (g *Gateway) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, g.objectURL(key), bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(resp.Body)
		slog.Error("object gateway put error", "status", resp.StatusCode, "key", key, "body", string(body))
		return "", fmt.Errorf("object gateway returned HTTP %d for %s", resp.StatusCode, key)
	}

	return publicURL(g.publicURL, key), nil
}

// Delete removes the object under key. A 404 is treated as success.
func (g *Gateway) Delete(ctx context.Context, key string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, g.objectURL(key), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent, http.StatusNotFound:
		return nil
	default:
		return fmt.Errorf("object gateway returned HTTP %d deleting %s", resp.StatusCode, key)
	}
}

// listResponse is the gateway's listing payload.
type listResponse struct {
	Keys []string `json:"keys"`
}

// List returns keys under prefix in lexical order.
func (g *Gateway) List(ctx context.Context, prefix string) ([]string, error) {
	params := url.Values{}
	params.Set("prefix", prefix)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/objects?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("object gateway returned HTTP %d listing %q", resp.StatusCode, prefix)
	}

	var out listResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode listing: %w", err)
	}
	sort.Strings(out.Keys)
	return out.Keys, nil
}
