// Copyright 2025 UMH Systems GmbH
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

// Package remote is the user-scoped settings CRUD against the preference
// service. "Backend not configured" is a distinct condition from a failed
// request so the sync engine can choose between no-op and retry.
package remote

import (
	"context"
	"errors"
	"net/url"

	"go.uber.org/zap"

	apihttp "github.com/united-manufacturing-hub/ran-console-core/pkg/api/http"
	"github.com/united-manufacturing-hub/ran-console-core/pkg/logger"
	"github.com/united-manufacturing-hub/ran-console-core/pkg/settings"
)

// ErrNotConfigured means no API base URL was provided; remote sync is off.
var ErrNotConfigured = errors.New("remote settings service is not configured")

// GetResult is the outcome of a Get. IsNew marks a user the backend has
// never seen; Data is nil in that case.
type GetResult struct {
	Data  map[string]any
	IsNew bool
}

// Client talks to the preference endpoints for one user.
type Client struct {
	cfg    apihttp.Config
	logger *zap.SugaredLogger
}

// NewClient returns a remote client. An empty base URL yields a client
// whose every call reports ErrNotConfigured.
func NewClient(cfg apihttp.Config) *Client {
	return &Client{
		cfg:    cfg,
		logger: logger.For(logger.ComponentRemoteStore),
	}
}

// Configured reports whether a backend base URL is set.
func (c *Client) Configured() bool {
	return c.cfg.BaseURL != ""
}

func (c *Client) userQuery(userID string) url.Values {
	query := url.Values{}
	query.Set("user_id", userID)
	return query
}

// Get fetches the user's settings document. A 404 is not an error: the
// result carries IsNew=true and the caller seeds from defaults.
func (c *Client) Get(ctx context.Context, userID string) (*GetResult, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	result, _, err := apihttp.GetRequest[map[string]any](ctx, c.cfg, apihttp.PreferenceSettingsEndpoint, c.userQuery(userID), c.logger)
	if err != nil {
		if apihttp.IsNotFound(err) {
			return &GetResult{IsNew: true}, nil
		}
		return nil, err
	}
	if result == nil {
		return &GetResult{IsNew: true}, nil
	}
	return &GetResult{Data: *result}, nil
}

// Put replaces the user's settings document.
func (c *Client) Put(ctx context.Context, userID string, s settings.Settings) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	_, _, err := apihttp.PutRequest[map[string]any](ctx, c.cfg, apihttp.PreferenceSettingsEndpoint, c.userQuery(userID), &s, c.logger)
	return err
}

// Post creates the user's settings document.
func (c *Client) Post(ctx context.Context, userID string, s settings.Settings) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	payload := struct {
		UserID string `json:"user_id"`
		settings.Settings
	}{UserID: userID, Settings: s}
	_, _, err := apihttp.PostRequest[map[string]any](ctx, c.cfg, apihttp.PreferenceSettingsEndpoint, nil, &payload, c.logger)
	return err
}

// Delete removes the user's settings document.
func (c *Client) Delete(ctx context.Context, userID string) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	_, err := apihttp.DeleteRequest(ctx, c.cfg, apihttp.PreferenceSettingsEndpoint, c.userQuery(userID), c.logger)
	return err
}

// Export downloads the user's preferences as a raw JSON blob.
func (c *Client) Export(ctx context.Context, userID string) ([]byte, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	body, _, err := apihttp.GetRaw(ctx, c.cfg, apihttp.PreferenceExportEndpoint, c.userQuery(userID), c.logger)
	return body, err
}

// Import uploads a previously exported blob. With overwrite false the
// backend merges; with true it replaces.
func (c *Client) Import(ctx context.Context, userID string, content []byte, overwrite bool) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	query := c.userQuery(userID)
	if overwrite {
		query.Set("overwrite", "true")
	} else {
		query.Set("overwrite", "false")
	}
	_, _, err := apihttp.PostMultipartFile[map[string]any](ctx, c.cfg, apihttp.PreferenceImportEndpoint, query, "file", "preferences.json", content, c.logger)
	return err
}
