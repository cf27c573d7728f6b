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

// Package core is the facade the embedding UI talks to. It composes the
// settings model, the durable and remote stores, the sync engine, the
// derived-metric evaluator and the query/job controllers behind one
// surface; the underlying components stay swappable.
package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/tiendc/go-deepcopy"
	"go.uber.org/zap"

	httpapi "github.com/united-manufacturing-hub/ran-console-core/pkg/api/http"
	"github.com/united-manufacturing-hub/ran-console-core/pkg/config"
	"github.com/united-manufacturing-hub/ran-console-core/pkg/constants"
	"github.com/united-manufacturing-hub/ran-console-core/pkg/derived"
	"github.com/united-manufacturing-hub/ran-console-core/pkg/encoding/safejson"
	"github.com/united-manufacturing-hub/ran-console-core/pkg/job"
	"github.com/united-manufacturing-hub/ran-console-core/pkg/logger"
	"github.com/united-manufacturing-hub/ran-console-core/pkg/models"
	"github.com/united-manufacturing-hub/ran-console-core/pkg/query"
	"github.com/united-manufacturing-hub/ran-console-core/pkg/settings"
	"github.com/united-manufacturing-hub/ran-console-core/pkg/settings/remote"
	"github.com/united-manufacturing-hub/ran-console-core/pkg/settings/store"
	synceng "github.com/united-manufacturing-hub/ran-console-core/pkg/settings/sync"
	"github.com/united-manufacturing-hub/ran-console-core/pkg/watchdog"
)

// ValidationError carries the per-field issues that blocked an update.
type ValidationError struct {
	Section string
	Issues  map[string]string
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Issues))
	for field, issue := range e.Issues {
		fields = append(fields, field+": "+issue)
	}
	sort.Strings(fields)
	return fmt.Sprintf("invalid %s settings: %s", e.Section, strings.Join(fields, "; "))
}

// Observer receives a settings snapshot after every committed change.
type Observer func(settings.Settings)

type observerEntry struct {
	id uint64
	fn Observer
}

// Core wires the preference and results subsystems together for one user.
type Core struct {
	rc       config.RuntimeConfig
	apiCfg   httpapi.Config
	log      *zap.SugaredLogger
	dog      watchdog.Iface
	defaults settings.Settings

	fileStore    *store.FileStore
	remoteClient *remote.Client
	engine       *synceng.Engine
	jobClient    *job.Client

	mu         sync.Mutex
	settings   settings.Settings
	observers  []observerEntry
	observerID uint64
	started    bool
}

func New(rc config.RuntimeConfig, dog watchdog.Iface) *Core {
	log := logger.For(logger.ComponentCore)
	apiCfg := httpapi.Config{BaseURL: rc.APIBaseURL, InsecureTLS: rc.InsecureTLS}
	defaults := settings.Defaults(&rc)

	fileStore := store.NewFileStore(rc.DataDir, rc.UserID)
	remoteClient := remote.NewClient(apiCfg)
	engine := synceng.NewEngine(synceng.Config{
		UserID:       rc.UserID,
		Strategy:     synceng.Strategy(rc.SyncStrategy),
		Interval:     rc.SyncInterval,
		SaveDebounce: rc.SaveDebounce,
	}, fileStore, remoteClient, defaults, dog)

	return &Core{
		rc:           rc,
		apiCfg:       apiCfg,
		log:          log,
		dog:          dog,
		defaults:     defaults,
		fileStore:    fileStore,
		remoteClient: remoteClient,
		engine:       engine,
		jobClient: job.NewClient(job.Config{
			API: apiCfg,
			Dog: dog,
		}),
		settings: defaults,
	}
}

// Start bootstraps the settings state (durable slot, then remote) and
// launches the sync engine. Idempotent per Core.
func (c *Core) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return nil
	}
	c.started = true
	c.mu.Unlock()

	loaded, err := c.engine.Bootstrap(ctx)
	if err != nil {
		return fmt.Errorf("settings bootstrap failed: %w", err)
	}

	c.mu.Lock()
	c.settings = loaded
	c.mu.Unlock()

	c.engine.Start(ctx)
	c.publish()
	c.log.Infow("Core started", "user", c.rc.UserID, "remote", c.remoteClient.Configured())
	return nil
}

// Stop shuts the sync engine down, flushing unsaved changes. Idempotent.
func (c *Core) Stop() {
	c.engine.Stop()
	c.log.Info("Core stopped")
}

// Settings returns a deep copy of the current settings.
func (c *Core) Settings() settings.Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Defaults returns the baseline settings for this runtime config.
func (c *Core) Defaults() settings.Settings {
	return c.defaults
}

// SyncStatus reports the sync engine's current state.
func (c *Core) SyncStatus() synceng.Status {
	return c.engine.GetStatus()
}

// StoreUsage reports the durable slot's disk footprint.
func (c *Core) StoreUsage() (store.Usage, error) {
	return c.fileStore.GetUsage()
}

// Subscribe registers an observer. Observers are invoked in registration
// order with deep-copied snapshots; the returned function unsubscribes.
func (c *Core) Subscribe(fn Observer) func() {
	c.mu.Lock()
	c.observerID++
	id := c.observerID
	c.observers = append(c.observers, observerEntry{id: id, fn: fn})
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, entry := range c.observers {
			if entry.id == id {
				c.observers = append(c.observers[:i], c.observers[i+1:]...)
				return
			}
		}
	}
}

// UpdateSetting sets one key in one section. The change is committed only
// when the resulting section still validates.
func (c *Core) UpdateSetting(section, key string, value any) error {
	return c.UpdateSettings(map[string]map[string]any{section: {key: value}})
}

// UpdateSettings applies a partial update across sections atomically:
// either every touched section validates and the whole update commits, or
// nothing changes.
func (c *Core) UpdateSettings(partialBySection map[string]map[string]any) error {
	c.mu.Lock()
	current, err := settingsMap(c.settings)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	defaultsMap, err := settingsMap(c.defaults)
	if err != nil {
		c.mu.Unlock()
		return err
	}

	touched := make([]string, 0, len(partialBySection))
	for section, partial := range partialBySection {
		target, ok := current[section].(map[string]any)
		if !ok {
			c.mu.Unlock()
			return fmt.Errorf("unknown settings section %q", section)
		}
		known, _ := defaultsMap[section].(map[string]any)
		for key, value := range partial {
			if _, exists := known[key]; !exists {
				c.mu.Unlock()
				return fmt.Errorf("unknown key %q in section %q", key, section)
			}
			target[key] = value
		}
		touched = append(touched, section)
	}

	var candidate settings.Settings
	buf, err := safejson.Marshal(current)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	if err := safejson.Unmarshal(buf, &candidate); err != nil {
		c.mu.Unlock()
		return fmt.Errorf("value has the wrong type: %w", err)
	}

	sort.Strings(touched)
	for _, section := range touched {
		if issues := settings.Validate(candidate, section); len(issues) > 0 {
			c.mu.Unlock()
			return &ValidationError{Section: section, Issues: issues}
		}
	}

	c.settings = candidate
	c.mu.Unlock()

	c.engine.NotifyMutation(candidate)
	c.publish()
	return nil
}

// Validate checks the current settings; empty section means all sections.
func (c *Core) Validate(section string) map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return settings.Validate(c.settings, section)
}

// Reset returns the named sections to their defaults; with no sections the
// whole document is reset.
func (c *Core) Reset(sections ...string) error {
	c.mu.Lock()
	if len(sections) == 0 {
		c.settings = c.defaults
		committed := c.settings
		c.mu.Unlock()
		c.engine.NotifyMutation(committed)
		c.publish()
		return nil
	}

	current, err := settingsMap(c.settings)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	defaultsMap, err := settingsMap(c.defaults)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	for _, section := range sections {
		if _, ok := defaultsMap[section]; !ok {
			c.mu.Unlock()
			return fmt.Errorf("unknown settings section %q", section)
		}
		current[section] = defaultsMap[section]
	}
	c.settings = settings.Sanitize(current, c.defaults)
	committed := c.settings
	c.mu.Unlock()

	c.engine.NotifyMutation(committed)
	c.publish()
	return nil
}

// Save persists the current settings to the durable slot immediately.
func (c *Core) Save() error {
	c.mu.Lock()
	current := c.settings
	c.mu.Unlock()
	return c.engine.SaveNow(current)
}

// Load re-reads the durable slot, replacing the in-memory state. A missing
// slot resets to defaults.
func (c *Core) Load() error {
	raw, err := c.fileStore.Load()
	if err != nil {
		return err
	}

	loaded := c.defaults
	if raw != nil {
		loaded = settings.Sanitize(raw, c.defaults)
	}

	c.mu.Lock()
	c.settings = loaded
	c.mu.Unlock()
	c.engine.ReplaceCurrent(loaded)
	c.publish()
	return nil
}

// ExportSettings returns the user's preference document as a blob. With a
// configured backend the export comes from there; otherwise the local
// state is serialised.
func (c *Core) ExportSettings(ctx context.Context) ([]byte, error) {
	if c.remoteClient.Configured() {
		exportCtx, cancel := context.WithTimeout(ctx, constants.ExportDownloadTimeout)
		defer cancel()
		return c.remoteClient.Export(exportCtx, c.rc.UserID)
	}
	c.mu.Lock()
	current := c.settings
	c.mu.Unlock()
	return safejson.MarshalIndent(current, "", "  ")
}

// ImportSettings replaces the preference document from a blob. With a
// configured backend the blob is pushed there first, then re-fetched;
// otherwise it is sanitised and committed locally.
func (c *Core) ImportSettings(ctx context.Context, data []byte, overwrite bool) error {
	if c.remoteClient.Configured() {
		if err := c.remoteClient.Import(ctx, c.rc.UserID, data, overwrite); err != nil {
			return err
		}
		result, err := c.remoteClient.Get(ctx, c.rc.UserID)
		if err != nil {
			return err
		}
		if result.IsNew {
			return nil
		}
		imported := settings.Sanitize(result.Data, c.defaults)
		c.mu.Lock()
		c.settings = imported
		c.mu.Unlock()
		c.engine.NotifyMutation(imported)
		c.publish()
		return nil
	}

	var raw map[string]any
	if err := safejson.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("import payload is not a settings document: %w", err)
	}
	imported := settings.Sanitize(raw, c.defaults)
	c.mu.Lock()
	c.settings = imported
	c.mu.Unlock()
	c.engine.NotifyMutation(imported)
	c.publish()
	return nil
}

// NotifyOnline forwards a connectivity transition to the sync engine.
func (c *Core) NotifyOnline(online bool) {
	c.engine.NotifyOnline(online)
}

// NotifyVisible forwards a visibility transition to the sync engine.
func (c *Core) NotifyVisible() {
	c.engine.NotifyVisible()
}

// Results builds a query controller for the analysis result list. The
// caller owns its Start/Stop lifecycle.
func (c *Core) Results(initial query.Filters, onChange func(query.State)) *query.Controller {
	return query.NewController(query.Config{
		API:      c.apiCfg,
		Debounce: c.rc.FilterDebounce,
		Filters:  initial,
		OnChange: onChange,
	})
}

// ResultDetail fetches one analysis result by id.
func (c *Core) ResultDetail(ctx context.Context, id string) (*models.AnalysisResult, error) {
	result, _, err := httpapi.GetRequest[models.AnalysisResult](ctx, c.apiCfg, httpapi.AnalysisResultEndpoint(id), nil, c.log)
	return result, err
}

// Job returns the shared async analysis client.
func (c *Core) Job() *job.Client {
	return c.jobClient
}

// EvaluateFormula evaluates one expression against the given values using
// the configured precision.
func (c *Core) EvaluateFormula(expression string, values map[string]*float64) *float64 {
	return derived.Evaluate(expression, values, c.evaluationPrecision())
}

// CalculateDerived evaluates every active formula in dependency order.
func (c *Core) CalculateDerived(baseValues map[string]*float64) (map[string]*float64, error) {
	c.mu.Lock()
	formulas := append([]derived.Formula{}, c.settings.DerivedPegSettings.Formulas...)
	c.mu.Unlock()
	return derived.CalculateAll(formulas, baseValues, c.evaluationPrecision())
}

// AnalyzeFormula inspects a formula (possibly an unsaved edit) against the
// stored formula set.
func (c *Core) AnalyzeFormula(f derived.Formula) derived.DependencyAnalysis {
	c.mu.Lock()
	formulas := append([]derived.Formula{}, c.settings.DerivedPegSettings.Formulas...)
	c.mu.Unlock()
	return derived.AnalyzeDependencies(f, formulas)
}

func (c *Core) evaluationPrecision() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings.DerivedPegSettings.Settings.EvaluationPrecision
}

// publish hands the current snapshot to every observer in registration
// order. Callbacks run outside the lock.
func (c *Core) publish() {
	c.mu.Lock()
	snap := c.snapshotLocked()
	entries := append([]observerEntry{}, c.observers...)
	c.mu.Unlock()

	for _, entry := range entries {
		entry.fn(snap)
	}
}

func (c *Core) snapshotLocked() settings.Settings {
	var snap settings.Settings
	if err := deepcopy.Copy(&snap, &c.settings); err != nil {
		c.log.Errorw("Failed to copy settings snapshot", "error", err)
		return c.settings
	}
	return snap
}

func settingsMap(s settings.Settings) (map[string]any, error) {
	buf, err := safejson.Marshal(&s)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := safejson.Unmarshal(buf, &m); err != nil {
		return nil, err
	}
	return m, nil
}
