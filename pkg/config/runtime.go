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

// Package config loads the runtime configuration of the console core: the
// API base URL, the user scope, the data directory and the sync tuning.
// Values come from a YAML file overridden by environment variables; built-in
// defaults apply when neither is present.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/united-manufacturing-hub/ran-console-core/pkg/constants"
	"github.com/united-manufacturing-hub/ran-console-core/pkg/env"
	"github.com/united-manufacturing-hub/ran-console-core/pkg/logger"
)

// DatabaseDefaults seeds the database section of fresh settings. The
// password is write-only from the core's point of view and never logged.
type DatabaseDefaults struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	Table    string `yaml:"table"`
}

// RuntimeConfig is the host-provided configuration of the agent.
type RuntimeConfig struct {
	// APIBaseURL is the analysis backend, e.g. "http://localhost:8080".
	// Empty means no remote preference service is configured; the core then
	// works purely from the local slot.
	APIBaseURL string `yaml:"apiBaseUrl"`

	// UserID scopes the preference slot and all remote settings calls.
	UserID string `yaml:"userId"`

	// DataDir holds the durable preference slots.
	DataDir string `yaml:"dataDir"`

	// InsecureTLS disables certificate verification for the API client.
	InsecureTLS bool `yaml:"insecureTLS"`

	// SyncStrategy is one of periodic, visibility, change, hybrid.
	SyncStrategy string `yaml:"syncStrategy"`

	SyncInterval   time.Duration `yaml:"syncInterval"`
	SaveDebounce   time.Duration `yaml:"saveDebounce"`
	FilterDebounce time.Duration `yaml:"filterDebounce"`

	// StatusAddr is the listen address of the local status server; empty
	// disables it.
	StatusAddr string `yaml:"statusAddr"`

	Database DatabaseDefaults `yaml:"database"`
}

// DefaultRuntimeConfig returns the built-in baseline.
func DefaultRuntimeConfig() RuntimeConfig {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}

	return RuntimeConfig{
		APIBaseURL:     "",
		UserID:         "default",
		DataDir:        filepath.Join(home, ".console-core"),
		SyncStrategy:   "hybrid",
		SyncInterval:   constants.DefaultSyncInterval,
		SaveDebounce:   constants.DefaultSaveDebounce,
		FilterDebounce: constants.DefaultFilterDebounce,
		StatusAddr:     "127.0.0.1:9180",
		Database: DatabaseDefaults{
			Host:   "localhost",
			Port:   5432,
			User:   "kpi",
			DBName: "kpi",
			Table:  "peg_samples",
		},
	}
}

// Load reads the runtime config from the YAML file at path (missing file is
// not an error) and applies environment overrides on top.
func Load(path string) (RuntimeConfig, error) {
	log := logger.For(logger.ComponentRuntimeConfig)
	rc := DefaultRuntimeConfig()

	if path == "" {
		path = filepath.Join(rc.DataDir, "runtime.yaml")
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &rc); err != nil {
			return RuntimeConfig{}, fmt.Errorf("failed to parse runtime config %s: %w", path, err)
		}
		log.Infof("Loaded runtime config from %s", path)
	case os.IsNotExist(err):
		log.Debugf("No runtime config at %s, using defaults", path)
	default:
		return RuntimeConfig{}, fmt.Errorf("failed to read runtime config %s: %w", path, err)
	}

	if err := applyEnvOverrides(&rc); err != nil {
		return RuntimeConfig{}, err
	}

	log.Infof("Runtime config: api=%q user=%q dataDir=%q strategy=%s",
		rc.APIBaseURL, rc.UserID, rc.DataDir, rc.SyncStrategy)

	return rc, nil
}

func applyEnvOverrides(rc *RuntimeConfig) error {
	var err error

	if rc.APIBaseURL, err = env.GetAsString("CONSOLE_API_URL", false, rc.APIBaseURL); err != nil {
		return err
	}
	if rc.UserID, err = env.GetAsString("CONSOLE_USER_ID", false, rc.UserID); err != nil {
		return err
	}
	if rc.DataDir, err = env.GetAsString("CONSOLE_DATA_DIR", false, rc.DataDir); err != nil {
		return err
	}
	if rc.InsecureTLS, err = env.GetAsBool("CONSOLE_INSECURE_TLS", false, rc.InsecureTLS); err != nil {
		return err
	}
	if rc.SyncStrategy, err = env.GetAsString("CONSOLE_SYNC_STRATEGY", false, rc.SyncStrategy); err != nil {
		return err
	}
	if rc.SyncInterval, err = env.GetAsDuration("CONSOLE_SYNC_INTERVAL", false, rc.SyncInterval); err != nil {
		return err
	}
	if rc.SaveDebounce, err = env.GetAsDuration("CONSOLE_SAVE_DEBOUNCE", false, rc.SaveDebounce); err != nil {
		return err
	}
	if rc.StatusAddr, err = env.GetAsString("CONSOLE_STATUS_ADDR", false, rc.StatusAddr); err != nil {
		return err
	}
	if rc.Database.Host, err = env.GetAsString("CONSOLE_DB_HOST", false, rc.Database.Host); err != nil {
		return err
	}
	if rc.Database.Port, err = env.GetAsInt("CONSOLE_DB_PORT", false, rc.Database.Port); err != nil {
		return err
	}
	if rc.Database.Password, err = env.GetAsString("CONSOLE_DB_PASSWORD", false, rc.Database.Password); err != nil {
		return err
	}

	return nil
}
