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

// Package store persists a settings envelope to a per-user slot on the
// local filesystem. The slot is the durable fallback when the backend is
// unreachable; a corrupted slot is evicted on first detection so a bad
// write can never wedge startup.
package store

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/shirou/gopsutil/v3/disk"
	"go.uber.org/zap"

	"github.com/united-manufacturing-hub/ran-console-core/pkg/constants"
	"github.com/united-manufacturing-hub/ran-console-core/pkg/encoding/safejson"
	"github.com/united-manufacturing-hub/ran-console-core/pkg/logger"
	"github.com/united-manufacturing-hub/ran-console-core/pkg/settings"
)

// Envelope is the durable form of a settings document. Data stays raw so
// the load path can sanitize unknown keys against the defaults instead of
// silently dropping them at decode time.
type Envelope struct {
	Data     json.RawMessage `json:"data"`
	Version  int             `json:"version"`
	SavedAt  time.Time       `json:"savedAt"`
	Checksum string          `json:"checksum,omitempty"`
}

// Usage describes how much space the slot volume has left.
type Usage struct {
	UsedBytes  uint64  `json:"used_bytes"`
	TotalBytes uint64  `json:"total_bytes"`
	Percent    float64 `json:"percent"`
}

// FileStore reads and writes one user's settings slot. Safe for concurrent
// use.
type FileStore struct {
	dataDir string
	userID  string
	mu      sync.Mutex
	logger  *zap.SugaredLogger
}

// NewFileStore returns a store for the user's slot under
// <dataDir>/preferences/<userID>.json.
func NewFileStore(dataDir, userID string) *FileStore {
	return &FileStore{
		dataDir: dataDir,
		userID:  userID,
		logger:  logger.For(logger.ComponentDurableStore),
	}
}

func (f *FileStore) slotDir() string {
	return filepath.Join(f.dataDir, constants.SlotDirName)
}

func (f *FileStore) slotPath() string {
	return filepath.Join(f.slotDir(), f.userID+".json")
}

// Available probes the slot directory with a sentinel write and remove.
func (f *FileStore) Available() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(f.slotDir(), 0o700); err != nil {
		return false
	}
	sentinel := filepath.Join(f.slotDir(), ".probe-"+f.userID)
	if err := os.WriteFile(sentinel, []byte("probe"), constants.SlotFileMode); err != nil {
		return false
	}
	return os.Remove(sentinel) == nil
}

// Save serialises the envelope and writes it atomically. The previous slot
// contents survive any failed write because the rename only happens after
// the temp file is fully flushed.
func (f *FileStore) Save(s settings.Settings) (time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := safejson.Marshal(&s)
	if err != nil {
		return time.Time{}, newError(KindUnknown, err)
	}

	savedAt := time.Now().UTC()
	envelope := Envelope{
		Data:     data,
		Version:  constants.EnvelopeVersion,
		SavedAt:  savedAt,
		Checksum: checksumOf(data),
	}
	buf, err := safejson.Marshal(&envelope)
	if err != nil {
		return time.Time{}, newError(KindUnknown, err)
	}

	if err := os.MkdirAll(f.slotDir(), 0o700); err != nil {
		return time.Time{}, classifyWriteError(err)
	}

	tmp := f.slotPath() + ".tmp"
	if err := os.WriteFile(tmp, buf, constants.SlotFileMode); err != nil {
		_ = os.Remove(tmp)
		return time.Time{}, classifyWriteError(err)
	}
	if err := os.Rename(tmp, f.slotPath()); err != nil {
		_ = os.Remove(tmp)
		return time.Time{}, classifyWriteError(err)
	}
	return savedAt, nil
}

// Load reads the slot and returns the raw settings document, or nil when
// the slot is empty. Corrupt slots (unparseable, bad checksum, unknown
// format) are evicted before the error is returned.
func (f *FileStore) Load() (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	buf, err := os.ReadFile(f.slotPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, newError(KindUnavailable, err)
	}

	var envelope Envelope
	if err := safejson.Unmarshal(buf, &envelope); err != nil {
		f.evict("unparseable envelope", err)
		return nil, newError(KindParseError, err)
	}
	if len(envelope.Data) == 0 {
		f.evict("envelope without data", nil)
		return nil, newError(KindInvalidFormat, errors.New("envelope has no data field"))
	}
	if envelope.Checksum != "" && envelope.Checksum != checksumOf(envelope.Data) {
		f.evict("checksum mismatch", nil)
		return nil, newError(KindChecksumFailed, fmt.Errorf("stored checksum %q does not match data", envelope.Checksum))
	}

	migrated, err := migrate(envelope)
	if err != nil {
		f.evict("no migration path", err)
		return nil, err
	}

	var raw map[string]any
	if err := safejson.Unmarshal(migrated.Data, &raw); err != nil {
		f.evict("unparseable settings document", err)
		return nil, newError(KindParseError, err)
	}
	return raw, nil
}

// Clear removes the slot. Clearing an empty slot is not an error.
func (f *FileStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.slotPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return newError(KindUnknown, err)
	}
	return nil
}

// GetUsage reports the slot file size against the free space of its volume.
func (f *FileStore) GetUsage() (Usage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var used uint64
	if info, err := os.Stat(f.slotPath()); err == nil {
		used = uint64(info.Size())
	}

	diskUsage, err := disk.Usage(f.dataDir)
	if err != nil {
		return Usage{UsedBytes: used}, newError(KindUnknown, err)
	}

	usage := Usage{
		UsedBytes:  used,
		TotalBytes: diskUsage.Total,
	}
	if diskUsage.Total > 0 {
		usage.Percent = float64(used) / float64(diskUsage.Total) * 100
	}
	return usage, nil
}

func (f *FileStore) evict(reason string, err error) {
	f.logger.Warnw("evicting corrupted settings slot", "path", f.slotPath(), "reason", reason, "error", err)
	_ = os.Remove(f.slotPath())
}

func checksumOf(data []byte) string {
	sum := xxhash.Sum64(data)
	var b [8]byte
	for i := 0; i < 8; i++ {
		b[i] = byte(sum >> (56 - 8*i))
	}
	return hex.EncodeToString(b[:])
}

func classifyWriteError(err error) *Error {
	if errors.Is(err, syscall.ENOSPC) || errors.Is(err, syscall.EDQUOT) {
		return newError(KindQuotaExceeded, err)
	}
	if errors.Is(err, os.ErrPermission) {
		return newError(KindUnavailable, err)
	}
	return newError(KindUnknown, err)
}
