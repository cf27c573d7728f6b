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

package store_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/united-manufacturing-hub/ran-console-core/pkg/settings"
	"github.com/united-manufacturing-hub/ran-console-core/pkg/settings/store"
)

var _ = Describe("FileStore", func() {
	var dataDir string
	var fileStore *store.FileStore
	var defaults settings.Settings

	slotPath := func() string {
		return filepath.Join(dataDir, "preferences", "tester.json")
	}

	BeforeEach(func() {
		dataDir = GinkgoT().TempDir()
		fileStore = store.NewFileStore(dataDir, "tester")
		defaults = settings.Defaults(nil)
	})

	Describe("Available", func() {
		It("reports a writable directory as available", func() {
			Expect(fileStore.Available()).To(BeTrue())
		})

		It("leaves no sentinel behind", func() {
			Expect(fileStore.Available()).To(BeTrue())
			entries, err := os.ReadDir(filepath.Join(dataDir, "preferences"))
			Expect(err).ToNot(HaveOccurred())
			Expect(entries).To(BeEmpty())
		})
	})

	Describe("Save and Load", func() {
		It("round-trips a settings document", func() {
			s := defaults
			s.Dashboard.Theme = "dark"
			s.Dashboard.SelectedPegs = []string{"availability", "rrc"}

			savedAt, err := fileStore.Save(s)
			Expect(err).ToNot(HaveOccurred())
			Expect(savedAt).To(BeTemporally("~", time.Now(), time.Minute))

			raw, err := fileStore.Load()
			Expect(err).ToNot(HaveOccurred())
			Expect(raw).ToNot(BeNil())

			loaded := settings.Sanitize(raw, defaults)
			Expect(loaded).To(Equal(s))
		})

		It("returns nil without error for an empty slot", func() {
			raw, err := fileStore.Load()
			Expect(err).ToNot(HaveOccurred())
			Expect(raw).To(BeNil())
		})

		It("writes the slot with restrictive permissions", func() {
			_, err := fileStore.Save(defaults)
			Expect(err).ToNot(HaveOccurred())

			info, err := os.Stat(slotPath())
			Expect(err).ToNot(HaveOccurred())
			Expect(info.Mode().Perm()).To(Equal(os.FileMode(0o600)))
		})
	})

	Describe("corrupted slots", func() {
		It("evicts an unparseable slot and reports a parse error", func() {
			Expect(os.MkdirAll(filepath.Dir(slotPath()), 0o700)).To(Succeed())
			Expect(os.WriteFile(slotPath(), []byte("{not json"), 0o600)).To(Succeed())

			_, err := fileStore.Load()
			Expect(err).To(HaveOccurred())
			Expect(store.KindOf(err)).To(Equal(store.KindParseError))
			Expect(slotPath()).ToNot(BeAnExistingFile())
		})

		It("evicts a slot whose checksum does not match", func() {
			_, err := fileStore.Save(defaults)
			Expect(err).ToNot(HaveOccurred())

			buf, err := os.ReadFile(slotPath())
			Expect(err).ToNot(HaveOccurred())
			var envelope map[string]any
			Expect(json.Unmarshal(buf, &envelope)).To(Succeed())
			envelope["checksum"] = "deadbeefdeadbeef"
			tampered, err := json.Marshal(envelope)
			Expect(err).ToNot(HaveOccurred())
			Expect(os.WriteFile(slotPath(), tampered, 0o600)).To(Succeed())

			_, err = fileStore.Load()
			Expect(err).To(HaveOccurred())
			Expect(store.KindOf(err)).To(Equal(store.KindChecksumFailed))
			Expect(slotPath()).ToNot(BeAnExistingFile())
		})

		It("evicts an envelope without a data field", func() {
			Expect(os.MkdirAll(filepath.Dir(slotPath()), 0o700)).To(Succeed())
			Expect(os.WriteFile(slotPath(), []byte(`{"version":1,"savedAt":"2026-01-01T00:00:00Z"}`), 0o600)).To(Succeed())

			_, err := fileStore.Load()
			Expect(err).To(HaveOccurred())
			Expect(store.KindOf(err)).To(Equal(store.KindInvalidFormat))
		})
	})

	Describe("versioned envelopes", func() {
		It("migrates a version 0 slot forward", func() {
			_, err := fileStore.Save(defaults)
			Expect(err).ToNot(HaveOccurred())

			buf, err := os.ReadFile(slotPath())
			Expect(err).ToNot(HaveOccurred())
			var envelope map[string]any
			Expect(json.Unmarshal(buf, &envelope)).To(Succeed())
			envelope["version"] = 0
			delete(envelope, "checksum")
			downgraded, err := json.Marshal(envelope)
			Expect(err).ToNot(HaveOccurred())
			Expect(os.WriteFile(slotPath(), downgraded, 0o600)).To(Succeed())

			raw, err := fileStore.Load()
			Expect(err).ToNot(HaveOccurred())
			Expect(raw).ToNot(BeNil())
		})

		It("rejects a slot from the future", func() {
			_, err := fileStore.Save(defaults)
			Expect(err).ToNot(HaveOccurred())

			buf, err := os.ReadFile(slotPath())
			Expect(err).ToNot(HaveOccurred())
			var envelope map[string]any
			Expect(json.Unmarshal(buf, &envelope)).To(Succeed())
			envelope["version"] = 99
			// Re-marshalling through a map re-orders the data keys, so the
			// stored checksum no longer applies.
			delete(envelope, "checksum")
			future, err := json.Marshal(envelope)
			Expect(err).ToNot(HaveOccurred())
			Expect(os.WriteFile(slotPath(), future, 0o600)).To(Succeed())

			_, err = fileStore.Load()
			Expect(err).To(HaveOccurred())
			Expect(store.KindOf(err)).To(Equal(store.KindVersionMismatch))
		})
	})

	Describe("Clear", func() {
		It("removes the slot", func() {
			_, err := fileStore.Save(defaults)
			Expect(err).ToNot(HaveOccurred())
			Expect(fileStore.Clear()).To(Succeed())
			Expect(slotPath()).ToNot(BeAnExistingFile())
		})

		It("is a no-op on an empty slot", func() {
			Expect(fileStore.Clear()).To(Succeed())
		})
	})

	Describe("GetUsage", func() {
		It("reports the slot size against the volume", func() {
			_, err := fileStore.Save(defaults)
			Expect(err).ToNot(HaveOccurred())

			usage, err := fileStore.GetUsage()
			Expect(err).ToNot(HaveOccurred())
			Expect(usage.UsedBytes).To(BeNumerically(">", 0))
			Expect(usage.TotalBytes).To(BeNumerically(">", usage.UsedBytes))
		})
	})
})
