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

package settings_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/united-manufacturing-hub/ran-console-core/pkg/config"
	"github.com/united-manufacturing-hub/ran-console-core/pkg/derived"
	"github.com/united-manufacturing-hub/ran-console-core/pkg/settings"
)

var _ = Describe("Defaults", func() {
	It("validates clean", func() {
		defaults := settings.Defaults(nil)
		Expect(settings.Validate(defaults, "")).To(BeEmpty())
	})

	It("carries the documented baseline values", func() {
		defaults := settings.Defaults(nil)
		Expect(defaults.Dashboard.AutoRefreshInterval).To(Equal(30))
		Expect(defaults.Dashboard.ChartStyle).To(Equal("line"))
		Expect(defaults.Dashboard.Theme).To(Equal("light"))
		Expect(defaults.Statistics.DefaultDateRange).To(Equal(7))
		Expect(defaults.Statistics.DecimalPlaces).To(Equal(2))
		Expect(defaults.Statistics.DefaultPegs).To(Equal([]string{"availability", "rrc"}))
		Expect(defaults.Statistics.ChartType).To(Equal("bar"))
	})

	It("prefers runtime config database values over built-ins", func() {
		rc := config.DefaultRuntimeConfig()
		rc.Database.Host = "db.lab.example.com"
		rc.Database.Port = 5433
		defaults := settings.Defaults(&rc)
		Expect(defaults.Database.Host).To(Equal("db.lab.example.com"))
		Expect(defaults.Database.Port).To(Equal(5433))
		Expect(defaults.Database.Table).To(Equal("peg_data"))
	})
})

var _ = Describe("Merge", func() {
	var defaults settings.Settings

	BeforeEach(func() {
		defaults = settings.Defaults(nil)
	})

	It("lets saved values win over defaults per field", func() {
		saved := defaults
		saved.Dashboard.Theme = "dark"
		saved.Statistics.DecimalPlaces = 4

		merged := settings.Merge(saved, defaults)
		Expect(merged.Dashboard.Theme).To(Equal("dark"))
		Expect(merged.Statistics.DecimalPlaces).To(Equal(4))
		Expect(merged.Dashboard.ChartStyle).To(Equal("line"))
	})

	It("is idempotent", func() {
		saved := defaults
		saved.Dashboard.Theme = "dark"
		saved.Dashboard.SelectedPegs = []string{"availability"}

		once := settings.Merge(saved, defaults)
		twice := settings.Merge(once, defaults)
		Expect(twice).To(Equal(once))
	})

	It("never introduces validation errors", func() {
		saved := defaults
		saved.Dashboard.AutoRefreshInterval = 100000
		saved.Dashboard.Theme = "neon"
		saved.Statistics.DecimalPlaces = -3

		merged := settings.Merge(saved, defaults)
		Expect(settings.Validate(merged, "")).To(BeEmpty())
		Expect(merged.Dashboard.AutoRefreshInterval).To(Equal(30))
		Expect(merged.Dashboard.Theme).To(Equal("light"))
		Expect(merged.Statistics.DecimalPlaces).To(Equal(2))
	})
})

var _ = Describe("Sanitize", func() {
	var defaults settings.Settings

	BeforeEach(func() {
		defaults = settings.Defaults(nil)
	})

	It("drops unknown keys and bogus sections, keeps known values", func() {
		raw := map[string]any{
			"dashboard": map[string]any{
				"selectedPegs": []any{"a", "b"},
				"unknownKey":   1,
			},
			"bogusSection": map[string]any{},
		}

		sanitized := settings.Sanitize(raw, defaults)
		Expect(sanitized.Dashboard.SelectedPegs).To(Equal([]string{"a", "b"}))
		Expect(sanitized.Statistics).To(Equal(defaults.Statistics))
		Expect(sanitized.Database).To(Equal(defaults.Database))
	})

	It("replaces non-object sections with their defaults", func() {
		raw := map[string]any{
			"dashboard": "not an object",
		}
		sanitized := settings.Sanitize(raw, defaults)
		Expect(sanitized.Dashboard).To(Equal(defaults.Dashboard))
	})

	It("handles a nil input", func() {
		sanitized := settings.Sanitize(nil, defaults)
		Expect(sanitized).To(Equal(defaults))
	})
})

var _ = Describe("Validate", func() {
	var s settings.Settings

	BeforeEach(func() {
		s = settings.Defaults(nil)
	})

	It("rejects an out-of-range refresh interval", func() {
		s.Dashboard.AutoRefreshInterval = 3
		errs := settings.Validate(s, settings.SectionDashboard)
		Expect(errs).To(HaveKey("dashboard.autoRefreshInterval"))
	})

	It("rejects an unknown chart style", func() {
		s.Dashboard.ChartStyle = "pie"
		errs := settings.Validate(s, settings.SectionDashboard)
		Expect(errs).To(HaveKey("dashboard.chartStyle"))
	})

	It("rejects duplicate selected pegs", func() {
		s.Dashboard.SelectedPegs = []string{"availability", "rrc", "availability"}
		errs := settings.Validate(s, settings.SectionDashboard)
		Expect(errs).To(HaveKey("dashboard.selectedPegs"))
	})

	It("rejects a malformed comparison time", func() {
		s.Dashboard.Time1Start = "yesterday"
		errs := settings.Validate(s, settings.SectionDashboard)
		Expect(errs).To(HaveKey("dashboard.time1Start"))
	})

	It("accepts a well-formed comparison time", func() {
		s.Dashboard.Time1Start = "2026-01-15 08:30"
		errs := settings.Validate(s, settings.SectionDashboard)
		Expect(errs).ToNot(HaveKey("dashboard.time1Start"))
	})

	It("only checks the requested section", func() {
		s.Dashboard.Theme = "neon"
		s.Statistics.DecimalPlaces = 99
		errs := settings.Validate(s, settings.SectionStatistics)
		Expect(errs).To(HaveKey("statistics.decimalPlaces"))
		Expect(errs).ToNot(HaveKey("dashboard.theme"))
	})

	It("rejects duplicate derived metric names after normalisation", func() {
		s.DerivedPegSettings.Formulas = []derived.Formula{
			{ID: "1", Name: "drop rate", Expression: "a/b", Active: true},
			{ID: "2", Name: "drop-rate", Expression: "a*b", Active: true},
		}
		errs := settings.Validate(s, settings.SectionDerived)
		Expect(errs).To(HaveKey("derivedPegSettings.formulas[1].name"))
	})

	It("requires an expression on active formulas", func() {
		s.DerivedPegSettings.Formulas = []derived.Formula{
			{ID: "1", Name: "x", Expression: "", Active: true},
		}
		errs := settings.Validate(s, settings.SectionDerived)
		Expect(errs).To(HaveKey("derivedPegSettings.formulas[0].expression"))
	})

	It("rejects an invalid database port", func() {
		s.Database.Port = 0
		errs := settings.Validate(s, settings.SectionDatabase)
		Expect(errs).To(HaveKey("database.port"))
	})
})
