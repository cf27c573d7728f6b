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

package settings

import (
	"fmt"
	"regexp"

	"github.com/united-manufacturing-hub/ran-console-core/pkg/derived"
)

// Section names accepted by Validate.
const (
	SectionDashboard    = "dashboard"
	SectionStatistics   = "statistics"
	SectionDatabase     = "database"
	SectionNotification = "notification"
	SectionGeneral      = "general"
	SectionDerived      = "derivedPegSettings"
)

const maxIdentifierLength = 50

var timeFieldPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}$`)

// Validate applies the rule table and returns a map of field path to
// message. An empty map means the document (or the requested section) is
// valid. Validation never panics and never mutates the input; pass an empty
// section to validate everything.
func Validate(s Settings, section string) map[string]string {
	errs := make(map[string]string)

	if section == "" || section == SectionDashboard {
		validateDashboard(s.Dashboard, errs)
	}
	if section == "" || section == SectionStatistics {
		validateStatistics(s.Statistics, errs)
	}
	if section == "" || section == SectionDatabase {
		validateDatabase(s.Database, errs)
	}
	if section == "" || section == SectionDerived {
		validateDerived(s.DerivedPegSettings, errs)
	}

	return errs
}

func validateDashboard(d DashboardSettings, errs map[string]string) {
	if d.AutoRefreshInterval < 5 || d.AutoRefreshInterval > 300 {
		errs["dashboard.autoRefreshInterval"] = "must be between 5 and 300 seconds"
	}
	switch d.ChartStyle {
	case "line", "bar", "area":
	default:
		errs["dashboard.chartStyle"] = "must be one of line, bar, area"
	}
	switch d.Theme {
	case "light", "dark", "auto":
	default:
		errs["dashboard.theme"] = "must be one of light, dark, auto"
	}
	switch d.TimeUnit {
	case "minutes", "hours":
	default:
		errs["dashboard.timeUnit"] = "must be minutes or hours"
	}
	if len(d.DefaultNe) > maxIdentifierLength {
		errs["dashboard.defaultNe"] = fmt.Sprintf("must be at most %d characters", maxIdentifierLength)
	}
	if len(d.DefaultCellID) > maxIdentifierLength {
		errs["dashboard.defaultCellId"] = fmt.Sprintf("must be at most %d characters", maxIdentifierLength)
	}
	if d.DefaultTimeRange <= 0 {
		errs["dashboard.defaultTimeRange"] = "must be positive"
	}
	if dup := firstDuplicate(d.SelectedPegs); dup != "" {
		errs["dashboard.selectedPegs"] = "duplicate peg: " + dup
	}
	for field, value := range map[string]string{
		"dashboard.time1Start": d.Time1Start,
		"dashboard.time1End":   d.Time1End,
		"dashboard.time2Start": d.Time2Start,
		"dashboard.time2End":   d.Time2End,
	} {
		if value != "" && !timeFieldPattern.MatchString(value) {
			errs[field] = "must match YYYY-MM-DD HH:MM"
		}
	}
}

func validateStatistics(st StatisticsSettings, errs map[string]string) {
	if st.DefaultDateRange < 1 || st.DefaultDateRange > 365 {
		errs["statistics.defaultDateRange"] = "must be between 1 and 365 days"
	}
	if st.DecimalPlaces < 0 || st.DecimalPlaces > 6 {
		errs["statistics.decimalPlaces"] = "must be between 0 and 6"
	}
	switch st.ChartType {
	case "bar", "line":
	default:
		errs["statistics.chartType"] = "must be bar or line"
	}
	if dup := firstDuplicate(st.DefaultPegs); dup != "" {
		errs["statistics.defaultPegs"] = "duplicate peg: " + dup
	}
}

func validateDatabase(db DatabaseSettings, errs map[string]string) {
	if db.Port < 1 || db.Port > 65535 {
		errs["database.port"] = "must be a valid TCP port"
	}
	if db.Host == "" {
		errs["database.host"] = "must not be empty"
	}
	if db.DBName == "" {
		errs["database.dbname"] = "must not be empty"
	}
}

func validateDerived(dp DerivedPegSettings, errs map[string]string) {
	if dp.Settings.EvaluationPrecision < 0 || dp.Settings.EvaluationPrecision > 10 {
		errs["derivedPegSettings.settings.evaluationPrecision"] = "must be between 0 and 10"
	}
	seen := make(map[string]bool, len(dp.Formulas))
	for i, f := range dp.Formulas {
		path := fmt.Sprintf("derivedPegSettings.formulas[%d]", i)
		token := derived.SafeName(f.Name)
		if f.Name == "" {
			errs[path+".name"] = "must not be empty"
		} else if !derived.IsSafeName(token) {
			errs[path+".name"] = "cannot be normalised to a safe token"
		} else if seen[token] {
			errs[path+".name"] = "duplicate derived metric name: " + token
		}
		seen[token] = true
		if f.Active && f.Expression == "" {
			errs[path+".expression"] = "active formula needs an expression"
		}
	}
}

func firstDuplicate(values []string) string {
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		if seen[v] {
			return v
		}
		seen[v] = true
	}
	return ""
}
