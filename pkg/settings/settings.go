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

// Package settings owns the canonical preference shape, its defaults, the
// merge operator and the validation rule table. Everything downstream (sync,
// persistence, UI facade) treats a Settings value as opaque and asks this
// package for semantics.
package settings

import (
	"go.uber.org/zap/zapcore"

	"github.com/united-manufacturing-hub/ran-console-core/pkg/derived"
)

// Settings is the full preference document. The JSON tags are the wire
// shape shared with the backend and the durable slot.
type Settings struct {
	Dashboard                DashboardSettings         `json:"dashboard"`
	Statistics               StatisticsSettings        `json:"statistics"`
	Database                 DatabaseSettings          `json:"database"`
	Notification             NotificationSettings      `json:"notification"`
	General                  GeneralSettings           `json:"general"`
	PegConfigurations        []PegConfiguration        `json:"pegConfigurations"`
	StatisticsConfigurations []StatisticsConfiguration `json:"statisticsConfigurations"`
	DerivedPegSettings       DerivedPegSettings        `json:"derivedPegSettings"`
}

// DashboardSettings drive the live KPI dashboard view.
type DashboardSettings struct {
	SelectedPegs         []string `json:"selectedPegs"`
	DefaultNe            string   `json:"defaultNe"`
	DefaultCellID        string   `json:"defaultCellId"`
	AutoRefreshInterval  int      `json:"autoRefreshInterval"`
	ChartStyle           string   `json:"chartStyle"`
	ShowLegend           bool     `json:"showLegend"`
	ShowGrid             bool     `json:"showGrid"`
	Theme                string   `json:"theme"`
	DefaultTimeRange     int      `json:"defaultTimeRange"`
	TimeUnit             string   `json:"timeUnit"`
	Time1Start           string   `json:"time1Start"`
	Time1End             string   `json:"time1End"`
	Time2Start           string   `json:"time2Start"`
	Time2End             string   `json:"time2End"`
	EnableTimeComparison bool     `json:"enableTimeComparison"`
}

// StatisticsSettings drive the statistics/comparison view.
type StatisticsSettings struct {
	DefaultDateRange  int      `json:"defaultDateRange"`
	DecimalPlaces     int      `json:"decimalPlaces"`
	DefaultPegs       []string `json:"defaultPegs"`
	ChartType         string   `json:"chartType"`
	AutoAnalysis      bool     `json:"autoAnalysis"`
	ComparisonEnabled bool     `json:"comparisonEnabled"`
	ShowDelta         bool     `json:"showDelta"`
	ShowRsd           bool     `json:"showRsd"`
}

// DatabaseSettings point the console at the counter database.
type DatabaseSettings struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	Table    string `json:"table"`
}

// MarshalLogObject keeps the password out of log output.
func (d DatabaseSettings) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("host", d.Host)
	enc.AddInt("port", d.Port)
	enc.AddString("user", d.User)
	enc.AddString("password", "<redacted>")
	enc.AddString("dbname", d.DBName)
	enc.AddString("table", d.Table)
	return nil
}

// NotificationSettings control toast/sound behaviour.
type NotificationSettings struct {
	EnableToasts      bool `json:"enableToasts"`
	EnableSounds      bool `json:"enableSounds"`
	SaveNotification  bool `json:"saveNotification"`
	ErrorNotification bool `json:"errorNotification"`
}

// GeneralSettings are locale and formatting preferences.
type GeneralSettings struct {
	Language     string `json:"language"`
	Timezone     string `json:"timezone"`
	DateFormat   string `json:"dateFormat"`
	NumberFormat string `json:"numberFormat"`
}

// PegConfiguration is a saved PEG selection preset.
type PegConfiguration struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Pegs        []string `json:"pegs"`
	Description string   `json:"description,omitempty"`
	CreatedAt   string   `json:"createdAt,omitempty"`
}

// StatisticsConfiguration is a saved statistics view preset.
type StatisticsConfiguration struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	DateRange int      `json:"dateRange"`
	Pegs      []string `json:"pegs"`
	ChartType string   `json:"chartType"`
}

// DerivedPegSettings holds the user's derived-metric formulas plus the
// evaluator options.
type DerivedPegSettings struct {
	Formulas []derived.Formula `json:"formulas"`
	Settings DerivedOptions    `json:"settings"`
}

// DerivedOptions control where derived metrics show up and how they are
// evaluated.
type DerivedOptions struct {
	AutoValidate        bool `json:"autoValidate"`
	ShowInDashboard     bool `json:"showInDashboard"`
	ShowInStatistics    bool `json:"showInStatistics"`
	EvaluationPrecision int  `json:"evaluationPrecision"`
}
