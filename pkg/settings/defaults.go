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
	"github.com/united-manufacturing-hub/ran-console-core/pkg/config"
	"github.com/united-manufacturing-hub/ran-console-core/pkg/derived"
)

// Defaults produces the built-in baseline. Database values follow the
// priority runtime config > built-in, so a deployment can point fresh
// users at its own counter database without shipping a settings document.
func Defaults(rc *config.RuntimeConfig) Settings {
	s := Settings{
		Dashboard: DashboardSettings{
			SelectedPegs:         []string{},
			DefaultNe:            "",
			DefaultCellID:        "",
			AutoRefreshInterval:  30,
			ChartStyle:           "line",
			ShowLegend:           true,
			ShowGrid:             true,
			Theme:                "light",
			DefaultTimeRange:     30,
			TimeUnit:             "minutes",
			EnableTimeComparison: false,
		},
		Statistics: StatisticsSettings{
			DefaultDateRange:  7,
			DecimalPlaces:     2,
			DefaultPegs:       []string{"availability", "rrc"},
			ChartType:         "bar",
			AutoAnalysis:      false,
			ComparisonEnabled: true,
			ShowDelta:         true,
			ShowRsd:           true,
		},
		Database: DatabaseSettings{
			Host:   "localhost",
			Port:   5432,
			User:   "postgres",
			DBName: "ran_kpi",
			Table:  "peg_data",
		},
		Notification: NotificationSettings{
			EnableToasts:      true,
			EnableSounds:      false,
			SaveNotification:  true,
			ErrorNotification: true,
		},
		General: GeneralSettings{
			Language:     "en",
			Timezone:     "UTC",
			DateFormat:   "YYYY-MM-DD",
			NumberFormat: "plain",
		},
		PegConfigurations:        []PegConfiguration{},
		StatisticsConfigurations: []StatisticsConfiguration{},
		DerivedPegSettings: DerivedPegSettings{
			Formulas: []derived.Formula{},
			Settings: DerivedOptions{
				AutoValidate:        true,
				ShowInDashboard:     true,
				ShowInStatistics:    true,
				EvaluationPrecision: 2,
			},
		},
	}

	if rc != nil {
		if rc.Database.Host != "" {
			s.Database.Host = rc.Database.Host
		}
		if rc.Database.Port != 0 {
			s.Database.Port = rc.Database.Port
		}
		if rc.Database.User != "" {
			s.Database.User = rc.Database.User
		}
		if rc.Database.Password != "" {
			s.Database.Password = rc.Database.Password
		}
		if rc.Database.DBName != "" {
			s.Database.DBName = rc.Database.DBName
		}
		if rc.Database.Table != "" {
			s.Database.Table = rc.Database.Table
		}
	}

	return s
}
