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

// Package derived evaluates user-defined KPI formulas over raw counter
// values. Formulas may reference raw PEGs and other derived metrics; the
// dependency graph between derived metrics must stay acyclic.
package derived

import (
	"regexp"
	"strings"
)

// Formula is a user-defined derived metric.
type Formula struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// Expression is arithmetic over ${peg} references, bare identifiers
	// and the sqrt/log/abs/min/max functions.
	Expression string `json:"expression"`
	Unit       string `json:"unit,omitempty"`
	Active     bool   `json:"active"`
	// Dependencies are raw PEG names the expression references.
	Dependencies []string `json:"dependencies"`
	// DerivedDependencies are other derived metrics the expression
	// references, by safe name.
	DerivedDependencies []string `json:"derivedDependencies"`
}

var safeNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var unsafeRunes = regexp.MustCompile(`[^A-Za-z0-9_]`)

// SafeName normalises a display name into the token that identifies the
// derived metric in downstream data. Unsafe runes become underscores and a
// leading digit gets an underscore prefix.
func SafeName(name string) string {
	token := unsafeRunes.ReplaceAllString(strings.TrimSpace(name), "_")
	if token == "" {
		return "_"
	}
	if token[0] >= '0' && token[0] <= '9' {
		token = "_" + token
	}
	return token
}

// IsSafeName reports whether the token already is a valid safe name.
func IsSafeName(token string) bool {
	return safeNamePattern.MatchString(token)
}
