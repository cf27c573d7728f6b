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

package derived

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Evaluate computes an expression against a bag of metric values. A nil
// result means "no value": null inputs, division by zero and non-finite
// intermediates all propagate to nil rather than erroring. Finite results
// are rounded to precision fractional digits.
//
// The expression language is pure arithmetic: + - * / ^, parentheses, the
// functions sqrt, log, abs, min, max, numeric literals, ${raw} references
// and bare identifiers. Nothing in the host environment is reachable from
// an expression.
func Evaluate(expression string, values map[string]*float64, precision int) *float64 {
	substituted, ok := substitute(expression, values)
	if !ok {
		return nil
	}

	tokens, err := tokenize(substituted)
	if err != nil {
		return nil
	}

	p := &parser{tokens: tokens}
	result, err := p.parseExpression()
	if err != nil || !p.atEnd() {
		return nil
	}
	if !isFinite(result) {
		return nil
	}

	rounded := roundTo(result, precision)
	return &rounded
}

// CalculateAll evaluates every active formula in dependency order. Each
// computed value joins the substitution bag under both the safe token and
// the original name, so later formulas can reference either. The returned
// map is keyed by safe token.
func CalculateAll(formulas []Formula, baseValues map[string]*float64, precision int) (map[string]*float64, error) {
	order, err := CalculationOrder(formulas)
	if err != nil {
		return nil, err
	}

	bag := make(map[string]*float64, len(baseValues)+2*len(order))
	for name, value := range baseValues {
		bag[name] = value
	}

	results := make(map[string]*float64, len(order))
	for _, f := range order {
		if !f.Active {
			continue
		}
		token := SafeName(f.Name)
		value := Evaluate(f.Expression, bag, precision)
		results[token] = value
		bag[token] = value
		bag[f.Name] = value
	}
	return results, nil
}

var rawReferencePattern = regexp.MustCompile(`\$\{([^}]*)\}`)

// substitute replaces ${raw} references and bare identifiers with numeric
// literals. Returns false when a referenced value is null or missing, which
// the caller propagates as a nil result.
func substitute(expression string, values map[string]*float64) (string, bool) {
	missing := false
	expression = rawReferencePattern.ReplaceAllStringFunc(expression, func(match string) string {
		name := strings.TrimSpace(match[2 : len(match)-1])
		value, known := values[name]
		if !known || value == nil || !isFinite(*value) {
			missing = true
			return match
		}
		return formatLiteral(*value)
	})
	if missing {
		return "", false
	}

	// Longest names first so a metric called "rrc" never clobbers the
	// inside of "rrc_setup".
	names := make([]string, 0, len(values))
	for name := range values {
		if safeNamePattern.MatchString(name) && !isFunctionName(name) {
			names = append(names, name)
		}
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})

	for _, name := range names {
		value := values[name]
		if value == nil || !isFinite(*value) {
			continue
		}
		pattern := regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\b`)
		expression = pattern.ReplaceAllString(expression, formatLiteral(*value))
	}
	return expression, true
}

func formatLiteral(v float64) string {
	if v < 0 {
		// Parenthesised so "a*-1.5" style substitutions stay parseable.
		return "(" + strconv.FormatFloat(v, 'f', -1, 64) + ")"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func isFunctionName(name string) bool {
	switch name {
	case "sqrt", "log", "abs", "min", "max":
		return true
	}
	return false
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func roundTo(v float64, precision int) float64 {
	if precision < 0 {
		precision = 0
	}
	shift := math.Pow(10, float64(precision))
	return math.Round(v*shift) / shift
}
