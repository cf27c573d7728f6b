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
	"errors"
	"fmt"
	"sort"
)

// CycleError reports a dependency cycle, naming a node on it.
type CycleError struct {
	Node string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("CYCLIC_DEPENDENCY: derived metric %q participates in a dependency cycle", e.Node)
}

// IsCycleError reports whether the error is a dependency cycle.
func IsCycleError(err error) bool {
	var cycleErr *CycleError
	return errors.As(err, &cycleErr)
}

// DependencyAnalysis is the editor-facing view of one formula's dependency
// situation. Nothing is executed to produce it.
type DependencyAnalysis struct {
	IsValid      bool
	FirstCycle   string
	Dependencies []string
}

// CalculationOrder sorts formulas so every formula comes after the derived
// metrics it depends on. Depth-first; a node entering the visiting set
// twice signals a cycle.
func CalculationOrder(formulas []Formula) ([]Formula, error) {
	byToken := make(map[string]Formula, len(formulas))
	for _, f := range formulas {
		byToken[SafeName(f.Name)] = f
	}

	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int, len(formulas))
	order := make([]Formula, 0, len(formulas))

	var visit func(token string) error
	visit = func(token string) error {
		switch state[token] {
		case done:
			return nil
		case visiting:
			return &CycleError{Node: token}
		}
		f, known := byToken[token]
		if !known {
			// References to raw PEGs or unknown metrics are resolved at
			// evaluation time, not ordering time.
			return nil
		}
		state[token] = visiting
		for _, dep := range f.DerivedDependencies {
			if err := visit(SafeName(dep)); err != nil {
				return err
			}
		}
		state[token] = done
		order = append(order, f)
		return nil
	}

	// Stable iteration keeps the order deterministic for equal-rank nodes.
	tokens := make([]string, 0, len(byToken))
	for token := range byToken {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)

	for _, token := range tokens {
		if err := visit(token); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// AnalyzeDependencies inspects one formula against the full set without
// evaluating anything.
func AnalyzeDependencies(f Formula, all []Formula) DependencyAnalysis {
	analysis := DependencyAnalysis{
		Dependencies: append(append([]string{}, f.Dependencies...), f.DerivedDependencies...),
	}

	// The formula under inspection replaces any stored version of itself
	// so unsaved edits are analysed, not the persisted state.
	token := SafeName(f.Name)
	set := make([]Formula, 0, len(all)+1)
	for _, other := range all {
		if SafeName(other.Name) != token {
			set = append(set, other)
		}
	}
	set = append(set, f)

	if _, err := CalculationOrder(set); err != nil {
		var cycleErr *CycleError
		if errors.As(err, &cycleErr) {
			analysis.FirstCycle = cycleErr.Node
		}
		return analysis
	}
	analysis.IsValid = true
	return analysis
}
