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

package derived_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/united-manufacturing-hub/ran-console-core/pkg/derived"
)

var _ = Describe("CalculationOrder", func() {
	It("places every formula after the derived metrics it depends on", func() {
		formulas := []derived.Formula{
			{ID: "f-c", Name: "C", Expression: "A + B", DerivedDependencies: []string{"A", "B"}},
			{ID: "f-a", Name: "A", Expression: "x + 1", Dependencies: []string{"x"}},
			{ID: "f-b", Name: "B", Expression: "A * 2", DerivedDependencies: []string{"A"}},
		}

		order, err := derived.CalculationOrder(formulas)
		Expect(err).NotTo(HaveOccurred())
		Expect(order).To(HaveLen(3))

		position := make(map[string]int, len(order))
		for i, f := range order {
			position[f.Name] = i
		}
		Expect(position["A"]).To(BeNumerically("<", position["B"]))
		Expect(position["A"]).To(BeNumerically("<", position["C"]))
		Expect(position["B"]).To(BeNumerically("<", position["C"]))
	})

	It("ignores references to raw PEGs and unknown metrics", func() {
		formulas := []derived.Formula{
			{ID: "f-a", Name: "A", Expression: "x + y", Dependencies: []string{"x", "y"}, DerivedDependencies: []string{"never_defined"}},
		}
		order, err := derived.CalculationOrder(formulas)
		Expect(err).NotTo(HaveOccurred())
		Expect(order).To(HaveLen(1))
	})

	It("is deterministic for independent formulas", func() {
		formulas := []derived.Formula{
			{ID: "f-z", Name: "zeta", Expression: "1"},
			{ID: "f-a", Name: "alpha", Expression: "2"},
		}
		order, err := derived.CalculationOrder(formulas)
		Expect(err).NotTo(HaveOccurred())
		Expect(order[0].Name).To(Equal("alpha"))
		Expect(order[1].Name).To(Equal("zeta"))
	})

	It("reports a cycle through a chain of formulas", func() {
		formulas := []derived.Formula{
			{ID: "f-a", Name: "A", Expression: "C + 1", DerivedDependencies: []string{"C"}},
			{ID: "f-b", Name: "B", Expression: "A + 1", DerivedDependencies: []string{"A"}},
			{ID: "f-c", Name: "C", Expression: "B + 1", DerivedDependencies: []string{"B"}},
		}
		_, err := derived.CalculationOrder(formulas)
		Expect(err).To(HaveOccurred())
		Expect(derived.IsCycleError(err)).To(BeTrue())
	})

	It("reports a self-referencing formula as a cycle", func() {
		formulas := []derived.Formula{
			{ID: "f-a", Name: "A", Expression: "A + 1", DerivedDependencies: []string{"A"}},
		}
		_, err := derived.CalculationOrder(formulas)
		Expect(derived.IsCycleError(err)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring(`"A"`))
	})
})

var _ = Describe("AnalyzeDependencies", func() {
	It("accepts a formula whose dependencies are acyclic", func() {
		all := []derived.Formula{
			{ID: "f-a", Name: "A", Expression: "x + 1", Dependencies: []string{"x"}},
		}
		candidate := derived.Formula{ID: "f-b", Name: "B", Expression: "A * 2", DerivedDependencies: []string{"A"}}

		analysis := derived.AnalyzeDependencies(candidate, all)
		Expect(analysis.IsValid).To(BeTrue())
		Expect(analysis.FirstCycle).To(BeEmpty())
		Expect(analysis.Dependencies).To(ConsistOf("A"))
	})

	It("flags a candidate edit that would close a cycle", func() {
		all := []derived.Formula{
			{ID: "f-a", Name: "A", Expression: "B + 1", DerivedDependencies: []string{"B"}},
			{ID: "f-b", Name: "B", Expression: "x", Dependencies: []string{"x"}},
		}
		// Editing B to reference A turns A -> B into A -> B -> A.
		candidate := derived.Formula{ID: "f-b", Name: "B", Expression: "A + 1", DerivedDependencies: []string{"A"}}

		analysis := derived.AnalyzeDependencies(candidate, all)
		Expect(analysis.IsValid).To(BeFalse())
		Expect(analysis.FirstCycle).To(BeElementOf("A", "B"))
	})

	It("analyses the unsaved edit rather than the stored formula", func() {
		all := []derived.Formula{
			{ID: "f-a", Name: "A", Expression: "A + 1", DerivedDependencies: []string{"A"}},
		}
		// The stored A is self-referencing; the edit under inspection
		// is clean and must win.
		candidate := derived.Formula{ID: "f-a", Name: "A", Expression: "x + 1", Dependencies: []string{"x"}}

		analysis := derived.AnalyzeDependencies(candidate, all)
		Expect(analysis.IsValid).To(BeTrue())
	})

	It("lists raw and derived dependencies together", func() {
		candidate := derived.Formula{
			ID:                  "f-c",
			Name:                "C",
			Expression:          "${x} + A",
			Dependencies:        []string{"x"},
			DerivedDependencies: []string{"A"},
		}
		analysis := derived.AnalyzeDependencies(candidate, nil)
		Expect(analysis.Dependencies).To(Equal([]string{"x", "A"}))
	})
})
