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

package ctxutil_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/united-manufacturing-hub/ran-console-core/pkg/ctxutil"
)

var _ = Describe("HasSufficientTime", func() {
	It("errors on a context without a deadline", func() {
		remaining, sufficient, err := ctxutil.HasSufficientTime(context.Background(), 10*time.Millisecond)
		Expect(err).To(MatchError(ctxutil.ErrNoDeadline))
		Expect(sufficient).To(BeFalse())
		Expect(remaining).To(BeZero())
	})

	It("reports sufficient time under a generous deadline", func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		remaining, sufficient, err := ctxutil.HasSufficientTime(ctx, 10*time.Millisecond)
		Expect(err).NotTo(HaveOccurred())
		Expect(sufficient).To(BeTrue())
		Expect(remaining).To(BeNumerically(">", 0))
	})

	It("reports insufficient time without erroring", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
		defer cancel()

		_, sufficient, err := ctxutil.HasSufficientTime(ctx, time.Second)
		Expect(err).NotTo(HaveOccurred())
		Expect(sufficient).To(BeFalse())
	})
})
