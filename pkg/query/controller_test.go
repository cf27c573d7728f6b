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

package query_test

import (
	"context"
	"fmt"
	"time"

	"github.com/h2non/gock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	apihttp "github.com/united-manufacturing-hub/ran-console-core/pkg/api/http"
	"github.com/united-manufacturing-hub/ran-console-core/pkg/models"
	"github.com/united-manufacturing-hub/ran-console-core/pkg/query"
)

const baseURL = "https://ops.example.com"

// resultPage fabricates a server page with item IDs [from..to].
func resultPage(from, to, total int, hasNext bool, page, size int) models.ResultPage {
	items := make([]models.AnalysisResult, 0, to-from+1)
	for i := from; i <= to; i++ {
		items = append(items, models.AnalysisResult{
			ID:        fmt.Sprintf("r-%d", i),
			NeID:      "NE1",
			CellID:    "C1",
			CreatedAt: "2025-06-01 12:00",
		})
	}
	return models.ResultPage{Items: items, Total: total, Page: page, Size: size, HasNext: hasNext}
}

var _ = Describe("Controller", Ordered, func() {

	var (
		ctrl   *query.Controller
		ctx    context.Context
		cancel context.CancelFunc
	)

	BeforeAll(func() {
		gock.InterceptClient(apihttp.GetClient(false))
	})

	BeforeEach(func() {
		ctx, cancel = context.WithCancel(context.Background())
	})

	AfterEach(func() {
		if ctrl != nil {
			ctrl.Stop()
		}
		cancel()
		gock.OffAll()
	})

	newController := func(debounce time.Duration) *query.Controller {
		return query.NewController(query.Config{
			API:      apihttp.Config{BaseURL: baseURL},
			PageSize: 20,
			Debounce: debounce,
		})
	}

	Describe("Start", func() {
		It("loads page 1 in replace mode", func() {
			gock.New(baseURL).
				Get("/api/analysis/results-v2").
				MatchParam("page", "1").
				MatchParam("size", "20").
				Reply(200).
				JSON(resultPage(1, 20, 40, true, 1, 20))

			ctrl = newController(50 * time.Millisecond)
			ctrl.Start(ctx)

			Eventually(func() int {
				return len(ctrl.Snapshot().Items)
			}).Should(Equal(20))

			snap := ctrl.Snapshot()
			Expect(snap.Items[0].ID).To(Equal("r-1"))
			Expect(snap.Total).To(Equal(40))
			Expect(snap.HasNext).To(BeTrue())
			Expect(snap.Loading).To(BeFalse())
			Expect(snap.Err).NotTo(HaveOccurred())
		})

		It("falls back to the v1 route with limit/skip when the v2 route is missing", func() {
			gock.New(baseURL).
				Get("/api/analysis/results-v2").
				Reply(404).
				JSON(map[string]string{"error": "not found"})
			gock.New(baseURL).
				Get("/api/analysis/results").
				MatchParam("limit", "20").
				MatchParam("skip", "0").
				Reply(200).
				JSON(resultPage(1, 20, 40, true, 1, 20))

			ctrl = newController(50 * time.Millisecond)
			ctrl.Start(ctx)

			Eventually(func() int {
				return len(ctrl.Snapshot().Items)
			}).Should(Equal(20))
			Expect(ctrl.Snapshot().Err).NotTo(HaveOccurred())
			Expect(gock.IsDone()).To(BeTrue())
		})
	})

	Describe("SetFilters", func() {
		It("collapses rapid edits into a single request carrying the final filters", func() {
			gock.New(baseURL).
				Get("/api/analysis/results-v2").
				MatchParam("page", "1").
				Reply(200).
				JSON(resultPage(1, 5, 5, false, 1, 20))
			gock.New(baseURL).
				Get("/api/analysis/results-v2").
				MatchParam("ne_id", "NE1").
				Times(1).
				Reply(200).
				JSON(resultPage(1, 3, 3, false, 1, 20))

			ctrl = newController(200 * time.Millisecond)
			ctrl.Start(ctx)
			Eventually(func() int { return len(ctrl.Snapshot().Items) }).Should(Equal(5))

			ctrl.SetFilters(query.Filters{query.FilterNeID: "N"})
			time.Sleep(50 * time.Millisecond)
			ctrl.SetFilters(query.Filters{query.FilterNeID: "NE"})
			time.Sleep(50 * time.Millisecond)
			ctrl.SetFilters(query.Filters{query.FilterNeID: "NE1"})

			Eventually(func() int {
				return len(ctrl.Snapshot().Items)
			}, "2s").Should(Equal(3))
			// Both mocks consumed means exactly one filtered request went out.
			Expect(gock.IsDone()).To(BeTrue())
			Expect(ctrl.Snapshot().Filters[query.FilterNeID]).To(Equal("NE1"))
		})

		It("resets items and page immediately", func() {
			gock.New(baseURL).
				Get("/api/analysis/results-v2").
				Reply(200).
				JSON(resultPage(1, 20, 40, true, 1, 20))

			ctrl = newController(time.Hour) // debounce never fires in this test
			ctrl.Start(ctx)
			Eventually(func() int { return len(ctrl.Snapshot().Items) }).Should(Equal(20))

			ctrl.SetFilters(query.Filters{query.FilterCellID: "C7"})

			snap := ctrl.Snapshot()
			Expect(snap.Items).To(BeEmpty())
			Expect(snap.Page).To(Equal(1))
			Expect(snap.HasNext).To(BeFalse())
		})

		It("clears a filter when the partial carries an empty value", func() {
			ctrl = newController(time.Hour)
			ctrl.SetFilters(query.Filters{query.FilterNeID: "NE1", query.FilterCellID: "C1"})
			ctrl.SetFilters(query.Filters{query.FilterCellID: ""})

			snap := ctrl.Snapshot()
			Expect(snap.Filters).To(HaveKey(query.FilterNeID))
			Expect(snap.Filters).NotTo(HaveKey(query.FilterCellID))
		})
	})

	Describe("LoadMore", func() {
		It("appends the next page and keeps earlier items", func() {
			gock.New(baseURL).
				Get("/api/analysis/results-v2").
				MatchParam("page", "1").
				Reply(200).
				JSON(resultPage(1, 20, 40, true, 1, 20))
			gock.New(baseURL).
				Get("/api/analysis/results-v2").
				MatchParam("page", "2").
				Reply(200).
				JSON(resultPage(21, 40, 40, true, 2, 20))

			ctrl = newController(time.Hour)
			ctrl.Start(ctx)
			Eventually(func() int { return len(ctrl.Snapshot().Items) }).Should(Equal(20))

			ctrl.LoadMore()

			Eventually(func() int {
				return len(ctrl.Snapshot().Items)
			}).Should(Equal(40))

			snap := ctrl.Snapshot()
			Expect(snap.Items[0].ID).To(Equal("r-1"))
			Expect(snap.Items[39].ID).To(Equal("r-40"))
			Expect(snap.Page).To(Equal(2))
			Expect(snap.HasNext).To(BeTrue())
		})

		It("is a no-op when there is no next page", func() {
			gock.New(baseURL).
				Get("/api/analysis/results-v2").
				Reply(200).
				JSON(resultPage(1, 5, 5, false, 1, 20))

			ctrl = newController(time.Hour)
			ctrl.Start(ctx)
			Eventually(func() int { return len(ctrl.Snapshot().Items) }).Should(Equal(5))

			ctrl.LoadMore()

			Consistently(func() int {
				return len(ctrl.Snapshot().Items)
			}, "100ms").Should(Equal(5))
		})
	})

	Describe("ordering", func() {
		It("lets only the most recent request commit", func() {
			gock.New(baseURL).
				Get("/api/analysis/results-v2").
				MatchParam("page", "1").
				Reply(200).
				Delay(300 * time.Millisecond).
				JSON(resultPage(1, 20, 40, true, 1, 20))
			gock.New(baseURL).
				Get("/api/analysis/results-v2").
				MatchParam("page", "2").
				Reply(200).
				JSON(resultPage(21, 40, 40, false, 2, 20))

			ctrl = newController(time.Hour)
			ctrl.Start(ctx) // slow page-1 request
			ctrl.GoToPage(2)

			Eventually(func() int { return len(ctrl.Snapshot().Items) }).Should(Equal(20))
			Expect(ctrl.Snapshot().Page).To(Equal(2))

			// The delayed page-1 response must not overwrite page 2.
			Consistently(func() int {
				return ctrl.Snapshot().Page
			}, "400ms").Should(Equal(2))
			Expect(ctrl.Snapshot().Items[0].ID).To(Equal("r-21"))
		})
	})

	Describe("errors", func() {
		It("records the error without clobbering items", func() {
			gock.New(baseURL).
				Get("/api/analysis/results-v2").
				Reply(200).
				JSON(resultPage(1, 5, 5, false, 1, 20))

			ctrl = newController(time.Hour)
			ctrl.Start(ctx)
			Eventually(func() int { return len(ctrl.Snapshot().Items) }).Should(Equal(5))

			gock.New(baseURL).
				Get("/api/analysis/results-v2").
				Reply(500).
				BodyString("boom")

			ctrl.Refresh()

			Eventually(func() error {
				return ctrl.Snapshot().Err
			}).Should(HaveOccurred())
			Expect(ctrl.Snapshot().Items).To(HaveLen(5))
			Expect(ctrl.Snapshot().Loading).To(BeFalse())
		})
	})

	Describe("Delete", func() {
		It("removes the item optimistically", func() {
			gock.New(baseURL).
				Get("/api/analysis/results-v2").
				Reply(200).
				JSON(resultPage(1, 3, 3, false, 1, 20))
			gock.New(baseURL).
				Delete("/api/analysis/results/r-2").
				Reply(204)

			ctrl = newController(time.Hour)
			ctrl.Start(ctx)
			Eventually(func() int { return len(ctrl.Snapshot().Items) }).Should(Equal(3))

			Expect(ctrl.Delete(ctx, "r-2")).To(Succeed())

			snap := ctrl.Snapshot()
			Expect(snap.Items).To(HaveLen(2))
			Expect(snap.Items[0].ID).To(Equal("r-1"))
			Expect(snap.Items[1].ID).To(Equal("r-3"))
			Expect(snap.Total).To(Equal(2))
		})

		It("puts the item back when the delete fails", func() {
			gock.New(baseURL).
				Get("/api/analysis/results-v2").
				Reply(200).
				JSON(resultPage(1, 3, 3, false, 1, 20))
			gock.New(baseURL).
				Delete("/api/analysis/results/r-2").
				Reply(500).
				BodyString("nope")

			ctrl = newController(time.Hour)
			ctrl.Start(ctx)
			Eventually(func() int { return len(ctrl.Snapshot().Items) }).Should(Equal(3))

			Expect(ctrl.Delete(ctx, "r-2")).NotTo(Succeed())

			snap := ctrl.Snapshot()
			Expect(snap.Items).To(HaveLen(3))
			Expect(snap.Items[1].ID).To(Equal("r-2"))
			Expect(snap.Total).To(Equal(3))
			Expect(snap.Err).To(HaveOccurred())
		})
	})

	Describe("Stop", func() {
		It("prevents any further state mutation", func() {
			gock.New(baseURL).
				Get("/api/analysis/results-v2").
				Reply(200).
				Delay(150 * time.Millisecond).
				JSON(resultPage(1, 20, 40, true, 1, 20))

			ctrl = newController(time.Hour)
			ctrl.Start(ctx)
			ctrl.Stop()

			Consistently(func() int {
				return len(ctrl.Snapshot().Items)
			}, "300ms").Should(BeZero())

			ctrl.SetFilters(query.Filters{query.FilterNeID: "NE1"})
			Expect(ctrl.Snapshot().Filters).To(BeEmpty())
		})
	})
})
