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

package query

import (
	"net/url"
	"strconv"
)

// Filter keys understood by the results list endpoint. Unknown keys are
// dropped when filters are translated to wire parameters.
const (
	FilterNeID       = "ne_id"
	FilterCellID     = "cell_id"
	FilterSwName     = "swname"
	FilterRelVer     = "rel_ver"
	FilterDateFrom   = "date_from"
	FilterDateTo     = "date_to"
	FilterChoiStatus = "choi_status"
)

var knownFilterKeys = map[string]struct{}{
	FilterNeID:       {},
	FilterCellID:     {},
	FilterSwName:     {},
	FilterRelVer:     {},
	FilterDateFrom:   {},
	FilterDateTo:     {},
	FilterChoiStatus: {},
}

// Filters is the active filter map of one list view.
type Filters map[string]string

// merged returns a copy with the partial applied. An empty value removes
// the key, so callers can clear a single filter without knowing the rest.
func (f Filters) merged(partial Filters) Filters {
	next := make(Filters, len(f)+len(partial))
	for key, value := range f {
		next[key] = value
	}
	for key, value := range partial {
		if value == "" {
			delete(next, key)
			continue
		}
		next[key] = value
	}
	return next
}

// wireParams translates filters plus pagination into query parameters,
// omitting empty and unknown keys.
func wireParams(filters Filters, page, size int) url.Values {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("size", strconv.Itoa(size))
	for key, value := range filters {
		if value == "" {
			continue
		}
		if _, known := knownFilterKeys[key]; !known {
			continue
		}
		params.Set(key, value)
	}
	return params
}

// legacyWireParams translates the same request for the v1 results endpoint,
// which paginates with limit/skip and names the status filter "status".
func legacyWireParams(filters Filters, page, size int) url.Values {
	params := wireParams(filters, page, size)
	params.Del("page")
	params.Del("size")
	params.Set("limit", strconv.Itoa(size))
	params.Set("skip", strconv.Itoa((page-1)*size))
	if status := params.Get(FilterChoiStatus); status != "" {
		params.Del(FilterChoiStatus)
		params.Set("status", status)
	}
	return params
}
