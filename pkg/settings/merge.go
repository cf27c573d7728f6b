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
	"strings"

	"github.com/united-manufacturing-hub/ran-console-core/pkg/encoding/safejson"
)

// Merge combines a saved document with the defaults, section by section.
// For each object section the merged value is the defaults with the saved
// section's known keys layered on top; a missing or malformed saved section
// falls back to the defaults wholesale. The merge is shallow per section
// because sections are flat option bags.
func Merge(saved, defaults Settings) Settings {
	savedMap, err := toMap(saved)
	if err != nil {
		return defaults
	}
	return Sanitize(savedMap, defaults)
}

// Sanitize projects an arbitrary decoded document onto the defaults shape.
// Unknown top-level keys and unknown keys inside sections are dropped;
// non-object sections are replaced by their defaults. The result always has
// exactly the defaults' key set.
func Sanitize(raw map[string]any, defaults Settings) Settings {
	defaultsMap, err := toMap(defaults)
	if err != nil {
		return defaults
	}

	merged := make(map[string]any, len(defaultsMap))
	for section, defaultValue := range defaultsMap {
		merged[section] = mergeSection(defaultValue, raw[section])
	}

	out := defaults
	buf, err := safejson.Marshal(merged)
	if err != nil {
		return defaults
	}
	if err := safejson.Unmarshal(buf, &out); err != nil {
		return defaults
	}
	return repair(out, merged, defaultsMap, defaults)
}

// repair resets fields that fail validation back to their defaults, so a
// merged document always validates clean. Field paths that cannot be mapped
// to a single key (list entries) reset their whole section.
func repair(out Settings, merged, defaultsMap map[string]any, defaults Settings) Settings {
	errs := Validate(out, "")
	if len(errs) == 0 {
		return out
	}

	for path := range errs {
		parts := strings.SplitN(path, ".", 2)
		section := parts[0]
		sectionObj, ok := merged[section].(map[string]any)
		defaultObj, okDef := defaultsMap[section].(map[string]any)
		if len(parts) < 2 || !ok || !okDef || strings.Contains(parts[1], "[") || strings.Contains(parts[1], ".") {
			merged[section] = defaultsMap[section]
			continue
		}
		sectionObj[parts[1]] = defaultObj[parts[1]]
	}

	buf, err := safejson.Marshal(merged)
	if err != nil {
		return defaults
	}
	repaired := defaults
	if err := safejson.Unmarshal(buf, &repaired); err != nil {
		return defaults
	}
	return repaired
}

// mergeSection layers a saved section over its default. Object sections
// merge key-wise (unknown keys dropped); list sections are taken whole when
// the saved value is a list; anything else falls back to the default.
func mergeSection(defaultValue, savedValue any) any {
	switch def := defaultValue.(type) {
	case map[string]any:
		savedObj, ok := savedValue.(map[string]any)
		if !ok {
			return def
		}
		out := make(map[string]any, len(def))
		for key, dv := range def {
			if sv, present := savedObj[key]; present {
				out[key] = mergeSection(dv, sv)
			} else {
				out[key] = dv
			}
		}
		return out
	case []any:
		if savedList, ok := savedValue.([]any); ok {
			return savedList
		}
		return def
	default:
		if savedValue != nil {
			return savedValue
		}
		return defaultValue
	}
}

func toMap(s Settings) (map[string]any, error) {
	buf, err := safejson.Marshal(&s)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := safejson.Unmarshal(buf, &m); err != nil {
		return nil, err
	}
	return m, nil
}
