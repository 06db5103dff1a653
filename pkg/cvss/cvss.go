// Copyright 2025 boring91
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

// Package cvss extracts and normalizes CVSS vector strings from NVD records.
package cvss

import (
	"strings"
)

// metricVersions lists the NVD metric buckets newest-first. When a record
// carries several CVSS versions, the newest vector wins.
var metricVersions = []string{"cvssMetricV40", "cvssMetricV31", "cvssMetricV30", "cvssMetricV2"}

// ExtractFromNIST traverses a record returned by the NVD CVE API and returns
// the newest CVSS vector string, or "" if the record carries none.
func ExtractFromNIST(record map[string]any) string {
	if record == nil {
		return ""
	}
	metrics, ok := record["metrics"].(map[string]any)
	if !ok {
		return ""
	}

	for _, version := range metricVersions {
		items, ok := metrics[version].([]any)
		if !ok || len(items) == 0 {
			continue
		}
		for _, item := range items {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			data, ok := m["cvssData"].(map[string]any)
			if !ok {
				continue
			}
			if vector, ok := data["vectorString"].(string); ok && vector != "" {
				return vector
			}
		}
	}
	return ""
}

// Vector is a CVSS vector broken into normalized FIELD:VALUE components.
type Vector []string

// Normalize splits a vector string into its components and maps
// version-specific field aliases onto the v4.0 names: the v3.x impact fields
// C, I and A become VC, VI and VA. Components keep their original order; the
// aliased fields are appended.
func Normalize(vector string) Vector {
	fields := make(map[string]string)
	var order []string
	for _, part := range strings.Split(vector, "/") {
		kv := strings.SplitN(part, ":", 2)
		if len(kv) != 2 {
			continue
		}
		if _, seen := fields[kv[0]]; !seen {
			order = append(order, kv[0])
		}
		fields[kv[0]] = kv[1]
	}

	aliases := [][2]string{{"C", "VC"}, {"I", "VI"}, {"A", "VA"}}
	for _, alias := range aliases {
		old, canonical := alias[0], alias[1]
		if v, ok := fields[old]; ok {
			if _, ok := fields[canonical]; !ok {
				fields[canonical] = v
				order = append(order, canonical)
			}
			delete(fields, old)
		}
	}

	out := make(Vector, 0, len(fields))
	for _, k := range order {
		if v, ok := fields[k]; ok {
			out = append(out, k+":"+v)
		}
	}
	return out
}

// Has reports whether the vector contains the given FIELD:VALUE component.
func (v Vector) Has(component string) bool {
	for _, c := range v {
		if c == component {
			return true
		}
	}
	return false
}
