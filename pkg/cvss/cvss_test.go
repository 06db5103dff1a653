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

package cvss

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func nistRecord(versions map[string][]string) map[string]any {
	metrics := make(map[string]any)
	for version, vectors := range versions {
		var items []any
		for _, v := range vectors {
			items = append(items, map[string]any{
				"cvssData": map[string]any{"vectorString": v},
			})
		}
		metrics[version] = items
	}
	return map[string]any{"metrics": metrics}
}

func TestExtractFromNIST_NewestVersionWins(t *testing.T) {
	record := nistRecord(map[string][]string{
		"cvssMetricV31": {"CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H"},
		"cvssMetricV40": {"CVSS:4.0/AV:N/AC:L/AT:N/PR:N/UI:N/VC:H/VI:H/VA:H"},
	})
	got := ExtractFromNIST(record)
	assert.Equal(t, "CVSS:4.0/AV:N/AC:L/AT:N/PR:N/UI:N/VC:H/VI:H/VA:H", got)
}

func TestExtractFromNIST_FallsBackToOlderVersions(t *testing.T) {
	record := nistRecord(map[string][]string{
		"cvssMetricV2": {"AV:N/AC:L/Au:N/C:P/I:P/A:P"},
	})
	assert.Equal(t, "AV:N/AC:L/Au:N/C:P/I:P/A:P", ExtractFromNIST(record))
}

func TestExtractFromNIST_Missing(t *testing.T) {
	assert.Empty(t, ExtractFromNIST(nil))
	assert.Empty(t, ExtractFromNIST(map[string]any{}))
	assert.Empty(t, ExtractFromNIST(map[string]any{"metrics": map[string]any{}}))
	// Empty metric buckets are skipped.
	assert.Empty(t, ExtractFromNIST(nistRecord(map[string][]string{"cvssMetricV31": {}})))
}

func TestNormalize_AliasesImpactFields(t *testing.T) {
	v3 := Normalize("CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:L/A:N")
	v4 := Normalize("CVSS:4.0/AV:N/AC:L/PR:N/UI:N/VC:H/VI:L/VA:N")

	for _, component := range []string{"VC:H", "VI:L", "VA:N"} {
		assert.True(t, v3.Has(component), "v3 vector should contain %s", component)
		assert.True(t, v4.Has(component), "v4 vector should contain %s", component)
	}
	assert.False(t, v3.Has("C:H"), "aliased field should be replaced")
}

func TestNormalize_KeepsExplicitCanonicalFields(t *testing.T) {
	// When both C and VC appear, the explicit VC wins.
	v := Normalize("AV:N/VC:L/C:H")
	assert.True(t, v.Has("VC:L"))
	assert.False(t, v.Has("VC:H"))
}

func TestVectorHas(t *testing.T) {
	v := Normalize("AV:N/PR:N/UI:N")
	assert.True(t, v.Has("AV:N"))
	assert.True(t, v.Has("PR:N"))
	assert.False(t, v.Has("PR:L"))
	assert.False(t, v.Has("AV"))
}
