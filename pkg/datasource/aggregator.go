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

package datasource

import (
	"context"
	"fmt"

	"github.com/boring91/google-ssvc/pkg/store"
)

// Aggregator merges the records of all configured sources for one
// vulnerability into a single document, keyed by "{source}_data_source".
// Sources with no data are skipped; the worst case is an empty map, never an
// error.
type Aggregator struct {
	sources []*Source
}

// AggregatorOpts configures the default source set.
type AggregatorOpts struct {
	// GitHubToken authenticates Vulnrichment lookups (optional).
	GitHubToken string
	// NISTAPIKey raises the NVD rate limit (optional).
	NISTAPIKey string
	// VulnersAPIKey enables the Vulners source; without a key the source is
	// left out of the set entirely.
	VulnersAPIKey string
}

// NewAggregator builds the default source set: NVD, CISA KEV, CISA
// Vulnrichment and OSV, plus Vulners when a key is configured.
func NewAggregator(st *store.Store, opts AggregatorOpts) *Aggregator {
	sources := []*Source{
		New(&NIST{APIKey: opts.NISTAPIKey}, st),
		New(&CisaKEV{}, st),
		New(&Vulnrichment{Token: opts.GitHubToken}, st),
		New(&OSV{}, st),
	}
	if opts.VulnersAPIKey != "" {
		sources = append(sources, New(&Vulners{APIKey: opts.VulnersAPIKey}, st))
	}
	return &Aggregator{sources: sources}
}

// NewAggregatorFromSources builds an aggregator over an explicit source list.
func NewAggregatorFromSources(sources ...*Source) *Aggregator {
	return &Aggregator{sources: sources}
}

// Load collects every available record for cveID. The map's iteration order
// is irrelevant to callers; it is only used as LLM prompt context.
func (a *Aggregator) Load(ctx context.Context, cveID string) map[string]map[string]any {
	aggregated := make(map[string]map[string]any)
	for _, source := range a.sources {
		record := source.Load(ctx, cveID, false)
		if record == nil {
			continue
		}
		aggregated[fmt.Sprintf("%s_data_source", source.Name())] = record
	}
	return aggregated
}
