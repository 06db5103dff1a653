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

package unit

import (
	"context"

	"github.com/boring91/google-ssvc/pkg/ssvc"
)

// vulnrichmentFields maps decision points to the option key used in CISA's
// Vulnrichment SSVC block. Only these three points are published there.
var vulnrichmentFields = map[ssvc.DecisionPoint]string{
	ssvc.Automatability:  "automatable",
	ssvc.Exploitation:    "exploitation",
	ssvc.TechnicalImpact: "technical_impact",
}

// Vulnrichment answers a decision point straight from CISA's Vulnrichment
// assessment when one has been published for the vulnerability.
type Vulnrichment struct {
	Point  ssvc.DecisionPoint
	Source RecordLoader
}

func (u *Vulnrichment) DecisionPoint() ssvc.DecisionPoint { return u.Point }

func (u *Vulnrichment) Evaluate(ctx context.Context, cveID string, reevaluate bool) (*ssvc.EvaluationResult, error) {
	field, ok := vulnrichmentFields[u.Point]
	if !ok {
		return nil, nil
	}

	record := u.Source.Load(ctx, cveID, reevaluate)
	if record == nil {
		return nil, nil
	}
	assessment, ok := record[field].(string)
	if !ok || assessment == "" {
		return nil, nil
	}

	result := &ssvc.EvaluationResult{
		Assessment:    assessment,
		Confidence:    1,
		Justification: "Found in the CISA Vulnrichment data set.",
	}
	if link, ok := record["link"].(string); ok && link != "" {
		result.Links = []string{link}
	}
	return result, nil
}

// KEVExploitation resolves exploitation to "active" when the vulnerability is
// listed in CISA's Known Exploited Vulnerabilities catalog. Absence from the
// catalog says nothing, so the unit stays silent and the chain falls through.
type KEVExploitation struct {
	Source RecordLoader
}

func (u *KEVExploitation) DecisionPoint() ssvc.DecisionPoint { return ssvc.Exploitation }

func (u *KEVExploitation) Evaluate(ctx context.Context, cveID string, reevaluate bool) (*ssvc.EvaluationResult, error) {
	record := u.Source.Load(ctx, cveID, reevaluate)
	if record == nil {
		return nil, nil
	}
	return &ssvc.EvaluationResult{
		Assessment:    "active",
		Confidence:    1,
		Justification: "Listed in the CISA Known Exploited Vulnerabilities catalog.",
		Links:         []string{"https://www.cisa.gov/known-exploited-vulnerabilities-catalog"},
	}, nil
}
