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

	"github.com/boring91/google-ssvc/pkg/cvss"
	"github.com/boring91/google-ssvc/pkg/ssvc"
)

const heuristicJustification = "Rule-based heuristic evaluation using the cvss vector string."

func heuristicResult(assessment string) *ssvc.EvaluationResult {
	return &ssvc.EvaluationResult{
		Assessment:    assessment,
		Confidence:    1,
		Justification: heuristicJustification,
	}
}

// HeuristicExposure derives exposure from the CVSS vector in the NVD record.
// It only covers the clear-cut cases; everything else is left to the LLM.
type HeuristicExposure struct {
	NIST RecordLoader
}

func (u *HeuristicExposure) DecisionPoint() ssvc.DecisionPoint { return ssvc.Exposure }

func (u *HeuristicExposure) Evaluate(ctx context.Context, cveID string, reevaluate bool) (*ssvc.EvaluationResult, error) {
	vector := cvss.Normalize(cvss.ExtractFromNIST(u.NIST.Load(ctx, cveID, reevaluate)))
	if len(vector) == 0 {
		return nil, nil
	}

	switch {
	case vector.Has("AV:N") && vector.Has("PR:N") && vector.Has("UI:N"):
		return heuristicResult("open"), nil
	case (vector.Has("AV:N") || vector.Has("AV:A")) &&
		(vector.Has("PR:L") || vector.Has("PR:H") || vector.Has("UI:R")):
		return heuristicResult("controlled"), nil
	case vector.Has("AV:L") || vector.Has("AV:P"):
		return heuristicResult("small"), nil
	}
	return nil, nil
}

// HeuristicValueDensity derives value density from the CVSS vector in the NVD
// record. Unlike exposure, it always resolves when a vector is present:
// "diffused" is the terminal default.
type HeuristicValueDensity struct {
	NIST RecordLoader
}

func (u *HeuristicValueDensity) DecisionPoint() ssvc.DecisionPoint { return ssvc.ValueDensity }

func (u *HeuristicValueDensity) Evaluate(ctx context.Context, cveID string, reevaluate bool) (*ssvc.EvaluationResult, error) {
	vector := cvss.Normalize(cvss.ExtractFromNIST(u.NIST.Load(ctx, cveID, reevaluate)))
	if len(vector) == 0 {
		return nil, nil
	}

	switch {
	case vector.Has("AV:N") && vector.Has("PR:N") &&
		(vector.Has("VC:H") || vector.Has("VI:H") || vector.Has("VA:H")):
		return heuristicResult("concentrated"), nil
	case vector.Has("AV:L") || vector.Has("AV:A") ||
		vector.Has("PR:L") || vector.Has("PR:H") || vector.Has("UI:R"):
		return heuristicResult("diffused"), nil
	case vector.Has("S:C"):
		return heuristicResult("concentrated"), nil
	}
	return heuristicResult("diffused"), nil
}
