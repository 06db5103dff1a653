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
	"github.com/boring91/google-ssvc/pkg/ssvc/llmeval"
)

// judge is the part of *llmeval.Evaluator the unit depends on.
type judge interface {
	DecisionPoint() ssvc.DecisionPoint
	Evaluate(ctx context.Context, cveID string, reevaluate bool) (*llmeval.Judgment, error)
}

// LLM adapts an llmeval evaluator into a unit. It is the terminal member of
// every chain.
type LLM struct {
	Evaluator judge
}

func (u *LLM) DecisionPoint() ssvc.DecisionPoint { return u.Evaluator.DecisionPoint() }

func (u *LLM) Evaluate(ctx context.Context, cveID string, reevaluate bool) (*ssvc.EvaluationResult, error) {
	judgment, err := u.Evaluator.Evaluate(ctx, cveID, reevaluate)
	if err != nil {
		return nil, err
	}
	if judgment == nil {
		return nil, nil
	}
	return &ssvc.EvaluationResult{
		Assessment:    judgment.Assessment,
		Confidence:    judgment.Confidence,
		Justification: judgment.Justification,
	}, nil
}
