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

package evaluator

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/boring91/google-ssvc/pkg/ssvc"
	"github.com/boring91/google-ssvc/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChain struct {
	assessment string
	calls      atomic.Int64
}

func (c *fakeChain) Evaluate(ctx context.Context, cveID string, reevaluate bool) *ssvc.EvaluationResult {
	c.calls.Add(1)
	if c.assessment == "" {
		return nil
	}
	return &ssvc.EvaluationResult{Assessment: c.assessment, Confidence: 1, Justification: "test"}
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	return s
}

func testChains(assessments map[ssvc.DecisionPoint]string) map[ssvc.DecisionPoint]Chain {
	chains := make(map[ssvc.DecisionPoint]Chain, len(ssvc.DecisionPoints))
	for _, point := range ssvc.DecisionPoints {
		chains[point] = &fakeChain{assessment: assessments[point]}
	}
	return chains
}

// xzAssessments models CVE-2024-3094: actively exploited, automatable, total
// technical impact, essential mission prevalence.
var xzAssessments = map[ssvc.DecisionPoint]string{
	ssvc.Automatability:    "yes",
	ssvc.Exploitation:      "active",
	ssvc.Exposure:          "open",
	ssvc.MissionImpact:     "mef_failure",
	ssvc.MissionPrevalence: "essential",
	ssvc.PublicWellbeing:   "material",
	ssvc.TechnicalImpact:   "total",
	ssvc.ValueDensity:      "concentrated",
}

func TestEvaluate(t *testing.T) {
	st := newTestStore(t)
	eval, err := NewFromChains(st, testChains(xzAssessments))
	require.NoError(t, err)

	result, err := eval.Evaluate(context.Background(), "cve-2024-3094", false)
	require.NoError(t, err)
	require.NotNil(t, result)

	// essential x material -> high; active/yes/total/high -> act.
	assert.Equal(t, ssvc.ActionAct, result.Action)
	assert.Equal(t, "active", result.Exploitation.Assessment)
	assert.Equal(t, "concentrated", result.ValueDensity.Assessment)

	cached, err := st.GetResult("CVE-2024-3094")
	require.NoError(t, err)
	assert.NotNil(t, cached)
}

func TestEvaluate_ServedFromCache(t *testing.T) {
	st := newTestStore(t)
	chains := testChains(xzAssessments)
	eval, err := NewFromChains(st, chains)
	require.NoError(t, err)

	first, err := eval.Evaluate(context.Background(), "CVE-2024-3094", false)
	require.NoError(t, err)

	second, err := eval.Evaluate(context.Background(), "CVE-2024-3094", false)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	for point, chain := range chains {
		assert.Equal(t, int64(1), chain.(*fakeChain).calls.Load(), "chain %s ran for the cached evaluation", point)
	}
}

func TestEvaluate_ReevaluateRunsChainsAgain(t *testing.T) {
	st := newTestStore(t)
	chains := testChains(xzAssessments)
	eval, err := NewFromChains(st, chains)
	require.NoError(t, err)

	_, err = eval.Evaluate(context.Background(), "CVE-2024-3094", false)
	require.NoError(t, err)
	_, err = eval.Evaluate(context.Background(), "CVE-2024-3094", true)
	require.NoError(t, err)

	for point, chain := range chains {
		assert.Equal(t, int64(2), chain.(*fakeChain).calls.Load(), "chain %s was not re-run", point)
	}
}

func TestEvaluate_UnresolvedPointFailsWholeEvaluation(t *testing.T) {
	st := newTestStore(t)
	assessments := map[ssvc.DecisionPoint]string{}
	for k, v := range xzAssessments {
		assessments[k] = v
	}
	assessments[ssvc.MissionImpact] = "" // chain comes up empty

	eval, err := NewFromChains(st, testChains(assessments))
	require.NoError(t, err)

	result, err := eval.Evaluate(context.Background(), "CVE-2024-3094", false)
	require.NoError(t, err)
	assert.Nil(t, result)

	// Nothing is cached, a later attempt starts fresh.
	cached, err := st.GetResult("CVE-2024-3094")
	require.NoError(t, err)
	assert.Nil(t, cached)
}

func TestEvaluate_InvalidID(t *testing.T) {
	eval, err := NewFromChains(newTestStore(t), testChains(xzAssessments))
	require.NoError(t, err)

	_, err = eval.Evaluate(context.Background(), "not-a-cve", false)
	assert.Error(t, err)
}

func TestEvaluate_OutOfSetAssessment(t *testing.T) {
	st := newTestStore(t)
	assessments := map[ssvc.DecisionPoint]string{}
	for k, v := range xzAssessments {
		assessments[k] = v
	}
	assessments[ssvc.PublicWellbeing] = "catastrophic"

	eval, err := NewFromChains(st, testChains(assessments))
	require.NoError(t, err)

	_, err = eval.Evaluate(context.Background(), "CVE-2024-3094", false)
	assert.Error(t, err)
}

func TestNewFromChains_MissingPoint(t *testing.T) {
	chains := testChains(xzAssessments)
	delete(chains, ssvc.Exposure)
	_, err := NewFromChains(newTestStore(t), chains)
	assert.Error(t, err)
}
