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

package llmeval

import (
	"context"
	"testing"

	"github.com/boring91/google-ssvc/pkg/llm"
	"github.com/boring91/google-ssvc/pkg/ssvc"
	"github.com/boring91/google-ssvc/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

// fakeModel replays a canned response and counts generation calls.
type fakeModel struct {
	response string
	err      error
	calls    int
}

func (m *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: m.response}}}, nil
}

func (m *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	m.calls++
	return m.response, m.err
}

type fakeLoader struct {
	record map[string]map[string]any
}

func (l *fakeLoader) Load(ctx context.Context, cveID string) map[string]map[string]any {
	return l.record
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	return s
}

const goodResponse = "```json\n{\n\t\"cve_id\": \"CVE-2024-3094\",\n\t\"assessment\": \"yes\",\n" +
	"\t\"justification\": \"The backdoor allows remote code execution via sshd.\",\n\t\"confidence\": 0.9\n}\n```"

func TestEvaluate(t *testing.T) {
	st := newTestStore(t)
	model := &fakeModel{response: goodResponse}
	eval, err := New(llm.Gemini, model, ssvc.Automatability, &fakeLoader{}, st)
	require.NoError(t, err)

	judgment, err := eval.Evaluate(context.Background(), "cve-2024-3094", false)
	require.NoError(t, err)
	require.NotNil(t, judgment)
	assert.Equal(t, "yes", judgment.Assessment)
	assert.Equal(t, 0.9, judgment.Confidence)
	assert.Equal(t, 1, model.calls)

	// The judgment was cached; the model is not consulted again.
	again, err := eval.Evaluate(context.Background(), "CVE-2024-3094", false)
	require.NoError(t, err)
	assert.Equal(t, judgment, again)
	assert.Equal(t, 1, model.calls)
}

func TestEvaluate_ReevaluateDiscardsCache(t *testing.T) {
	st := newTestStore(t)
	model := &fakeModel{response: goodResponse}
	eval, err := New(llm.Gemini, model, ssvc.Automatability, &fakeLoader{}, st)
	require.NoError(t, err)

	_, err = eval.Evaluate(context.Background(), "CVE-2024-3094", false)
	require.NoError(t, err)

	_, err = eval.Evaluate(context.Background(), "CVE-2024-3094", true)
	require.NoError(t, err)
	assert.Equal(t, 2, model.calls)
}

func TestEvaluate_CacheIsolatedPerProvider(t *testing.T) {
	st := newTestStore(t)
	gemini := &fakeModel{response: goodResponse}
	openai := &fakeModel{response: goodResponse}

	geval, err := New(llm.Gemini, gemini, ssvc.Automatability, &fakeLoader{}, st)
	require.NoError(t, err)
	oeval, err := New(llm.OpenAI, openai, ssvc.Automatability, &fakeLoader{}, st)
	require.NoError(t, err)

	_, err = geval.Evaluate(context.Background(), "CVE-2024-3094", false)
	require.NoError(t, err)
	_, err = oeval.Evaluate(context.Background(), "CVE-2024-3094", false)
	require.NoError(t, err)
	assert.Equal(t, 1, gemini.calls)
	assert.Equal(t, 1, openai.calls)
}

func TestEvaluate_UnparseableResponseNotCached(t *testing.T) {
	st := newTestStore(t)
	model := &fakeModel{response: "I think the answer is yes."}
	eval, err := New(llm.Gemini, model, ssvc.Exploitation, &fakeLoader{}, st)
	require.NoError(t, err)

	judgment, err := eval.Evaluate(context.Background(), "CVE-2024-3094", false)
	assert.Error(t, err)
	assert.Nil(t, judgment)

	cached, err := st.GetLLM("gemini", "CVE-2024-3094", "exploitation")
	require.NoError(t, err)
	assert.Nil(t, cached)
}

func TestNew_UnknownDecisionPoint(t *testing.T) {
	_, err := New(llm.Gemini, &fakeModel{}, ssvc.DecisionPoint("severity"), &fakeLoader{}, newTestStore(t))
	assert.Error(t, err)
}

func TestBuildPrompt(t *testing.T) {
	eval, err := New(llm.Gemini, &fakeModel{}, ssvc.TechnicalImpact, &fakeLoader{}, newTestStore(t))
	require.NoError(t, err)

	prompt := eval.buildPrompt("CVE-2024-3094", `{"nist_data_source":{}}`)
	assert.Contains(t, prompt, "What is the Technical Impact of exploiting the given CVE?")
	assert.Contains(t, prompt, "CVE ID: CVE-2024-3094")
	assert.Contains(t, prompt, `JSON data: {"nist_data_source":{}}`)
	assert.Contains(t, prompt, "You should only respond with the json object nothing more.")
}

func TestParseResponse(t *testing.T) {
	judgment, err := parseResponse(goodResponse)
	require.NoError(t, err)
	assert.Equal(t, "CVE-2024-3094", judgment.CveID)
	assert.Equal(t, "yes", judgment.Assessment)
	assert.Equal(t, "The backdoor allows remote code execution via sshd.", judgment.Justification)

	// Prose around the fenced object is tolerated.
	_, err = parseResponse("Sure, here you go:\n" + goodResponse + "\nLet me know if you need more.")
	require.NoError(t, err)

	_, err = parseResponse(`{"assessment": "yes"}`)
	assert.Error(t, err, "unfenced json is rejected")

	_, err = parseResponse("```json{\"cve_id\": \"CVE-2024-3094\"}```")
	assert.Error(t, err, "missing assessment field is rejected")

	_, err = parseResponse("```json{not json}```")
	assert.Error(t, err)
}

func TestPromptSpecsCoverAllDecisionPoints(t *testing.T) {
	for _, point := range ssvc.DecisionPoints {
		spec, ok := promptSpecs[point]
		require.True(t, ok, "decision point %s has no prompt", point)
		assert.NotEmpty(t, spec.question)
		assert.NotEmpty(t, spec.rules)
	}
}
