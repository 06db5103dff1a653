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

// Package llmeval asks an LLM to judge a single SSVC decision point for a
// vulnerability, using the aggregated multi-source record as prompt context.
//
// Judgments are cached per (provider, cve, decision point) so repeated
// evaluations of the same vulnerability never pay for a second model call.
package llmeval

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/boring91/google-ssvc/pkg/llm"
	"github.com/boring91/google-ssvc/pkg/metrics"
	"github.com/boring91/google-ssvc/pkg/ssvc"
	"github.com/boring91/google-ssvc/pkg/store"
	"github.com/boring91/google-ssvc/pkg/vulnid"
	"github.com/tmc/langchaingo/llms"
)

const (
	DefaultSleepOnRateLimit = 10 * time.Second
	DefaultRetryOnRateLimit = 10
)

// ContextLoader supplies the aggregated multi-source record that is embedded
// in the prompt as JSON context.
type ContextLoader interface {
	Load(ctx context.Context, cveID string) map[string]map[string]any
}

// Judgment is the parsed model response for one decision point.
type Judgment struct {
	CveID         string  `json:"cve_id"`
	Assessment    string  `json:"assessment"`
	Justification string  `json:"justification"`
	Confidence    float64 `json:"confidence"`
}

// Evaluator judges one decision point. Instances are cheap; the expensive
// model client is shared between them.
type Evaluator struct {
	provider llm.Provider
	model    llms.Model
	point    ssvc.DecisionPoint
	spec     promptSpec
	sources  ContextLoader
	store    *store.Store

	SleepOnRateLimit time.Duration
	RetryOnRateLimit int
}

// New builds an evaluator for the given decision point. It fails if no prompt
// is defined for the point.
func New(provider llm.Provider, model llms.Model, point ssvc.DecisionPoint, sources ContextLoader, st *store.Store) (*Evaluator, error) {
	spec, ok := promptSpecs[point]
	if !ok {
		return nil, fmt.Errorf("no prompt defined for decision point %q", point)
	}
	return &Evaluator{
		provider:         provider,
		model:            model,
		point:            point,
		spec:             spec,
		sources:          sources,
		store:            st,
		SleepOnRateLimit: DefaultSleepOnRateLimit,
		RetryOnRateLimit: DefaultRetryOnRateLimit,
	}, nil
}

// Evaluate returns the judgment for cveID, consulting the cache first unless
// reevaluate is set, in which case the cached judgment is discarded and the
// model is asked again.
func (e *Evaluator) Evaluate(ctx context.Context, cveID string, reevaluate bool) (*Judgment, error) {
	cveID = vulnid.Normalize(cveID)

	if !reevaluate {
		cached, err := e.store.GetLLM(string(e.provider), cveID, string(e.point))
		if err != nil {
			return nil, fmt.Errorf("reading llm cache: %w", err)
		}
		if cached != nil {
			metrics.CacheHits.WithLabelValues("llm").Inc()
			var judgment Judgment
			if err := json.Unmarshal(cached, &judgment); err != nil {
				return nil, fmt.Errorf("decoding cached judgment: %w", err)
			}
			return &judgment, nil
		}
		metrics.CacheMisses.WithLabelValues("llm").Inc()
		slog.InfoContext(ctx, "No cached evaluation was found, running llm evaluator.",
			"cveId", cveID, "decisionPoint", e.point)
	} else {
		if err := e.store.DeleteLLM(string(e.provider), cveID, string(e.point)); err != nil {
			return nil, fmt.Errorf("invalidating llm cache: %w", err)
		}
	}

	cveData, err := json.Marshal(e.sources.Load(ctx, cveID))
	if err != nil {
		return nil, err
	}

	prompt := e.buildPrompt(cveID, string(cveData))

	var response string
	err = llm.RetryOnRateLimit(ctx, e.SleepOnRateLimit, e.RetryOnRateLimit, func(c context.Context) error {
		var genErr error
		response, genErr = llms.GenerateFromSinglePrompt(c, e.model, prompt)
		return genErr
	})
	if err != nil {
		metrics.LLMCalls.WithLabelValues(string(e.provider), "error").Inc()
		return nil, fmt.Errorf("llm call for %s/%s: %w", cveID, e.point, err)
	}

	judgment, err := parseResponse(response)
	if err != nil {
		metrics.LLMCalls.WithLabelValues(string(e.provider), "unparseable").Inc()
		return nil, fmt.Errorf("llm response for %s/%s: %w", cveID, e.point, err)
	}
	metrics.LLMCalls.WithLabelValues(string(e.provider), "ok").Inc()

	data, err := json.Marshal(judgment)
	if err != nil {
		return nil, err
	}
	if err := e.store.PutLLM(string(e.provider), cveID, string(e.point), data); err != nil {
		// The judgment is still usable, only the next evaluation pays again.
		slog.WarnContext(ctx, "Failed to cache llm judgment.",
			"cveId", cveID, "decisionPoint", e.point, "error", err)
	}

	return judgment, nil
}

// DecisionPoint returns the decision point this evaluator judges.
func (e *Evaluator) DecisionPoint() ssvc.DecisionPoint { return e.point }

func (e *Evaluator) buildPrompt(cveID, cveData string) string {
	return fmt.Sprintf(`I am going to give you an ID of a specific CVE and some data related to that CVE in a json format. The
json object has at its roots properties that represent different data sources, each property of these is
assigned to another json object that represent the information about the given CVE from that data source. Your
role is to use the provided information from these data sources and answer the following question:

%s

%s

Your answer should be formatted as a json object with four properties: 1) "cve_id" which contains the id of the
cve in question, 2) "assessment" which holds your final assessment of the CVE, 3) "justification": explaining
how you reached the answer you provided in the "assessment" property (the description should not refer to the
json data but rather talks about the information that led you to this conclusion, aka, avoid saying the json
data shows etc. Also avoid giving generic descriptions like: "multiple sources have reported etc." but rather
provide concrete descriptions: e.g., name the sources, name the versions or software, provide links if
available, etc. In addition the style of the assessment should be passive for instance, rather than saying "I am
unable to find any information about this vulnerability", you should say "No information was found about this
vulnerability", you do not have to use those exact same words but you should not use "I"),
and 4) "confidence": ranges between 0 and 1, which indicates how confident you are in your
assessment, 1 being very confident.

You should only respond with the json object nothing more.

Here are the two pieces of information:

CVE ID: %s
JSON data: %s
`, e.spec.question, e.spec.rules, cveID, cveData)
}

var fencedJSON = regexp.MustCompile("```json(\\{.+?\\})```")

// parseResponse extracts the fenced json object from a raw model response.
// A response without a fenced object or without an "assessment" field is
// rejected.
func parseResponse(response string) (*Judgment, error) {
	cleaned := strings.NewReplacer("\n", "", "\t", "").Replace(response)
	match := fencedJSON.FindStringSubmatch(cleaned)
	if match == nil {
		return nil, errors.New("no fenced json object found")
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(match[1]), &fields); err != nil {
		return nil, err
	}
	if _, ok := fields["assessment"]; !ok {
		return nil, errors.New(`json object has no "assessment" field`)
	}

	var judgment Judgment
	if err := json.Unmarshal([]byte(match[1]), &judgment); err != nil {
		return nil, err
	}
	return &judgment, nil
}
