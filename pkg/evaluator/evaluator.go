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

// Package evaluator resolves a full SSVC score for one vulnerability: all
// eight decision points in parallel, then the decision tables, then the
// result cache.
package evaluator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/boring91/google-ssvc/pkg/datasource"
	"github.com/boring91/google-ssvc/pkg/llm"
	"github.com/boring91/google-ssvc/pkg/metrics"
	"github.com/boring91/google-ssvc/pkg/ssvc"
	"github.com/boring91/google-ssvc/pkg/ssvc/llmeval"
	"github.com/boring91/google-ssvc/pkg/ssvc/unit"
	"github.com/boring91/google-ssvc/pkg/store"
	"github.com/boring91/google-ssvc/pkg/vulnid"
	"github.com/tmc/langchaingo/llms"
)

// Chain resolves one decision point, or nil when no unit can.
type Chain interface {
	Evaluate(ctx context.Context, cveID string, reevaluate bool) *ssvc.EvaluationResult
}

// Opts carries the optional upstream credentials.
type Opts struct {
	GitHubToken   string
	NISTAPIKey    string
	VulnersAPIKey string
}

// ScoreEvaluator computes composite SSVC results. Safe for concurrent use.
type ScoreEvaluator struct {
	store  *store.Store
	chains map[ssvc.DecisionPoint]Chain
}

// New wires the default unit chains: authoritative sources and CVSS
// heuristics first, the LLM as the fallback of last resort on every point.
func New(st *store.Store, provider llm.Provider, model llms.Model, opts Opts) (*ScoreEvaluator, error) {
	nist := datasource.New(&datasource.NIST{APIKey: opts.NISTAPIKey}, st)
	kev := datasource.New(&datasource.CisaKEV{}, st)
	vulnrichment := datasource.New(&datasource.Vulnrichment{Token: opts.GitHubToken}, st)
	osv := datasource.New(&datasource.OSV{}, st)

	sources := []*datasource.Source{nist, kev, vulnrichment, osv}
	if opts.VulnersAPIKey != "" {
		sources = append(sources, datasource.New(&datasource.Vulners{APIKey: opts.VulnersAPIKey}, st))
	}
	aggregator := datasource.NewAggregatorFromSources(sources...)

	llmUnit := func(point ssvc.DecisionPoint) (*unit.LLM, error) {
		eval, err := llmeval.New(provider, model, point, aggregator, st)
		if err != nil {
			return nil, err
		}
		return &unit.LLM{Evaluator: eval}, nil
	}

	chains := make(map[ssvc.DecisionPoint]Chain, len(ssvc.DecisionPoints))
	for _, point := range ssvc.DecisionPoints {
		last, err := llmUnit(point)
		if err != nil {
			return nil, err
		}

		var units []unit.Unit
		switch point {
		case ssvc.Automatability, ssvc.TechnicalImpact:
			units = []unit.Unit{&unit.Vulnrichment{Point: point, Source: vulnrichment}}
		case ssvc.Exploitation:
			units = []unit.Unit{
				&unit.Vulnrichment{Point: point, Source: vulnrichment},
				&unit.KEVExploitation{Source: kev},
			}
		case ssvc.Exposure:
			units = []unit.Unit{&unit.HeuristicExposure{NIST: nist}}
		case ssvc.ValueDensity:
			units = []unit.Unit{&unit.HeuristicValueDensity{NIST: nist}}
		}
		units = append(units, last)

		chains[point] = unit.NewChain(point, units...)
	}

	return &ScoreEvaluator{store: st, chains: chains}, nil
}

// NewFromChains builds an evaluator over explicit chains. Every decision
// point must be covered.
func NewFromChains(st *store.Store, chains map[ssvc.DecisionPoint]Chain) (*ScoreEvaluator, error) {
	for _, point := range ssvc.DecisionPoints {
		if _, ok := chains[point]; !ok {
			return nil, fmt.Errorf("no chain for decision point %q", point)
		}
	}
	return &ScoreEvaluator{store: st, chains: chains}, nil
}

// Evaluate computes the composite result for cveID. A nil result with a nil
// error means at least one decision point could not be resolved; nothing is
// cached in that case so a later attempt starts fresh.
func (e *ScoreEvaluator) Evaluate(ctx context.Context, cveID string, reevaluate bool) (*ssvc.Result, error) {
	cveID = vulnid.Normalize(cveID)
	if !vulnid.IsValid(cveID) {
		return nil, fmt.Errorf("invalid vulnerability id %q", cveID)
	}

	if !reevaluate {
		cached, err := e.store.GetResult(cveID)
		if err != nil {
			return nil, fmt.Errorf("reading result cache: %w", err)
		}
		if cached != nil {
			metrics.CacheHits.WithLabelValues("result").Inc()
			metrics.Evaluations.WithLabelValues("hit").Inc()
			var result ssvc.Result
			if err := json.Unmarshal(cached, &result); err != nil {
				return nil, fmt.Errorf("decoding cached result: %w", err)
			}
			return &result, nil
		}
		metrics.CacheMisses.WithLabelValues("result").Inc()
	} else {
		if err := e.store.DeleteResult(cveID); err != nil {
			return nil, fmt.Errorf("invalidating result cache: %w", err)
		}
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results = make(map[ssvc.DecisionPoint]*ssvc.EvaluationResult, len(e.chains))
	)
	for point, chain := range e.chains {
		wg.Add(1)
		go func(point ssvc.DecisionPoint, chain Chain) {
			defer wg.Done()
			result := chain.Evaluate(ctx, cveID, reevaluate)
			mu.Lock()
			results[point] = result
			mu.Unlock()
		}(point, chain)
	}
	wg.Wait()

	for _, point := range ssvc.DecisionPoints {
		if results[point] == nil {
			slog.WarnContext(ctx, "Decision point could not be resolved.",
				"cveId", cveID, "decisionPoint", point)
			metrics.Evaluations.WithLabelValues("failed").Inc()
			return nil, nil
		}
	}

	severity, ok := ssvc.MissionWellbeing(
		results[ssvc.MissionPrevalence].Assessment,
		results[ssvc.PublicWellbeing].Assessment)
	if !ok {
		metrics.Evaluations.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("no mission & wellbeing severity for (%q, %q)",
			results[ssvc.MissionPrevalence].Assessment, results[ssvc.PublicWellbeing].Assessment)
	}

	action, ok := ssvc.Decide(
		results[ssvc.Exploitation].Assessment,
		results[ssvc.Automatability].Assessment,
		results[ssvc.TechnicalImpact].Assessment,
		severity)
	if !ok {
		metrics.Evaluations.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("no decision for (%q, %q, %q, %q)",
			results[ssvc.Exploitation].Assessment,
			results[ssvc.Automatability].Assessment,
			results[ssvc.TechnicalImpact].Assessment, severity)
	}

	result := &ssvc.Result{
		Action:            action,
		Automatability:    results[ssvc.Automatability],
		Exploitation:      results[ssvc.Exploitation],
		Exposure:          results[ssvc.Exposure],
		MissionImpact:     results[ssvc.MissionImpact],
		MissionPrevalence: results[ssvc.MissionPrevalence],
		PublicWellbeing:   results[ssvc.PublicWellbeing],
		TechnicalImpact:   results[ssvc.TechnicalImpact],
		ValueDensity:      results[ssvc.ValueDensity],
	}

	data, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	if err := e.store.PutResult(cveID, data); err != nil {
		slog.WarnContext(ctx, "Failed to cache composite result.", "cveId", cveID, "error", err)
	}
	metrics.Evaluations.WithLabelValues("evaluated").Inc()

	return result, nil
}
