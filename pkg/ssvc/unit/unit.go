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

// Package unit implements the per-decision-point evaluation units and the
// fallback chains that combine them.
//
// A unit judges exactly one decision point for one vulnerability. Cheap
// authoritative units (CISA Vulnrichment, the KEV catalog, CVSS heuristics)
// sit at the front of a chain; the LLM unit is always last. The first unit
// that produces a result wins and no later unit runs.
package unit

import (
	"context"
	"log/slog"

	"github.com/boring91/google-ssvc/pkg/ssvc"
)

// Unit judges one decision point. A nil result with a nil error means the
// unit has no opinion; the chain moves on to the next unit.
type Unit interface {
	DecisionPoint() ssvc.DecisionPoint
	Evaluate(ctx context.Context, cveID string, reevaluate bool) (*ssvc.EvaluationResult, error)
}

// RecordLoader loads one data source's record for a vulnerability, fetching
// or serving from cache. Satisfied by *datasource.Source.
type RecordLoader interface {
	Load(ctx context.Context, cveID string, forceRefresh bool) map[string]any
}

// Chain runs units in order and returns the first result produced. Unit
// errors are logged and treated as "no opinion" so that a broken upstream
// never blocks the units behind it.
type Chain struct {
	point ssvc.DecisionPoint
	units []Unit
}

// NewChain builds a fallback chain for a decision point.
func NewChain(point ssvc.DecisionPoint, units ...Unit) *Chain {
	return &Chain{point: point, units: units}
}

// DecisionPoint returns the decision point the chain resolves.
func (c *Chain) DecisionPoint() ssvc.DecisionPoint { return c.point }

// Evaluate resolves the decision point, or returns nil when every unit comes
// up empty.
func (c *Chain) Evaluate(ctx context.Context, cveID string, reevaluate bool) *ssvc.EvaluationResult {
	for _, u := range c.units {
		result, err := u.Evaluate(ctx, cveID, reevaluate)
		if err != nil {
			slog.WarnContext(ctx, "Evaluation unit failed, falling through.",
				"cveId", cveID, "decisionPoint", c.point, "error", err)
			continue
		}
		if result != nil {
			return result
		}
	}
	return nil
}
