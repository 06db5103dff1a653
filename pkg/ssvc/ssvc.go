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

// Package ssvc defines the Stakeholder-Specific Vulnerability Categorization
// decision points, their value sets, and the decision tables that resolve
// eight decision-point assessments into a single action.
//
// Reference: https://certcc.github.io/SSVC/
package ssvc

// DecisionPoint identifies one of the eight SSVC decision points evaluated
// per vulnerability.
type DecisionPoint string

const (
	Automatability    DecisionPoint = "automatability"
	Exploitation      DecisionPoint = "exploitation"
	Exposure          DecisionPoint = "exposure"
	MissionImpact     DecisionPoint = "mission_impact"
	MissionPrevalence DecisionPoint = "mission_prevalence"
	PublicWellbeing   DecisionPoint = "public_wellbeing"
	TechnicalImpact   DecisionPoint = "technical_impact"
	ValueDensity      DecisionPoint = "value_density"
)

// DecisionPoints lists all decision points. Every one of them must resolve
// for a composite evaluation to succeed.
var DecisionPoints = []DecisionPoint{
	Automatability,
	Exploitation,
	Exposure,
	MissionImpact,
	MissionPrevalence,
	PublicWellbeing,
	TechnicalImpact,
	ValueDensity,
}

// Action is the final SSVC decision.
type Action string

const (
	ActionTrack     Action = "track"
	ActionTrackStar Action = "track*"
	ActionAttend    Action = "attend"
	ActionAct       Action = "act"
)

// EvaluationResult is the outcome of a single decision-point judgment. A unit
// either produces a complete result or nothing; there are no partial results.
type EvaluationResult struct {
	// Assessment is a member of the decision point's value set, e.g. "poc"
	// for exploitation. The producing unit is responsible for staying inside
	// the value set.
	Assessment string `json:"assessment"`
	// Confidence ranges over [0, 1]; deterministic units always report 1.
	Confidence    float64  `json:"confidence"`
	Justification string   `json:"justification"`
	Links         []string `json:"links,omitempty"`
}

// Result is the composite evaluation for one vulnerability: the final action
// plus the per-decision-point results that produced it. It is re-derivable
// from its eight inputs and the decision tables.
type Result struct {
	Action            Action            `json:"action"`
	Automatability    *EvaluationResult `json:"automatability"`
	Exploitation      *EvaluationResult `json:"exploitation"`
	Exposure          *EvaluationResult `json:"exposure"`
	MissionImpact     *EvaluationResult `json:"missionImpact"`
	MissionPrevalence *EvaluationResult `json:"missionPrevalence"`
	PublicWellbeing   *EvaluationResult `json:"publicWellbeing"`
	TechnicalImpact   *EvaluationResult `json:"technicalImpact"`
	ValueDensity      *EvaluationResult `json:"valueDensity"`
}
