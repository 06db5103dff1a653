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

package ssvc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMissionWellbeing(t *testing.T) {
	tests := []struct {
		prevalence string
		wellbeing  string
		want       string
	}{
		{"minimal", "minimal", "low"},
		{"minimal", "material", "medium"},
		{"minimal", "irreversible", "high"},
		{"support", "minimal", "medium"},
		{"support", "material", "medium"},
		{"support", "irreversible", "high"},
		{"essential", "minimal", "high"},
		{"essential", "material", "high"},
		{"essential", "irreversible", "high"},
	}
	for _, tt := range tests {
		got, ok := MissionWellbeing(tt.prevalence, tt.wellbeing)
		require.True(t, ok, "%s/%s", tt.prevalence, tt.wellbeing)
		assert.Equal(t, tt.want, got, "%s/%s", tt.prevalence, tt.wellbeing)
	}
}

func TestMissionWellbeing_OutOfSet(t *testing.T) {
	_, ok := MissionWellbeing("critical", "minimal")
	assert.False(t, ok)
	_, ok = MissionWellbeing("minimal", "severe")
	assert.False(t, ok)
}

// expectedDecisions locks the canonical decision tree: for every exploitation
// state, the twelve (automatability, technical impact, severity) actions in
// table order.
var expectedDecisions = map[string][12]Action{
	"none": {
		ActionTrack, ActionTrack, ActionTrack,
		ActionTrack, ActionTrack, ActionTrackStar,
		ActionTrack, ActionTrack, ActionAttend,
		ActionTrack, ActionTrack, ActionAttend,
	},
	"poc": {
		ActionTrack, ActionTrack, ActionTrackStar,
		ActionTrack, ActionTrackStar, ActionAttend,
		ActionTrack, ActionTrack, ActionAttend,
		ActionTrack, ActionTrackStar, ActionAttend,
	},
	"active": {
		ActionTrack, ActionTrack, ActionAttend,
		ActionTrack, ActionAttend, ActionAct,
		ActionAttend, ActionAttend, ActionAct,
		ActionAttend, ActionAct, ActionAct,
	},
}

func TestDecide_AllCombinations(t *testing.T) {
	automatabilities := []string{"no", "yes"}
	impacts := []string{"partial", "total"}
	severities := []string{"low", "medium", "high"}

	for exploitation, decisions := range expectedDecisions {
		i := 0
		for _, automatability := range automatabilities {
			for _, impact := range impacts {
				for _, severity := range severities {
					want := decisions[i]
					got, ok := Decide(exploitation, automatability, impact, severity)
					require.True(t, ok, "(%s,%s,%s,%s)", exploitation, automatability, impact, severity)
					assert.Equal(t, want, got, "(%s,%s,%s,%s)", exploitation, automatability, impact, severity)
					i++
				}
			}
		}
	}
}

func TestDecide_OutOfSet(t *testing.T) {
	_, ok := Decide("weaponized", "no", "partial", "low")
	assert.False(t, ok)
	_, ok = Decide("none", "maybe", "partial", "low")
	assert.False(t, ok)
	_, ok = Decide("none", "no", "full", "low")
	assert.False(t, ok)
	_, ok = Decide("none", "no", "partial", "severe")
	assert.False(t, ok)
}

func TestDecisionTreeIsComplete(t *testing.T) {
	assert.Len(t, decisionTree, 36)

	seen := make(map[[4]string]bool)
	for _, row := range decisionTree {
		key := [4]string{row.exploitation, row.automatability, row.technicalImpact, row.missionWellbeing}
		assert.False(t, seen[key], "duplicate row %v", key)
		seen[key] = true
	}
}
