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

// missionWellbeing combines mission prevalence (rows) and public wellbeing
// (columns) into one severity bucket, per the SSVC deployer tree.
var missionWellbeing = map[string]map[string]string{
	"minimal":   {"minimal": "low", "material": "medium", "irreversible": "high"},
	"support":   {"minimal": "medium", "material": "medium", "irreversible": "high"},
	"essential": {"minimal": "high", "material": "high", "irreversible": "high"},
}

// MissionWellbeing returns the combined mission & wellbeing severity
// ("low", "medium" or "high") for the given mission prevalence and public
// wellbeing assessments. ok is false if either value is outside its set.
func MissionWellbeing(prevalence, wellbeing string) (severity string, ok bool) {
	row, ok := missionWellbeing[prevalence]
	if !ok {
		return "", false
	}
	severity, ok = row[wellbeing]
	return severity, ok
}

type treeRow struct {
	exploitation     string
	automatability   string
	technicalImpact  string
	missionWellbeing string
	decision         Action
}

// decisionTree is the full 36-row SSVC coordinator tree. Every combination of
// exploitation x automatability x technical impact x mission & wellbeing has
// exactly one row; lookups are exact matches with no wildcards.
var decisionTree = []treeRow{
	{"none", "no", "partial", "low", ActionTrack},
	{"none", "no", "partial", "medium", ActionTrack},
	{"none", "no", "partial", "high", ActionTrack},
	{"none", "no", "total", "low", ActionTrack},
	{"none", "no", "total", "medium", ActionTrack},
	{"none", "no", "total", "high", ActionTrackStar},
	{"none", "yes", "partial", "low", ActionTrack},
	{"none", "yes", "partial", "medium", ActionTrack},
	{"none", "yes", "partial", "high", ActionAttend},
	{"none", "yes", "total", "low", ActionTrack},
	{"none", "yes", "total", "medium", ActionTrack},
	{"none", "yes", "total", "high", ActionAttend},

	{"poc", "no", "partial", "low", ActionTrack},
	{"poc", "no", "partial", "medium", ActionTrack},
	{"poc", "no", "partial", "high", ActionTrackStar},
	{"poc", "no", "total", "low", ActionTrack},
	{"poc", "no", "total", "medium", ActionTrackStar},
	{"poc", "no", "total", "high", ActionAttend},
	{"poc", "yes", "partial", "low", ActionTrack},
	{"poc", "yes", "partial", "medium", ActionTrack},
	{"poc", "yes", "partial", "high", ActionAttend},
	{"poc", "yes", "total", "low", ActionTrack},
	{"poc", "yes", "total", "medium", ActionTrackStar},
	{"poc", "yes", "total", "high", ActionAttend},

	{"active", "no", "partial", "low", ActionTrack},
	{"active", "no", "partial", "medium", ActionTrack},
	{"active", "no", "partial", "high", ActionAttend},
	{"active", "no", "total", "low", ActionTrack},
	{"active", "no", "total", "medium", ActionAttend},
	{"active", "no", "total", "high", ActionAct},
	{"active", "yes", "partial", "low", ActionAttend},
	{"active", "yes", "partial", "medium", ActionAttend},
	{"active", "yes", "partial", "high", ActionAct},
	{"active", "yes", "total", "low", ActionAttend},
	{"active", "yes", "total", "medium", ActionAct},
	{"active", "yes", "total", "high", ActionAct},
}

// Decide resolves the final action from the three direct decision-point
// assessments plus the combined mission & wellbeing severity. ok is false if
// any input is outside its value set.
func Decide(exploitation, automatability, technicalImpact, missionWellbeing string) (Action, bool) {
	for _, row := range decisionTree {
		if row.exploitation == exploitation &&
			row.automatability == automatability &&
			row.technicalImpact == technicalImpact &&
			row.missionWellbeing == missionWellbeing {
			return row.decision, true
		}
	}
	return "", false
}
