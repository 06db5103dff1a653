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

package datasource

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

const defaultGitHubAPIBaseURL = "https://api.github.com"

// Vulnrichment reads SSVC decision-point assessments out of the CISA
// Vulnrichment repository (github.com/cisagov/vulnrichment), which lays its
// records out as {year}/{id-prefix-group}/{cve_id}.json.
type Vulnrichment struct {
	// BaseURL overrides the GitHub API endpoint, for tests.
	BaseURL string
	// Token is an optional GitHub PAT; unauthenticated requests are heavily
	// rate limited.
	Token  string
	Client *http.Client
}

func (v *Vulnrichment) Name() string { return "cisa" }

// Fetch walks the repository tree down to the record file and flattens the
// embedded ssvc options into one record. Any missing level yields no data.
func (v *Vulnrichment) Fetch(ctx context.Context, cveID string) (map[string]any, error) {
	tokens := strings.Split(cveID, "-")
	if len(tokens) != 3 {
		return nil, nil
	}
	year, subID := tokens[1], tokens[2]

	base := v.BaseURL
	if base == "" {
		base = defaultGitHubAPIBaseURL
	}
	rootURL := fmt.Sprintf("%s/repos/cisagov/vulnrichment/contents", base)

	headers := map[string]string{}
	if v.Token != "" {
		headers["Authorization"] = "Bearer " + v.Token
	}

	// The repository root holds one directory per year.
	var topLevel []contentsEntry
	if err := getJSON(ctx, v.Client, rootURL, headers, &topLevel); err != nil {
		return nil, err
	}
	if !containsYearDir(topLevel, year) {
		return nil, nil
	}

	// Year directories group records by id prefix, e.g. "23xxx" holds
	// CVE-2024-23xxx records.
	yearURL := fmt.Sprintf("%s/%s", rootURL, year)
	var yearLevel []contentsEntry
	if err := getJSON(ctx, v.Client, yearURL, headers, &yearLevel); err != nil {
		return nil, err
	}
	group := ""
	for _, entry := range yearLevel {
		if strings.HasPrefix(subID, strings.ReplaceAll(entry.Name, "x", "")) {
			group = entry.Name
			break
		}
	}
	if group == "" {
		return nil, nil
	}

	cveURL := fmt.Sprintf("%s/%s/%s.json", yearURL, group, cveID)
	var file struct {
		Content string `json:"content"`
	}
	if err := getJSON(ctx, v.Client, cveURL, headers, &file); err != nil {
		if se, ok := err.(*statusError); ok && se.status == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(file.Content, "\n", ""))
	if err != nil {
		return nil, err
	}
	var record struct {
		Containers struct {
			Adp []struct {
				Metrics []struct {
					Other struct {
						Type    string `json:"type"`
						Content struct {
							Options []map[string]any `json:"options"`
						} `json:"content"`
					} `json:"other"`
				} `json:"metrics"`
			} `json:"adp"`
		} `json:"containers"`
	}
	if err := json.Unmarshal(decoded, &record); err != nil {
		return nil, err
	}

	for _, adp := range record.Containers.Adp {
		for _, metric := range adp.Metrics {
			if metric.Other.Type != "ssvc" {
				continue
			}
			result := flattenOptions(metric.Other.Content.Options)
			if result == nil {
				return nil, nil
			}
			result["link"] = cveURL
			return result, nil
		}
	}
	return nil, nil
}

type contentsEntry struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

func containsYearDir(entries []contentsEntry, year string) bool {
	for _, entry := range entries {
		if entry.Type != "dir" || entry.Name != year {
			continue
		}
		if _, err := strconv.Atoi(entry.Name); err == nil {
			return true
		}
	}
	return false
}

// flattenOptions turns the list of single-key ssvc option objects into one
// flat record; keys are lower-cased with spaces replaced by underscores, so
// "Technical Impact" becomes technical_impact.
func flattenOptions(options []map[string]any) map[string]any {
	if len(options) == 0 {
		return nil
	}
	result := make(map[string]any, len(options))
	for _, option := range options {
		for key, value := range option {
			normalized := strings.ReplaceAll(strings.ToLower(key), " ", "_")
			result[normalized] = value
		}
	}
	return result
}
