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
	"net/http"
)

const defaultKEVFeedURL = "https://www.cisa.gov/sites/default/files/feeds/known_exploited_vulnerabilities.json"

// CisaKEV looks a vulnerability up in the CISA Known Exploited
// Vulnerabilities catalog. The whole feed is downloaded per fetch; the
// surrounding cache keeps that to one download per cve.
type CisaKEV struct {
	FeedURL string
	Client  *http.Client
}

func (c *CisaKEV) Name() string { return "cisa_kev" }

// Fetch returns the catalog entry whose cveID matches, or nil when the
// vulnerability is not in the catalog.
func (c *CisaKEV) Fetch(ctx context.Context, cveID string) (map[string]any, error) {
	url := c.FeedURL
	if url == "" {
		url = defaultKEVFeedURL
	}

	var feed struct {
		Vulnerabilities []map[string]any `json:"vulnerabilities"`
	}
	if err := getJSON(ctx, c.Client, url, nil, &feed); err != nil {
		return nil, err
	}
	for _, entry := range feed.Vulnerabilities {
		if id, ok := entry["cveID"].(string); ok && id == cveID {
			return entry, nil
		}
	}
	return nil, nil
}
