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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

const defaultVulnersBaseURL = "https://vulners.com/api/v3"

// Vulners fetches bulletins from the Vulners database. Requires an API key;
// the aggregator leaves this source out unless one is configured.
type Vulners struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

func (v *Vulners) Name() string { return "vulners" }

func (v *Vulners) Fetch(ctx context.Context, cveID string) (map[string]any, error) {
	base := v.BaseURL
	if base == "" {
		base = defaultVulnersBaseURL
	}

	payload, err := json.Marshal(map[string]any{
		"id":     cveID,
		"fields": []string{"*"},
		"apiKey": v.APIKey,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/search/id/", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	client := v.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from vulners", resp.StatusCode)
	}

	var body struct {
		Data struct {
			Documents map[string]map[string]any `json:"documents"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	if doc, ok := body.Data.Documents[cveID]; ok {
		return doc, nil
	}
	return nil, nil
}
