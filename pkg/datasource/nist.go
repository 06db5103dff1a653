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
	"fmt"
	"net/http"
)

const defaultNISTBaseURL = "https://services.nvd.nist.gov/rest/json/cves/2.0"

// NIST fetches records from the NVD CVE API v2.
type NIST struct {
	// BaseURL overrides the NVD endpoint, for tests.
	BaseURL string
	// APIKey raises the NVD rate limit when set.
	APIKey string
	Client *http.Client
}

func (n *NIST) Name() string { return "nist" }

// Fetch returns the cve object of the first vulnerability in the NVD
// response, which for a cveId query is the record itself.
func (n *NIST) Fetch(ctx context.Context, cveID string) (map[string]any, error) {
	base := n.BaseURL
	if base == "" {
		base = defaultNISTBaseURL
	}
	url := fmt.Sprintf("%s?cveId=%s", base, cveID)

	headers := map[string]string{}
	if n.APIKey != "" {
		headers["apiKey"] = n.APIKey
	}

	var body struct {
		Vulnerabilities []struct {
			Cve map[string]any `json:"cve"`
		} `json:"vulnerabilities"`
	}
	if err := getJSON(ctx, n.Client, url, headers, &body); err != nil {
		return nil, err
	}
	if len(body.Vulnerabilities) == 0 {
		return nil, nil
	}
	return body.Vulnerabilities[0].Cve, nil
}
