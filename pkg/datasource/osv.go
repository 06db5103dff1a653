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

const defaultOSVBaseURL = "https://api.osv.dev/v1/vulns"

// OSV fetches records from the OSV.dev API. OSV is the authoritative home of
// the GO, HSEC and PYSEC namespaces and also mirrors CVEs.
type OSV struct {
	BaseURL string
	Client  *http.Client
}

func (o *OSV) Name() string { return "osv" }

func (o *OSV) Fetch(ctx context.Context, cveID string) (map[string]any, error) {
	base := o.BaseURL
	if base == "" {
		base = defaultOSVBaseURL
	}

	var record map[string]any
	if err := getJSON(ctx, o.Client, fmt.Sprintf("%s/%s", base, cveID), nil, &record); err != nil {
		if se, ok := err.(*statusError); ok && se.status == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	return record, nil
}
