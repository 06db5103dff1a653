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

// Package datasource fetches raw vulnerability records from external
// providers and caches them in the persistent store.
package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/boring91/google-ssvc/pkg/metrics"
	"github.com/boring91/google-ssvc/pkg/store"
	"github.com/boring91/google-ssvc/pkg/vulnid"
)

const fetchTimeout = 60 * time.Second

// Fetcher retrieves the raw record for one vulnerability from a single
// provider. A nil record with a nil error means the provider has no data for
// the id; both are treated identically by Source.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, cveID string) (map[string]any, error)
}

// Source wraps a Fetcher with the cache-or-fetch-and-store contract. Loads
// never fail: any fetch or parse problem degrades to "no data from this
// source".
type Source struct {
	fetcher Fetcher
	store   *store.Store
}

// New wraps a fetcher with the shared caching behavior.
func New(fetcher Fetcher, st *store.Store) *Source {
	return &Source{fetcher: fetcher, store: st}
}

// Name returns the wrapped fetcher's source slug.
func (s *Source) Name() string { return s.fetcher.Name() }

// Load returns the record for cveID, from cache if present. With forceRefresh
// the cached record is deleted first and the provider is always consulted.
// Returns nil when the provider has no data or the fetch fails.
func (s *Source) Load(ctx context.Context, cveID string, forceRefresh bool) map[string]any {
	cveID = vulnid.Normalize(cveID)
	name := s.fetcher.Name()

	if !forceRefresh {
		data, err := s.store.GetSource(cveID, name)
		if err != nil {
			slog.DebugContext(ctx, "source cache read failed", "source", name, "cve", cveID, "error", err)
		}
		if data != nil {
			var record map[string]any
			if err := json.Unmarshal(data, &record); err == nil {
				metrics.CacheHits.WithLabelValues("source").Inc()
				return record
			}
			slog.DebugContext(ctx, "discarding unreadable cached record", "source", name, "cve", cveID)
		}
		metrics.CacheMisses.WithLabelValues("source").Inc()
		slog.DebugContext(ctx, "no cached data, loading from data source", "source", name, "cve", cveID)
	} else {
		if err := s.store.DeleteSource(cveID, name); err != nil {
			slog.DebugContext(ctx, "source cache invalidation failed", "source", name, "cve", cveID, "error", err)
		}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	record, err := s.fetcher.Fetch(fetchCtx, cveID)
	if err != nil {
		metrics.SourceFetches.WithLabelValues(name, "error").Inc()
		slog.DebugContext(ctx, "data source fetch failed", "source", name, "cve", cveID, "error", err)
		return nil
	}
	if record == nil {
		metrics.SourceFetches.WithLabelValues(name, "empty").Inc()
		return nil
	}
	metrics.SourceFetches.WithLabelValues(name, "ok").Inc()

	data, err := json.Marshal(record)
	if err != nil {
		slog.DebugContext(ctx, "cannot serialize fetched record", "source", name, "cve", cveID, "error", err)
		return record
	}
	if err := s.store.PutSource(cveID, name, data); err != nil {
		// A lost cache write only costs a refetch later.
		slog.DebugContext(ctx, "source cache write failed", "source", name, "cve", cveID, "error", err)
	}
	return record
}

// getJSON issues a GET and decodes the response body into out. Non-2xx
// statuses are returned as errors.
func getJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &statusError{status: resp.StatusCode, url: url}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

type statusError struct {
	status int
	url    string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d fetching %s", e.status, e.url)
}
