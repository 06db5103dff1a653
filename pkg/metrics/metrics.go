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

// Package metrics exposes Prometheus collectors for the evaluation pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Evaluations counts composite evaluations by outcome: "hit" (served from
	// the result cache), "evaluated" or "failed".
	Evaluations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ssvc_evaluations_total",
		Help: "Composite SSVC evaluations by outcome.",
	}, []string{"outcome"})

	// CacheHits counts reads served from a persistent cache, by cache name
	// ("source", "llm", "result").
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ssvc_cache_hits_total",
		Help: "Cache reads that returned a stored record.",
	}, []string{"cache"})

	// CacheMisses counts reads that fell through to a fresh fetch or call.
	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ssvc_cache_misses_total",
		Help: "Cache reads that found no stored record.",
	}, []string{"cache"})

	// SourceFetches counts upstream data-source fetches by source name and
	// outcome ("ok", "empty", "error").
	SourceFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ssvc_source_fetches_total",
		Help: "Upstream vulnerability data-source fetches.",
	}, []string{"source", "outcome"})

	// LLMCalls counts LLM invocations by provider and outcome
	// ("ok", "error", "unparseable").
	LLMCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ssvc_llm_calls_total",
		Help: "LLM judgment calls.",
	}, []string{"provider", "outcome"})
)
