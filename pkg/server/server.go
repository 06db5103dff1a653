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

// Package server exposes the evaluation pipeline over HTTP: single-cve
// queries, bulk task submission and inspection, and Prometheus metrics.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/boring91/google-ssvc/pkg/ssvc"
	"github.com/boring91/google-ssvc/pkg/task"
	"github.com/boring91/google-ssvc/pkg/vulnid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultListLimit = 50

// Evaluator computes one composite result.
type Evaluator interface {
	Evaluate(ctx context.Context, cveID string, reevaluate bool) (*ssvc.Result, error)
}

// Tasks is the bulk evaluation surface.
type Tasks interface {
	Submit(ctx context.Context, cveIDs []string, reevaluate bool) (string, error)
	Get(ctx context.Context, taskID string) (*task.Info, error)
	List(ctx context.Context, limit int) ([]task.Info, error)
}

// Opts configures the HTTP layer.
type Opts struct {
	// CORSOrigins lists the browser origins allowed to call the API. Empty
	// disables CORS handling entirely.
	CORSOrigins []string
	// EvaluationTimeout bounds a single /query evaluation.
	EvaluationTimeout time.Duration
}

// Server routes HTTP requests to the pipeline.
type Server struct {
	evaluator Evaluator
	tasks     Tasks
	opts      Opts
}

func New(evaluator Evaluator, tasks Tasks, opts Opts) *Server {
	if opts.EvaluationTimeout <= 0 {
		opts.EvaluationTimeout = 15 * time.Minute
	}
	return &Server{evaluator: evaluator, tasks: tasks, opts: opts}
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.cors)
	r.HandleFunc("/query/{cveId}", s.handleQuery).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/tasks", s.handleSubmitTask).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/tasks", s.handleListTasks).Methods(http.MethodGet)
	r.HandleFunc("/tasks/{taskId}", s.handleGetTask).Methods(http.MethodGet, http.MethodOptions)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return r
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	cveID := vulnid.Normalize(mux.Vars(r)["cveId"])
	if !vulnid.IsValid(cveID) {
		writeError(w, http.StatusBadRequest, "Invalid cve id format.")
		return
	}
	reevaluate, _ := strconv.ParseBool(r.URL.Query().Get("reevaluate"))

	ctx, cancel := context.WithTimeout(r.Context(), s.opts.EvaluationTimeout)
	defer cancel()

	result, err := s.evaluator.Evaluate(ctx, cveID, reevaluate)
	if err != nil {
		slog.ErrorContext(r.Context(), "Evaluation failed.", "cveId", cveID, "error", err)
		writeError(w, http.StatusInternalServerError, "Evaluation failed.")
		return
	}
	if result == nil {
		writeError(w, http.StatusUnprocessableEntity, "Could not evaluate the cve.")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSubmitTask(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CveIDs     []string `json:"cveIds"`
		Reevaluate bool     `json:"reevaluate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	taskID, err := s.tasks.Submit(r.Context(), body.CveIDs, body.Reevaluate)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"taskId": taskID})
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	infos, err := s.tasks.List(r.Context(), limit)
	if err != nil {
		slog.ErrorContext(r.Context(), "Listing tasks failed.", "error", err)
		writeError(w, http.StatusInternalServerError, "Listing tasks failed.")
		return
	}
	writeJSON(w, http.StatusOK, infos)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["taskId"]
	info, err := s.tasks.Get(r.Context(), taskID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Reading task failed.", "taskId", taskID, "error", err)
		writeError(w, http.StatusInternalServerError, "Reading task failed.")
		return
	}
	if info == nil {
		writeError(w, http.StatusNotFound, "No such task.")
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// cors handles preflight and response headers for the configured origins.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(s.opts.CORSOrigins) > 0 {
			origin := r.Header.Get("Origin")
			for _, allowed := range s.opts.CORSOrigins {
				if origin == allowed {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
					w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
					break
				}
			}
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response.", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
