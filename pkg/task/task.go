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

// Package task runs bulk evaluations in the background. A submission becomes
// a persisted task that works through its cve ids one by one, recording a
// per-id outcome as it goes, so an interrupted task can resume without
// redoing finished ids.
package task

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/boring91/google-ssvc/pkg/ssvc"
	"github.com/boring91/google-ssvc/pkg/store"
	"github.com/boring91/google-ssvc/pkg/vulnid"
	"github.com/google/uuid"
)

// TypeBulkEvaluation is the task type for bulk SSVC evaluations.
const TypeBulkEvaluation = "ssvc_bulk_evaluation"

// Task statuses.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Per-id failure notes, surfaced verbatim in the task results.
const (
	notesInvalidID     = "Invalid cve id format."
	notesCouldNotEval  = "Could not evaluate the cve."
	defaultQueueLength = 128
)

// Evaluator is the part of the score evaluator the task runner needs.
type Evaluator interface {
	Evaluate(ctx context.Context, cveID string, reevaluate bool) (*ssvc.Result, error)
}

// payload is the persisted task input.
type payload struct {
	CveIDs     []string `json:"cveIds"`
	Reevaluate bool     `json:"reevaluate"`
}

// ResultEntry is the outcome for one cve id of a task: a composite result, or
// a note explaining why there is none.
type ResultEntry struct {
	CveID  string       `json:"cveId"`
	Notes  string       `json:"notes,omitempty"`
	Result *ssvc.Result `json:"result,omitempty"`
}

// Info describes one task, with its per-id outcomes ordered most urgent
// action first.
type Info struct {
	ID           string        `json:"taskId"`
	Status       string        `json:"status"`
	CreatedTime  time.Time     `json:"createdTime"`
	ModifiedTime time.Time     `json:"modifiedTime"`
	Results      []ResultEntry `json:"results,omitempty"`
}

// Service accepts bulk submissions and works through them on a single
// background worker.
type Service struct {
	store     *store.Store
	evaluator Evaluator
	queue     chan string
}

// NewService builds a task service. Call Run to start processing.
func NewService(st *store.Store, eval Evaluator) *Service {
	return &Service{
		store:     st,
		evaluator: eval,
		queue:     make(chan string, defaultQueueLength),
	}
}

// Submit registers a bulk evaluation and queues it. Ids are normalized and
// deduplicated; validation happens per id while the task runs, so one bad id
// never sinks the submission.
func (s *Service) Submit(ctx context.Context, cveIDs []string, reevaluate bool) (string, error) {
	seen := make(map[string]bool, len(cveIDs))
	ids := make([]string, 0, len(cveIDs))
	for _, id := range cveIDs {
		id = vulnid.Normalize(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return "", fmt.Errorf("no cve ids submitted")
	}

	data, err := json.Marshal(payload{CveIDs: ids, Reevaluate: reevaluate})
	if err != nil {
		return "", err
	}

	taskID := uuid.NewString()
	if err := s.store.CreateTask(taskID, TypeBulkEvaluation, data); err != nil {
		return "", fmt.Errorf("creating task: %w", err)
	}

	select {
	case s.queue <- taskID:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	return taskID, nil
}

// Run processes queued tasks until ctx is cancelled.
func (s *Service) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case taskID := <-s.queue:
			if err := s.process(ctx, taskID); err != nil {
				slog.ErrorContext(ctx, "Task failed.", "taskId", taskID, "error", err)
				if err := s.store.SetTaskStatus(taskID, StatusFailed); err != nil {
					slog.ErrorContext(ctx, "Failed to mark task as failed.", "taskId", taskID, "error", err)
				}
			}
		}
	}
}

// Resume re-queues tasks that never finished, typically after a restart.
// Already-recorded per-id outcomes are kept; only the remainder is redone.
func (s *Service) Resume(ctx context.Context) error {
	tasks, err := s.store.ListTasks(TypeBulkEvaluation, -1)
	if err != nil {
		return err
	}
	for _, t := range tasks {
		if t.Status != StatusPending && t.Status != StatusRunning {
			continue
		}
		slog.InfoContext(ctx, "Resuming unfinished task.", "taskId", t.ID, "status", t.Status)
		select {
		case s.queue <- t.ID:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (s *Service) process(ctx context.Context, taskID string) error {
	t, err := s.store.GetTask(taskID, TypeBulkEvaluation)
	if err != nil {
		return err
	}
	if t == nil {
		return fmt.Errorf("task %s not found", taskID)
	}

	var p payload
	if err := json.Unmarshal(t.Data, &p); err != nil {
		return fmt.Errorf("decoding task payload: %w", err)
	}

	if err := s.store.SetTaskStatus(taskID, StatusRunning); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Task started.", "taskId", taskID, "cveCount", len(p.CveIDs))

	for _, cveID := range p.CveIDs {
		done, err := s.store.HasTaskResult(taskID, cveID)
		if err != nil {
			return err
		}
		if done {
			continue
		}

		entry := &store.TaskResult{TaskID: taskID, CveID: cveID}
		if !vulnid.IsValid(cveID) {
			entry.Notes = notesInvalidID
		} else {
			switch result, evalErr := s.evaluator.Evaluate(ctx, cveID, p.Reevaluate); {
			case evalErr != nil:
				slog.WarnContext(ctx, "Evaluation failed.", "taskId", taskID, "cveId", cveID, "error", evalErr)
				entry.Notes = notesCouldNotEval
			case result == nil:
				entry.Notes = notesCouldNotEval
			default:
				entry.ResultCveID = cveID
			}
		}
		if err := s.store.AddTaskResult(entry); err != nil {
			return err
		}
	}

	slog.InfoContext(ctx, "Task finished.", "taskId", taskID)
	return s.store.SetTaskStatus(taskID, StatusSucceeded)
}

// actionOrder ranks results most urgent first in task listings.
var actionOrder = map[ssvc.Action]int{
	ssvc.ActionAct:       0,
	ssvc.ActionAttend:    1,
	ssvc.ActionTrackStar: 2,
	ssvc.ActionTrack:     3,
}

// Get returns a task with its per-id outcomes, or nil if no such task exists.
func (s *Service) Get(ctx context.Context, taskID string) (*Info, error) {
	t, err := s.store.GetTask(taskID, TypeBulkEvaluation)
	if err != nil || t == nil {
		return nil, err
	}

	links, err := s.store.TaskResults(taskID)
	if err != nil {
		return nil, err
	}

	entries := make([]ResultEntry, 0, len(links))
	for _, link := range links {
		entry := ResultEntry{CveID: link.CveID, Notes: link.Notes}
		if link.ResultCveID != "" {
			data, err := s.store.GetResult(link.ResultCveID)
			if err != nil {
				return nil, err
			}
			if data != nil {
				var result ssvc.Result
				if err := json.Unmarshal(data, &result); err != nil {
					return nil, err
				}
				entry.Result = &result
			}
		}
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entryRank(entries[i]) < entryRank(entries[j])
	})

	return &Info{
		ID:           t.ID,
		Status:       t.Status,
		CreatedTime:  t.CreatedTime,
		ModifiedTime: t.ModifiedTime,
		Results:      entries,
	}, nil
}

func entryRank(entry ResultEntry) int {
	if entry.Result == nil {
		return len(actionOrder) // failures sort last
	}
	if rank, ok := actionOrder[entry.Result.Action]; ok {
		return rank
	}
	return len(actionOrder)
}

// List returns recent tasks, newest first, without their per-id outcomes.
func (s *Service) List(ctx context.Context, limit int) ([]Info, error) {
	tasks, err := s.store.ListTasks(TypeBulkEvaluation, limit)
	if err != nil {
		return nil, err
	}
	infos := make([]Info, 0, len(tasks))
	for _, t := range tasks {
		infos = append(infos, Info{
			ID:           t.ID,
			Status:       t.Status,
			CreatedTime:  t.CreatedTime,
			ModifiedTime: t.ModifiedTime,
		})
	}
	return infos, nil
}
