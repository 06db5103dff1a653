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

// Package store persists the evaluation caches and bulk tasks in SQLite.
//
// All three caches share the same semantics: a record exists or it does not
// (no TTL), writes are insert-if-absent so concurrent duplicate inserts are
// no-ops, and invalidation is an explicit delete.
package store

import (
	"errors"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// SourceRecord is one raw vulnerability record fetched from a single data
// source, stored verbatim as JSON.
type SourceRecord struct {
	CveID       string `gorm:"primaryKey;column:cve_id"`
	Source      string `gorm:"primaryKey"`
	Data        []byte
	CreatedTime time.Time `gorm:"autoCreateTime"`
}

func (SourceRecord) TableName() string { return "cve_cache" }

// LLMRecord is one parsed LLM judgment for a (provider, cve, decision point)
// triple.
type LLMRecord struct {
	LLM           string `gorm:"primaryKey;column:llm"`
	CveID         string `gorm:"primaryKey;column:cve_id"`
	DecisionPoint string `gorm:"primaryKey"`
	Data          []byte
	CreatedTime   time.Time `gorm:"autoCreateTime"`
}

func (LLMRecord) TableName() string { return "llm_evaluator_cache" }

// ResultRecord is a cached composite evaluation, keyed by cve id.
type ResultRecord struct {
	CveID       string `gorm:"primaryKey;column:cve_id"`
	Result      []byte
	CreatedTime time.Time `gorm:"autoCreateTime"`
}

func (ResultRecord) TableName() string { return "ssvc_results" }

// Task is one bulk evaluation submission.
type Task struct {
	ID           string    `gorm:"primaryKey"`
	Type         string    `gorm:"index"`
	Status       string    `gorm:"default:pending"`
	Data         []byte    // JSON-encoded task payload
	CreatedTime  time.Time `gorm:"autoCreateTime"`
	ModifiedTime time.Time `gorm:"autoUpdateTime"`
}

func (Task) TableName() string { return "tasks" }

// TaskResult links a task to the outcome for one cve id: either a pointer
// into ssvc_results or a failure note.
type TaskResult struct {
	ID          uint   `gorm:"primaryKey"`
	TaskID      string `gorm:"index;column:task_id"`
	CveID       string `gorm:"column:cve_id"`
	Notes       string
	ResultCveID string    `gorm:"column:result_cve_id"`
	CreatedTime time.Time `gorm:"autoCreateTime"`
}

func (TaskResult) TableName() string { return "ssvc_result_task_links" }

// Store wraps the SQLite database. It is safe for concurrent use.
type Store struct {
	db *gorm.DB
}

// Open initializes the database at path and migrates the schema. Use
// ":memory:" for an in-process throwaway store.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&SourceRecord{}, &LLMRecord{}, &ResultRecord{}, &Task{}, &TaskResult{}); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// GetSource returns the cached raw record for (cveID, source), or nil if none
// is stored.
func (s *Store) GetSource(cveID, source string) ([]byte, error) {
	var rec SourceRecord
	err := s.db.Where(&SourceRecord{CveID: cveID, Source: source}).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec.Data, nil
}

// PutSource stores a raw record. The first successful insert for a key wins;
// later inserts are silently ignored.
func (s *Store) PutSource(cveID, source string, data []byte) error {
	rec := SourceRecord{CveID: cveID, Source: source, Data: data}
	return s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rec).Error
}

// DeleteSource invalidates the cached record for (cveID, source).
func (s *Store) DeleteSource(cveID, source string) error {
	return s.db.Where(&SourceRecord{CveID: cveID, Source: source}).Delete(&SourceRecord{}).Error
}

// GetLLM returns the cached judgment for (llm, cveID, decisionPoint), or nil.
func (s *Store) GetLLM(llm, cveID, decisionPoint string) ([]byte, error) {
	var rec LLMRecord
	err := s.db.Where(&LLMRecord{LLM: llm, CveID: cveID, DecisionPoint: decisionPoint}).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec.Data, nil
}

// PutLLM stores a parsed judgment, first insert wins.
func (s *Store) PutLLM(llm, cveID, decisionPoint string, data []byte) error {
	rec := LLMRecord{LLM: llm, CveID: cveID, DecisionPoint: decisionPoint, Data: data}
	return s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rec).Error
}

// DeleteLLM invalidates the cached judgment for (llm, cveID, decisionPoint).
func (s *Store) DeleteLLM(llm, cveID, decisionPoint string) error {
	return s.db.Where(&LLMRecord{LLM: llm, CveID: cveID, DecisionPoint: decisionPoint}).Delete(&LLMRecord{}).Error
}

// GetResult returns the cached composite result for cveID, or nil.
func (s *Store) GetResult(cveID string) ([]byte, error) {
	var rec ResultRecord
	err := s.db.Where(&ResultRecord{CveID: cveID}).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec.Result, nil
}

// PutResult stores a composite result, first insert wins.
func (s *Store) PutResult(cveID string, result []byte) error {
	rec := ResultRecord{CveID: cveID, Result: result}
	return s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rec).Error
}

// DeleteResult invalidates the cached composite result for cveID.
func (s *Store) DeleteResult(cveID string) error {
	return s.db.Where(&ResultRecord{CveID: cveID}).Delete(&ResultRecord{}).Error
}

// CreateTask records a new task in pending state.
func (s *Store) CreateTask(id, taskType string, data []byte) error {
	return s.db.Create(&Task{ID: id, Type: taskType, Status: "pending", Data: data}).Error
}

// SetTaskStatus transitions a task to the given status.
func (s *Store) SetTaskStatus(id, status string) error {
	return s.db.Model(&Task{}).Where("id = ?", id).Update("status", status).Error
}

// GetTask returns the task with the given id and type, or nil if absent.
func (s *Store) GetTask(id, taskType string) (*Task, error) {
	var task Task
	err := s.db.Where("id = ? AND type = ?", id, taskType).First(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// ListTasks returns the most recent tasks of the given type, newest first.
func (s *Store) ListTasks(taskType string, limit int) ([]Task, error) {
	var tasks []Task
	err := s.db.Where("type = ?", taskType).Order("created_time DESC").Limit(limit).Find(&tasks).Error
	return tasks, err
}

// AddTaskResult links one per-cve outcome to a task.
func (s *Store) AddTaskResult(result *TaskResult) error {
	return s.db.Create(result).Error
}

// HasTaskResult reports whether the task already has an outcome recorded for
// the given cve id. Used for idempotent resume after a partial task failure.
func (s *Store) HasTaskResult(taskID, cveID string) (bool, error) {
	var count int64
	err := s.db.Model(&TaskResult{}).Where("task_id = ? AND cve_id = ?", taskID, cveID).Count(&count).Error
	return count > 0, err
}

// TaskResults returns all per-cve outcomes recorded for a task.
func (s *Store) TaskResults(taskID string) ([]TaskResult, error) {
	var results []TaskResult
	err := s.db.Where("task_id = ?", taskID).Find(&results).Error
	return results, err
}
