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

package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/boring91/google-ssvc/pkg/ssvc"
	"github.com/boring91/google-ssvc/pkg/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEvaluator struct {
	results map[string]*ssvc.Result
	lastID  string
}

func (e *fakeEvaluator) Evaluate(ctx context.Context, cveID string, reevaluate bool) (*ssvc.Result, error) {
	e.lastID = cveID
	return e.results[cveID], nil
}

type fakeTasks struct {
	submitted []string
	infos     map[string]*task.Info
}

func (t *fakeTasks) Submit(ctx context.Context, cveIDs []string, reevaluate bool) (string, error) {
	t.submitted = cveIDs
	return "task-1", nil
}

func (t *fakeTasks) Get(ctx context.Context, taskID string) (*task.Info, error) {
	return t.infos[taskID], nil
}

func (t *fakeTasks) List(ctx context.Context, limit int) ([]task.Info, error) {
	var infos []task.Info
	for _, info := range t.infos {
		infos = append(infos, *info)
	}
	return infos, nil
}

func newTestServer(eval *fakeEvaluator, tasks *fakeTasks, opts Opts) *httptest.Server {
	return httptest.NewServer(New(eval, tasks, opts).Router())
}

func TestQuery(t *testing.T) {
	eval := &fakeEvaluator{results: map[string]*ssvc.Result{
		"CVE-2024-3094": {Action: ssvc.ActionAct},
	}}
	srv := newTestServer(eval, &fakeTasks{}, Opts{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/query/cve-2024-3094")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "CVE-2024-3094", eval.lastID, "ids are normalized before evaluation")

	var result ssvc.Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, ssvc.ActionAct, result.Action)
}

func TestQuery_InvalidID(t *testing.T) {
	srv := newTestServer(&fakeEvaluator{}, &fakeTasks{}, Opts{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/query/not-a-cve")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Invalid cve id format.", body["error"])
}

func TestQuery_CouldNotEvaluate(t *testing.T) {
	srv := newTestServer(&fakeEvaluator{}, &fakeTasks{}, Opts{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/query/CVE-2020-99999")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Could not evaluate the cve.", body["error"])
}

func TestSubmitTask(t *testing.T) {
	tasks := &fakeTasks{}
	srv := newTestServer(&fakeEvaluator{}, tasks, Opts{})
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/tasks", "application/json",
		strings.NewReader(`{"cveIds":["CVE-2024-3094","GO-2022-0646"],"reevaluate":true}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "task-1", body["taskId"])
	assert.Equal(t, []string{"CVE-2024-3094", "GO-2022-0646"}, tasks.submitted)
}

func TestSubmitTask_BadBody(t *testing.T) {
	srv := newTestServer(&fakeEvaluator{}, &fakeTasks{}, Opts{})
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/tasks", "application/json", strings.NewReader("not json"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetTask(t *testing.T) {
	tasks := &fakeTasks{infos: map[string]*task.Info{
		"task-1": {ID: "task-1", Status: task.StatusSucceeded},
	}}
	srv := newTestServer(&fakeEvaluator{}, tasks, Opts{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/tasks/task-1")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var info task.Info
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
	assert.Equal(t, "succeeded", info.Status)

	missing, err := http.Get(srv.URL + "/tasks/nope")
	require.NoError(t, err)
	defer missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestListTasks(t *testing.T) {
	tasks := &fakeTasks{infos: map[string]*task.Info{
		"task-1": {ID: "task-1", Status: task.StatusPending},
	}}
	srv := newTestServer(&fakeEvaluator{}, tasks, Opts{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/tasks")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var infos []task.Info
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&infos))
	require.Len(t, infos, 1)
	assert.Equal(t, "task-1", infos[0].ID)
}

func TestCORS(t *testing.T) {
	srv := newTestServer(&fakeEvaluator{}, &fakeTasks{}, Opts{
		CORSOrigins: []string{"http://localhost:3000"},
	})
	defer srv.Close()

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/tasks", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))

	// Unlisted origins get no CORS headers.
	req.Header.Set("Origin", "http://evil.example")
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Empty(t, resp2.Header.Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(&fakeEvaluator{}, &fakeTasks{}, Opts{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
