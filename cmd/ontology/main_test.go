// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianOntology/pkg/ux"
	"github.com/AleutianAI/AleutianOntology/services/ontology"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testRecords = `
- id: ml
  prefLabel: Machine Learning
  narrower: [regression]
- id: regression
  prefLabel: Regression
  notation: ML.2
  altLabels: [Curve Fitting]
- id: island
  prefLabel: Island
`

// workspace moves the test into a temp dir so log and audit files land there,
// and returns the path of a records file.
func workspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "concepts.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testRecords), 0600))
	return path
}

func run(args ...string) (string, error) {
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	workspace(t)
	out, err := run("version")
	require.NoError(t, err)
	assert.Equal(t, "Obsidian Ontology Server 0.2.0\n", out)
}

func TestToolsCmd(t *testing.T) {
	workspace(t)
	out, err := run("tools", "-o", "plain")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], "get_concept\tconcept_id*"), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "search_concepts\tquery* limit=10"), lines[1])
}

func TestUnknownOutputMode(t *testing.T) {
	workspace(t)
	_, err := run("tools", "-o", "sparkly")
	assert.ErrorIs(t, err, ux.ErrUnknownMode)
}

func TestQueryCmd(t *testing.T) {
	t.Run("get concept by label", func(t *testing.T) {
		records := workspace(t)
		out, err := run("query", "get_concept", "--records", records, "--args", `{"concept_id":"regression"}`)
		require.NoError(t, err)
		assert.Contains(t, out, `"ok": true`)
		assert.Contains(t, out, `"id": "regression"`)
	})

	t.Run("no path is not a failure", func(t *testing.T) {
		records := workspace(t)
		out, err := run("query", "get_concept_path", "--records", records,
			"--args", `{"from_concept":"ml","to_concept":"island"}`)
		require.NoError(t, err)
		assert.Contains(t, out, `"code": "NO_PATH"`)
	})

	t.Run("not found fails", func(t *testing.T) {
		records := workspace(t)
		out, err := run("query", "get_concept", "--records", records, "--args", `{"concept_id":"ghost"}`)
		assert.ErrorIs(t, err, ErrToolFailed)
		assert.Contains(t, out, `"available_count": 3`)
	})

	t.Run("records required", func(t *testing.T) {
		workspace(t)
		_, err := run("query", "get_statistics")
		assert.ErrorIs(t, err, ontology.ErrNoRecordsPath)
	})

	t.Run("bad log level", func(t *testing.T) {
		records := workspace(t)
		_, err := run("query", "get_statistics", "--records", records, "--log-level", "loud")
		assert.Error(t, err)
	})
}

func TestStatsCmd(t *testing.T) {
	records := workspace(t)
	out, err := run("stats", "--records", records, "-o", "plain")
	require.NoError(t, err)

	assert.Contains(t, out, "records\t"+records+"\n")
	assert.Contains(t, out, "concepts\t3\n")
	assert.Contains(t, out, "connected\tfalse\n")
	assert.Contains(t, out, "edges.narrower\t")
}

func TestAuditCmd(t *testing.T) {
	records := workspace(t)
	t.Setenv("ONTOLOGY_AUDIT_BADGER_DIR", filepath.Join(t.TempDir(), "audit"))

	_, err := run("query", "get_concept", "--records", records, "--args", `{"concept_id":"ml"}`)
	require.NoError(t, err)

	out, err := run("audit", "-o", "plain", "--type", "tool_call")
	require.NoError(t, err)
	assert.Contains(t, out, "tool_call")
	assert.Contains(t, out, "get_concept success=true")
	assert.NotContains(t, out, "reload")

	data, err := os.ReadFile(filepath.Join("logs", "audit.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"event_type":"tool_call"`)
}

func TestAuditCmd_NoStore(t *testing.T) {
	workspace(t)
	_, err := run("audit")
	assert.ErrorIs(t, err, ErrAuditStoreDisabled)
}

func TestRouter(t *testing.T) {
	records := workspace(t)
	a, err := newApp(&globalOptions{recordsPath: records}, io.Discard)
	require.NoError(t, err)
	defer a.Close()
	require.NoError(t, a.loadRecords(context.Background()))

	router := newRouter(a)

	tests := []struct {
		method string
		path   string
		body   string
		status int
	}{
		{http.MethodGet, "/v1/ontology/health", "", http.StatusOK},
		{http.MethodGet, "/v1/ontology/ready", "", http.StatusOK},
		{http.MethodGet, "/v1/ontology/stats", "", http.StatusOK},
		{http.MethodGet, "/v1/ontology/tools", "", http.StatusOK},
		{http.MethodPost, "/v1/ontology/tools/search_concepts", `{"query":"regression"}`, http.StatusOK},
		{http.MethodPost, "/v1/ontology/tools/get_concept", `{"concept_id":"ghost"}`, http.StatusNotFound},
		{http.MethodGet, "/metrics", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestRouter_CORS(t *testing.T) {
	workspace(t)
	a, err := newApp(&globalOptions{}, io.Discard)
	require.NoError(t, err)
	defer a.Close()
	a.cfg.HTTP.EnableCORS = true

	req := httptest.NewRequest(http.MethodGet, "/v1/ontology/health", nil)
	req.Header.Set("Origin", "http://localhost:5678")
	w := httptest.NewRecorder()
	newRouter(a).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://localhost:5678", w.Header().Get("Access-Control-Allow-Origin"))
}
