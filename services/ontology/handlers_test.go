// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ontology

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianOntology/services/ontology/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupTestRouter(svc *Service) *gin.Engine {
	router := gin.New()
	v1 := router.Group("/v1")
	RegisterRoutes(v1, NewHandlers(svc))
	return router
}

func serve(t *testing.T, router *gin.Engine, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest(method, path, nil)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandlers_HandleHealth(t *testing.T) {
	svc, err := NewService(testConfig(config.ReindexLazy))
	require.NoError(t, err)

	w := serve(t, setupTestRouter(svc), http.MethodGet, "/v1/ontology/health")
	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "0.2.0", resp.Version)
}

func TestHandlers_HandleReady(t *testing.T) {
	svc, err := NewService(testConfig(config.ReindexLazy))
	require.NoError(t, err)
	router := setupTestRouter(svc)

	w := serve(t, router, http.MethodGet, "/v1/ontology/ready")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	_, err = svc.Load(t.Context(), fixtureRecords())
	require.NoError(t, err)

	w = serve(t, router, http.MethodGet, "/v1/ontology/ready")
	require.Equal(t, http.StatusOK, w.Code)
	var resp ReadyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Ready)
	assert.Equal(t, 4, resp.Concepts)
}

func TestHandlers_HandleStats(t *testing.T) {
	router := setupTestRouter(newLoadedService(t, config.ReindexLazy))

	w := serve(t, router, http.MethodGet, "/v1/ontology/stats")
	require.Equal(t, http.StatusOK, w.Code)
	var stats Statistics
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 4, stats.TotalConcepts)
	assert.Equal(t, 4, stats.TotalRelations)

	w = serve(t, router, http.MethodGet, "/v1/ontology/debug/graph/stats")
	require.Equal(t, http.StatusOK, w.Code)
	var debug map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &debug))
	graphStats, ok := debug["graph"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(4), graphStats["node_count"])
	assert.Equal(t, false, graphStats["weakly_connected"])
}

func TestHandlers_HandleReload(t *testing.T) {
	t.Run("no records path", func(t *testing.T) {
		svc, err := NewService(testConfig(config.ReindexLazy))
		require.NoError(t, err)

		w := serve(t, setupTestRouter(svc), http.MethodPost, "/v1/ontology/admin/reload")
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "NO_RECORDS_PATH", resp.Code)
	})

	t.Run("success", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "concepts.json")
		require.NoError(t, os.WriteFile(path,
			[]byte(`[{"id":"a","prefLabel":"A","broader":["b"]},{"id":"b","prefLabel":"B"}]`), 0600))

		cfg := testConfig(config.ReindexLazy)
		cfg.Records.Path = path
		svc, err := NewService(cfg)
		require.NoError(t, err)

		router := setupTestRouter(svc)
		req, err := http.NewRequest(http.MethodPost, "/v1/ontology/admin/reload", nil)
		require.NoError(t, err)
		req.Header.Set("X-Request-ID", "req-42")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
		var resp ReloadResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 2, resp.Concepts)
		assert.Equal(t, 2, resp.Relations)
		assert.True(t, svc.Ready())
	})

	t.Run("bad file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "concepts.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"id":`), 0600))

		cfg := testConfig(config.ReindexLazy)
		cfg.Records.Path = path
		svc, err := NewService(cfg)
		require.NoError(t, err)

		w := serve(t, setupTestRouter(svc), http.MethodPost, "/v1/ontology/admin/reload")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "RELOAD_FAILED", resp.Code)
		assert.Contains(t, resp.Details, path)
	})
}

func serveBody(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest(method, path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandlers_ConceptAdmin(t *testing.T) {
	svc := newLoadedService(t, config.ReindexLazy)
	router := setupTestRouter(svc)

	w := serveBody(t, router, http.MethodPut, "/v1/ontology/admin/concepts/SVM",
		`{"prefLabel":"Support Vector Machine","notation":"ML.9","broader":["ML"]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp ConceptMutationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "svm", resp.ID)
	assert.Equal(t, 5, resp.Concepts)
	assert.Greater(t, resp.Relations, 4)
	assert.True(t, resp.IndexStale, "lazy mode leaves the rebuild to the next reader")

	got, err := svc.GetConcept(t.Context(), "ml.9", true)
	require.NoError(t, err)
	assert.Equal(t, "svm", got.Concept.ID)
	assert.Equal(t, []string{"ml"}, got.Concept.Broader)

	w = serveBody(t, router, http.MethodPut, "/v1/ontology/admin/concepts/svm",
		`{"id":"other","prefLabel":"Other"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, "ID_MISMATCH", errResp.Code)

	w = serveBody(t, router, http.MethodPut, "/v1/ontology/admin/concepts/svm", `{"prefLabel":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(t, router, http.MethodDelete, "/v1/ontology/admin/concepts/SVM")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 4, resp.Concepts)

	w = serve(t, router, http.MethodDelete, "/v1/ontology/admin/concepts/svm")
	assert.Equal(t, http.StatusNotFound, w.Code)
	_, err = svc.GetConcept(t.Context(), "svm", true)
	assert.ErrorIs(t, err, ErrConceptNotFound)
}

func TestHandlers_HandleReindex(t *testing.T) {
	svc := newLoadedService(t, config.ReindexLazy)
	router := setupTestRouter(svc)

	assert.True(t, svc.Remove(t.Context(), "island"))
	assert.True(t, svc.GetStatistics(t.Context()).IndexStale)

	w := serve(t, router, http.MethodPost, "/v1/ontology/admin/reindex")
	require.Equal(t, http.StatusOK, w.Code)
	var resp ConceptMutationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.IndexStale)
	assert.Equal(t, 3, resp.Concepts)
	assert.Empty(t, resp.ID)
}
