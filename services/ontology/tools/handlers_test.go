// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package tools

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupTestRouter(d *Dispatcher) *gin.Engine {
	router := gin.New()
	v1 := router.Group("/v1")
	RegisterRoutes(v1, NewHandlers(d))
	return router
}

func post(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandlers_ListTools(t *testing.T) {
	d, _ := newTestDispatcher(t)
	router := setupTestRouter(d)

	req := httptest.NewRequest(http.MethodGet, "/v1/ontology/tools", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp ToolsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 5, resp.Count)
	assert.Equal(t, ToolGetConcept, resp.Tools[0].Name)
	assert.True(t, resp.Tools[0].Parameters[0].Required)
}

func TestHandlers_CallTool(t *testing.T) {
	d, _ := newTestDispatcher(t)
	router := setupTestRouter(d)

	tests := []struct {
		name   string
		tool   string
		body   string
		status int
		code   string
	}{
		{"success", ToolSearchConcepts, `{"query":"regression"}`, http.StatusOK, CodeOK},
		{"no path is a normal outcome", ToolGetConceptPath, `{"from_concept":"ml","to_concept":"island"}`, http.StatusOK, CodeNoPath},
		{"not found", ToolGetConcept, `{"concept_id":"ghost"}`, http.StatusNotFound, CodeNotFound},
		{"bad json", ToolGetConcept, `{"concept_id":`, http.StatusBadRequest, CodeInvalidArgument},
		{"unknown tool", "rm_rf", `{}`, http.StatusNotFound, CodeUnknownTool},
		{"empty body", ToolGetStatistics, ``, http.StatusOK, CodeOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := post(router, "/v1/ontology/tools/"+tt.tool, tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

			var res map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
			assert.Equal(t, tt.tool, res["tool"])
			if tt.code == CodeOK {
				assert.Equal(t, true, res["ok"])
				return
			}
			errBody, ok := res["error"].(map[string]any)
			require.True(t, ok)
			assert.Equal(t, tt.code, errBody["code"])
		})
	}
}

func TestHandlers_CallToolRateLimited(t *testing.T) {
	d, _ := newTestDispatcher(t, WithLimiter(rate.NewLimiter(rate.Every(time.Hour), 1)))
	router := setupTestRouter(d)

	assert.Equal(t, http.StatusOK, post(router, "/v1/ontology/tools/get_statistics", `{}`).Code)
	w := post(router, "/v1/ontology/tools/get_statistics", `{}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}

func TestHandlers_CallToolBodyTooLarge(t *testing.T) {
	d, _ := newTestDispatcher(t)
	router := setupTestRouter(d)

	big := `{"query":"` + strings.Repeat("a", maxArgumentBytes) + `"}`
	w := post(router, "/v1/ontology/tools/search_concepts", big)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
