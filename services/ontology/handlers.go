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
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AleutianAI/AleutianOntology/services/ontology/concept"
	"github.com/AleutianAI/AleutianOntology/services/ontology/graph"
	"github.com/AleutianAI/AleutianOntology/services/ontology/records"
)

// Handlers contains the ops HTTP handlers for the ontology service.
type Handlers struct {
	svc *Service
}

// NewHandlers creates handlers for the given service.
func NewHandlers(svc *Service) *Handlers {
	return &Handlers{svc: svc}
}

// HandleHealth handles GET /v1/ontology/health.
//
// Description:
//
//	Returns the health status of the service. Always returns 200 if running.
//
// Response:
//
//	200 OK: HealthResponse
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: h.svc.Config().Server.Version,
	})
}

// HandleReady handles GET /v1/ontology/ready.
//
// Description:
//
//	Returns 503 Service Unavailable until concept records have been loaded.
//
// Response:
//
//	200 OK: ReadyResponse (Ready=true)
//	503 Service Unavailable: ReadyResponse (Ready=false)
func (h *Handlers) HandleReady(c *gin.Context) {
	resp := ReadyResponse{
		Ready:    h.svc.Ready(),
		Concepts: h.svc.GetStatistics(c.Request.Context()).TotalConcepts,
	}
	if !resp.Ready {
		c.Header("Retry-After", "5")
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// HandleStats handles GET /v1/ontology/stats.
//
// Response:
//
//	200 OK: Statistics
func (h *Handlers) HandleStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.GetStatistics(c.Request.Context()))
}

// HandleGetGraphStats handles GET /v1/ontology/debug/graph/stats.
//
// Description:
//
//	Returns builder-level statistics: per-type edge counts, density, weak
//	connectivity, index sizes and the label collision list.
//
// Response:
//
//	200 OK: DebugStats
func (h *Handlers) HandleGetGraphStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.DebugStats())
}

// HandleReload handles POST /v1/ontology/admin/reload.
//
// Description:
//
//	Re-reads the configured records path and swaps in a freshly built
//	graph. Queries keep using the previous graph until the swap.
//
// Response:
//
//	200 OK: ReloadResponse
//	409 Conflict: No records path configured
//	500 Internal Server Error: Read or build failure
func (h *Handlers) HandleReload(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleReload")

	result, err := h.svc.Reload(c.Request.Context())
	if err != nil {
		statusCode := http.StatusInternalServerError
		errCode := "RELOAD_FAILED"
		if errors.Is(err, ErrNoRecordsPath) {
			statusCode = http.StatusConflict
			errCode = "NO_RECORDS_PATH"
		} else if errors.Is(err, ErrBuildIncomplete) {
			errCode = "BUILD_INCOMPLETE"
		}

		logger.Error("Reload failed", "error", err)
		c.JSON(statusCode, ErrorResponse{
			Error:   "Reload failed",
			Code:    errCode,
			Details: err.Error(),
		})
		return
	}

	logger.Info("Ontology reloaded", "concepts", result.Stats.NodesCreated)
	c.JSON(http.StatusOK, ReloadResponse{
		Concepts:     result.Stats.NodesCreated,
		Relations:    result.Stats.EdgesCreated,
		RecordErrors: len(result.RecordErrors),
		EdgeErrors:   len(result.EdgeErrors),
		DurationUs:   result.Stats.DurationMicro,
	})
}

// HandlePutConcept handles PUT /v1/ontology/admin/concepts/:id.
//
// Description:
//
//	Inserts or replaces one concept from a JSON record body. The path id
//	and every relation reference are normalized with concept.Slugify, the
//	same way record files are. A body id, when present, must normalize to
//	the path id. The index is rebuilt per the configured reindex mode.
//
// Response:
//
//	200 OK: ConceptMutationResponse
//	400 Bad Request: Malformed body, id mismatch or invalid record
//	500 Internal Server Error: Graph capacity or other failure
func (h *Handlers) HandlePutConcept(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandlePutConcept")

	var rec concept.Record
	if err := c.ShouldBindJSON(&rec); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid concept record",
			Code:    "INVALID_BODY",
			Details: err.Error(),
		})
		return
	}

	id := concept.Slugify(c.Param("id"))
	if rec.ID != "" && concept.Slugify(rec.ID) != id {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Concept id mismatch",
			Code:    "ID_MISMATCH",
			Details: "body id " + rec.ID + " does not match path id " + id,
		})
		return
	}
	rec.ID = id
	records.Normalize(&rec)

	if err := h.svc.Upsert(c.Request.Context(), &rec); err != nil {
		statusCode := http.StatusInternalServerError
		errCode := "UPSERT_FAILED"
		if errors.Is(err, graph.ErrInvalidNode) || errors.Is(err, graph.ErrInvalidRelation) {
			statusCode = http.StatusBadRequest
			errCode = "INVALID_CONCEPT"
		}
		logger.Error("Upsert failed", "concept_id", id, "error", err)
		c.JSON(statusCode, ErrorResponse{
			Error:   "Upsert failed",
			Code:    errCode,
			Details: err.Error(),
		})
		return
	}

	logger.Info("Concept upserted", "concept_id", id)
	c.JSON(http.StatusOK, h.mutationResponse(c, id))
}

// HandleDeleteConcept handles DELETE /v1/ontology/admin/concepts/:id.
//
// Response:
//
//	200 OK: ConceptMutationResponse
//	404 Not Found: No concept with that id
func (h *Handlers) HandleDeleteConcept(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleDeleteConcept")

	id := concept.Slugify(c.Param("id"))
	if !h.svc.Remove(c.Request.Context(), id) {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: "Concept not found",
			Code:  "CONCEPT_NOT_FOUND",
		})
		return
	}

	logger.Info("Concept removed", "concept_id", id)
	c.JSON(http.StatusOK, h.mutationResponse(c, id))
}

// HandleReindex handles POST /v1/ontology/admin/reindex.
//
// Description:
//
//	Rebuilds the lookup index now, whether or not it is stale.
//
// Response:
//
//	200 OK: ConceptMutationResponse
func (h *Handlers) HandleReindex(c *gin.Context) {
	requestID := getOrCreateRequestID(c)

	h.svc.Reindex(c.Request.Context())
	slog.Info("Index rebuilt", "request_id", requestID, "handler", "HandleReindex")
	c.JSON(http.StatusOK, h.mutationResponse(c, ""))
}

func (h *Handlers) mutationResponse(c *gin.Context, id string) ConceptMutationResponse {
	stats := h.svc.GetStatistics(c.Request.Context())
	return ConceptMutationResponse{
		ID:           id,
		Concepts:     stats.TotalConcepts,
		Relations:    stats.TotalRelations,
		GraphVersion: stats.GraphVersion,
		IndexStale:   stats.IndexStale,
	}
}

// getOrCreateRequestID returns the X-Request-ID header, generating one if
// absent, and echoes it on the response.
func getOrCreateRequestID(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Header("X-Request-ID", requestID)
	return requestID
}
