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
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers the ontology ops routes with the router.
//
// Description:
//
//	Registers the /v1/ontology/* ops endpoints with the given Gin router
//	group. Tool endpoints are registered by the tools package under the
//	same prefix.
//
// Inputs:
//
//	rg - Gin router group (typically /v1)
//	handlers - The handlers instance
//
// Endpoints:
//
//	GET  /v1/ontology/health - Liveness
//	GET  /v1/ontology/ready - Readiness (503 until records are loaded)
//	GET  /v1/ontology/stats - Concept and relation counts
//	GET  /v1/ontology/debug/graph/stats - Builder statistics and collisions
//	POST /v1/ontology/admin/reload - Reload records from disk
//	POST /v1/ontology/admin/reindex - Rebuild the lookup index
//	PUT  /v1/ontology/admin/concepts/:id - Insert or replace one concept
//	DELETE /v1/ontology/admin/concepts/:id - Remove one concept
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	ont := rg.Group("/ontology")
	{
		ont.GET("/health", handlers.HandleHealth)
		ont.GET("/ready", handlers.HandleReady)
		ont.GET("/stats", handlers.HandleStats)
		ont.GET("/debug/graph/stats", handlers.HandleGetGraphStats)
		ont.POST("/admin/reload", handlers.HandleReload)
		ont.POST("/admin/reindex", handlers.HandleReindex)
		ont.PUT("/admin/concepts/:id", handlers.HandlePutConcept)
		ont.DELETE("/admin/concepts/:id", handlers.HandleDeleteConcept)
	}
}
