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
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// maxArgumentBytes caps the request body of a tool call.
const maxArgumentBytes = 1 << 20

// ToolsResponse is the response for GET /v1/ontology/tools.
type ToolsResponse struct {
	Tools []ToolDefinition `json:"tools"`
	Count int              `json:"count"`
}

// Handlers serves tool discovery and invocation over HTTP.
type Handlers struct {
	dispatcher *Dispatcher
}

// NewHandlers creates handlers for the given dispatcher.
func NewHandlers(d *Dispatcher) *Handlers {
	return &Handlers{dispatcher: d}
}

// HandleListTools handles GET /v1/ontology/tools.
func (h *Handlers) HandleListTools(c *gin.Context) {
	tools := h.dispatcher.Registry().GetTools()
	c.JSON(http.StatusOK, ToolsResponse{Tools: tools, Count: len(tools)})
}

// HandleCallTool handles POST /v1/ontology/tools/:name.
//
// Description:
//
//	The request body is the JSON arguments object. The response is always
//	a Result; the status code mirrors its code.
//
// Response:
//
//	200 OK: Result (ok=true, or NO_PATH)
//	400 Bad Request: INVALID_ARGUMENT
//	404 Not Found: NOT_FOUND or UNKNOWN_TOOL
//	429 Too Many Requests: RATE_LIMITED
//	500 Internal Server Error: INTERNAL
func (h *Handlers) HandleCallTool(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	name := c.Param("name")
	logger := slog.With("request_id", requestID, "handler", "HandleCallTool", "tool", name)

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxArgumentBytes+1))
	if err != nil || len(body) > maxArgumentBytes {
		logger.Warn("Invalid request body", "error", err, "bytes", len(body))
		c.JSON(http.StatusBadRequest, &Result{
			Tool:  name,
			Error: &ToolError{Code: CodeInvalidArgument, Message: "request body unreadable or too large"},
		})
		return
	}

	result := h.dispatcher.Call(c.Request.Context(), name, body, requestID)
	if !result.OK {
		logger.Info("Tool call failed", "code", result.Code())
	}
	if result.Code() == CodeRateLimited {
		c.Header("Retry-After", "1")
	}
	c.JSON(statusFor(result.Code()), result)
}

func statusFor(code string) int {
	switch code {
	case CodeOK, CodeNoPath:
		return http.StatusOK
	case CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeNotFound, CodeUnknownTool:
		return http.StatusNotFound
	case CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func getOrCreateRequestID(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Header("X-Request-ID", requestID)
	return requestID
}

// RegisterRoutes registers the tool routes with the router.
//
// Endpoints:
//
//	GET  /v1/ontology/tools - Discover available tools
//	POST /v1/ontology/tools/:name - Call a tool with a JSON arguments body
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	ont := rg.Group("/ontology")
	{
		ont.GET("/tools", handlers.HandleListTools)
		ont.POST("/tools/:name", handlers.HandleCallTool)
	}
}
