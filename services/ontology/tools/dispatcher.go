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
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/AleutianAI/AleutianOntology/services/ontology"
	"github.com/AleutianAI/AleutianOntology/services/ontology/audit"
	"github.com/AleutianAI/AleutianOntology/services/ontology/config"
	"github.com/AleutianAI/AleutianOntology/services/ontology/sanitize"
	"github.com/AleutianAI/AleutianOntology/services/ontology/telemetry"
)

// Result codes.
const (
	CodeOK              = "OK"
	CodeNotFound        = "NOT_FOUND"
	CodeNoPath          = "NO_PATH"
	CodeInvalidArgument = "INVALID_ARGUMENT"
	CodeRateLimited     = "RATE_LIMITED"
	CodeUnknownTool     = "UNKNOWN_TOOL"
	CodeInternal        = "INTERNAL"
)

// Result is the outcome of one tool call.
type Result struct {
	Tool       string     `json:"tool"`
	OK         bool       `json:"ok"`
	Data       any        `json:"data,omitempty"`
	Error      *ToolError `json:"error,omitempty"`
	DurationMs float64    `json:"duration_ms"`
}

// ToolError describes a failed call.
type ToolError struct {
	Code    string `json:"code"`
	Message string `json:"message"`

	// AvailableCount is set on NOT_FOUND from get_concept.
	AvailableCount *int `json:"available_count,omitempty"`
}

// Code returns the result code, CodeOK on success.
func (r *Result) Code() string {
	if r.Error == nil {
		return CodeOK
	}
	return r.Error.Code
}

// DispatcherOption is a functional option for configuring Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithAudit sets the audit logger. Without one, calls are not audited.
func WithAudit(a *audit.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.audit = a
	}
}

// WithLogger sets the dispatcher logger.
func WithLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithLimiter replaces the limiter built from the security config. nil
// disables rate limiting.
func WithLimiter(l *rate.Limiter) DispatcherOption {
	return func(d *Dispatcher) {
		d.limiter = l
	}
}

// call is the outcome of one tool body before it becomes a Result.
type call struct {
	data any
	args map[string]any
	err  error

	// noPath marks a path query whose endpoints are disconnected.
	noPath bool
}

type toolFunc func(ctx context.Context, raw json.RawMessage) call

// Dispatcher runs tools against the ontology service.
//
// Thread Safety:
//
//	Safe for concurrent use.
type Dispatcher struct {
	svc       *ontology.Service
	sanitizer *sanitize.Sanitizer
	registry  *Registry
	query     config.QueryConfig
	audit     *audit.Logger
	limiter   *rate.Limiter
	logger    *slog.Logger
	tools     map[string]toolFunc
}

// NewDispatcher creates a dispatcher over svc.
//
// The rate limiter allows Security.RateLimitPerMinute calls per minute with
// a burst of Security.RateLimitBurst, shared by all callers, unless rate
// limiting is disabled in the config.
func NewDispatcher(svc *ontology.Service, opts ...DispatcherOption) *Dispatcher {
	cfg := svc.Config()
	d := &Dispatcher{
		svc:       svc,
		sanitizer: svc.Sanitizer(),
		registry:  NewRegistry(cfg),
		query:     cfg.Query,
		logger:    slog.Default(),
	}
	if cfg.Security.RateLimitEnabled {
		perSecond := rate.Limit(float64(cfg.Security.RateLimitPerMinute) / 60)
		d.limiter = rate.NewLimiter(perSecond, cfg.Security.RateLimitBurst)
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With(slog.String("component", "tool_dispatcher"))

	d.tools = map[string]toolFunc{
		ToolGetConcept:     d.getConcept,
		ToolSearchConcepts: d.searchConcepts,
		ToolExpandContext:  d.expandContext,
		ToolGetConceptPath: d.getConceptPath,
		ToolGetStatistics:  d.getStatistics,
	}
	return d
}

// Registry returns the tool definitions.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Call runs one tool.
//
// Description:
//
//	Unknown tools and rate-limited calls are rejected before the arguments
//	are read. Every call that reaches a tool body is audited with its
//	sanitized arguments; sanitizer rejections that look malicious also
//	produce a security event.
//
// Inputs:
//
//	ctx - Context for cancellation and tracing.
//	name - Tool name.
//	raw - JSON object of arguments. Empty means no arguments.
//	requestID - Correlation id for the audit trail. May be empty.
//
// Outputs:
//
//	*Result - Never nil.
func (d *Dispatcher) Call(ctx context.Context, name string, raw json.RawMessage, requestID string) *Result {
	start := time.Now()
	result := &Result{Tool: name}
	defer func() {
		elapsed := time.Since(start)
		result.DurationMs = float64(elapsed.Microseconds()) / 1000
		toolCallsTotal.WithLabelValues(name, result.Code()).Inc()
		toolCallDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	}()

	fn, ok := d.tools[name]
	if !ok {
		result.Error = &ToolError{Code: CodeUnknownTool, Message: fmt.Sprintf("unknown tool %q", name)}
		return result
	}

	if d.limiter != nil && !d.limiter.Allow() {
		telemetry.LoggerWithTrace(ctx, d.logger).Warn("rate limit exceeded",
			slog.String("tool", name), slog.String("request_id", requestID))
		if d.audit != nil {
			d.audit.RateLimitExceeded(ctx, name, requestID)
		}
		result.Error = &ToolError{Code: CodeRateLimited, Message: "rate limit exceeded, retry later"}
		return result
	}

	out := fn(ctx, raw)
	d.finish(result, out)

	if out.err != nil && sanitize.IsSecurityViolation(out.err) {
		kind := securityKind(out.err)
		securityRejectionsTotal.WithLabelValues(kind).Inc()
		telemetry.LoggerWithTrace(ctx, d.logger).Warn("input rejected",
			slog.String("tool", name), slog.String("kind", kind), slog.String("request_id", requestID))
		if d.audit != nil {
			d.audit.SecurityEvent(ctx, kind, audit.SeverityHigh, requestID, map[string]any{"tool_name": name})
		}
	}

	if d.audit != nil {
		errMsg := ""
		if result.Error != nil {
			errMsg = result.Error.Message
		}
		d.audit.ToolCall(ctx, audit.ToolCall{
			Tool:      name,
			Arguments: out.args,
			RequestID: requestID,
			Success:   result.OK,
			Duration:  time.Since(start),
			Error:     errMsg,
		})
	}
	return result
}

// finish maps a tool body outcome onto result.
func (d *Dispatcher) finish(result *Result, out call) {
	switch {
	case out.err == nil && out.noPath:
		result.Data = out.data
		result.Error = &ToolError{Code: CodeNoPath, Message: "concepts exist but are not connected"}
	case out.err == nil:
		result.OK = true
		result.Data = out.data
	default:
		result.Error = d.toolError(out.err)
	}
}

func (d *Dispatcher) toolError(err error) *ToolError {
	var notFound *ontology.ConceptNotFoundError
	switch {
	case errors.As(err, &notFound):
		count := notFound.AvailableCount
		return &ToolError{Code: CodeNotFound, Message: err.Error(), AvailableCount: &count}
	case errors.Is(err, ontology.ErrConceptNotFound):
		return &ToolError{Code: CodeNotFound, Message: err.Error()}
	case errors.Is(err, ErrBadArguments),
		errors.Is(err, sanitize.ErrRejected),
		errors.Is(err, ontology.ErrInvalidArgument):
		return &ToolError{Code: CodeInvalidArgument, Message: err.Error()}
	default:
		d.logger.Error("tool failed", slog.String("error", err.Error()))
		return &ToolError{Code: CodeInternal, Message: "internal error"}
	}
}

func securityKind(err error) string {
	switch {
	case errors.Is(err, sanitize.ErrPromptInjection):
		return "prompt_injection"
	case errors.Is(err, sanitize.ErrPathTraversal):
		return "path_traversal"
	default:
		return "unknown"
	}
}

// =============================================================================
// Tool Bodies
// =============================================================================

func (d *Dispatcher) getConcept(ctx context.Context, raw json.RawMessage) call {
	var args GetConceptArgs
	if err := decodeArgs(raw, &args); err != nil {
		return call{err: err}
	}
	key, err := d.sanitizer.LookupKey(args.ConceptID)
	if err != nil {
		return call{err: err, args: map[string]any{"concept_id": args.ConceptID}}
	}
	include := boolOr(args.IncludeRelations, true)
	logged := map[string]any{"concept_id": key, "include_relations": include}

	res, err := d.svc.GetConcept(ctx, key, include)
	if err != nil {
		return call{err: err, args: logged}
	}
	return call{data: res, args: logged}
}

func (d *Dispatcher) searchConcepts(ctx context.Context, raw json.RawMessage) call {
	var args SearchConceptsArgs
	if err := decodeArgs(raw, &args); err != nil {
		return call{err: err}
	}
	q, err := d.sanitizer.Query(args.Query)
	if err != nil {
		return call{err: err}
	}
	limit, err := d.sanitizer.Limit(intOr(args.Limit, d.query.DefaultLimit))
	if err != nil {
		return call{err: err, args: map[string]any{"query": q}}
	}
	logged := map[string]any{"query": q, "limit": limit}

	res, err := d.svc.SearchConcepts(ctx, q, limit)
	if err != nil {
		return call{err: err, args: logged}
	}
	return call{data: res, args: logged}
}

func (d *Dispatcher) expandContext(ctx context.Context, raw json.RawMessage) call {
	var args ExpandContextArgs
	if err := decodeArgs(raw, &args); err != nil {
		return call{err: err}
	}
	id, err := d.sanitizer.ConceptID(args.ConceptID)
	if err != nil {
		return call{err: err, args: map[string]any{"concept_id": args.ConceptID}}
	}
	depth, err := d.sanitizer.Depth(intOr(args.MaxDepth, d.query.DefaultDepth))
	if err != nil {
		return call{err: err, args: map[string]any{"concept_id": id}}
	}
	include := boolOr(args.IncludeContent, true)
	logged := map[string]any{"concept_id": id, "max_depth": depth, "include_content": include}
	if len(args.RelationTypes) > 0 {
		logged["relation_types"] = args.RelationTypes
	}

	res, err := d.svc.ExpandContext(ctx, ontology.ExpandRequest{
		ConceptID:      id,
		RelationTypes:  args.RelationTypes,
		MaxDepth:       depth,
		IncludeContent: include,
	})
	if err != nil {
		return call{err: err, args: logged}
	}
	return call{data: res, args: logged}
}

func (d *Dispatcher) getConceptPath(ctx context.Context, raw json.RawMessage) call {
	var args GetConceptPathArgs
	if err := decodeArgs(raw, &args); err != nil {
		return call{err: err}
	}
	from, err := d.sanitizer.ConceptID(args.FromConcept)
	if err != nil {
		return call{err: err, args: map[string]any{"from_concept": args.FromConcept, "to_concept": args.ToConcept}}
	}
	to, err := d.sanitizer.ConceptID(args.ToConcept)
	if err != nil {
		return call{err: err, args: map[string]any{"from_concept": from, "to_concept": args.ToConcept}}
	}
	logged := map[string]any{"from_concept": from, "to_concept": to}

	res, err := d.svc.GetConceptPath(ctx, from, to)
	if err != nil {
		return call{err: err, args: logged}
	}
	return call{data: res, args: logged, noPath: !res.Found()}
}

func (d *Dispatcher) getStatistics(ctx context.Context, raw json.RawMessage) call {
	var args GetStatisticsArgs
	if err := decodeArgs(raw, &args); err != nil {
		return call{err: err}
	}
	return call{data: d.svc.GetStatistics(ctx), args: map[string]any{}}
}
