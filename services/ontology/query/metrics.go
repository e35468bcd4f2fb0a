// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package query

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("aleutian.ontology.query")
	meter  = otel.Meter("aleutian.ontology.query")
)

var (
	queryLatency metric.Float64Histogram
	queryTotal   metric.Int64Counter
	resultCounts metric.Int64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		queryLatency, err = meter.Float64Histogram(
			"ontology_query_duration_seconds",
			metric.WithDescription("Duration of ontology queries"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		queryTotal, err = meter.Int64Counter(
			"ontology_query_total",
			metric.WithDescription("Total number of ontology queries"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		resultCounts, err = meter.Int64Histogram(
			"ontology_query_result_count",
			metric.WithDescription("Results returned per query"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// recordQueryMetrics records metrics for a completed query.
func recordQueryMetrics(ctx context.Context, queryType string, duration time.Duration, resultCount int) {
	if err := initMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String("query_type", queryType))
	queryLatency.Record(ctx, duration.Seconds(), attrs)
	queryTotal.Add(ctx, 1, attrs)
	resultCounts.Record(ctx, int64(resultCount), attrs)
}

func startExpandSpan(ctx context.Context, id string, depth int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Engine.ExpandContext",
		trace.WithAttributes(
			attribute.String("query.concept_id", id),
			attribute.Int("query.depth", depth),
		),
	)
}

func setExpandSpanResult(span trace.Span, visited int, truncated bool) {
	span.SetAttributes(
		attribute.Int("query.visited", visited),
		attribute.Bool("query.truncated", truncated),
	)
}

func startPathSpan(ctx context.Context, from, to string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Engine.Path",
		trace.WithAttributes(
			attribute.String("query.from", from),
			attribute.String("query.to", to),
		),
	)
}

func setPathSpanResult(span trace.Span, length int) {
	span.SetAttributes(attribute.Int("query.path_length", length))
}
