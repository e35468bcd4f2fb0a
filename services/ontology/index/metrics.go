// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package index

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
	tracer = otel.Tracer("aleutian.ontology.index")
	meter  = otel.Meter("aleutian.ontology.index")
)

var (
	rebuildLatency  metric.Float64Histogram
	rebuildTotal    metric.Int64Counter
	collisionsSeen  metric.Int64Histogram
	searchLatency   metric.Float64Histogram
	searchHitCounts metric.Int64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		rebuildLatency, err = meter.Float64Histogram(
			"ontology_index_rebuild_duration_seconds",
			metric.WithDescription("Duration of index rebuilds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		rebuildTotal, err = meter.Int64Counter(
			"ontology_index_rebuild_total",
			metric.WithDescription("Total number of index rebuilds"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		collisionsSeen, err = meter.Int64Histogram(
			"ontology_index_collisions",
			metric.WithDescription("Key collisions found per rebuild"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		searchLatency, err = meter.Float64Histogram(
			"ontology_index_search_duration_seconds",
			metric.WithDescription("Duration of text searches"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		searchHitCounts, err = meter.Int64Histogram(
			"ontology_index_search_hits",
			metric.WithDescription("Hits returned per text search"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

func recordRebuildMetrics(ctx context.Context, duration time.Duration, collisions int) {
	if err := initMetrics(); err != nil {
		return
	}
	rebuildLatency.Record(ctx, duration.Seconds())
	rebuildTotal.Add(ctx, 1)
	collisionsSeen.Record(ctx, int64(collisions))
}

func recordSearchMetrics(ctx context.Context, duration time.Duration, hits int) {
	if err := initMetrics(); err != nil {
		return
	}
	searchLatency.Record(ctx, duration.Seconds())
	searchHitCounts.Record(ctx, int64(hits))
}

func startRebuildSpan(ctx context.Context, nodeCount, edgeCount int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Index.Rebuild",
		trace.WithAttributes(
			attribute.Int("index.node_count", nodeCount),
			attribute.Int("index.edge_count", edgeCount),
		),
	)
}

func setRebuildSpanResult(span trace.Span, labels, collisions int) {
	span.SetAttributes(
		attribute.Int("index.labels", labels),
		attribute.Int("index.collisions", collisions),
	)
}

func startSearchSpan(ctx context.Context, limit int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Index.SearchByText",
		trace.WithAttributes(attribute.Int("search.limit", limit)),
	)
}

func setSearchSpanResult(span trace.Span, scanned, matched int, truncated bool) {
	span.SetAttributes(
		attribute.Int("search.scanned", scanned),
		attribute.Int("search.matched", matched),
		attribute.Bool("search.truncated", truncated),
	)
}
