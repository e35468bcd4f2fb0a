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
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("aleutian.ontology.service")
	meter  = otel.Meter("aleutian.ontology.service")
)

var (
	operationLatency metric.Float64Histogram
	operationTotal   metric.Int64Counter
	reindexTotal     metric.Int64Counter
	loadedConcepts   metric.Int64Gauge

	metricsOnce sync.Once
	metricsErr  error
)

func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		operationLatency, err = meter.Float64Histogram(
			"ontology_operation_duration_seconds",
			metric.WithDescription("Duration of ontology service operations"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		operationTotal, err = meter.Int64Counter(
			"ontology_operation_total",
			metric.WithDescription("Total ontology service operations"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		reindexTotal, err = meter.Int64Counter(
			"ontology_reindex_total",
			metric.WithDescription("Index rebuilds by trigger"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		loadedConcepts, err = meter.Int64Gauge(
			"ontology_loaded_concepts",
			metric.WithDescription("Concepts in the serving graph"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// recordOperationMetrics records one service operation.
func recordOperationMetrics(ctx context.Context, op string, duration time.Duration, err error) {
	if initMetrics() != nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("operation", op),
		attribute.Bool("success", err == nil),
	)
	operationLatency.Record(ctx, duration.Seconds(), attrs)
	operationTotal.Add(ctx, 1, attrs)
}

// recordReindex counts one index rebuild. trigger is "eager", "lazy" or "manual".
func recordReindex(ctx context.Context, trigger string) {
	if initMetrics() != nil {
		return
	}
	reindexTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("trigger", trigger)))
}

func recordLoadedConcepts(ctx context.Context, n int) {
	if initMetrics() != nil {
		return
	}
	loadedConcepts.Record(ctx, int64(n))
}

func startOperationSpan(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Service."+op, trace.WithAttributes(attrs...))
}

// endOperationSpan marks the span failed on err and ends it.
func endOperationSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
