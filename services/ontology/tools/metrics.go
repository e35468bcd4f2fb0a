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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ==============================================================================
// Prometheus Metrics
// ==============================================================================

var (
	// toolCallsTotal counts tool calls by tool and result code
	toolCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ontology_tool_calls_total",
		Help: "Total tool calls by tool and result code",
	}, []string{"tool", "code"})

	// toolCallDuration tracks tool latency
	toolCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ontology_tool_call_duration_seconds",
		Help:    "Tool call duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14), // 0.1ms to ~1.6s
	}, []string{"tool"})

	// securityRejectionsTotal counts inputs rejected as malicious
	securityRejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ontology_security_rejections_total",
		Help: "Inputs rejected by the sanitizer as malicious, by kind",
	}, []string{"kind"})
)
