// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ONTOLOGY_"

// Load loads configuration with priority: env > file > defaults.
//
// Inputs:
//   - path: YAML config file. Empty means defaults plus environment. A path
//     that does not exist is treated the same way.
//
// Outputs:
//   - *Config: The merged, validated configuration.
//   - error: Non-nil if the file exists but cannot be parsed, or the result
//     is invalid.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	applyEnv(&cfg, os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// lookupFunc matches os.LookupEnv so tests can supply their own environment.
type lookupFunc func(key string) (string, bool)

func applyEnv(cfg *Config, lookup lookupFunc) {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	integer := func(name string, dst *int) {
		if v, ok := lookup(EnvPrefix + name); ok {
			if i, err := strconv.Atoi(v); err == nil {
				*dst = i
			}
		}
	}
	boolean := func(name string, dst *bool) {
		if v, ok := lookup(EnvPrefix + name); ok {
			if b, err := strconv.ParseBool(v); err == nil {
				*dst = b
			}
		}
	}
	duration := func(name string, dst *time.Duration) {
		if v, ok := lookup(EnvPrefix + name); ok {
			if d, err := time.ParseDuration(v); err == nil {
				*dst = d
			}
		}
	}

	// Server
	str("SERVER_NAME", &cfg.Server.Name)

	// HTTP
	str("HTTP_HOST", &cfg.HTTP.Host)
	integer("HTTP_PORT", &cfg.HTTP.Port)

	// Logging and audit
	str("LOG_LEVEL", &cfg.Logging.Level)
	str("LOG_DIR", &cfg.Logging.Dir)
	boolean("LOG_JSON", &cfg.Logging.JSON)
	boolean("AUDIT_ENABLED", &cfg.Audit.Enabled)
	str("AUDIT_LOG_FILE", &cfg.Audit.File)
	str("AUDIT_BADGER_DIR", &cfg.Audit.BadgerDir)

	// Records and index
	str("RECORDS_PATH", &cfg.Records.Path)
	str("REINDEX_MODE", &cfg.Index.ReindexMode)

	// Query
	integer("QUERY_DEFAULT_LIMIT", &cfg.Query.DefaultLimit)
	integer("QUERY_MAX_VISITED", &cfg.Query.MaxVisited)
	duration("QUERY_TIMEOUT", &cfg.Query.Timeout)

	// Security
	boolean("RATE_LIMIT_ENABLED", &cfg.Security.RateLimitEnabled)
	integer("RATE_LIMIT_PER_MINUTE", &cfg.Security.RateLimitPerMinute)
	integer("RATE_LIMIT_BURST", &cfg.Security.RateLimitBurst)
	integer("MAX_QUERY_LENGTH", &cfg.Security.MaxQueryLength)
	integer("MAX_CONTEXT_DEPTH", &cfg.Security.MaxContextDepth)
	integer("MAX_RESULTS_PER_QUERY", &cfg.Security.MaxResultsPerQuery)
	integer("MAX_CONTENT_LENGTH", &cfg.Security.MaxContentLength)

	// Telemetry
	str("TRACE_EXPORTER", &cfg.Telemetry.TraceExporter)
	str("OTLP_ENDPOINT", &cfg.Telemetry.OTLPEndpoint)
	str("METRIC_EXPORTER", &cfg.Telemetry.MetricExporter)
}
