// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config holds the ontology server configuration.
//
// Configuration is loaded with priority env > file > defaults (see Load) and
// passed explicitly to constructors. There is no package-level instance.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidConfig is returned when a configuration fails validation.
var ErrInvalidConfig = errors.New("invalid config")

// Reindex modes.
const (
	// ReindexEager rebuilds the index inside every mutation.
	ReindexEager = "eager"

	// ReindexLazy marks the index stale on mutation and rebuilds it on the
	// next query.
	ReindexLazy = "lazy"
)

// Config is the top-level ontology server configuration.
//
// Thread Safety: Safe to read concurrently. Not safe to modify after creation.
type Config struct {
	Server    ServerConfig    `json:"server" yaml:"server"`
	HTTP      HTTPConfig      `json:"http" yaml:"http"`
	Logging   LoggingConfig   `json:"logging" yaml:"logging"`
	Audit     AuditConfig     `json:"audit" yaml:"audit"`
	Records   RecordsConfig   `json:"records" yaml:"records"`
	Graph     GraphConfig     `json:"graph" yaml:"graph"`
	Index     IndexConfig     `json:"index" yaml:"index"`
	Query     QueryConfig     `json:"query" yaml:"query"`
	Security  SecurityConfig  `json:"security" yaml:"security"`
	Telemetry TelemetryConfig `json:"telemetry" yaml:"telemetry"`
}

// ServerConfig identifies the server to clients.
type ServerConfig struct {
	Name    string `json:"name" yaml:"name" validate:"required"`
	Version string `json:"version" yaml:"version" validate:"required"`
}

// HTTPConfig configures the ops HTTP surface.
type HTTPConfig struct {
	Host           string   `json:"host" yaml:"host" validate:"required"`
	Port           int      `json:"port" yaml:"port" validate:"min=1,max=65535"`
	EnableCORS     bool     `json:"enable_cors" yaml:"enable_cors"`
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins"`
}

// Addr returns host:port.
func (h HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level string `json:"level" yaml:"level" validate:"oneof=debug info warn warning error DEBUG INFO WARN WARNING ERROR"`
	Dir   string `json:"dir" yaml:"dir"`
	JSON  bool   `json:"json" yaml:"json"`
}

// AuditConfig configures the audit trail. Either sink may be empty.
type AuditConfig struct {
	Enabled   bool   `json:"enabled" yaml:"enabled"`
	File      string `json:"file" yaml:"file"`
	BadgerDir string `json:"badger_dir" yaml:"badger_dir"`
}

// RecordsConfig points at the concept records to load.
type RecordsConfig struct {
	// Path is a JSON or YAML file, or a directory of them.
	Path string `json:"path" yaml:"path"`

	// WatchEnabled is accepted for compatibility and ignored.
	WatchEnabled bool `json:"watch_enabled" yaml:"watch_enabled"`
}

// GraphConfig caps graph size.
type GraphConfig struct {
	MaxNodes int `json:"max_nodes" yaml:"max_nodes" validate:"min=1"`
	MaxEdges int `json:"max_edges" yaml:"max_edges" validate:"min=1"`
}

// IndexConfig selects the reindex strategy.
type IndexConfig struct {
	ReindexMode string `json:"reindex_mode" yaml:"reindex_mode" validate:"oneof=eager lazy"`
}

// QueryConfig holds query defaults and limits.
type QueryConfig struct {
	DefaultLimit int           `json:"default_limit" yaml:"default_limit" validate:"min=1"`
	DefaultDepth int           `json:"default_depth" yaml:"default_depth" validate:"min=0"`
	MaxVisited   int           `json:"max_visited" yaml:"max_visited" validate:"min=1"`
	Timeout      time.Duration `json:"timeout" yaml:"timeout" validate:"min=0"`
}

// SecurityConfig holds input limits and rate limiting.
type SecurityConfig struct {
	RateLimitEnabled   bool `json:"rate_limit_enabled" yaml:"rate_limit_enabled"`
	RateLimitPerMinute int  `json:"rate_limit_per_minute" yaml:"rate_limit_per_minute" validate:"min=1"`
	RateLimitBurst     int  `json:"rate_limit_burst" yaml:"rate_limit_burst" validate:"min=1"`
	MaxQueryLength     int  `json:"max_query_length" yaml:"max_query_length" validate:"min=1"`
	MaxContextDepth    int  `json:"max_context_depth" yaml:"max_context_depth" validate:"min=0,max=10"`
	MaxResultsPerQuery int  `json:"max_results_per_query" yaml:"max_results_per_query" validate:"min=1"`
	MaxContentLength   int  `json:"max_content_length" yaml:"max_content_length" validate:"min=1"`
}

// TelemetryConfig selects OpenTelemetry exporters.
type TelemetryConfig struct {
	ServiceName    string `json:"service_name" yaml:"service_name" validate:"required"`
	TraceExporter  string `json:"trace_exporter" yaml:"trace_exporter" validate:"oneof=none stdout otlp"`
	OTLPEndpoint   string `json:"otlp_endpoint" yaml:"otlp_endpoint" validate:"required_if=TraceExporter otlp"`
	MetricExporter string `json:"metric_exporter" yaml:"metric_exporter" validate:"oneof=none prometheus stdout"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Name:    "Obsidian Ontology Server",
			Version: "0.2.0",
		},
		HTTP: HTTPConfig{
			Host:           "127.0.0.1",
			Port:           8000,
			AllowedOrigins: []string{"http://localhost:5678"},
		},
		Logging: LoggingConfig{
			Level: "info",
			Dir:   "logs",
		},
		Audit: AuditConfig{
			Enabled: true,
			File:    "logs/audit.log",
		},
		Graph: GraphConfig{
			MaxNodes: 1_000_000,
			MaxEdges: 10_000_000,
		},
		Index: IndexConfig{
			ReindexMode: ReindexLazy,
		},
		Query: QueryConfig{
			DefaultLimit: 10,
			DefaultDepth: 2,
			MaxVisited:   10_000,
			Timeout:      5 * time.Second,
		},
		Security: SecurityConfig{
			RateLimitEnabled:   true,
			RateLimitPerMinute: 60,
			RateLimitBurst:     10,
			MaxQueryLength:     1000,
			MaxContextDepth:    3,
			MaxResultsPerQuery: 100,
			MaxContentLength:   50_000,
		},
		Telemetry: TelemetryConfig{
			ServiceName:    "aleutian-ontology",
			TraceExporter:  "none",
			MetricExporter: "prometheus",
		},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration against its field constraints.
//
// Outputs:
//   - error: ErrInvalidConfig wrapping the first failing fields, or nil.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return fmt.Errorf("%w: %s failed %q (%d problems)",
				ErrInvalidConfig, fe.Namespace(), fe.Tag(), len(fieldErrs))
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Query.DefaultLimit > c.Security.MaxResultsPerQuery {
		return fmt.Errorf("%w: query.default_limit %d exceeds security.max_results_per_query %d",
			ErrInvalidConfig, c.Query.DefaultLimit, c.Security.MaxResultsPerQuery)
	}
	if c.Query.DefaultDepth > c.Security.MaxContextDepth {
		return fmt.Errorf("%w: query.default_depth %d exceeds security.max_context_depth %d",
			ErrInvalidConfig, c.Query.DefaultDepth, c.Security.MaxContextDepth)
	}
	return nil
}
