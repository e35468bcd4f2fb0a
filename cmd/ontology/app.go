// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/AleutianAI/AleutianOntology/pkg/logging"
	"github.com/AleutianAI/AleutianOntology/services/ontology"
	"github.com/AleutianAI/AleutianOntology/services/ontology/audit"
	"github.com/AleutianAI/AleutianOntology/services/ontology/config"
	"github.com/AleutianAI/AleutianOntology/services/ontology/records"
	ontobadger "github.com/AleutianAI/AleutianOntology/services/ontology/storage/badger"
	"github.com/AleutianAI/AleutianOntology/services/ontology/tools"
)

// app is the fully wired process: config, logger, audit trail, service and
// tool dispatcher.
type app struct {
	cfg        *config.Config
	logger     *logging.Logger
	audit      *audit.Logger
	svc        *ontology.Service
	dispatcher *tools.Dispatcher
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(g *globalOptions) (*config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}
	if g.recordsPath != "" {
		cfg.Records.Path = g.recordsPath
	}
	if g.logLevel != "" {
		cfg.Logging.Level = g.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newApp wires every component from the global flags. Log output goes to
// stderr.
func newApp(g *globalOptions, stderr io.Writer) (*app, error) {
	cfg, err := loadConfig(g)
	if err != nil {
		return nil, err
	}

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	logger := logging.New(logging.Config{
		Level:   level,
		Dir:     cfg.Logging.Dir,
		Service: "ontology",
		JSON:    cfg.Logging.JSON,
		Output:  stderr,
	})
	slog.SetDefault(logger.Slog())

	a := &app{cfg: cfg, logger: logger}

	if cfg.Audit.Enabled {
		sinks, err := openAuditSinks(cfg, logger.Slog())
		if err != nil {
			_ = logger.Close()
			return nil, err
		}
		a.audit = audit.NewLogger(logger.Slog(), sinks...)
	}

	svc, err := ontology.NewService(*cfg,
		ontology.WithLogger(logger.Slog()),
		ontology.WithAuditLogger(a.audit),
		ontology.WithRecordsLoader(records.NewLoader(records.WithLogger(logger.Slog()))),
	)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("create service: %w", err)
	}
	a.svc = svc
	a.dispatcher = tools.NewDispatcher(svc,
		tools.WithAudit(a.audit),
		tools.WithLogger(logger.Slog()),
	)
	return a, nil
}

func openAuditSinks(cfg *config.Config, logger *slog.Logger) ([]audit.Sink, error) {
	var sinks []audit.Sink
	if cfg.Audit.File != "" {
		fs, err := audit.NewFileSink(cfg.Audit.File)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, fs)
	}
	if cfg.Audit.BadgerDir != "" {
		bs, err := audit.OpenBadgerSink(badgerConfig(cfg.Audit.BadgerDir, logger))
		if err != nil {
			for _, s := range sinks {
				_ = s.Close()
			}
			return nil, fmt.Errorf("open audit store: %w", err)
		}
		sinks = append(sinks, bs)
	}
	return sinks, nil
}

func badgerConfig(dir string, logger *slog.Logger) ontobadger.Config {
	bc := ontobadger.DefaultConfig()
	bc.Path = dir
	bc.Logger = logger
	return bc
}

// loadRecords builds the graph from the configured records path.
func (a *app) loadRecords(ctx context.Context) error {
	result, err := a.svc.Reload(ctx)
	if errors.Is(err, ontology.ErrNoRecordsPath) {
		return fmt.Errorf("%w: pass --records or set ONTOLOGY_RECORDS_PATH", err)
	}
	if err != nil {
		return err
	}
	for _, re := range result.RecordErrors {
		a.logger.Warn("Record skipped", "error", re.Error())
	}
	return nil
}

// Close releases the audit sinks and the log file.
func (a *app) Close() error {
	var errs []error
	if a.audit != nil {
		errs = append(errs, a.audit.Close())
	}
	errs = append(errs, a.logger.Close())
	return errors.Join(errs...)
}
