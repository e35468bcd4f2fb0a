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
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianOntology/pkg/ux"
	"github.com/AleutianAI/AleutianOntology/services/ontology/audit"
	"github.com/AleutianAI/AleutianOntology/services/ontology/tools"
)

// ErrToolFailed is returned by the query command when the tool reports an error.
var ErrToolFailed = errors.New("tool call failed")

// ErrAuditStoreDisabled is returned by the audit command without a badger dir.
var ErrAuditStoreDisabled = errors.New("audit store not configured")

// =============================================================================
// query
// =============================================================================

func newQueryCmd(g *globalOptions) *cobra.Command {
	var args string
	cmd := &cobra.Command{
		Use:   "query <tool>",
		Short: "Load the records and call one tool",
		Example: `  ontology query get_concept --records ./vault --args '{"concept_id":"regression"}'
  ontology query get_concept_path --records ./vault --args '{"from_concept":"ml","to_concept":"logit"}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, pos []string) error {
			a, err := newApp(g, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			if err := a.loadRecords(ctx); err != nil {
				return err
			}

			result := a.dispatcher.Call(ctx, pos[0], json.RawMessage(args), uuid.NewString())
			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))

			if !result.OK && result.Code() != tools.CodeNoPath {
				return fmt.Errorf("%w: %s", ErrToolFailed, result.Code())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&args, "args", "{}", "Tool arguments as a JSON object")
	return cmd
}

// =============================================================================
// stats
// =============================================================================

func newStatsCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Load the records and print graph statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := g.printer(cmd)
			if err != nil {
				return err
			}
			a, err := newApp(g, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			if err := a.loadRecords(ctx); err != nil {
				return err
			}

			stats := a.svc.GetStatistics(ctx)
			debug := a.svc.DebugStats()

			p.Title(stats.ServerName + " " + stats.ServerVersion)
			pairs := []ux.KV{
				{Key: "records", Value: stats.RecordsPath},
				{Key: "concepts", Value: stats.TotalConcepts},
				{Key: "relations", Value: stats.TotalRelations},
				{Key: "density", Value: fmt.Sprintf("%.4f", debug.Graph.Density)},
				{Key: "connected", Value: debug.Graph.WeaklyConnected},
				{Key: "collisions", Value: stats.Collisions},
			}
			types := make([]string, 0, len(debug.Graph.EdgesByType))
			for t := range debug.Graph.EdgesByType {
				types = append(types, t)
			}
			sort.Strings(types)
			for _, t := range types {
				pairs = append(pairs, ux.KV{Key: "edges." + t, Value: debug.Graph.EdgesByType[t]})
			}
			p.KeyValues(pairs)

			if stats.Collisions > 0 {
				p.Warning(fmt.Sprintf("%d label collisions; later records shadow earlier ones", stats.Collisions))
			}
			return nil
		},
	}
}

// =============================================================================
// tools
// =============================================================================

func newToolsCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the available tools and their parameters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := g.printer(cmd)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}

			defs := tools.NewRegistry(*cfg).GetTools()
			rows := make([][]string, 0, len(defs))
			for _, def := range defs {
				rows = append(rows, []string{def.Name, formatParams(def.Parameters), def.Description})
			}
			p.Table([]string{"Tool", "Parameters", "Description"}, rows)
			return nil
		},
	}
}

// formatParams renders "name*" for required parameters and "name=default"
// for optional ones with a default.
func formatParams(params []tools.ToolParam) string {
	parts := make([]string, 0, len(params))
	for _, param := range params {
		switch {
		case param.Required:
			parts = append(parts, param.Name+"*")
		case param.Default != "":
			parts = append(parts, param.Name+"="+param.Default)
		default:
			parts = append(parts, param.Name)
		}
	}
	return strings.Join(parts, " ")
}

// =============================================================================
// audit
// =============================================================================

func newAuditCmd(g *globalOptions) *cobra.Command {
	var (
		limit int
		types []string
		since time.Duration
	)
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "List recent audit events from the badger store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := g.printer(cmd)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			if cfg.Audit.BadgerDir == "" {
				return fmt.Errorf("%w: set audit.badger_dir or ONTOLOGY_AUDIT_BADGER_DIR", ErrAuditStoreDisabled)
			}

			sink, err := audit.OpenBadgerSink(badgerConfig(cfg.Audit.BadgerDir, nil))
			if err != nil {
				return err
			}
			defer sink.Close()

			filter := audit.Filter{Limit: limit}
			for _, t := range types {
				filter.Types = append(filter.Types, audit.EventType(t))
			}
			if since > 0 {
				filter.Since = time.Now().Add(-since)
			}
			events, err := sink.Query(cmd.Context(), filter)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(events))
			for _, e := range events {
				rows = append(rows, []string{
					e.Timestamp.Format(time.RFC3339),
					string(e.Type),
					e.RequestID,
					eventSummary(e),
				})
			}
			p.Table([]string{"Time", "Type", "Request", "Summary"}, rows)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of events")
	cmd.Flags().StringSliceVar(&types, "type", nil, "Only these event types (tool_call, rate_limit_exceeded, security_event, reload)")
	cmd.Flags().DurationVar(&since, "since", 0, "Only events newer than this duration")
	return cmd
}

func eventSummary(e audit.Event) string {
	switch e.Type {
	case audit.EventToolCall:
		return fmt.Sprintf("%v success=%v", e.Details["tool_name"], e.Details["success"])
	case audit.EventRateLimitExceeded:
		return fmt.Sprintf("%v", e.Details["tool_name"])
	case audit.EventSecurity:
		return fmt.Sprintf("%v severity=%v", e.Details["kind"], e.Details["severity"])
	case audit.EventReload:
		return fmt.Sprintf("%v concepts=%v", e.Details["records_path"], e.Details["concepts"])
	default:
		return ""
	}
}

// =============================================================================
// version
// =============================================================================

func newVersionCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the server name and version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", cfg.Server.Name, cfg.Server.Version)
			return nil
		},
	}
}
