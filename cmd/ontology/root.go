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
	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianOntology/pkg/ux"
)

// globalOptions holds the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath  string
	recordsPath string
	logLevel    string
	output      string
}

func (g *globalOptions) printer(cmd *cobra.Command) (*ux.Printer, error) {
	mode, err := ux.ParseMode(g.output)
	if err != nil {
		return nil, err
	}
	return ux.NewPrinter(cmd.OutOrStdout(), mode), nil
}

func newRootCmd() *cobra.Command {
	g := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "ontology",
		Short: "Serve and query a concept knowledge graph",
		Long: `ontology builds a typed relation graph from concept records and answers
lookup, search, context expansion and shortest path queries over it.`,
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&g.configPath, "config", "", "Path to a YAML config file")
	flags.StringVar(&g.recordsPath, "records", "", "Concept records file or directory (overrides config)")
	flags.StringVar(&g.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	flags.StringVarP(&g.output, "output", "o", "auto", "Output mode: auto, styled or plain")

	rootCmd.AddCommand(
		newServeCmd(g),
		newQueryCmd(g),
		newStatsCmd(g),
		newToolsCmd(g),
		newAuditCmd(g),
		newVersionCmd(g),
	)
	return rootCmd
}
