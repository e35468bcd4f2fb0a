//go:build ignore

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// generate_tool_docs generates a markdown reference for the ontology tools.
//
// Usage:
//
//	go run scripts/generate_tool_docs.go > docs/tool_reference.md
//	go run scripts/generate_tool_docs.go -config ontology.yaml > docs/tool_reference.md
//
// Defaults shown in the tables come from the loaded configuration.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/AleutianAI/AleutianOntology/services/ontology/config"
	"github.com/AleutianAI/AleutianOntology/services/ontology/tools"
)

func main() {
	configPath := flag.String("config", "", "Optional YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	generateMarkdown(cfg, tools.NewRegistry(*cfg).GetTools())
}

// generateMarkdown outputs the full markdown documentation.
func generateMarkdown(cfg *config.Config, defs []tools.ToolDefinition) {
	fmt.Println("# Tool Reference")
	fmt.Println()
	fmt.Printf("Tools exposed by %s %s. Call them with\n", cfg.Server.Name, cfg.Server.Version)
	fmt.Println("`POST /v1/ontology/tools/<name>` and a JSON arguments body, or with")
	fmt.Println("`ontology query <name> --args '<json>'`.")
	fmt.Println()

	fmt.Println("## Limits")
	fmt.Println()
	fmt.Println("| Limit | Value |")
	fmt.Println("|-------|-------|")
	fmt.Printf("| Max context depth | %d |\n", cfg.Security.MaxContextDepth)
	fmt.Printf("| Max results per query | %d |\n", cfg.Security.MaxResultsPerQuery)
	fmt.Printf("| Max query length | %d |\n", cfg.Security.MaxQueryLength)
	fmt.Printf("| Max content length | %d |\n", cfg.Security.MaxContentLength)
	if cfg.Security.RateLimitEnabled {
		fmt.Printf("| Rate limit | %d/min, burst %d |\n", cfg.Security.RateLimitPerMinute, cfg.Security.RateLimitBurst)
	}
	fmt.Println()

	fmt.Println("## Quick Reference")
	fmt.Println()
	fmt.Println("| Tool | Required | Optional |")
	fmt.Println("|------|----------|----------|")
	for _, def := range defs {
		var required, optional []string
		for _, p := range def.Parameters {
			if p.Required {
				required = append(required, "`"+p.Name+"`")
			} else {
				optional = append(optional, "`"+p.Name+"`")
			}
		}
		fmt.Printf("| `%s` | %s | %s |\n", def.Name, strings.Join(required, ", "), strings.Join(optional, ", "))
	}
	fmt.Println()

	for _, def := range defs {
		printToolDetails(def)
	}

	fmt.Println("---")
	fmt.Println()
	fmt.Println("*To regenerate: `go run scripts/generate_tool_docs.go > docs/tool_reference.md`*")
}

// printToolDetails prints detailed information for a single tool.
func printToolDetails(def tools.ToolDefinition) {
	fmt.Printf("### `%s`\n", def.Name)
	fmt.Println()
	fmt.Println(def.Description)
	fmt.Println()

	if len(def.Parameters) > 0 {
		fmt.Println("| Parameter | Type | Required | Default | Description |")
		fmt.Println("|-----------|------|----------|---------|-------------|")
		for _, p := range def.Parameters {
			desc := p.Description
			if len(p.Enum) > 0 {
				desc += " One of: " + strings.Join(p.Enum, ", ") + "."
			}
			required := "No"
			if p.Required {
				required = "Yes"
			}
			fmt.Printf("| `%s` | %s | %s | %s | %s |\n", p.Name, p.Type, required, p.Default, desc)
		}
		fmt.Println()
	}

	if def.Returns != "" {
		fmt.Printf("**Returns:** %s\n", def.Returns)
		fmt.Println()
	}
}
