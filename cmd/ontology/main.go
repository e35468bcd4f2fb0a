// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command ontology serves and queries the concept knowledge graph.
//
// Usage:
//
//	ontology serve --records ./vault/concepts.yaml
//	ontology query get_concept --records ./vault --args '{"concept_id":"regression"}'
//	ontology stats --records ./vault
//	ontology tools
//	ontology audit --limit 20
//
// Example requests against a running server:
//
//	# Health check
//	curl http://127.0.0.1:8000/v1/ontology/health
//
//	# Discover tools
//	curl http://127.0.0.1:8000/v1/ontology/tools | jq
//
//	# Expand context around a concept
//	curl -X POST http://127.0.0.1:8000/v1/ontology/tools/expand_context \
//	  -H "Content-Type: application/json" \
//	  -d '{"concept_id": "regression", "max_depth": 2}'
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
