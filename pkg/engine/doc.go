// Package engine provides the mock service launcher: per-service HTTP
// servers, request matching, environment-aware response rendering, and
// backend passthrough.
//
// # Architecture
//
// One Launcher manages any number of running services:
//
//	┌────────────────────────────────────────────────────────────┐
//	│                   MOCKDECK ARCHITECTURE                     │
//	├────────────────────────────────────────────────────────────┤
//	│                                                             │
//	│  ┌─────────────────────────────────────────────────────┐   │
//	│  │                Admin Server (:4590)                  │   │
//	│  │    CRUD for environments, projects, and services     │   │
//	│  └─────────────────────────────────────────────────────┘   │
//	│                           │                                 │
//	│                           │ registry.Launcher               │
//	│                           ▼                                 │
//	│  ┌─────────────────────────────────────────────────────┐   │
//	│  │                     Launcher                         │   │
//	│  │                                                      │   │
//	│  │  ┌────────────────┐ ┌────────────────┐               │   │
//	│  │  │ ServiceServer  │ │ ServiceServer  │  ...          │   │
//	│  │  │ (:8600)        │ │ (:8601)        │               │   │
//	│  │  │                │ │                │               │   │
//	│  │  │ match rules,   │ │ match rules,   │               │   │
//	│  │  │ else forward   │ │ else forward   │               │   │
//	│  │  └────────────────┘ └────────────────┘               │   │
//	│  └─────────────────────────────────────────────────────┘   │
//	└────────────────────────────────────────────────────────────┘
//
// Starting a service resolves its effective config (port, prefix, real
// backend) against the active environment, so the same service definition
// serves different setups as environments switch. Response bodies and
// headers pass through the environment resolver for {{variable}}
// substitution at render time.
//
// The engine package provides:
//   - Launcher: starts and stops services, implements registry.Launcher
//   - ServiceServer: one running service with its own HTTP listener
//   - Handler: matches requests against rules and renders responses
//   - RequestLogger: shared request history for debugging and inspection
//   - WorkspaceLoader: seeds stores from a mockdeck.yaml workspace file
//
// # Basic Usage
//
//	rules := storage.NewInMemoryRuleStore()
//	resolver := env.NewResolver(envStore)
//
//	launcher := engine.NewLauncher(rules, resolver,
//	    engine.WithLogger(log),
//	)
//	defer launcher.StopAll()
//
//	err := launcher.StartService(ctx, svc)
package engine
