// Package config provides the workspace configuration for mockdeck.
//
// A workspace is described by a mockdeck.yaml file that declares the admin
// listener, seed environments, and the projects/services the daemon should
// register on startup. Service rule sets reference rule files directly, via
// glob patterns (with ** support), or inline.
//
// Key types:
//
//   - WorkspaceFile: Root structure of mockdeck.yaml
//   - ProjectEntry / ServiceEntry: Declarative project and service definitions
//   - RuleEntry: An inline rule, a rule file reference, or a glob pattern
//
// Configuration values support environment variable expansion with
// ${VAR_NAME} and ${VAR_NAME:-default} syntax.
package config
