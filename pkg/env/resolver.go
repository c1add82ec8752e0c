package env

import (
	"context"
	"regexp"
)

// tokenRegex matches {{name}} tokens where name is letters, digits, and
// underscores. Anything else between braces (spaces, dots, calls) is not
// a token and passes through untouched.
var tokenRegex = regexp.MustCompile(`\{\{([A-Za-z0-9_]+)\}\}`)

// ActiveSource supplies the environment resolution reads from. The
// environment store implements it; tests can substitute a fixed value.
type ActiveSource interface {
	Active(ctx context.Context) *Environment
}

// Resolver computes effective service configs and substitutes template
// variables by layering the active environment's global settings with
// its project and service overrides. Resolution is a pure read: it never
// mutates stored data and never fails. With no active environment it
// returns empty configs and leaves text unchanged.
type Resolver struct {
	source ActiveSource
}

// NewResolver creates a resolver reading from source.
func NewResolver(source ActiveSource) *Resolver {
	return &Resolver{source: source}
}

// ResolveServiceConfig returns the effective config for a service:
// the active environment's global config, overlaid by a project-scope
// override when projectID is given, overlaid by a service-scope
// override. Later layers win field by field; a layer that does not set
// a field leaves the value from below. Overrides whose target does not
// match contribute nothing, so a dangling target degrades silently.
func (r *Resolver) ResolveServiceConfig(ctx context.Context, serviceID, projectID string) ServiceConfig {
	var merged ServiceConfig

	active := r.source.Active(ctx)
	if active == nil {
		return merged
	}

	merged.Merge(active.ServiceConfig)
	if ov := active.findOverride(ScopeProject, projectID); ov != nil {
		merged.Merge(ov.ServiceConfig)
	}
	if ov := active.findOverride(ScopeService, serviceID); ov != nil {
		merged.Merge(ov.ServiceConfig)
	}
	return merged
}

// ResolveVariables substitutes {{name}} tokens in text using the active
// environment's enabled variables, layered in the same order as config
// resolution: global, then project override, then service override. A
// disabled variable contributes nothing at its layer and does not mask
// a value from a lower layer. Tokens without a binding stay verbatim,
// and replacement values are never re-scanned, so substitution cannot
// recurse.
func (r *Resolver) ResolveVariables(ctx context.Context, text, serviceID, projectID string) string {
	active := r.source.Active(ctx)
	if active == nil {
		return text
	}

	vars := make(map[string]string)
	layerVariables(vars, active.Variables)
	if ov := active.findOverride(ScopeProject, projectID); ov != nil {
		layerVariables(vars, ov.Variables)
	}
	if ov := active.findOverride(ScopeService, serviceID); ov != nil {
		layerVariables(vars, ov.Variables)
	}

	return tokenRegex.ReplaceAllStringFunc(text, func(match string) string {
		key := match[2 : len(match)-2]
		if value, ok := vars[key]; ok {
			return value
		}
		return match
	})
}

// layerVariables copies enabled variables into dst, overwriting earlier
// layers' values for the same key. Disabled variables are skipped
// entirely rather than recorded, which is what lets lower layers show
// through.
func layerVariables(dst map[string]string, vars []Variable) {
	for _, v := range vars {
		if v.Key == "" || !v.IsEnabled() {
			continue
		}
		dst[v.Key] = v.Value
	}
}
