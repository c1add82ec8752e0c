package env

import (
	"context"
	"testing"
)

// fixedSource returns a fixed environment as the active one.
type fixedSource struct {
	env *Environment
}

func (f *fixedSource) Active(ctx context.Context) *Environment { return f.env }

func newTestResolver(e *Environment) *Resolver {
	return NewResolver(&fixedSource{env: e})
}

// layeredEnv builds the environment used across the precedence tests:
// global port 3000 and token A, project-7 sets prefix "/api" and token B,
// service-42 sets port 4000.
func layeredEnv() *Environment {
	return &Environment{
		ID:   "env-dev",
		Name: "Dev",
		Variables: []Variable{
			{Key: "token", Value: "A"},
		},
		ServiceConfig: &ServiceConfig{Port: intPtr(3000)},
		Overrides: []Override{
			{
				Scope:         ScopeProject,
				TargetID:      "7",
				ServiceConfig: &ServiceConfig{Prefix: strPtr("/api")},
				Variables:     []Variable{{Key: "token", Value: "B"}},
			},
			{
				Scope:         ScopeService,
				TargetID:      "42",
				ServiceConfig: &ServiceConfig{Port: intPtr(4000)},
			},
		},
	}
}

// ============================================================================
// ResolveServiceConfig: Layer Precedence
// ============================================================================

func TestResolveServiceConfig_NoActive_Empty(t *testing.T) {
	r := newTestResolver(nil)
	got := r.ResolveServiceConfig(context.Background(), "42", "7")
	if !got.IsZero() {
		t.Errorf("ResolveServiceConfig() with no active env = %+v, want empty", got)
	}
}

func TestResolveServiceConfig_NoOverrides_EqualsGlobal(t *testing.T) {
	r := newTestResolver(&Environment{
		ID:   "e1",
		Name: "Dev",
		ServiceConfig: &ServiceConfig{
			Port:     intPtr(3000),
			RealHost: strPtr("api.example.com"),
		},
	})

	got := r.ResolveServiceConfig(context.Background(), "any-service", "any-project")

	if got.Port == nil || *got.Port != 3000 {
		t.Errorf("port = %v, want 3000", got.Port)
	}
	if got.RealHost == nil || *got.RealHost != "api.example.com" {
		t.Errorf("realHost = %v, want api.example.com", got.RealHost)
	}
	if got.Prefix != nil || got.RealPort != nil || got.RealPrefix != nil {
		t.Errorf("unset fields leaked values: %+v", got)
	}
}

func TestResolveServiceConfig_LayerPrecedence(t *testing.T) {
	// Dev has port 3000 globally, project 7 adds prefix /api, and
	// service 42 sets port 4000.
	r := newTestResolver(layeredEnv())
	ctx := context.Background()

	tests := []struct {
		name       string
		serviceID  string
		projectID  string
		wantPort   *int
		wantPrefix *string
	}{
		{
			name:      "service override wins for its field, project fills the rest",
			serviceID: "42", projectID: "7",
			wantPort: intPtr(4000), wantPrefix: strPtr("/api"),
		},
		{
			name:      "no service override falls back to global port",
			serviceID: "99", projectID: "7",
			wantPort: intPtr(3000), wantPrefix: strPtr("/api"),
		},
		{
			name:      "no project given skips the project layer",
			serviceID: "42", projectID: "",
			wantPort: intPtr(4000), wantPrefix: nil,
		},
		{
			name:      "unmatched project contributes nothing",
			serviceID: "99", projectID: "8",
			wantPort: intPtr(3000), wantPrefix: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.ResolveServiceConfig(ctx, tt.serviceID, tt.projectID)

			switch {
			case tt.wantPort == nil && got.Port != nil:
				t.Errorf("port = %d, want unset", *got.Port)
			case tt.wantPort != nil && (got.Port == nil || *got.Port != *tt.wantPort):
				t.Errorf("port = %v, want %d", got.Port, *tt.wantPort)
			}

			switch {
			case tt.wantPrefix == nil && got.Prefix != nil:
				t.Errorf("prefix = %q, want unset", *got.Prefix)
			case tt.wantPrefix != nil && (got.Prefix == nil || *got.Prefix != *tt.wantPrefix):
				t.Errorf("prefix = %v, want %q", got.Prefix, *tt.wantPrefix)
			}
		})
	}
}

func TestResolveServiceConfig_OrphanOverride_Skipped(t *testing.T) {
	// The override targets a service id that no longer exists anywhere;
	// asking for a different service must not pick it up.
	r := newTestResolver(&Environment{
		ID:            "e1",
		Name:          "Dev",
		ServiceConfig: &ServiceConfig{Port: intPtr(3000)},
		Overrides: []Override{
			{Scope: ScopeService, TargetID: "deleted-service", ServiceConfig: &ServiceConfig{Port: intPtr(9999)}},
		},
	})

	got := r.ResolveServiceConfig(context.Background(), "42", "")
	if got.Port == nil || *got.Port != 3000 {
		t.Errorf("port = %v, want 3000 (orphan override must not apply)", got.Port)
	}
}

func TestResolveServiceConfig_DuplicateOverride_FirstWins(t *testing.T) {
	r := newTestResolver(&Environment{
		ID:   "e1",
		Name: "Dev",
		Overrides: []Override{
			{Scope: ScopeService, TargetID: "42", ServiceConfig: &ServiceConfig{Port: intPtr(4000)}},
			{Scope: ScopeService, TargetID: "42", ServiceConfig: &ServiceConfig{Port: intPtr(5000)}},
		},
	})

	got := r.ResolveServiceConfig(context.Background(), "42", "")
	if got.Port == nil || *got.Port != 4000 {
		t.Errorf("port = %v, want 4000 (first matching override wins)", got.Port)
	}
}

func TestResolveServiceConfig_ZeroValueIsSet(t *testing.T) {
	// An explicitly set empty prefix at the service layer must override
	// the project's non-empty prefix: set-to-zero is not unset.
	r := newTestResolver(&Environment{
		ID:   "e1",
		Name: "Dev",
		Overrides: []Override{
			{Scope: ScopeProject, TargetID: "7", ServiceConfig: &ServiceConfig{Prefix: strPtr("/api")}},
			{Scope: ScopeService, TargetID: "42", ServiceConfig: &ServiceConfig{Prefix: strPtr("")}},
		},
	})

	got := r.ResolveServiceConfig(context.Background(), "42", "7")
	if got.Prefix == nil {
		t.Fatal("prefix = unset, want explicitly empty")
	}
	if *got.Prefix != "" {
		t.Errorf("prefix = %q, want empty string", *got.Prefix)
	}
}

func TestResolveServiceConfig_DoesNotAliasStoredData(t *testing.T) {
	e := layeredEnv()
	r := newTestResolver(e)

	got := r.ResolveServiceConfig(context.Background(), "42", "7")
	*got.Port = 12345
	*got.Prefix = "/mutated"

	if *e.Overrides[1].ServiceConfig.Port != 4000 {
		t.Error("mutating resolved config leaked into stored override port")
	}
	if *e.Overrides[0].ServiceConfig.Prefix != "/api" {
		t.Error("mutating resolved config leaked into stored override prefix")
	}
}

// ============================================================================
// ResolveVariables: Layering and Substitution
// ============================================================================

func TestResolveVariables_NoActive_Unchanged(t *testing.T) {
	r := newTestResolver(nil)
	in := "Bearer {{token}}"
	if got := r.ResolveVariables(context.Background(), in, "1", "7"); got != in {
		t.Errorf("ResolveVariables() = %q, want unchanged %q", got, in)
	}
}

func TestResolveVariables_LayerPrecedence(t *testing.T) {
	// token is A globally and B in project 7.
	r := newTestResolver(layeredEnv())
	ctx := context.Background()

	if got := r.ResolveVariables(ctx, "{{token}}", "1", "7"); got != "B" {
		t.Errorf("project layer value = %q, want B", got)
	}
	if got := r.ResolveVariables(ctx, "{{token}}", "1", "99"); got != "A" {
		t.Errorf("global fallback value = %q, want A", got)
	}
	if got := r.ResolveVariables(ctx, "{{token}}", "1", ""); got != "A" {
		t.Errorf("no project given = %q, want A", got)
	}
}

func TestResolveVariables_DisabledDoesNotMask(t *testing.T) {
	// The project layer disables its token; the global value must show
	// through instead of the disabled one masking it.
	r := newTestResolver(&Environment{
		ID:        "e1",
		Name:      "Dev",
		Variables: []Variable{{Key: "token", Value: "global"}},
		Overrides: []Override{
			{
				Scope:     ScopeProject,
				TargetID:  "7",
				Variables: []Variable{{Key: "token", Value: "project", Enabled: boolPtr(false)}},
			},
		},
	})

	if got := r.ResolveVariables(context.Background(), "{{token}}", "1", "7"); got != "global" {
		t.Errorf("disabled project variable masked global: got %q, want global", got)
	}
}

func TestResolveVariables_DisabledEverywhere_Verbatim(t *testing.T) {
	r := newTestResolver(&Environment{
		ID:        "e1",
		Name:      "Dev",
		Variables: []Variable{{Key: "token", Value: "global", Enabled: boolPtr(false)}},
	})

	if got := r.ResolveVariables(context.Background(), "{{token}}", "1", "7"); got != "{{token}}" {
		t.Errorf("fully disabled variable should leave token verbatim, got %q", got)
	}
}

func TestResolveVariables_Substitution(t *testing.T) {
	r := newTestResolver(&Environment{
		ID:   "e1",
		Name: "Dev",
		Variables: []Variable{
			{Key: "host", Value: "api.dev.local"},
			{Key: "token", Value: "s3cret"},
			{Key: "loop", Value: "{{loop}}"},
			{Key: "nested", Value: "{{host}}"},
			{Key: "empty", Value: ""},
			{Key: "api_key_2", Value: "k2"},
		},
	})
	ctx := context.Background()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text untouched", "no tokens here", "no tokens here"},
		{"single token", "https://{{host}}/v1", "https://api.dev.local/v1"},
		{"multiple tokens", "{{host}}:{{token}}", "api.dev.local:s3cret"},
		{"unknown token verbatim", "{{missing}} and {{host}}", "{{missing}} and api.dev.local"},
		{"empty value still substitutes", "[{{empty}}]", "[]"},
		{"no recursion on self reference", "{{loop}}", "{{loop}}"},
		{"replacement not rescanned", "{{nested}}", "{{host}}"},
		{"spaces inside braces are not tokens", "{{ host }}", "{{ host }}"},
		{"dotted names are not tokens", "{{request.path}}", "{{request.path}}"},
		{"underscores and digits allowed", "{{api_key_2}}", "k2"},
		{"single braces untouched", "{host}", "{host}"},
		{"empty input", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.ResolveVariables(ctx, tt.in, "", ""); got != tt.want {
				t.Errorf("ResolveVariables(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestResolveVariables_ServiceLayerBeatsProject(t *testing.T) {
	r := newTestResolver(&Environment{
		ID:        "e1",
		Name:      "Dev",
		Variables: []Variable{{Key: "url", Value: "global"}},
		Overrides: []Override{
			{Scope: ScopeProject, TargetID: "7", Variables: []Variable{{Key: "url", Value: "project"}}},
			{Scope: ScopeService, TargetID: "42", Variables: []Variable{{Key: "url", Value: "service"}}},
		},
	})
	ctx := context.Background()

	if got := r.ResolveVariables(ctx, "{{url}}", "42", "7"); got != "service" {
		t.Errorf("service layer should win, got %q", got)
	}
	if got := r.ResolveVariables(ctx, "{{url}}", "41", "7"); got != "project" {
		t.Errorf("project layer should win without service override, got %q", got)
	}
	if got := r.ResolveVariables(ctx, "{{url}}", "41", ""); got != "global" {
		t.Errorf("global layer should win without any override, got %q", got)
	}
}
