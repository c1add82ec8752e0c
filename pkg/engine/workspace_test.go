package engine

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mockdeck/mockdeck/internal/storage"
	"github.com/mockdeck/mockdeck/pkg/config"
	"github.com/mockdeck/mockdeck/pkg/env"
	"github.com/mockdeck/mockdeck/pkg/mock"
	"github.com/mockdeck/mockdeck/pkg/registry"
	"github.com/mockdeck/mockdeck/pkg/store/memory"
)

func newTestWorkspaceLoader(t *testing.T) (*WorkspaceLoader, *registry.Store, *env.Store, storage.RuleStore) {
	t.Helper()
	ctx := context.Background()

	reg := registry.NewStore(memory.New().Blobs())
	require.NoError(t, reg.Load(ctx))

	envs := env.NewStore(memory.New().Blobs())
	require.NoError(t, envs.Load(ctx))

	rules := storage.NewInMemoryRuleStore()
	return NewWorkspaceLoader(reg, envs, rules), reg, envs, rules
}

func pingWorkspace() *config.WorkspaceFile {
	port := 18999
	return &config.WorkspaceFile{
		Version: "1.0",
		Environments: []*env.Environment{
			{
				Name: "Development",
				Variables: []env.Variable{
					{Key: "apiKey", Value: "dev-key"},
				},
				Overrides: []env.Override{
					{
						Scope:         env.ScopeService,
						TargetID:      "users",
						ServiceConfig: &env.ServiceConfig{Port: &port},
					},
				},
			},
		},
		Projects: []config.ProjectEntry{
			{
				Name: "shop",
				Services: []config.ServiceEntry{
					{
						Name:      "users",
						Port:      8081,
						Prefix:    "/api",
						AutoStart: true,
						Rules: []config.RuleEntry{
							{
								ID:       "rule-ping",
								Matcher:  &mock.Matcher{Method: "GET", Path: "/ping"},
								Response: &mock.Response{StatusCode: 200, Body: "pong"},
							},
						},
					},
					{
						Name: "orders",
						Port: 8082,
					},
				},
			},
		},
	}
}

func TestWorkspaceLoader_Apply(t *testing.T) {
	wl, reg, envs, rules := newTestWorkspaceLoader(t)
	ctx := context.Background()

	autoStart, err := wl.Apply(ctx, pingWorkspace(), "")
	require.NoError(t, err)

	// Project and services exist
	projects := reg.ListProjects(ctx)
	require.Len(t, projects, 1)
	assert.Equal(t, "shop", projects[0].Name)

	services := reg.ListServicesByProject(ctx, projects[0].ID)
	require.Len(t, services, 2)

	var users *registry.Service
	for _, svc := range services {
		if svc.Name == "users" {
			users = svc
		}
	}
	require.NotNil(t, users)
	assert.Equal(t, 8081, users.Port)
	assert.Equal(t, "/api", users.Prefix)

	// Rules are scoped to the service
	assert.Equal(t, 1, rules.Count())
	rule := rules.Get("rule-ping")
	require.NotNil(t, rule)
	assert.Equal(t, users.ID, rule.ServiceID)

	// Only the autoStart service comes back
	require.Len(t, autoStart, 1)
	assert.Equal(t, "users", autoStart[0].Name)

	// Seed environment exists, with the override target rewritten from
	// the service name to its id
	list := envs.List(ctx)
	require.Len(t, list, 1)
	assert.Equal(t, "Development", list[0].Name)
	require.Len(t, list[0].Overrides, 1)
	assert.Equal(t, users.ID, list[0].Overrides[0].TargetID)
	assert.Equal(t, "users", list[0].Overrides[0].TargetName)
}

func TestWorkspaceLoader_ApplyTwice(t *testing.T) {
	wl, reg, envs, _ := newTestWorkspaceLoader(t)
	ctx := context.Background()

	_, err := wl.Apply(ctx, pingWorkspace(), "")
	require.NoError(t, err)

	// Second apply with a changed port updates in place
	ws := pingWorkspace()
	ws.Projects[0].Services[0].Port = 9090
	_, err = wl.Apply(ctx, ws, "")
	require.NoError(t, err)

	projects := reg.ListProjects(ctx)
	require.Len(t, projects, 1)

	services := reg.ListServicesByProject(ctx, projects[0].ID)
	require.Len(t, services, 2)
	for _, svc := range services {
		if svc.Name == "users" {
			assert.Equal(t, 9090, svc.Port)
		}
	}

	assert.Len(t, envs.List(ctx), 1)
}

func TestWorkspaceLoader_SeedKeepsUserEdits(t *testing.T) {
	wl, _, envs, _ := newTestWorkspaceLoader(t)
	ctx := context.Background()

	// The user already has an environment with the seed's name
	_, err := envs.Save(ctx, &env.Environment{
		Name:      "Development",
		Variables: []env.Variable{{Key: "apiKey", Value: "user-edited"}},
	})
	require.NoError(t, err)

	_, err = wl.Apply(ctx, pingWorkspace(), "")
	require.NoError(t, err)

	list := envs.List(ctx)
	require.Len(t, list, 1)
	require.Len(t, list[0].Variables, 1)
	assert.Equal(t, "user-edited", list[0].Variables[0].Value)
}

func TestWorkspaceLoader_ReplacesRules(t *testing.T) {
	wl, _, _, rules := newTestWorkspaceLoader(t)
	ctx := context.Background()

	_, err := wl.Apply(ctx, pingWorkspace(), "")
	require.NoError(t, err)
	require.NotNil(t, rules.Get("rule-ping"))

	ws := pingWorkspace()
	ws.Projects[0].Services[0].Rules = []config.RuleEntry{
		{
			ID:       "rule-pong",
			Matcher:  &mock.Matcher{Method: "GET", Path: "/pong"},
			Response: &mock.Response{StatusCode: 200, Body: "ping"},
		},
	}
	_, err = wl.Apply(ctx, ws, "")
	require.NoError(t, err)

	assert.Nil(t, rules.Get("rule-ping"))
	assert.NotNil(t, rules.Get("rule-pong"))
}

func TestWorkspaceLoader_RuleFileError(t *testing.T) {
	wl, _, _, _ := newTestWorkspaceLoader(t)

	ws := pingWorkspace()
	ws.Projects[0].Services[0].Rules = []config.RuleEntry{
		{File: "missing.yaml"},
	}

	_, err := wl.Apply(context.Background(), ws, t.TempDir())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "shop"))
	assert.True(t, strings.Contains(err.Error(), "users"))
}

func TestWorkspaceLoader_NilWorkspace(t *testing.T) {
	wl, _, _, _ := newTestWorkspaceLoader(t)

	autoStart, err := wl.Apply(context.Background(), nil, "")
	require.NoError(t, err)
	assert.Nil(t, autoStart)
}
