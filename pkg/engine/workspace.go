package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mockdeck/mockdeck/internal/storage"
	"github.com/mockdeck/mockdeck/pkg/config"
	"github.com/mockdeck/mockdeck/pkg/env"
	"github.com/mockdeck/mockdeck/pkg/logging"
	"github.com/mockdeck/mockdeck/pkg/registry"
)

// WorkspaceLoader applies a parsed workspace config to the running stores:
// projects and services sync into the registry, rule entries load into the
// rule store, and seed environments are created on first sight.
type WorkspaceLoader struct {
	registry *registry.Store
	envs     *env.Store
	rules    storage.RuleStore
	log      *slog.Logger
}

// NewWorkspaceLoader creates a loader over the given stores.
func NewWorkspaceLoader(reg *registry.Store, envs *env.Store, rules storage.RuleStore) *WorkspaceLoader {
	return &WorkspaceLoader{
		registry: reg,
		envs:     envs,
		rules:    rules,
		log:      logging.Nop(),
	}
}

// SetLogger sets the logger.
func (wl *WorkspaceLoader) SetLogger(log *slog.Logger) {
	if log != nil {
		wl.log = log
	}
}

// Apply syncs the workspace file into the stores. Projects and services
// are matched by name: missing ones are created, listen settings of
// existing ones are updated. Each service's rules replace its previous
// set. Returns the services marked autoStart so the caller can launch them.
func (wl *WorkspaceLoader) Apply(ctx context.Context, ws *config.WorkspaceFile, baseDir string) ([]*registry.Service, error) {
	if ws == nil {
		return nil, nil
	}

	var autoStart []*registry.Service

	projectIDs := make(map[string]string) // project name -> id
	serviceIDs := make(map[string]string) // service name -> id

	for pi := range ws.Projects {
		pe := &ws.Projects[pi]

		project, err := wl.syncProject(ctx, pe)
		if err != nil {
			return nil, fmt.Errorf("project %q: %w", pe.Name, err)
		}
		projectIDs[project.Name] = project.ID

		for si := range pe.Services {
			se := &pe.Services[si]

			svc, err := wl.syncService(ctx, project, se)
			if err != nil {
				return nil, fmt.Errorf("project %q service %q: %w", pe.Name, se.Name, err)
			}
			serviceIDs[svc.Name] = svc.ID

			if err := wl.loadRules(svc, se.Rules, baseDir); err != nil {
				return nil, fmt.Errorf("project %q service %q: %w", pe.Name, se.Name, err)
			}

			if se.AutoStart {
				autoStart = append(autoStart, svc)
			}
		}
	}

	wl.seedEnvironments(ctx, ws.Environments, projectIDs, serviceIDs)

	return autoStart, nil
}

// syncProject finds a project by name or creates it.
func (wl *WorkspaceLoader) syncProject(ctx context.Context, pe *config.ProjectEntry) (*registry.Project, error) {
	for _, existing := range wl.registry.ListProjects(ctx) {
		if existing.Name != pe.Name {
			continue
		}
		if pe.Description != "" && existing.Description != pe.Description {
			existing.Description = pe.Description
			if err := wl.registry.UpdateProject(ctx, existing); err != nil {
				return nil, err
			}
		}
		return existing, nil
	}

	project := &registry.Project{
		Name:        pe.Name,
		Description: pe.Description,
	}
	if err := wl.registry.CreateProject(ctx, project); err != nil {
		return nil, err
	}
	wl.log.Info("project created", "name", project.Name, "id", project.ID)
	return project, nil
}

// syncService finds a service by name within a project or creates it.
// Listen settings from the config file win over stored ones.
func (wl *WorkspaceLoader) syncService(ctx context.Context, project *registry.Project, se *config.ServiceEntry) (*registry.Service, error) {
	for _, existing := range wl.registry.ListServicesByProject(ctx, project.ID) {
		if existing.Name != se.Name {
			continue
		}
		if existing.Port != se.Port || existing.Prefix != se.Prefix || existing.AutoStart != se.AutoStart {
			existing.Port = se.Port
			existing.Prefix = se.Prefix
			existing.AutoStart = se.AutoStart
			if err := wl.registry.UpdateService(ctx, existing); err != nil {
				return nil, err
			}
		}
		return existing, nil
	}

	svc := &registry.Service{
		ProjectID: project.ID,
		Name:      se.Name,
		Port:      se.Port,
		Prefix:    se.Prefix,
		AutoStart: se.AutoStart,
	}
	if err := wl.registry.CreateService(ctx, svc); err != nil {
		return nil, err
	}
	wl.log.Info("service created", "name", svc.Name, "id", svc.ID, "project", project.Name)
	return svc, nil
}

// loadRules replaces the service's rule set with the entries from config.
func (wl *WorkspaceLoader) loadRules(svc *registry.Service, entries []config.RuleEntry, baseDir string) error {
	loaded, err := config.LoadAllRules(entries, baseDir)
	if err != nil {
		return err
	}

	scoped := storage.NewFilteredRuleStore(wl.rules, svc.ID)
	scoped.Clear()
	for _, rule := range loaded {
		if err := scoped.Set(rule); err != nil {
			return fmt.Errorf("rule %q: %w", rule.ID, err)
		}
	}
	wl.log.Debug("rules loaded", "service", svc.Name, "count", len(loaded))
	return nil
}

// seedEnvironments creates config-declared environments that do not exist
// yet. Matching is by name so user edits to a seeded environment survive
// restarts. Override targets written as project or service names are
// rewritten to registry ids. Seed failures are logged and skipped, they
// never block startup.
func (wl *WorkspaceLoader) seedEnvironments(ctx context.Context, envs []*env.Environment, projectIDs, serviceIDs map[string]string) {
	if wl.envs == nil || len(envs) == 0 {
		return
	}

	existing := make(map[string]bool)
	for _, e := range wl.envs.List(ctx) {
		existing[e.Name] = true
	}

	for _, seed := range envs {
		if seed == nil || existing[seed.Name] {
			continue
		}

		e := seed.Clone()
		for i := range e.Overrides {
			resolveOverrideTarget(&e.Overrides[i], projectIDs, serviceIDs)
		}
		if err := e.Validate(); err != nil {
			wl.log.Warn("skipping invalid seed environment", "name", seed.Name, "error", err)
			continue
		}
		if _, err := wl.envs.Save(ctx, e); err != nil {
			wl.log.Warn("failed to seed environment", "name", seed.Name, "error", err)
			continue
		}
		wl.log.Info("environment seeded", "name", seed.Name)
	}
}

// resolveOverrideTarget swaps a name-valued override target for the
// matching registry id. Targets that match nothing are left untouched;
// resolution treats them as inert.
func resolveOverrideTarget(o *env.Override, projectIDs, serviceIDs map[string]string) {
	var ids map[string]string
	switch o.Scope {
	case env.ScopeProject:
		ids = projectIDs
	case env.ScopeService:
		ids = serviceIDs
	default:
		return
	}
	if id, ok := ids[o.TargetID]; ok {
		if o.TargetName == "" {
			o.TargetName = o.TargetID
		}
		o.TargetID = id
	}
}
