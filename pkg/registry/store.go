package registry

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/mockdeck/mockdeck/internal/id"
	"github.com/mockdeck/mockdeck/pkg/logging"
	"github.com/mockdeck/mockdeck/pkg/store"
)

// Store keeps projects and services in memory and persists them as a
// single registry blob. Like the environment store, mutations return
// before bytes hit disk; the blob layer owns durability.
type Store struct {
	mu       sync.RWMutex
	blobs    store.Blobs
	log      *slog.Logger
	projects []*Project
	services []*Service
}

// registryDoc is the persisted shape of the registry blob.
type registryDoc struct {
	Projects []*Project `json:"projects,omitempty"`
	Services []*Service `json:"services,omitempty"`
}

// NewStore creates a registry store backed by blobs.
func NewStore(blobs store.Blobs) *Store {
	return &Store{
		blobs: blobs,
		log:   logging.Nop(),
	}
}

// SetLogger replaces the store's logger.
func (s *Store) SetLogger(log *slog.Logger) {
	if log != nil {
		s.log = log
	}
}

// Load reads the registry blob. A missing blob starts empty; a corrupt
// one is logged and replaced by the empty state.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.projects = nil
	s.services = nil

	data, err := s.blobs.Get(ctx, store.BlobRegistry)
	if err != nil {
		return nil
	}

	var doc registryDoc
	if jsonErr := json.Unmarshal(data, &doc); jsonErr != nil {
		s.log.Warn("registry blob corrupt, starting empty", "error", jsonErr)
		return nil
	}
	s.projects = doc.Projects
	s.services = doc.Services
	return nil
}

// ============================================================================
// Projects
// ============================================================================

// ListProjects returns all projects in storage order.
func (s *Store) ListProjects(ctx context.Context) []*Project {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Project, len(s.projects))
	copy(result, s.projects)
	return result
}

// GetProject returns the project with the given id, or store.ErrNotFound.
func (s *Store) GetProject(ctx context.Context, projectID string) (*Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.projects {
		if p.ID == projectID {
			return p, nil
		}
	}
	return nil, store.ErrNotFound
}

// CreateProject adds a new project, assigning an id when missing.
func (s *Store) CreateProject(ctx context.Context, p *Project) error {
	if err := p.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = "prj_" + id.Short()
	}
	for _, existing := range s.projects {
		if existing.ID == p.ID {
			return store.ErrAlreadyExists
		}
	}

	now := time.Now().UnixMilli()
	if p.CreatedAt == 0 {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	s.projects = append(s.projects, p)
	s.persistLocked(ctx)
	return nil
}

// UpdateProject replaces an existing project.
func (s *Store) UpdateProject(ctx context.Context, p *Project) error {
	if err := p.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.projects {
		if existing.ID == p.ID {
			p.CreatedAt = existing.CreatedAt
			p.UpdatedAt = time.Now().UnixMilli()
			s.projects[i] = p
			s.persistLocked(ctx)
			return nil
		}
	}
	return store.ErrNotFound
}

// DeleteProject removes a project. Services keep their projectId and
// environment overrides keep their target; both simply stop matching.
func (s *Store) DeleteProject(ctx context.Context, projectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, p := range s.projects {
		if p.ID == projectID {
			s.projects = append(s.projects[:i], s.projects[i+1:]...)
			s.persistLocked(ctx)
			return nil
		}
	}
	return store.ErrNotFound
}

// ============================================================================
// Services
// ============================================================================

// ListServices returns all services in storage order.
func (s *Store) ListServices(ctx context.Context) []*Service {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Service, len(s.services))
	copy(result, s.services)
	return result
}

// ListServicesByProject returns the services grouped under a project.
func (s *Store) ListServicesByProject(ctx context.Context, projectID string) []*Service {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*Service
	for _, svc := range s.services {
		if svc.ProjectID == projectID {
			result = append(result, svc)
		}
	}
	return result
}

// GetService returns the service with the given id, or store.ErrNotFound.
func (s *Store) GetService(ctx context.Context, serviceID string) (*Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, svc := range s.services {
		if svc.ID == serviceID {
			return svc, nil
		}
	}
	return nil, store.ErrNotFound
}

// CreateService adds a new service, assigning an id when missing.
func (s *Store) CreateService(ctx context.Context, svc *Service) error {
	if err := svc.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if svc.ID == "" {
		svc.ID = "svc_" + id.Short()
	}
	for _, existing := range s.services {
		if existing.ID == svc.ID {
			return store.ErrAlreadyExists
		}
	}

	now := time.Now().UnixMilli()
	if svc.CreatedAt == 0 {
		svc.CreatedAt = now
	}
	svc.UpdatedAt = now
	s.services = append(s.services, svc)
	s.persistLocked(ctx)
	return nil
}

// UpdateService replaces an existing service.
func (s *Store) UpdateService(ctx context.Context, svc *Service) error {
	if err := svc.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.services {
		if existing.ID == svc.ID {
			svc.CreatedAt = existing.CreatedAt
			svc.UpdatedAt = time.Now().UnixMilli()
			s.services[i] = svc
			s.persistLocked(ctx)
			return nil
		}
	}
	return store.ErrNotFound
}

// DeleteService removes a service. Environment overrides targeting it
// are left alone; they become dangling references that no longer match.
func (s *Store) DeleteService(ctx context.Context, serviceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, svc := range s.services {
		if svc.ID == serviceID {
			s.services = append(s.services[:i], s.services[i+1:]...)
			s.persistLocked(ctx)
			return nil
		}
	}
	return store.ErrNotFound
}

// persistLocked hands the registry document to the blob store.
// Must be called with s.mu held.
func (s *Store) persistLocked(ctx context.Context) {
	doc := registryDoc{Projects: s.projects, Services: s.services}
	data, err := json.Marshal(doc)
	if err != nil {
		s.log.Error("failed to encode registry", "error", err)
		return
	}
	if err := s.blobs.Set(ctx, store.BlobRegistry, data); err != nil {
		s.log.Warn("failed to persist registry", "error", err)
	}
}
