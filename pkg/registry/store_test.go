package registry

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mockdeck/mockdeck/pkg/store"
	"github.com/mockdeck/mockdeck/pkg/store/memory"
)

func newTestStore(t *testing.T) (*Store, store.Blobs) {
	t.Helper()
	blobs := memory.New().Blobs()
	s := NewStore(blobs)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	return s, blobs
}

// ============================================================================
// Projects
// ============================================================================

func TestStore_CreateProject_AssignsPrefixedID(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	p := &Project{Name: "Payments"}
	if err := s.CreateProject(ctx, p); err != nil {
		t.Fatalf("CreateProject() failed: %v", err)
	}
	if !strings.HasPrefix(p.ID, "prj_") {
		t.Errorf("project id = %q, want prj_ prefix", p.ID)
	}
	if p.CreatedAt == 0 || p.UpdatedAt == 0 {
		t.Error("CreateProject() did not set timestamps")
	}
}

func TestStore_CreateProject_DuplicateID(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	if err := s.CreateProject(ctx, &Project{ID: "prj_x", Name: "One"}); err != nil {
		t.Fatalf("CreateProject() failed: %v", err)
	}
	err := s.CreateProject(ctx, &Project{ID: "prj_x", Name: "Two"})
	if !errors.Is(err, store.ErrAlreadyExists) {
		t.Errorf("duplicate CreateProject() error = %v, want ErrAlreadyExists", err)
	}
}

func TestStore_CreateProject_RequiresName(t *testing.T) {
	s, _ := newTestStore(t)
	var verr *ValidationError
	err := s.CreateProject(context.Background(), &Project{})
	if !errors.As(err, &verr) {
		t.Errorf("CreateProject() error = %v, want ValidationError", err)
	}
}

func TestStore_UpdateProject_PreservesCreatedAt(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	p := &Project{Name: "Payments"}
	_ = s.CreateProject(ctx, p)
	created := p.CreatedAt

	if err := s.UpdateProject(ctx, &Project{ID: p.ID, Name: "Renamed", CreatedAt: 1}); err != nil {
		t.Fatalf("UpdateProject() failed: %v", err)
	}

	got, err := s.GetProject(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetProject() failed: %v", err)
	}
	if got.Name != "Renamed" {
		t.Errorf("name = %q, want Renamed", got.Name)
	}
	if got.CreatedAt != created {
		t.Errorf("createdAt changed on update: %d -> %d", created, got.CreatedAt)
	}
}

func TestStore_DeleteProject_LeavesServices(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	p := &Project{Name: "Payments"}
	_ = s.CreateProject(ctx, p)
	svc := &Service{Name: "orders-api", ProjectID: p.ID}
	_ = s.CreateService(ctx, svc)

	if err := s.DeleteProject(ctx, p.ID); err != nil {
		t.Fatalf("DeleteProject() failed: %v", err)
	}

	// The service survives with its now-dangling projectId.
	got, err := s.GetService(ctx, svc.ID)
	if err != nil {
		t.Fatalf("GetService() failed: %v", err)
	}
	if got.ProjectID != p.ID {
		t.Errorf("service projectId = %q, want %q kept as weak reference", got.ProjectID, p.ID)
	}
}

func TestStore_DeleteProject_NotFound(t *testing.T) {
	s, _ := newTestStore(t)
	if err := s.DeleteProject(context.Background(), "prj_missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("DeleteProject(missing) = %v, want ErrNotFound", err)
	}
}

// ============================================================================
// Services
// ============================================================================

func TestStore_CreateService_AssignsPrefixedID(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	svc := &Service{Name: "orders-api", Port: 4000}
	if err := s.CreateService(ctx, svc); err != nil {
		t.Fatalf("CreateService() failed: %v", err)
	}
	if !strings.HasPrefix(svc.ID, "svc_") {
		t.Errorf("service id = %q, want svc_ prefix", svc.ID)
	}
}

func TestStore_CreateService_InvalidPort(t *testing.T) {
	s, _ := newTestStore(t)
	err := s.CreateService(context.Background(), &Service{Name: "bad", Port: 70000})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("CreateService() error = %v, want ValidationError", err)
	}
}

func TestStore_ListServicesByProject(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	_ = s.CreateService(ctx, &Service{Name: "a", ProjectID: "prj_1"})
	_ = s.CreateService(ctx, &Service{Name: "b", ProjectID: "prj_2"})
	_ = s.CreateService(ctx, &Service{Name: "c", ProjectID: "prj_1"})

	got := s.ListServicesByProject(ctx, "prj_1")
	if len(got) != 2 {
		t.Fatalf("ListServicesByProject() = %d services, want 2", len(got))
	}
	if got[0].Name != "a" || got[1].Name != "c" {
		t.Errorf("ListServicesByProject() order = %s, %s; want a, c", got[0].Name, got[1].Name)
	}
}

// ============================================================================
// Persistence
// ============================================================================

func TestStore_Load_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, blobs := newTestStore(t)

	_ = s.CreateProject(ctx, &Project{ID: "prj_1", Name: "Payments"})
	_ = s.CreateService(ctx, &Service{
		ID: "svc_1", Name: "orders-api", ProjectID: "prj_1",
		Port: 4000, Prefix: "/orders", RuleFiles: []string{"rules/*.yaml"},
	})

	s2 := NewStore(blobs)
	if err := s2.Load(ctx); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	svc, err := s2.GetService(ctx, "svc_1")
	if err != nil {
		t.Fatalf("GetService() after reload failed: %v", err)
	}
	if svc.Port != 4000 || svc.Prefix != "/orders" || len(svc.RuleFiles) != 1 {
		t.Errorf("reloaded service lost fields: %+v", svc)
	}
	if len(s2.ListProjects(ctx)) != 1 {
		t.Errorf("reloaded projects = %d, want 1", len(s2.ListProjects(ctx)))
	}
}

func TestStore_Load_CorruptBlob_StartsEmpty(t *testing.T) {
	ctx := context.Background()
	blobs := memory.New().Blobs()
	_ = blobs.Set(ctx, store.BlobRegistry, []byte("not json at all"))

	s := NewStore(blobs)
	if err := s.Load(ctx); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if len(s.ListProjects(ctx)) != 0 || len(s.ListServices(ctx)) != 0 {
		t.Error("corrupt registry blob should load as empty")
	}
}
