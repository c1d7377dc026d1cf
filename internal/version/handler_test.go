package version

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mqttstack/acl-store/internal/repository"
)

// MockVersionRepository implements repository.DatabaseVersionRepository in memory
type MockVersionRepository struct {
	versions map[uuid.UUID]*repository.DatabaseVersion
	failWith error
}

func NewMockVersionRepository() *MockVersionRepository {
	return &MockVersionRepository{
		versions: make(map[uuid.UUID]*repository.DatabaseVersion),
	}
}

func (m *MockVersionRepository) GetDatabaseVersions(ctx context.Context) ([]repository.DatabaseVersion, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	result := make([]repository.DatabaseVersion, 0, len(m.versions))
	for _, v := range m.versions {
		if v.DeletedAt == nil {
			result = append(result, *v)
		}
	}
	return result, nil
}

func (m *MockVersionRepository) GetDatabaseVersionByID(ctx context.Context, id uuid.UUID) (*repository.DatabaseVersion, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	v, exists := m.versions[id]
	if !exists {
		return nil, nil
	}
	copied := *v
	return &copied, nil
}

func (m *MockVersionRepository) GetDatabaseVersionByName(ctx context.Context, name string) (*repository.DatabaseVersion, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	for _, v := range m.versions {
		if v.Name == name && v.DeletedAt == nil {
			copied := *v
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *MockVersionRepository) InsertDatabaseVersion(ctx context.Context, version *repository.DatabaseVersion) (bool, error) {
	if m.failWith != nil {
		return false, m.failWith
	}
	version.CreatedAt = time.Now().UTC()
	copied := *version
	m.versions[version.ID] = &copied
	return true, nil
}

func (m *MockVersionRepository) UpdateDatabaseVersion(ctx context.Context, version *repository.DatabaseVersion) (bool, error) {
	if m.failWith != nil {
		return false, m.failWith
	}
	existing, exists := m.versions[version.ID]
	if !exists || existing.DeletedAt != nil {
		return false, nil
	}
	now := time.Now().UTC()
	version.UpdatedAt = &now
	version.CreatedAt = existing.CreatedAt
	copied := *version
	m.versions[version.ID] = &copied
	return true, nil
}

func (m *MockVersionRepository) DeleteDatabaseVersion(ctx context.Context, id uuid.UUID) (bool, error) {
	if m.failWith != nil {
		return false, m.failWith
	}
	v, exists := m.versions[id]
	if !exists || v.DeletedAt != nil {
		return false, nil
	}
	now := time.Now().UTC()
	v.DeletedAt = &now
	return true, nil
}

func (m *MockVersionRepository) DeleteDatabaseVersionFromDatabase(ctx context.Context, id uuid.UUID) (bool, error) {
	if m.failWith != nil {
		return false, m.failWith
	}
	if _, exists := m.versions[id]; !exists {
		return false, nil
	}
	delete(m.versions, id)
	return true, nil
}

func (m *MockVersionRepository) Add(v *repository.DatabaseVersion) {
	copied := *v
	m.versions[v.ID] = &copied
}

func newTestRouter(repo repository.DatabaseVersionRepository) chi.Router {
	r := chi.NewRouter()
	RegisterRoutes(r, NewHandler(repo, nil))
	return r
}

func doRequest(t *testing.T, router chi.Router, method, path string, body interface{}) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var resp APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response %q: %v", rec.Body.String(), err)
	}
	return rec, resp
}

func TestListVersions(t *testing.T) {
	repo := NewMockVersionRepository()
	repo.Add(&repository.DatabaseVersion{ID: uuid.New(), Name: "001_create_core_tables", Number: 1})
	repo.Add(&repository.DatabaseVersion{ID: uuid.New(), Name: "002_add_limits", Number: 2})
	router := newTestRouter(repo)

	rec, resp := doRequest(t, router, http.MethodGet, "/database-versions", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	versions := resp.Data.(map[string]interface{})["versions"].([]interface{})
	if len(versions) != 2 {
		t.Errorf("len(versions) = %d, want 2", len(versions))
	}
}

func TestGetVersionByID(t *testing.T) {
	repo := NewMockVersionRepository()
	v := &repository.DatabaseVersion{ID: uuid.New(), Name: "001_create_core_tables", Number: 1}
	repo.Add(v)
	router := newTestRouter(repo)

	rec, resp := doRequest(t, router, http.MethodGet, "/database-versions/"+v.ID.String(), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	got := resp.Data.(map[string]interface{})["version"].(map[string]interface{})
	if got["name"] != v.Name {
		t.Errorf("name = %v, want %s", got["name"], v.Name)
	}

	rec, resp = doRequest(t, router, http.MethodGet, "/database-versions/"+uuid.NewString(), nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("absent id status = %d, want 404", rec.Code)
	}
	if resp.Error == nil || resp.Error.Code != "VERSION_NOT_FOUND" {
		t.Errorf("error = %+v", resp.Error)
	}

	rec, _ = doRequest(t, router, http.MethodGet, "/database-versions/not-a-uuid", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d, want 400", rec.Code)
	}
}

func TestGetVersionByName(t *testing.T) {
	repo := NewMockVersionRepository()
	v := &repository.DatabaseVersion{ID: uuid.New(), Name: "002_add_limits", Number: 2}
	repo.Add(v)
	router := newTestRouter(repo)

	rec, resp := doRequest(t, router, http.MethodGet, "/database-versions/by-name/"+v.Name, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	got := resp.Data.(map[string]interface{})["version"].(map[string]interface{})
	if got["number"] != float64(2) {
		t.Errorf("number = %v, want 2", got["number"])
	}

	rec, _ = doRequest(t, router, http.MethodGet, "/database-versions/by-name/absent", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("absent name status = %d, want 404", rec.Code)
	}
}

func TestUpdateVersion(t *testing.T) {
	repo := NewMockVersionRepository()
	v := &repository.DatabaseVersion{ID: uuid.New(), Name: "003_misnamed", Number: 9}
	repo.Add(v)
	router := newTestRouter(repo)

	rec, resp := doRequest(t, router, http.MethodPut, "/database-versions/"+v.ID.String(),
		UpdateVersionRequest{Name: "003_corrected", Number: 3})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; body %s", rec.Code, rec.Body.String())
	}
	got := resp.Data.(map[string]interface{})["version"].(map[string]interface{})
	if got["name"] != "003_corrected" || got["number"] != float64(3) {
		t.Errorf("version = %v", got)
	}

	// Missing name rejected
	rec, _ = doRequest(t, router, http.MethodPut, "/database-versions/"+v.ID.String(),
		UpdateVersionRequest{Number: 3})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing name status = %d, want 400", rec.Code)
	}

	// Absent id is not found
	rec, _ = doRequest(t, router, http.MethodPut, "/database-versions/"+uuid.NewString(),
		UpdateVersionRequest{Name: "x", Number: 1})
	if rec.Code != http.StatusNotFound {
		t.Errorf("absent id status = %d, want 404", rec.Code)
	}
}

func TestDeleteAndPurgeVersion(t *testing.T) {
	repo := NewMockVersionRepository()
	v := &repository.DatabaseVersion{ID: uuid.New(), Name: "004_rollback", Number: 4}
	repo.Add(v)
	router := newTestRouter(repo)

	rec, _ := doRequest(t, router, http.MethodDelete, "/database-versions/"+v.ID.String(), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("soft delete status = %d", rec.Code)
	}

	// The second soft delete matches no live row
	rec, _ = doRequest(t, router, http.MethodDelete, "/database-versions/"+v.ID.String(), nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second soft delete status = %d, want 404", rec.Code)
	}

	rec, _ = doRequest(t, router, http.MethodDelete, "/database-versions/"+v.ID.String()+"/purge", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("purge status = %d", rec.Code)
	}

	rec, _ = doRequest(t, router, http.MethodGet, "/database-versions/"+v.ID.String(), nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after purge status = %d, want 404", rec.Code)
	}
}

func TestVersionInternalError(t *testing.T) {
	repo := NewMockVersionRepository()
	repo.failWith = context.DeadlineExceeded
	router := newTestRouter(repo)

	rec, resp := doRequest(t, router, http.MethodGet, "/database-versions", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if resp.Error == nil || resp.Error.Code != "INTERNAL_ERROR" {
		t.Errorf("error = %+v", resp.Error)
	}
}
