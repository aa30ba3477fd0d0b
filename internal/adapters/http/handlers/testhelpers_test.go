package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"taskledger/internal/adapters/http/middleware"
	"taskledger/internal/domain"
	"taskledger/internal/domain/project"
	"taskledger/internal/domain/task"
	"taskledger/internal/ports"
)

var testTime = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func withChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// authedRequest builds a request carrying the given actor, as the auth
// middleware would have left it.
func authedRequest(method, target string, body *bytes.Buffer, actor domain.Actor) *http.Request {
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, body)
		req.Header.Set("Content-Type", "application/json")
	}
	return req.WithContext(middleware.WithActor(req.Context(), actor))
}

func validProject() project.Project {
	return project.Project{
		ID:        "p1",
		Name:      "Atlas",
		Members:   map[string]domain.Role{"alice": domain.RoleManager},
		Version:   1,
		CreatedAt: testTime,
		UpdatedAt: testTime,
	}
}

func validTask() task.Task {
	return task.Task{
		ID:        "t1",
		ProjectID: "p1",
		Name:      "Wire the API",
		Open:      true,
		Assignees: []string{"bob"},
		Version:   1,
		CreatedAt: testTime,
		UpdatedAt: testTime,
	}
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(v); err != nil {
		t.Fatalf("failed to encode JSON body: %v", err)
	}
	return buf
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var result T
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode JSON response: %v", err)
	}
	return result
}

func requireStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Errorf("status = %d, want %d; body = %s", rec.Code, want, rec.Body.String())
	}
}

// fakeProjectService implements ports.ProjectService through func fields.
// Unset fields fail the calling test rather than returning silent zeros.
type fakeProjectService struct {
	t         *testing.T
	createFn  func(ctx context.Context, actor domain.Actor, in ports.ProjectCreate) (*project.Project, error)
	updateFn  func(ctx context.Context, actor domain.Actor, id string, in ports.ProjectUpdate) (*project.Project, error)
	archiveFn func(ctx context.Context, actor domain.Actor, id string) (*project.Project, error)
	restoreFn func(ctx context.Context, actor domain.Actor, id string) (*project.Project, error)
	getFn     func(ctx context.Context, actor domain.Actor, id string) (*project.Project, error)
	listFn    func(ctx context.Context, actor domain.Actor) ([]project.Project, error)
}

func (f *fakeProjectService) Create(ctx context.Context, actor domain.Actor, in ports.ProjectCreate) (*project.Project, error) {
	if f.createFn == nil {
		f.t.Fatal("unexpected call to Create")
	}
	return f.createFn(ctx, actor, in)
}

func (f *fakeProjectService) Update(ctx context.Context, actor domain.Actor, id string, in ports.ProjectUpdate) (*project.Project, error) {
	if f.updateFn == nil {
		f.t.Fatal("unexpected call to Update")
	}
	return f.updateFn(ctx, actor, id, in)
}

func (f *fakeProjectService) Archive(ctx context.Context, actor domain.Actor, id string) (*project.Project, error) {
	if f.archiveFn == nil {
		f.t.Fatal("unexpected call to Archive")
	}
	return f.archiveFn(ctx, actor, id)
}

func (f *fakeProjectService) Restore(ctx context.Context, actor domain.Actor, id string) (*project.Project, error) {
	if f.restoreFn == nil {
		f.t.Fatal("unexpected call to Restore")
	}
	return f.restoreFn(ctx, actor, id)
}

func (f *fakeProjectService) Get(ctx context.Context, actor domain.Actor, id string) (*project.Project, error) {
	if f.getFn == nil {
		f.t.Fatal("unexpected call to Get")
	}
	return f.getFn(ctx, actor, id)
}

func (f *fakeProjectService) List(ctx context.Context, actor domain.Actor) ([]project.Project, error) {
	if f.listFn == nil {
		f.t.Fatal("unexpected call to List")
	}
	return f.listFn(ctx, actor)
}

// fakeTaskService implements ports.TaskService through func fields.
type fakeTaskService struct {
	t        *testing.T
	createFn func(ctx context.Context, actor domain.Actor, projectID string, in ports.TaskCreate) (*task.Task, error)
	updateFn func(ctx context.Context, actor domain.Actor, id string, in ports.TaskUpdate) (*task.Task, error)
	closeFn  func(ctx context.Context, actor domain.Actor, id string) (*task.Task, error)
	reopenFn func(ctx context.Context, actor domain.Actor, id string) (*task.Task, error)
	getFn    func(ctx context.Context, actor domain.Actor, id string) (*task.Task, error)
	listFn   func(ctx context.Context, actor domain.Actor, projectID string) ([]task.Task, error)
}

func (f *fakeTaskService) Create(ctx context.Context, actor domain.Actor, projectID string, in ports.TaskCreate) (*task.Task, error) {
	if f.createFn == nil {
		f.t.Fatal("unexpected call to Create")
	}
	return f.createFn(ctx, actor, projectID, in)
}

func (f *fakeTaskService) Update(ctx context.Context, actor domain.Actor, id string, in ports.TaskUpdate) (*task.Task, error) {
	if f.updateFn == nil {
		f.t.Fatal("unexpected call to Update")
	}
	return f.updateFn(ctx, actor, id, in)
}

func (f *fakeTaskService) Close(ctx context.Context, actor domain.Actor, id string) (*task.Task, error) {
	if f.closeFn == nil {
		f.t.Fatal("unexpected call to Close")
	}
	return f.closeFn(ctx, actor, id)
}

func (f *fakeTaskService) Reopen(ctx context.Context, actor domain.Actor, id string) (*task.Task, error) {
	if f.reopenFn == nil {
		f.t.Fatal("unexpected call to Reopen")
	}
	return f.reopenFn(ctx, actor, id)
}

func (f *fakeTaskService) Get(ctx context.Context, actor domain.Actor, id string) (*task.Task, error) {
	if f.getFn == nil {
		f.t.Fatal("unexpected call to Get")
	}
	return f.getFn(ctx, actor, id)
}

func (f *fakeTaskService) ListByProject(ctx context.Context, actor domain.Actor, projectID string) ([]task.Task, error) {
	if f.listFn == nil {
		f.t.Fatal("unexpected call to ListByProject")
	}
	return f.listFn(ctx, actor, projectID)
}

// fakeHistoryService implements ports.HistoryService through func fields.
type fakeHistoryService struct {
	t         *testing.T
	projectFn func(ctx context.Context, actor domain.Actor, projectID string) ([]ports.ProjectHistoryEntry, error)
	taskFn    func(ctx context.Context, actor domain.Actor, taskID string) ([]ports.TaskHistoryEntry, error)
}

func (f *fakeHistoryService) Project(ctx context.Context, actor domain.Actor, projectID string) ([]ports.ProjectHistoryEntry, error) {
	if f.projectFn == nil {
		f.t.Fatal("unexpected call to Project")
	}
	return f.projectFn(ctx, actor, projectID)
}

func (f *fakeHistoryService) Task(ctx context.Context, actor domain.Actor, taskID string) ([]ports.TaskHistoryEntry, error) {
	if f.taskFn == nil {
		f.t.Fatal("unexpected call to Task")
	}
	return f.taskFn(ctx, actor, taskID)
}
