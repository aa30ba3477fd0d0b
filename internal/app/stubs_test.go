package app_test

import (
	"context"
	"time"

	"taskledger/internal/domain"
	"taskledger/internal/domain/audit"
	"taskledger/internal/domain/project"
	"taskledger/internal/domain/task"
	"taskledger/internal/ports"
)

// Fixed clock for deterministic audit timestamps.
var testNow = time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

// projectEntity builds a persisted-looking project for seeding stub stores.
func projectEntity(id, name string, archived bool, members map[string]domain.Role) *project.Project {
	return &project.Project{
		ID:        id,
		Name:      name,
		Archived:  archived,
		Members:   project.CloneMembers(members),
		Version:   1,
		CreatedAt: testNow.Add(-time.Hour),
		UpdatedAt: testNow.Add(-time.Hour),
	}
}

// taskEntity builds a persisted-looking task for seeding stub stores.
func taskEntity(id, projectID, name string, open bool, assignees []string) *task.Task {
	return &task.Task{
		ID:        id,
		ProjectID: projectID,
		Name:      name,
		Open:      open,
		Assignees: task.CloneAssignees(assignees),
		Version:   1,
		CreatedAt: testNow.Add(-time.Hour),
		UpdatedAt: testNow.Add(-time.Hour),
	}
}

type stubTx struct {
	committed  bool
	rolledBack bool
	commitErr  error
}

func (t *stubTx) Commit() error {
	if t.commitErr != nil {
		return t.commitErr
	}
	t.committed = true
	return nil
}

func (t *stubTx) Rollback() error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

type stubTxManager struct {
	beginErr  error
	commitErr error
	txs       []*stubTx
}

func (m *stubTxManager) Begin(_ context.Context) (ports.Tx, error) {
	if m.beginErr != nil {
		return nil, m.beginErr
	}
	tx := &stubTx{commitErr: m.commitErr}
	m.txs = append(m.txs, tx)
	return tx, nil
}

type stubProjectStore struct {
	projects map[string]*project.Project
	saveErr  error

	listAllCalled    bool
	listForMemberArg string
}

func newStubProjectStore() *stubProjectStore {
	return &stubProjectStore{projects: make(map[string]*project.Project)}
}

func (s *stubProjectStore) put(p *project.Project) {
	cp := *p
	s.projects[p.ID] = &cp
}

func (s *stubProjectStore) FindByID(_ context.Context, _ ports.Tx, id string) (*project.Project, error) {
	p, ok := s.projects[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	cp.Members = project.CloneMembers(p.Members)
	return &cp, nil
}

func (s *stubProjectStore) Save(_ context.Context, _ ports.Tx, p *project.Project) (*project.Project, error) {
	if s.saveErr != nil {
		return nil, s.saveErr
	}
	cp := *p
	cp.Members = project.CloneMembers(p.Members)
	cp.Version++
	s.projects[cp.ID] = &cp
	out := cp
	out.Members = project.CloneMembers(cp.Members)
	return &out, nil
}

func (s *stubProjectStore) ListAll(_ context.Context) ([]project.Project, error) {
	s.listAllCalled = true
	out := make([]project.Project, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, *p)
	}
	return out, nil
}

func (s *stubProjectStore) ListForMember(_ context.Context, userID string) ([]project.Project, error) {
	s.listForMemberArg = userID
	out := make([]project.Project, 0)
	for _, p := range s.projects {
		if _, ok := p.Members[userID]; ok && !p.Archived {
			out = append(out, *p)
		}
	}
	return out, nil
}

type stubTaskStore struct {
	tasks   map[string]*task.Task
	saveErr error
}

func newStubTaskStore() *stubTaskStore {
	return &stubTaskStore{tasks: make(map[string]*task.Task)}
}

func (s *stubTaskStore) put(t *task.Task) {
	cp := *t
	s.tasks[t.ID] = &cp
}

func (s *stubTaskStore) FindByID(_ context.Context, _ ports.Tx, id string) (*task.Task, error) {
	t, ok := s.tasks[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	cp.Assignees = task.CloneAssignees(t.Assignees)
	return &cp, nil
}

func (s *stubTaskStore) Save(_ context.Context, _ ports.Tx, t *task.Task) (*task.Task, error) {
	if s.saveErr != nil {
		return nil, s.saveErr
	}
	cp := *t
	cp.Assignees = task.CloneAssignees(t.Assignees)
	cp.Version++
	s.tasks[cp.ID] = &cp
	out := cp
	out.Assignees = task.CloneAssignees(cp.Assignees)
	return &out, nil
}

func (s *stubTaskStore) ListByProject(_ context.Context, projectID string) ([]task.Task, error) {
	out := make([]task.Task, 0)
	for _, t := range s.tasks {
		if t.ProjectID == projectID {
			out = append(out, *t)
		}
	}
	return out, nil
}

type stubAuditStore struct {
	records   []audit.Record
	appendErr error
}

func (s *stubAuditStore) Append(_ context.Context, _ ports.Tx, rec *audit.Record) error {
	if s.appendErr != nil {
		return s.appendErr
	}
	rec.ID = int64(len(s.records) + 1)
	s.records = append(s.records, *rec)
	return nil
}

func (s *stubAuditStore) ListByEntity(_ context.Context, kind, entityID string) ([]audit.Record, error) {
	out := make([]audit.Record, 0)
	for _, rec := range s.records {
		if rec.EntityKind == kind && rec.EntityID == entityID {
			out = append(out, rec)
		}
	}
	return out, nil
}

type stubDirectory struct {
	users     map[string]ports.User
	existsErr error
	findErr   error
}

func newStubDirectory(users ...ports.User) *stubDirectory {
	d := &stubDirectory{users: make(map[string]ports.User)}
	for _, u := range users {
		d.users[u.ID] = u
	}
	return d
}

func (d *stubDirectory) Exists(_ context.Context, userID string) (bool, error) {
	if d.existsErr != nil {
		return false, d.existsErr
	}
	_, ok := d.users[userID]
	return ok, nil
}

func (d *stubDirectory) FindByID(_ context.Context, userID string) (*ports.User, error) {
	if d.findErr != nil {
		return nil, d.findErr
	}
	u, ok := d.users[userID]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

type stubNotifier struct {
	published  []ports.Notification
	publishErr error
}

func (n *stubNotifier) Publish(_ context.Context, notification ports.Notification) error {
	if n.publishErr != nil {
		return n.publishErr
	}
	n.published = append(n.published, notification)
	return nil
}
