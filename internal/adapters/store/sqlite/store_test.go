package sqlite_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskledger/internal/adapters/store/sqlite"
	"taskledger/internal/domain"
	"taskledger/internal/domain/audit"
	"taskledger/internal/domain/project"
	"taskledger/internal/domain/task"
	"taskledger/internal/ports"
)

var testNow = time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "taskledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, sqlite.Migrate(db))
	return db
}

func sampleProject(id string) *project.Project {
	return &project.Project{
		ID:   id,
		Name: "Atlas",
		Members: map[string]domain.Role{
			"alice": domain.RoleManager,
			"bob":   domain.RoleWorker,
		},
		CreatedAt: testNow,
		UpdatedAt: testNow,
	}
}

func TestProjectStore(t *testing.T) {
	t.Parallel()

	t.Run("insert and find round trip", func(t *testing.T) {
		t.Parallel()
		db := openTestDB(t)
		store := sqlite.NewProjectStore(db)
		ctx := context.Background()

		saved, err := store.Save(ctx, nil, sampleProject("p1"))
		require.NoError(t, err)
		assert.Equal(t, int64(1), saved.Version)

		got, err := store.FindByID(ctx, nil, "p1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "Atlas", got.Name)
		assert.Equal(t, domain.RoleManager, got.Members["alice"])
		assert.Equal(t, testNow, got.CreatedAt)
		assert.False(t, got.Archived)
	})

	t.Run("absence is nil without an error", func(t *testing.T) {
		t.Parallel()
		db := openTestDB(t)
		store := sqlite.NewProjectStore(db)

		got, err := store.FindByID(context.Background(), nil, "nope")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("optimistic update bumps version", func(t *testing.T) {
		t.Parallel()
		db := openTestDB(t)
		store := sqlite.NewProjectStore(db)
		ctx := context.Background()

		saved, err := store.Save(ctx, nil, sampleProject("p1"))
		require.NoError(t, err)

		saved.Name = "Atlas v2"
		updated, err := store.Save(ctx, nil, saved)
		require.NoError(t, err)
		assert.Equal(t, int64(2), updated.Version)

		got, err := store.FindByID(ctx, nil, "p1")
		require.NoError(t, err)
		assert.Equal(t, "Atlas v2", got.Name)
		assert.Equal(t, int64(2), got.Version)
	})

	t.Run("stale version loses", func(t *testing.T) {
		t.Parallel()
		db := openTestDB(t)
		store := sqlite.NewProjectStore(db)
		ctx := context.Background()

		first, err := store.Save(ctx, nil, sampleProject("p1"))
		require.NoError(t, err)

		stale := *first
		stale.Members = project.CloneMembers(first.Members)

		first.Name = "winner"
		_, err = store.Save(ctx, nil, first)
		require.NoError(t, err)

		stale.Name = "loser"
		_, err = store.Save(ctx, nil, &stale)
		require.ErrorIs(t, err, domain.ErrStaleVersion)
		require.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("member listing excludes archived and foreign projects", func(t *testing.T) {
		t.Parallel()
		db := openTestDB(t)
		store := sqlite.NewProjectStore(db)
		ctx := context.Background()

		_, err := store.Save(ctx, nil, sampleProject("p1"))
		require.NoError(t, err)

		archived := sampleProject("p2")
		archived.Archived = true
		_, err = store.Save(ctx, nil, archived)
		require.NoError(t, err)

		foreign := sampleProject("p3")
		foreign.Members = map[string]domain.Role{"charlie": domain.RoleGuest}
		_, err = store.Save(ctx, nil, foreign)
		require.NoError(t, err)

		visible, err := store.ListForMember(ctx, "alice")
		require.NoError(t, err)
		require.Len(t, visible, 1)
		assert.Equal(t, "p1", visible[0].ID)

		all, err := store.ListAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})
}

func TestTaskStore(t *testing.T) {
	t.Parallel()

	seedProject := func(t *testing.T, db *sql.DB) {
		t.Helper()
		_, err := sqlite.NewProjectStore(db).Save(context.Background(), nil, sampleProject("p1"))
		require.NoError(t, err)
	}

	t.Run("insert and find round trip", func(t *testing.T) {
		t.Parallel()
		db := openTestDB(t)
		seedProject(t, db)
		store := sqlite.NewTaskStore(db)
		ctx := context.Background()

		saved, err := store.Save(ctx, nil, &task.Task{
			ID:          "t1",
			ProjectID:   "p1",
			Name:        "Wire the pipeline",
			Description: "End to end",
			Open:        true,
			Assignees:   []string{"bob"},
			CreatedAt:   testNow,
			UpdatedAt:   testNow,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), saved.Version)

		got, err := store.FindByID(ctx, nil, "t1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.True(t, got.Open)
		assert.Equal(t, []string{"bob"}, got.Assignees)
	})

	t.Run("list by project in creation order", func(t *testing.T) {
		t.Parallel()
		db := openTestDB(t)
		seedProject(t, db)
		store := sqlite.NewTaskStore(db)
		ctx := context.Background()

		for i, name := range []string{"first", "second", "third"} {
			_, err := store.Save(ctx, nil, &task.Task{
				ID:        name,
				ProjectID: "p1",
				Name:      name,
				Open:      true,
				CreatedAt: testNow.Add(time.Duration(i) * time.Minute),
				UpdatedAt: testNow,
			})
			require.NoError(t, err)
		}

		out, err := store.ListByProject(ctx, "p1")
		require.NoError(t, err)
		require.Len(t, out, 3)
		assert.Equal(t, "first", out[0].ID)
		assert.Equal(t, "third", out[2].ID)
	})

	t.Run("stale version loses", func(t *testing.T) {
		t.Parallel()
		db := openTestDB(t)
		seedProject(t, db)
		store := sqlite.NewTaskStore(db)
		ctx := context.Background()

		saved, err := store.Save(ctx, nil, &task.Task{
			ID: "t1", ProjectID: "p1", Name: "x", Open: true, CreatedAt: testNow, UpdatedAt: testNow,
		})
		require.NoError(t, err)

		stale := *saved
		saved.Name = "winner"
		_, err = store.Save(ctx, nil, saved)
		require.NoError(t, err)

		stale.Name = "loser"
		_, err = store.Save(ctx, nil, &stale)
		require.ErrorIs(t, err, domain.ErrStaleVersion)
	})
}

func TestAuditStore(t *testing.T) {
	t.Parallel()

	t.Run("append assigns ids and lists in order", func(t *testing.T) {
		t.Parallel()
		db := openTestDB(t)
		store := sqlite.NewAuditStore(db)
		ctx := context.Background()

		// Same timestamp on purpose: insertion order must break the tie.
		for _, action := range []audit.Action{audit.ActionProjectCreated, audit.ActionProjectArchived, audit.ActionProjectRestored} {
			rec, err := audit.NewRecord(audit.KindProject, "p1", action, "alice", testNow, nil)
			require.NoError(t, err)
			require.NoError(t, store.Append(ctx, nil, &rec))
			assert.NotZero(t, rec.ID)
		}

		other, err := audit.NewRecord(audit.KindTask, "t1", audit.ActionTaskCreated, "alice", testNow, nil)
		require.NoError(t, err)
		require.NoError(t, store.Append(ctx, nil, &other))

		out, err := store.ListByEntity(ctx, audit.KindProject, "p1")
		require.NoError(t, err)
		require.Len(t, out, 3)
		assert.Equal(t, audit.ActionProjectCreated, out[0].Action)
		assert.Equal(t, audit.ActionProjectArchived, out[1].Action)
		assert.Equal(t, audit.ActionProjectRestored, out[2].Action)
		assert.True(t, out[0].ID < out[1].ID && out[1].ID < out[2].ID)
	})

	t.Run("payload survives the round trip", func(t *testing.T) {
		t.Parallel()
		db := openTestDB(t)
		store := sqlite.NewAuditStore(db)
		ctx := context.Background()

		rec, err := audit.NewRecord(audit.KindProject, "p1", audit.ActionProjectCreated, "alice", testNow, audit.ProjectCreatedPayload{
			Name:    "Atlas",
			Members: map[string]domain.Role{"alice": domain.RoleManager},
		})
		require.NoError(t, err)
		require.NoError(t, store.Append(ctx, nil, &rec))

		out, err := store.ListByEntity(ctx, audit.KindProject, "p1")
		require.NoError(t, err)
		require.Len(t, out, 1)

		entries, err := audit.ReplayProject(out)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "Atlas", entries[0].State.Name)
		assert.Equal(t, domain.RoleManager, entries[0].State.Members["alice"])
	})
}

func TestTxManager(t *testing.T) {
	t.Parallel()

	t.Run("rollback discards entity and audit writes together", func(t *testing.T) {
		t.Parallel()
		db := openTestDB(t)
		txm := sqlite.NewTxManager(db)
		projects := sqlite.NewProjectStore(db)
		audits := sqlite.NewAuditStore(db)
		ctx := context.Background()

		tx, err := txm.Begin(ctx)
		require.NoError(t, err)

		_, err = projects.Save(ctx, tx, sampleProject("p1"))
		require.NoError(t, err)
		rec, err := audit.NewRecord(audit.KindProject, "p1", audit.ActionProjectCreated, "alice", testNow, nil)
		require.NoError(t, err)
		require.NoError(t, audits.Append(ctx, tx, &rec))

		require.NoError(t, tx.Rollback())

		got, err := projects.FindByID(ctx, nil, "p1")
		require.NoError(t, err)
		assert.Nil(t, got)
		records, err := audits.ListByEntity(ctx, audit.KindProject, "p1")
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("commit makes both writes visible", func(t *testing.T) {
		t.Parallel()
		db := openTestDB(t)
		txm := sqlite.NewTxManager(db)
		projects := sqlite.NewProjectStore(db)
		audits := sqlite.NewAuditStore(db)
		ctx := context.Background()

		tx, err := txm.Begin(ctx)
		require.NoError(t, err)
		_, err = projects.Save(ctx, tx, sampleProject("p1"))
		require.NoError(t, err)
		rec, err := audit.NewRecord(audit.KindProject, "p1", audit.ActionProjectCreated, "alice", testNow, nil)
		require.NoError(t, err)
		require.NoError(t, audits.Append(ctx, tx, &rec))
		require.NoError(t, tx.Commit())

		got, err := projects.FindByID(ctx, nil, "p1")
		require.NoError(t, err)
		require.NotNil(t, got)
		records, err := audits.ListByEntity(ctx, audit.KindProject, "p1")
		require.NoError(t, err)
		assert.Len(t, records, 1)
	})
}

func TestUserCache(t *testing.T) {
	t.Parallel()

	t.Run("put get round trip", func(t *testing.T) {
		t.Parallel()
		db := openTestDB(t)
		cache := sqlite.NewUserCache(db, time.Hour, func() time.Time { return testNow })
		ctx := context.Background()

		require.NoError(t, cache.Put(ctx, ports.User{ID: "alice", FirstName: "Alice", LastName: "Anders"}))

		got, err := cache.Get(ctx, "alice")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "Alice", got.FirstName)
	})

	t.Run("expired entries read as absent", func(t *testing.T) {
		t.Parallel()
		db := openTestDB(t)
		now := testNow
		cache := sqlite.NewUserCache(db, time.Minute, func() time.Time { return now })
		ctx := context.Background()

		require.NoError(t, cache.Put(ctx, ports.User{ID: "alice", FirstName: "Alice"}))
		now = now.Add(2 * time.Minute)

		got, err := cache.Get(ctx, "alice")
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}
