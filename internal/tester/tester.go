package tester

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/emrgen/worklink/internal/model"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a migrated sqlite database private to the test.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "worklink.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	if err := model.Migrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

// WorkItemCreator is the part of the store the fixtures need.
type WorkItemCreator interface {
	CreateWorkItem(ctx context.Context, item *model.WorkItem) error
}

// Fixture creates work items inside one workspace and project.
type Fixture struct {
	WorkspaceID string
	ProjectID   string
	store       WorkItemCreator
	seq         int
}

func NewFixture(store WorkItemCreator) *Fixture {
	return &Fixture{
		WorkspaceID: uuid.New().String(),
		ProjectID:   uuid.New().String(),
		store:       store,
	}
}

// WorkItem creates a TODO work item in the fixture project.
func (f *Fixture) WorkItem(t testing.TB, title string) *model.WorkItem {
	return f.WorkItemIn(t, f.ProjectID, title)
}

// WorkItemIn creates a TODO work item in another project of the same workspace.
func (f *Fixture) WorkItemIn(t testing.TB, projectID, title string) *model.WorkItem {
	t.Helper()

	f.seq++
	item := &model.WorkItem{
		ID:          uuid.New().String(),
		WorkspaceID: f.WorkspaceID,
		ProjectID:   projectID,
		Key:         fmt.Sprintf("WL-%d", f.seq),
		Title:       title,
		Type:        "task",
		Status:      model.WorkItemStatusTodo,
	}
	if err := f.store.CreateWorkItem(context.Background(), item); err != nil {
		t.Fatalf("create work item %s: %v", title, err)
	}

	return item
}
