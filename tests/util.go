// Package testutil holds fixtures shared by the repository and HTTP tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Hoopakid/HRMobileProjectBackend/core"
	"github.com/Hoopakid/HRMobileProjectBackend/core/degree"
	"github.com/Hoopakid/HRMobileProjectBackend/core/task"
	"github.com/Hoopakid/HRMobileProjectBackend/core/user"
	"github.com/Hoopakid/HRMobileProjectBackend/storage/database"
)

// PrepareDB opens a fresh, fully migrated sqlite database in a temporary directory.
func PrepareDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.OpenSqlite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := database.Migrate(db, core.EngineSqlite); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	return db
}

func CreateDegree(t *testing.T, repo degree.Repository, name string) degree.Degree {
	t.Helper()
	dgr, err := repo.CreateDegree(context.Background(), degree.Degree{Name: name, Created: time.Now().UTC()})
	if err != nil {
		t.Fatalf("CreateDegree() failed: %v", err)
	}
	return dgr
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	firstName, lastName, phone, email, pwd string,
	degreeID int,
	isAdmin bool,
) user.User {
	t.Helper()
	usr := user.User{
		FirstName:   firstName,
		LastName:    lastName,
		PhoneNumber: phone,
		Email:       email,
		IsAdmin:     isAdmin,
		DateJoined:  time.Now().UTC(),
	}
	if degreeID > 0 {
		usr.Degree = &degreeID
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateTask(
	t *testing.T,
	repo task.Repository,
	title string,
	assignee, degreeID int,
	deadline core.Date,
	importance, status string,
) task.Task {
	t.Helper()
	tsk := task.Task{
		Title:      title,
		User:       assignee,
		CreatedAt:  core.Today(),
		Deadline:   deadline,
		Importance: importance,
		Status:     status,
	}
	if degreeID > 0 {
		tsk.Degree = &degreeID
	}
	tsk, err := repo.CreateTask(context.Background(), tsk)
	if err != nil {
		t.Fatalf("CreateTask() failed: %v", err)
	}
	return tsk
}
