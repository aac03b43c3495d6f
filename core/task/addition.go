package task

import (
	"context"
	"io"
	"path"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/Hoopakid/HRMobileProjectBackend/core"
)

// AdditionsDir is the storage directory of task additions.
const AdditionsDir = "AdditionForTasks"

// Addition is a file attached to a Task.
type Addition struct {
	ID      int       `json:"id"`
	TaskID  int       `json:"task_id"`
	File    string    `json:"file"`     // storage path
	AddedAt time.Time `json:"added_at"` // UTC
}

// Filename returns the base name of the stored file.
func (a Addition) Filename() string {
	return path.Base(a.File)
}

// additionPath sanitizes an uploaded filename into a path of AdditionsDir.
func additionPath(filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == 0 || r < ' ':
			return -1
		case r == ' ':
			return '_'
		}
		return r
	}, name)
	if name == "" || name == "." || name == ".." {
		name = "file"
	}
	return path.Join(AdditionsDir, name)
}

func (svc *Service) AddAddition(ctx context.Context, t Task, filename string, r io.Reader) (Addition, error) {
	name, err := svc.store.Save(ctx, additionPath(filename), r)
	if err != nil {
		return Addition{}, errors.Wrap(err, "saving file")
	}
	a, err := svc.repo.CreateAddition(ctx, Addition{TaskID: t.ID, File: name, AddedAt: svc.nowFunc().UTC()})
	if err != nil {
		svc.deleteFile(ctx, name)
		return Addition{}, errors.Wrap(err, "creating addition")
	}
	return a, nil
}

func (svc *Service) GetAddition(ctx context.Context, id int) (Addition, error) {
	return svc.repo.GetAddition(ctx, id)
}

// QueryAdditions returns the additions of taskID, or all additions if taskID is 0.
func (svc *Service) QueryAdditions(ctx context.Context, taskID int) ([]Addition, error) {
	return svc.repo.QueryAdditions(ctx, taskID)
}

// OpenAddition returns the content of the addition file. The caller must close it.
func (svc *Service) OpenAddition(ctx context.Context, a Addition) (io.ReadCloser, error) {
	rc, err := svc.store.Open(ctx, a.File)
	if err != nil {
		if errors.Cause(err) == core.ErrFileNotFound {
			return nil, ErrAdditionNotFound
		}
		return nil, errors.Wrap(err, "opening file")
	}
	return rc, nil
}

// ReplaceAddition stores a new file for a and removes the previous one.
func (svc *Service) ReplaceAddition(ctx context.Context, a Addition, filename string, r io.Reader) (Addition, error) {
	name, err := svc.store.Save(ctx, additionPath(filename), r)
	if err != nil {
		return Addition{}, errors.Wrap(err, "saving file")
	}
	old := a.File
	a.File = name
	a.AddedAt = svc.nowFunc().UTC()
	if a, err = svc.repo.UpdateAddition(ctx, a); err != nil {
		svc.deleteFile(ctx, name)
		return Addition{}, errors.Wrap(err, "updating addition")
	}
	svc.deleteFile(ctx, old)
	return a, nil
}

func (svc *Service) DeleteAddition(ctx context.Context, a Addition) error {
	if err := svc.repo.DeleteAddition(ctx, a.ID); err != nil {
		return err
	}
	svc.deleteFile(ctx, a.File)
	return nil
}
