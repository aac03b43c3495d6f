package task

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/Hoopakid/HRMobileProjectBackend/core"
	"github.com/Hoopakid/HRMobileProjectBackend/core/user"
)

var (
	// errors
	ErrNotFound          = errors.New("task not found")
	ErrAdditionNotFound  = errors.New("addition not found")
	ErrDeadlinePassed    = errors.New("deadline cannot be in the past")
	ErrDegreeNotFound    = errors.New("degree not found")
	ErrAssigneeNotFound  = errors.New("user not found")
	ErrInvalidTransition = errors.New("invalid status transition")
)

type (
	Repository interface {
		DegreeExists(ctx context.Context, id int) (bool, error)

		CreateTask(ctx context.Context, t Task) (Task, error)
		GetTask(ctx context.Context, id int) (Task, error)
		// QueryTasks applies AND operation on available QueryFilter fields.
		QueryTasks(ctx context.Context, filter QueryFilter, orderings []core.DBOrdering) ([]Task, error)
		UpdateTask(ctx context.Context, t Task) (Task, error)
		// SetStatus moves the task from status `from` to `to`. It returns ErrInvalidTransition when the
		// task is not in status `from` anymore.
		SetStatus(ctx context.Context, id int, from, to string) error
		DeleteTask(ctx context.Context, id int) error

		CreateAddition(ctx context.Context, a Addition) (Addition, error)
		GetAddition(ctx context.Context, id int) (Addition, error)
		// QueryAdditions returns the additions of taskID, or all additions if taskID is 0.
		QueryAdditions(ctx context.Context, taskID int) ([]Addition, error)
		UpdateAddition(ctx context.Context, a Addition) (Addition, error)
		DeleteAddition(ctx context.Context, id int) error
	}

	// UserGetter is the part of user.Service tasks need.
	UserGetter interface {
		GetByID(ctx context.Context, id int) (user.User, error)
	}

	Service struct {
		repo    Repository
		users   UserGetter
		store   core.FileStore
		logger  core.Logger
		nowFunc func() time.Time
	}
)

func NewService(repo Repository, users UserGetter, store core.FileStore, logger core.Logger) *Service {
	return &Service{
		repo:    repo,
		users:   users,
		store:   store,
		logger:  logger,
		nowFunc: time.Now,
	}
}

func (svc *Service) checkDegree(ctx context.Context, id int) error {
	exists, err := svc.repo.DegreeExists(ctx, id)
	if err != nil {
		return errors.Wrap(err, "checking degree")
	}
	if !exists {
		return core.NewFieldValidationError("degree", ErrDegreeNotFound.Error())
	}
	return nil
}

func (svc *Service) checkAssignee(ctx context.Context, userID, degreeID int) error {
	if _, err := svc.users.GetByID(ctx, userID); err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return core.NewFieldValidationError("user", ErrAssigneeNotFound.Error())
		}
		return errors.Wrap(err, "finding user by ID")
	}
	if degreeID > 0 {
		return svc.checkDegree(ctx, degreeID)
	}
	return nil
}

// Create expects nt to be validated. The task inherits the degree of its user when none is given.
func (svc *Service) Create(ctx context.Context, nt NewTask) (Task, error) {
	t := Task{
		Title:       nt.Title,
		Description: nt.Description,
		User:        nt.User,
		CreatedAt:   core.NewDate(svc.nowFunc()),
		Deadline:    nt.Deadline,
		Importance:  nt.Importance,
		Status:      StatusNotCompleted,
	}
	if nt.Degree > 0 {
		degree := nt.Degree
		t.Degree = &degree
	} else {
		usr, err := svc.users.GetByID(ctx, nt.User)
		if err != nil {
			return Task{}, errors.Wrap(err, "finding user by ID")
		}
		t.Degree = usr.Degree
	}
	return svc.repo.CreateTask(ctx, t)
}

func (svc *Service) GetByID(ctx context.Context, id int) (Task, error) {
	return svc.repo.GetTask(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, orderings []core.DBOrdering) ([]Task, error) {
	return svc.repo.QueryTasks(ctx, filter, orderings)
}

// Update expects ut to be validated.
func (svc *Service) Update(ctx context.Context, t Task, ut UpdateTask) (Task, error) {
	return svc.repo.UpdateTask(ctx, ut.apply(t))
}

// Delete removes the task, its additions and their files.
func (svc *Service) Delete(ctx context.Context, id int) error {
	additions, err := svc.repo.QueryAdditions(ctx, id)
	if err != nil {
		return errors.Wrap(err, "querying additions")
	}
	if err = svc.repo.DeleteTask(ctx, id); err != nil {
		return err
	}
	for _, a := range additions {
		svc.deleteFile(ctx, a.File)
	}
	return nil
}

// GetVisible returns the task if usr can see it, ErrNotFound otherwise.
func (svc *Service) GetVisible(ctx context.Context, usr user.User, id int) (Task, error) {
	t, err := svc.repo.GetTask(ctx, id)
	if err != nil {
		return Task{}, err
	}
	if !t.VisibleTo(usr.ID, usr.DegreeID()) {
		return Task{}, ErrNotFound
	}
	return t, nil
}

// QueryVisible returns the tasks of usr and of their degree, earliest deadline first.
func (svc *Service) QueryVisible(ctx context.Context, usr user.User, filter QueryFilter) ([]Task, error) {
	filter.VisibleToUser = usr.ID
	filter.VisibleToDegree = usr.DegreeID()
	return svc.repo.QueryTasks(ctx, filter, []core.DBOrdering{{Field: "deadline", Ascending: true}})
}

// Start moves a visible task from StatusNotCompleted to StatusInProgress.
func (svc *Service) Start(ctx context.Context, usr user.User, id int) (Task, error) {
	return svc.transition(ctx, usr, id, StatusNotCompleted, StatusInProgress)
}

// Complete moves a visible task from StatusInProgress to StatusCompleted.
func (svc *Service) Complete(ctx context.Context, usr user.User, id int) (Task, error) {
	return svc.transition(ctx, usr, id, StatusInProgress, StatusCompleted)
}

func (svc *Service) transition(ctx context.Context, usr user.User, id int, from, to string) (Task, error) {
	t, err := svc.GetVisible(ctx, usr, id)
	if err != nil {
		return Task{}, err
	}
	invalid := core.NewValidationError(ErrInvalidTransition, core.FieldError{
		Field: "status",
		Error: fmt.Sprintf("cannot move a task from %q to %q", t.Status, to),
	})
	if t.Status != from {
		return Task{}, invalid
	}
	if err = svc.repo.SetStatus(ctx, id, from, to); err != nil {
		if errors.Cause(err) == ErrInvalidTransition {
			return Task{}, invalid // lost a race
		}
		return Task{}, errors.Wrap(err, "setting status")
	}
	t.Status = to
	return t, nil
}

func (svc *Service) deleteFile(ctx context.Context, name string) {
	if err := svc.store.Delete(ctx, name); err != nil && errors.Cause(err) != core.ErrFileNotFound {
		svc.logger.Warn(fmt.Sprintf("deleting file %q", name), err)
	}
}
