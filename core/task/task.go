package task

import (
	"context"

	"github.com/go-playground/validator/v10"

	"github.com/Hoopakid/HRMobileProjectBackend/core"
)

// Importance levels
const (
	ImportanceHigh   = "Yuqori"
	ImportanceMedium = "O'rta"
	ImportanceLow    = "Past"
)

// Statuses
const (
	StatusNotCompleted = "Yakunlanmagan"
	StatusInProgress   = "Bajarilayotgan"
	StatusCompleted    = "Yakunlangan"
)

var (
	Importances = []string{ImportanceHigh, ImportanceMedium, ImportanceLow}
	Statuses    = []string{StatusNotCompleted, StatusInProgress, StatusCompleted}
)

type Task struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Degree      *int      `json:"degree"`
	User        int       `json:"user"`
	CreatedAt   core.Date `json:"created_at"`
	Deadline    core.Date `json:"deadline"`
	Importance  string    `json:"importance"`
	Status      string    `json:"status"`
}

// VisibleTo reports whether the task was assigned to userID directly or through their degree.
func (t Task) VisibleTo(userID, degreeID int) bool {
	if t.User == userID {
		return true
	}
	return t.Degree != nil && degreeID > 0 && *t.Degree == degreeID
}

// Grouped splits tasks by status, for the mobile home screen.
type Grouped struct {
	NotCompleted []Task `json:"not_completed"`
	InProgress   []Task `json:"in_progress"`
	Completed    []Task `json:"completed"`
}

func GroupByStatus(tasks []Task) Grouped {
	grp := Grouped{NotCompleted: []Task{}, InProgress: []Task{}, Completed: []Task{}}
	for _, t := range tasks {
		switch t.Status {
		case StatusInProgress:
			grp.InProgress = append(grp.InProgress, t)
		case StatusCompleted:
			grp.Completed = append(grp.Completed, t)
		default:
			grp.NotCompleted = append(grp.NotCompleted, t)
		}
	}
	return grp
}

// NewTask contains information needed to assign a new Task.
type NewTask struct {
	Title       string    `json:"title" validate:"required,max=255"`
	Description string    `json:"description"`
	Degree      int       `json:"degree" validate:"omitempty,gt=0"`
	User        int       `json:"user" validate:"required,gt=0"`
	Deadline    core.Date `json:"deadline"`
	Importance  string    `json:"importance" validate:"required,importance"`
}

func (nt *NewTask) Validate(ctx context.Context, validate *validator.Validate, svc *Service) error {
	nt.Title = core.CleanString(nt.Title)
	nt.Description = core.CleanString(nt.Description)
	if err := validate.Struct(nt); err != nil {
		return err
	}
	if err := checkDeadline(nt.Deadline); err != nil {
		return err
	}
	return svc.checkAssignee(ctx, nt.User, nt.Degree)
}

// UpdateTask defines what information may be provided to modify an existing Task.
type UpdateTask struct {
	Title       string     `json:"title" validate:"omitempty,max=255"`
	Description *string    `json:"description"`
	Degree      *int       `json:"degree" validate:"omitempty,gt=0"`
	User        int        `json:"user" validate:"omitempty,gt=0"`
	Deadline    *core.Date `json:"deadline"`
	Importance  string     `json:"importance" validate:"omitempty,importance"`
	Status      string     `json:"status" validate:"omitempty,taskstatus"`
}

func (ut *UpdateTask) Validate(ctx context.Context, orig Task, validate *validator.Validate, svc *Service) error {
	ut.Title = core.CleanString(ut.Title)
	if err := validate.Struct(ut); err != nil {
		return err
	}
	if ut.Deadline != nil && !ut.Deadline.Equal(orig.Deadline.Time) {
		if err := checkDeadline(*ut.Deadline); err != nil {
			return err
		}
	}
	if ut.User > 0 && ut.User != orig.User {
		var degree int
		if ut.Degree != nil {
			degree = *ut.Degree
		}
		return svc.checkAssignee(ctx, ut.User, degree)
	}
	if ut.Degree != nil {
		return svc.checkDegree(ctx, *ut.Degree)
	}
	return nil
}

// apply returns orig modified by the provided fields.
func (ut UpdateTask) apply(orig Task) Task {
	if ut.Title != "" {
		orig.Title = ut.Title
	}
	if ut.Description != nil {
		orig.Description = core.CleanString(*ut.Description)
	}
	if ut.Degree != nil {
		orig.Degree = ut.Degree
	}
	if ut.User > 0 {
		orig.User = ut.User
	}
	if ut.Deadline != nil {
		orig.Deadline = *ut.Deadline
	}
	if ut.Importance != "" {
		orig.Importance = ut.Importance
	}
	if ut.Status != "" {
		orig.Status = ut.Status
	}
	return orig
}

func checkDeadline(deadline core.Date) error {
	if deadline.IsZero() {
		return core.NewFieldValidationError("deadline", "this field is required")
	}
	if deadline.Before(core.Today()) {
		return core.NewFieldValidationError("deadline", ErrDeadlinePassed.Error())
	}
	return nil
}

type QueryFilter struct {
	Degree     int    `query:"degree"`
	Status     string `query:"status"`
	Importance string `query:"importance"`

	// VisibleTo* restrict the result to tasks of the user or of their degree.
	VisibleToUser   int `query:"-"`
	VisibleToDegree int `query:"-"`
}

func (qf *QueryFilter) Clean() {
	qf.Status = core.CleanString(qf.Status)
	qf.Importance = core.CleanString(qf.Importance)
}
