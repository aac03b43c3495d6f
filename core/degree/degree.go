package degree

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/Hoopakid/HRMobileProjectBackend/core"
)

var (
	// errors
	ErrNotFound    = errors.New("degree not found")
	ErrNameExists  = errors.New("a degree with this name already exists")
	ErrDegreeInUse = errors.New("this degree is assigned to users or tasks")
)

type Degree struct {
	ID      int       `json:"id" db:"id"`
	Name    string    `json:"degree" db:"degree"`
	Created time.Time `json:"created" db:"created"` // UTC
}

// EditDegree is the payload used to create or rename a Degree.
type EditDegree struct {
	Name string `json:"degree" validate:"required,max=255"`
}

func (ed *EditDegree) Validate(ctx context.Context, validate *validator.Validate, svc *Service, exclude ...Degree) error {
	ed.Name = core.CleanString(ed.Name)
	if err := validate.Struct(ed); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, ed.Name, exclude...)
}

type (
	Repository interface {
		// NameExists reports whether a degree other than excludeID is named name (case-insensitive).
		NameExists(ctx context.Context, name string, excludeID int) (bool, error)
		CreateDegree(ctx context.Context, dgr Degree) (Degree, error)
		GetDegree(ctx context.Context, id int) (Degree, error)
		QueryDegrees(ctx context.Context) ([]Degree, error)
		UpdateDegree(ctx context.Context, dgr Degree) (Degree, error)
		// DeleteDegree returns ErrDegreeInUse when users or tasks still reference the degree.
		DeleteDegree(ctx context.Context, id int) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) CheckUniqueness(ctx context.Context, name string, exclude ...Degree) error {
	var excludeID int
	if len(exclude) > 0 {
		excludeID = exclude[0].ID
	}
	exists, err := svc.repo.NameExists(ctx, name, excludeID)
	if err != nil {
		return errors.Wrap(err, "checking degree name")
	}
	if exists {
		return core.NewValidationError(ErrNameExists, core.FieldError{Field: "degree", Error: ErrNameExists.Error()})
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, ed EditDegree) (Degree, error) {
	return svc.repo.CreateDegree(ctx, Degree{Name: ed.Name, Created: time.Now().UTC()})
}

func (svc *Service) GetByID(ctx context.Context, id int) (Degree, error) {
	return svc.repo.GetDegree(ctx, id)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Degree, error) {
	return svc.repo.QueryDegrees(ctx)
}

func (svc *Service) Update(ctx context.Context, dgr Degree, ed EditDegree) (Degree, error) {
	dgr.Name = ed.Name
	return svc.repo.UpdateDegree(ctx, dgr)
}

func (svc *Service) Delete(ctx context.Context, id int) error {
	if err := svc.repo.DeleteDegree(ctx, id); err != nil {
		if errors.Cause(err) == ErrDegreeInUse {
			return core.NewValidationError(ErrDegreeInUse)
		}
		return err
	}
	return nil
}
