package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pkg/errors"

	"github.com/Hoopakid/HRMobileProjectBackend/core"
	"github.com/Hoopakid/HRMobileProjectBackend/core/degree"
)

type degreeRepository struct {
	db core.DB
}

var _ degree.Repository = (*degreeRepository)(nil)

func NewDegreeRepository(db core.DB) degree.Repository {
	return &degreeRepository{db: db}
}

func (repo *degreeRepository) NameExists(ctx context.Context, name string, excludeID int) (bool, error) {
	var n int
	q := repo.db.Rebind("SELECT COUNT(*) FROM degree WHERE LOWER(degree) = ? AND id <> ?")
	if err := repo.db.GetContext(ctx, &n, q, strings.ToLower(name), excludeID); err != nil {
		return false, errors.Wrap(err, "counting degrees")
	}
	return n > 0, nil
}

func (repo *degreeRepository) CreateDegree(ctx context.Context, dgr degree.Degree) (degree.Degree, error) {
	id, err := insertReturningID(ctx, repo.db, "INSERT INTO degree (degree, created) VALUES (?, ?)", dgr.Name, dgr.Created.UTC())
	if err != nil {
		return degree.Degree{}, errors.Wrap(err, "inserting degree")
	}
	return repo.GetDegree(ctx, id)
}

func (repo *degreeRepository) GetDegree(ctx context.Context, id int) (degree.Degree, error) {
	var dgr degree.Degree
	q := repo.db.Rebind("SELECT id, degree, created FROM degree WHERE id = ?")
	if err := repo.db.GetContext(ctx, &dgr, q, id); err != nil {
		if err == sql.ErrNoRows {
			return degree.Degree{}, degree.ErrNotFound
		}
		return degree.Degree{}, errors.Wrap(err, "selecting degree")
	}
	dgr.Created = dgr.Created.UTC()
	return dgr, nil
}

func (repo *degreeRepository) QueryDegrees(ctx context.Context) ([]degree.Degree, error) {
	dgrs := make([]degree.Degree, 0)
	if err := repo.db.SelectContext(ctx, &dgrs, "SELECT id, degree, created FROM degree ORDER BY id"); err != nil {
		return nil, errors.Wrap(err, "selecting degrees")
	}
	for i := range dgrs {
		dgrs[i].Created = dgrs[i].Created.UTC()
	}
	return dgrs, nil
}

func (repo *degreeRepository) UpdateDegree(ctx context.Context, dgr degree.Degree) (degree.Degree, error) {
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind("UPDATE degree SET degree = ? WHERE id = ?"), dgr.Name, dgr.ID)
	if err != nil {
		return degree.Degree{}, errors.Wrap(err, "updating degree")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return degree.Degree{}, degree.ErrNotFound
	}
	return repo.GetDegree(ctx, dgr.ID)
}

func (repo *degreeRepository) DeleteDegree(ctx context.Context, id int) error {
	var inUse bool
	q := repo.db.Rebind(`SELECT EXISTS (SELECT 1 FROM users WHERE degree = ?) OR EXISTS (SELECT 1 FROM tasks WHERE degree = ?)`)
	if err := repo.db.GetContext(ctx, &inUse, q, id, id); err != nil {
		return errors.Wrap(err, "checking degree references")
	}
	if inUse {
		return degree.ErrDegreeInUse
	}

	res, err := repo.db.ExecContext(ctx, repo.db.Rebind("DELETE FROM degree WHERE id = ?"), id)
	if err != nil {
		return errors.Wrap(err, "deleting degree")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return degree.ErrNotFound
	}
	return nil
}
