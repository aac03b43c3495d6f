package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Hoopakid/HRMobileProjectBackend/core"
	"github.com/Hoopakid/HRMobileProjectBackend/core/user"
)

const userColumns = "id, first_name, last_name, phone_number, email, user_photo, degree, password, status, date_joined"

type userRow struct {
	ID          int         `db:"id"`
	FirstName   string      `db:"first_name"`
	LastName    string      `db:"last_name"`
	PhoneNumber string      `db:"phone_number"`
	Email       string      `db:"email"`
	Photo       null.String `db:"user_photo"`
	Degree      null.Int    `db:"degree"`
	Password    string      `db:"password"`
	Status      bool        `db:"status"`
	DateJoined  time.Time   `db:"date_joined"`
}

func (r userRow) toUser() user.User {
	return user.User{
		ID:           r.ID,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		PhoneNumber:  r.PhoneNumber,
		Email:        r.Email,
		Photo:        r.Photo.String,
		Degree:       r.Degree.Ptr(),
		PasswordHash: []byte(r.Password),
		IsAdmin:      r.Status,
		DateJoined:   r.DateJoined.UTC(),
	}
}

func photoValue(photo string) null.String {
	return null.NewString(photo, photo != "")
}

type userRepository struct {
	db core.DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db core.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) count(ctx context.Context, query string, args ...interface{}) (int, error) {
	var n int
	err := repo.db.GetContext(ctx, &n, repo.db.Rebind(query), args...)
	return n, err
}

func (repo *userRepository) CheckUniqueness(ctx context.Context, phone, email string, excludeID int) error {
	n, err := repo.count(ctx, "SELECT COUNT(*) FROM users WHERE phone_number = ? AND id <> ?", phone, excludeID)
	if err != nil {
		return errors.Wrap(err, "counting phone numbers")
	}
	if n > 0 {
		return user.ErrPhoneExists
	}
	n, err = repo.count(ctx, "SELECT COUNT(*) FROM users WHERE email = ? AND id <> ?", email, excludeID)
	if err != nil {
		return errors.Wrap(err, "counting emails")
	}
	if n > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *userRepository) DegreeExists(ctx context.Context, id int) (bool, error) {
	n, err := repo.count(ctx, "SELECT COUNT(*) FROM degree WHERE id = ?", id)
	return n > 0, err
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	id, err := insertReturningID(ctx, repo.db,
		`INSERT INTO users (first_name, last_name, phone_number, email, user_photo, degree, password, status, date_joined)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		usr.FirstName, usr.LastName, usr.PhoneNumber, usr.Email, photoValue(usr.Photo),
		null.IntFromPtr(usr.Degree), string(usr.PasswordHash), usr.IsAdmin, usr.DateJoined.UTC(),
	)
	if err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return repo.GetUser(ctx, user.GetFilter{ID: id})
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	var where whereClause
	if filter.ID > 0 {
		where.add("id = ?", filter.ID)
	}
	if filter.Email != "" {
		where.add("email = ?", filter.Email)
	}
	if filter.Phone != "" {
		where.add("phone_number = ?", filter.Phone)
	}
	if len(where.conds) == 0 {
		return user.User{}, user.ErrNotFound
	}

	var row userRow
	q := "SELECT " + userColumns + " FROM users" + where.String()
	if err := repo.db.GetContext(ctx, &row, repo.db.Rebind(q), where.args...); err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "selecting user")
	}
	return row.toUser(), nil
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter user.QueryFilter) ([]user.User, error) {
	var where whereClause
	if filter.ExcludeID > 0 {
		where.add("id <> ?", filter.ExcludeID)
	}
	if filter.IsAdmin != nil {
		where.add("status = ?", *filter.IsAdmin)
	}

	var rows []userRow
	q := "SELECT " + userColumns + " FROM users" + where.String() + " ORDER BY id"
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), where.args...); err != nil {
		return nil, errors.Wrap(err, "selecting users")
	}
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toUser())
	}
	return users, nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(
		`UPDATE users SET first_name = ?, last_name = ?, phone_number = ?, email = ?, user_photo = ?, degree = ?,
		password = ?, status = ? WHERE id = ?`),
		usr.FirstName, usr.LastName, usr.PhoneNumber, usr.Email, photoValue(usr.Photo),
		null.IntFromPtr(usr.Degree), string(usr.PasswordHash), usr.IsAdmin, usr.ID,
	)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.GetUser(ctx, user.GetFilter{ID: usr.ID})
}
