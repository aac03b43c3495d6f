package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Hoopakid/HRMobileProjectBackend/core"
	"github.com/Hoopakid/HRMobileProjectBackend/core/task"
)

const taskColumns = `id, title, description, degree, "user", created_at, deadline, importance, status`

var taskOrderings = map[string]string{
	"id":         "id",
	"title":      "title",
	"degree":     "degree",
	"user":       `"user"`,
	"created_at": "created_at",
	"deadline":   "deadline",
	"importance": "importance",
	"status":     "status",
}

type taskRow struct {
	ID          int       `db:"id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	Degree      null.Int  `db:"degree"`
	User        int       `db:"user"`
	CreatedAt   core.Date `db:"created_at"`
	Deadline    core.Date `db:"deadline"`
	Importance  string    `db:"importance"`
	Status      string    `db:"status"`
}

func (r taskRow) toTask() task.Task {
	return task.Task{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Degree:      r.Degree.Ptr(),
		User:        r.User,
		CreatedAt:   r.CreatedAt,
		Deadline:    r.Deadline,
		Importance:  r.Importance,
		Status:      r.Status,
	}
}

type additionRow struct {
	ID      int       `db:"id"`
	TaskID  int       `db:"task_id"`
	File    string    `db:"file"`
	AddedAt time.Time `db:"added_at"`
}

func (r additionRow) toAddition() task.Addition {
	return task.Addition{ID: r.ID, TaskID: r.TaskID, File: r.File, AddedAt: r.AddedAt.UTC()}
}

type taskRepository struct {
	db core.DB
}

var _ task.Repository = (*taskRepository)(nil)

func NewTaskRepository(db core.DB) task.Repository {
	return &taskRepository{db: db}
}

func (repo *taskRepository) DegreeExists(ctx context.Context, id int) (bool, error) {
	var n int
	err := repo.db.GetContext(ctx, &n, repo.db.Rebind("SELECT COUNT(*) FROM degree WHERE id = ?"), id)
	return n > 0, err
}

func (repo *taskRepository) CreateTask(ctx context.Context, t task.Task) (task.Task, error) {
	id, err := insertReturningID(ctx, repo.db,
		`INSERT INTO tasks (title, description, degree, "user", created_at, deadline, importance, status, created_in_timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Title, t.Description, null.IntFromPtr(t.Degree), t.User, t.CreatedAt, t.Deadline, t.Importance, t.Status,
		time.Now().UTC(),
	)
	if err != nil {
		return task.Task{}, errors.Wrap(err, "inserting task")
	}
	return repo.GetTask(ctx, id)
}

func (repo *taskRepository) GetTask(ctx context.Context, id int) (task.Task, error) {
	var row taskRow
	q := repo.db.Rebind("SELECT " + taskColumns + " FROM tasks WHERE id = ?")
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		if err == sql.ErrNoRows {
			return task.Task{}, task.ErrNotFound
		}
		return task.Task{}, errors.Wrap(err, "selecting task")
	}
	return row.toTask(), nil
}

func (repo *taskRepository) QueryTasks(ctx context.Context, filter task.QueryFilter, orderings []core.DBOrdering) ([]task.Task, error) {
	var where whereClause
	if filter.Degree > 0 {
		where.add("degree = ?", filter.Degree)
	}
	if filter.Status != "" {
		where.add("status = ?", filter.Status)
	}
	if filter.Importance != "" {
		where.add("importance = ?", filter.Importance)
	}
	if filter.VisibleToUser > 0 {
		if filter.VisibleToDegree > 0 {
			where.add(`("user" = ? OR degree = ?)`, filter.VisibleToUser, filter.VisibleToDegree)
		} else {
			where.add(`"user" = ?`, filter.VisibleToUser)
		}
	}

	orderBy := core.OrderByClause(orderings, taskOrderings, "id ASC")
	q := "SELECT " + taskColumns + " FROM tasks" + where.String() + " ORDER BY " + orderBy + ", id ASC"

	var rows []taskRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), where.args...); err != nil {
		return nil, errors.Wrap(err, "selecting tasks")
	}
	tasks := make([]task.Task, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, row.toTask())
	}
	return tasks, nil
}

func (repo *taskRepository) UpdateTask(ctx context.Context, t task.Task) (task.Task, error) {
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(
		`UPDATE tasks SET title = ?, description = ?, degree = ?, "user" = ?, deadline = ?, importance = ?, status = ?
		WHERE id = ?`),
		t.Title, t.Description, null.IntFromPtr(t.Degree), t.User, t.Deadline, t.Importance, t.Status, t.ID,
	)
	if err != nil {
		return task.Task{}, errors.Wrap(err, "updating task")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return task.Task{}, task.ErrNotFound
	}
	return repo.GetTask(ctx, t.ID)
}

func (repo *taskRepository) SetStatus(ctx context.Context, id int, from, to string) error {
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind("UPDATE tasks SET status = ? WHERE id = ? AND status = ?"), to, id, from)
	if err != nil {
		return errors.Wrap(err, "updating task status")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "updating task status")
	}
	if n == 0 {
		return task.ErrInvalidTransition
	}
	return nil
}

func (repo *taskRepository) DeleteTask(ctx context.Context, id int) error {
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind("DELETE FROM tasks WHERE id = ?"), id)
	if err != nil {
		return errors.Wrap(err, "deleting task")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return task.ErrNotFound
	}
	return nil
}

func (repo *taskRepository) CreateAddition(ctx context.Context, a task.Addition) (task.Addition, error) {
	id, err := insertReturningID(ctx, repo.db, "INSERT INTO additions (task_id, file, added_at) VALUES (?, ?, ?)",
		a.TaskID, a.File, a.AddedAt.UTC())
	if err != nil {
		return task.Addition{}, errors.Wrap(err, "inserting addition")
	}
	return repo.GetAddition(ctx, id)
}

func (repo *taskRepository) GetAddition(ctx context.Context, id int) (task.Addition, error) {
	var row additionRow
	q := repo.db.Rebind("SELECT id, task_id, file, added_at FROM additions WHERE id = ?")
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		if err == sql.ErrNoRows {
			return task.Addition{}, task.ErrAdditionNotFound
		}
		return task.Addition{}, errors.Wrap(err, "selecting addition")
	}
	return row.toAddition(), nil
}

func (repo *taskRepository) QueryAdditions(ctx context.Context, taskID int) ([]task.Addition, error) {
	var where whereClause
	if taskID > 0 {
		where.add("task_id = ?", taskID)
	}
	var rows []additionRow
	q := "SELECT id, task_id, file, added_at FROM additions" + where.String() + " ORDER BY id"
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), where.args...); err != nil {
		return nil, errors.Wrap(err, "selecting additions")
	}
	additions := make([]task.Addition, 0, len(rows))
	for _, row := range rows {
		additions = append(additions, row.toAddition())
	}
	return additions, nil
}

func (repo *taskRepository) UpdateAddition(ctx context.Context, a task.Addition) (task.Addition, error) {
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind("UPDATE additions SET file = ?, added_at = ? WHERE id = ?"),
		a.File, a.AddedAt.UTC(), a.ID)
	if err != nil {
		return task.Addition{}, errors.Wrap(err, "updating addition")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return task.Addition{}, task.ErrAdditionNotFound
	}
	return repo.GetAddition(ctx, a.ID)
}

func (repo *taskRepository) DeleteAddition(ctx context.Context, id int) error {
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind("DELETE FROM additions WHERE id = ?"), id)
	if err != nil {
		return errors.Wrap(err, "deleting addition")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return task.ErrAdditionNotFound
	}
	return nil
}
