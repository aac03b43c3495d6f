// Package sqlxrepos implements the domain repositories with sqlx.
// Queries are written with "?" placeholders and rebound for the driver in use (postgres or sqlite).
package sqlxrepos

import (
	"context"
	"strings"

	"github.com/Hoopakid/HRMobileProjectBackend/core"
)

// insertReturningID runs an INSERT statement and returns the id of the new row.
func insertReturningID(ctx context.Context, db core.DBExecutor, query string, args ...interface{}) (int, error) {
	var id int
	err := db.QueryRowxContext(ctx, db.Rebind(query+" RETURNING id"), args...).Scan(&id)
	return id, err
}

// whereClause accumulates AND-ed conditions with their arguments.
type whereClause struct {
	conds []string
	args  []interface{}
}

func (w *whereClause) add(cond string, args ...interface{}) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

func (w *whereClause) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}
