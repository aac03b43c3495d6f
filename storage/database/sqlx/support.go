package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Hoopakid/HRMobileProjectBackend/core"
	"github.com/Hoopakid/HRMobileProjectBackend/core/support"
)

const supportColumns = "id, kind, message, voice, sender_id, receiver_id, task_id, sent_at"

type supportRow struct {
	ID         int         `db:"id"`
	Kind       string      `db:"kind"`
	Message    string      `db:"message"`
	Voice      null.String `db:"voice"`
	SenderID   int         `db:"sender_id"`
	ReceiverID int         `db:"receiver_id"`
	TaskID     null.Int    `db:"task_id"`
	SentAt     time.Time   `db:"sent_at"`
}

func (r supportRow) toMessage() support.Message {
	return support.Message{
		ID:         r.ID,
		Kind:       r.Kind,
		Message:    r.Message,
		Voice:      r.Voice.String,
		SenderID:   r.SenderID,
		ReceiverID: r.ReceiverID,
		TaskID:     r.TaskID.Ptr(),
		SentAt:     r.SentAt.UTC(),
	}
}

type supportRepository struct {
	db core.DB
}

var _ support.Repository = (*supportRepository)(nil)

func NewSupportRepository(db core.DB) support.Repository {
	return &supportRepository{db: db}
}

func (repo *supportRepository) CreateMessage(ctx context.Context, msg support.Message) (support.Message, error) {
	id, err := insertReturningID(ctx, repo.db,
		`INSERT INTO support_messages (kind, message, voice, sender_id, receiver_id, task_id, sent_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		msg.Kind, msg.Message, null.NewString(msg.Voice, msg.Voice != ""), msg.SenderID, msg.ReceiverID,
		null.IntFromPtr(msg.TaskID), msg.SentAt.UTC(),
	)
	if err != nil {
		return support.Message{}, errors.Wrap(err, "inserting support message")
	}

	var row supportRow
	q := repo.db.Rebind("SELECT " + supportColumns + " FROM support_messages WHERE id = ?")
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		return support.Message{}, errors.Wrap(err, "selecting support message")
	}
	return row.toMessage(), nil
}

func (repo *supportRepository) QueryMessages(ctx context.Context, filter support.QueryFilter) ([]support.Message, error) {
	var where whereClause
	if filter.UserID > 0 {
		where.add("(sender_id = ? OR receiver_id = ?)", filter.UserID, filter.UserID)
	}
	if filter.TaskID > 0 {
		where.add("task_id = ?", filter.TaskID)
	}

	var rows []supportRow
	q := "SELECT " + supportColumns + " FROM support_messages" + where.String() + " ORDER BY sent_at DESC, id DESC"
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), where.args...); err != nil {
		return nil, errors.Wrap(err, "selecting support messages")
	}
	msgs := make([]support.Message, 0, len(rows))
	for _, row := range rows {
		msgs = append(msgs, row.toMessage())
	}
	return msgs, nil
}
