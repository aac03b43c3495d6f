package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/Hoopakid/HRMobileProjectBackend/core"
	"github.com/Hoopakid/HRMobileProjectBackend/core/chat"
)

const roomColumns = `id, "key", sender_id, receiver_id, created_at`

type roomRow struct {
	ID         int       `db:"id"`
	Key        string    `db:"key"`
	SenderID   int       `db:"sender_id"`
	ReceiverID int       `db:"receiver_id"`
	CreatedAt  time.Time `db:"created_at"`
}

func (r roomRow) toRoom() chat.Room {
	return chat.Room{
		ID:         r.ID,
		Key:        r.Key,
		SenderID:   r.SenderID,
		ReceiverID: r.ReceiverID,
		CreatedAt:  r.CreatedAt.UTC(),
	}
}

type messageRow struct {
	ID         int       `db:"id"`
	SenderID   int       `db:"sender_id"`
	ReceiverID int       `db:"receiver_id"`
	Message    string    `db:"message"`
	SentAt     time.Time `db:"sent_at"`
}

func (r messageRow) toMessage() chat.Message {
	return chat.Message{
		ID:         r.ID,
		SenderID:   r.SenderID,
		ReceiverID: r.ReceiverID,
		Message:    r.Message,
		SentAt:     r.SentAt.UTC(),
	}
}

type chatRepository struct {
	db core.DB
}

var _ chat.Repository = (*chatRepository)(nil)

func NewChatRepository(db core.DB) chat.Repository {
	return &chatRepository{db: db}
}

func pair(a, b int) (int, int) {
	if a > b {
		return b, a
	}
	return a, b
}

func (repo *chatRepository) FindRoom(ctx context.Context, a, b int) (chat.Room, bool, error) {
	low, high := pair(a, b)
	var row roomRow
	q := repo.db.Rebind("SELECT " + roomColumns + " FROM room WHERE low_id = ? AND high_id = ?")
	if err := repo.db.GetContext(ctx, &row, q, low, high); err != nil {
		if err == sql.ErrNoRows {
			return chat.Room{}, false, nil
		}
		return chat.Room{}, false, errors.Wrap(err, "selecting room")
	}
	return row.toRoom(), true, nil
}

// InsertOrGetRoom relies on the (low_id, high_id) unique constraint: concurrent first resolutions of
// the same pair all read back the single stored row.
func (repo *chatRepository) InsertOrGetRoom(ctx context.Context, room chat.Room) (chat.Room, error) {
	low, high := room.Pair()
	_, err := repo.db.ExecContext(ctx, repo.db.Rebind(
		`INSERT INTO room ("key", sender_id, receiver_id, low_id, high_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (low_id, high_id) DO NOTHING`),
		room.Key, room.SenderID, room.ReceiverID, low, high, room.CreatedAt.UTC(),
	)
	if err != nil {
		return chat.Room{}, errors.Wrap(err, "inserting room")
	}

	stored, found, err := repo.FindRoom(ctx, low, high)
	if err != nil {
		return chat.Room{}, err
	}
	if !found {
		return chat.Room{}, errors.New("room vanished after insert")
	}
	return stored, nil
}

func (repo *chatRepository) CreateMessage(ctx context.Context, msg chat.Message) (chat.Message, error) {
	id, err := insertReturningID(ctx, repo.db,
		"INSERT INTO messages (sender_id, receiver_id, message, sent_at) VALUES (?, ?, ?, ?)",
		msg.SenderID, msg.ReceiverID, msg.Message, msg.SentAt.UTC(),
	)
	if err != nil {
		return chat.Message{}, errors.Wrap(err, "inserting message")
	}

	var row messageRow
	q := repo.db.Rebind("SELECT id, sender_id, receiver_id, message, sent_at FROM messages WHERE id = ?")
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		return chat.Message{}, errors.Wrap(err, "selecting message")
	}
	return row.toMessage(), nil
}

func (repo *chatRepository) QueryMessages(ctx context.Context, a, b int) ([]chat.Message, error) {
	var rows []messageRow
	q := repo.db.Rebind(`SELECT id, sender_id, receiver_id, message, sent_at FROM messages
		WHERE (sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)
		ORDER BY sent_at, id`)
	if err := repo.db.SelectContext(ctx, &rows, q, a, b, b, a); err != nil {
		return nil, errors.Wrap(err, "selecting messages")
	}
	msgs := make([]chat.Message, 0, len(rows))
	for _, row := range rows {
		msgs = append(msgs, row.toMessage())
	}
	return msgs, nil
}
