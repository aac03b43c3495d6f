// Package support is the channel between students and the administration.
// Students write to an admin about one of their tasks; admins write to any user.
package support

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/Hoopakid/HRMobileProjectBackend/core"
	"github.com/Hoopakid/HRMobileProjectBackend/core/task"
	"github.com/Hoopakid/HRMobileProjectBackend/core/user"
)

// Kinds
const (
	KindTask    = "task"    // student -> admin, about a task
	KindSupport = "support" // admin -> user
)

var (
	// errors
	ErrReceiverNotFound = errors.New("receiver not found")
	ErrReceiverNotAdmin = errors.New("receiver is not an administrator")
)

type Message struct {
	ID         int       `json:"id"`
	Kind       string    `json:"kind"`
	Message    string    `json:"message"`
	Voice      string    `json:"voice,omitempty"`
	SenderID   int       `json:"sender_id"`
	ReceiverID int       `json:"receiver_id"`
	TaskID     *int      `json:"task_id"`
	SentAt     time.Time `json:"sent_at"` // UTC
}

type NewMessage struct {
	Message    string `json:"message" validate:"required"`
	ReceiverID int    `json:"receiver_id" validate:"required,gt=0"`
}

func (nm *NewMessage) Validate(validate *validator.Validate) error {
	nm.Message = core.CleanString(nm.Message)
	return validate.Struct(nm)
}

type QueryFilter struct {
	UserID int // sent or received by
	TaskID int
}

type (
	Repository interface {
		CreateMessage(ctx context.Context, msg Message) (Message, error)
		// QueryMessages applies AND operation on available QueryFilter fields, newest first.
		QueryMessages(ctx context.Context, filter QueryFilter) ([]Message, error)
	}

	// UserGetter is the part of user.Service support needs.
	UserGetter interface {
		GetByID(ctx context.Context, id int) (user.User, error)
	}

	Service struct {
		repo    Repository
		users   UserGetter
		nowFunc func() time.Time
	}
)

func NewService(repo Repository, users UserGetter) *Service {
	return &Service{repo: repo, users: users, nowFunc: time.Now}
}

func (svc *Service) getReceiver(ctx context.Context, id int) (user.User, error) {
	usr, err := svc.users.GetByID(ctx, id)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return user.User{}, core.NewFieldValidationError("receiver_id", ErrReceiverNotFound.Error())
		}
		return user.User{}, errors.Wrap(err, "finding receiver")
	}
	return usr, nil
}

// AskAboutTask sends a message from sender to an admin about t. nm must be validated and t visible to sender.
func (svc *Service) AskAboutTask(ctx context.Context, sender user.User, t task.Task, nm NewMessage) (Message, error) {
	receiver, err := svc.getReceiver(ctx, nm.ReceiverID)
	if err != nil {
		return Message{}, err
	}
	if !receiver.IsAdmin {
		return Message{}, core.NewFieldValidationError("receiver_id", ErrReceiverNotAdmin.Error())
	}
	taskID := t.ID
	return svc.repo.CreateMessage(ctx, Message{
		Kind:       KindTask,
		Message:    nm.Message,
		SenderID:   sender.ID,
		ReceiverID: receiver.ID,
		TaskID:     &taskID,
		SentAt:     svc.nowFunc().UTC(),
	})
}

// Reply sends a support message from an admin to any user. nm must be validated.
func (svc *Service) Reply(ctx context.Context, admin user.User, nm NewMessage) (Message, error) {
	receiver, err := svc.getReceiver(ctx, nm.ReceiverID)
	if err != nil {
		return Message{}, err
	}
	return svc.repo.CreateMessage(ctx, Message{
		Kind:       KindSupport,
		Message:    nm.Message,
		SenderID:   admin.ID,
		ReceiverID: receiver.ID,
		SentAt:     svc.nowFunc().UTC(),
	})
}

func (svc *Service) QueryForUser(ctx context.Context, userID int) ([]Message, error) {
	return svc.repo.QueryMessages(ctx, QueryFilter{UserID: userID})
}

func (svc *Service) QueryForTask(ctx context.Context, taskID int) ([]Message, error) {
	return svc.repo.QueryMessages(ctx, QueryFilter{TaskID: taskID})
}
