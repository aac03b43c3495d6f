package chat

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/Hoopakid/HRMobileProjectBackend/core"
)

var (
	// errors
	ErrReceiverNotFound = errors.New("receiver not found")
	ErrSelfChat         = errors.New("cannot chat with yourself")
)

type (
	Repository interface {
		// FindRoom looks the pair up in either order.
		FindRoom(ctx context.Context, a, b int) (Room, bool, error)
		// InsertOrGetRoom inserts room unless the pair already has one, then returns the stored room.
		InsertOrGetRoom(ctx context.Context, room Room) (Room, error)
		CreateMessage(ctx context.Context, msg Message) (Message, error)
		// QueryMessages returns the messages exchanged by a and b, in either direction, oldest first.
		QueryMessages(ctx context.Context, a, b int) ([]Message, error)
	}

	// UserChecker is the part of user.Service chats need.
	UserChecker interface {
		Exists(ctx context.Context, id int) (bool, error)
	}

	Service struct {
		repo     Repository
		users    UserChecker
		validate *validator.Validate
		nowFunc  func() time.Time
	}
)

func NewService(repo Repository, users UserChecker, validate *validator.Validate) *Service {
	return &Service{
		repo:     repo,
		users:    users,
		validate: validate,
		nowFunc:  time.Now,
	}
}

func (svc *Service) checkReceiver(ctx context.Context, field string, senderID, receiverID int) error {
	if receiverID == senderID {
		return core.NewFieldValidationError(field, ErrSelfChat.Error())
	}
	exists, err := svc.users.Exists(ctx, receiverID)
	if err != nil {
		return errors.Wrap(err, "checking receiver")
	}
	if !exists {
		return core.NewFieldValidationError(field, ErrReceiverNotFound.Error())
	}
	return nil
}

// ResolveRoom returns the room of senderID and receiverID, creating it on first use.
func (svc *Service) ResolveRoom(ctx context.Context, senderID int, data ResolveRoom) (Room, error) {
	if err := svc.validate.Struct(data); err != nil {
		return Room{}, err
	}
	if err := svc.checkReceiver(ctx, "receiver_id", senderID, data.ReceiverID); err != nil {
		return Room{}, err
	}

	room, found, err := svc.repo.FindRoom(ctx, senderID, data.ReceiverID)
	if err != nil {
		return Room{}, errors.Wrap(err, "finding room")
	}
	if found {
		return room, nil
	}

	room, err = svc.repo.InsertOrGetRoom(ctx, Room{
		Key:        RoomKey(senderID, data.ReceiverID),
		SenderID:   senderID,
		ReceiverID: data.ReceiverID,
		CreatedAt:  svc.nowFunc().UTC(),
	})
	return room, errors.Wrap(err, "creating room")
}

// SendMessage stores a direct message from senderID. Delivery happens on the next History fetch.
func (svc *Service) SendMessage(ctx context.Context, senderID int, nm NewMessage) (Message, error) {
	nm.Clean()
	if err := svc.validate.Struct(nm); err != nil {
		return Message{}, err
	}
	if err := svc.checkReceiver(ctx, "receiver", senderID, nm.Receiver); err != nil {
		return Message{}, err
	}

	msg, err := svc.repo.CreateMessage(ctx, Message{
		SenderID:   senderID,
		ReceiverID: nm.Receiver,
		Message:    nm.Message,
		SentAt:     svc.nowFunc().UTC(),
	})
	return msg, errors.Wrap(err, "creating message")
}

// History returns the conversation of userID and otherID, oldest first.
func (svc *Service) History(ctx context.Context, userID, otherID int) ([]Message, error) {
	if otherID <= 0 {
		return nil, core.NewFieldValidationError("receiver_id", "this field is required")
	}
	msgs, err := svc.repo.QueryMessages(ctx, userID, otherID)
	if err != nil {
		return nil, errors.Wrap(err, "querying messages")
	}
	return msgs, nil
}
