package chat

import (
	"time"

	"github.com/Hoopakid/HRMobileProjectBackend/core"
)

type Message struct {
	ID         int       `json:"id"`
	SenderID   int       `json:"sender_id"`
	ReceiverID int       `json:"receiver_id"`
	Message    string    `json:"message"`
	SentAt     time.Time `json:"sent_at"` // UTC
}

// NewMessage is the payload of a direct message.
type NewMessage struct {
	Message  string `json:"message" validate:"required"`
	Receiver int    `json:"receiver" validate:"required,gt=0"`
}

func (nm *NewMessage) Clean() {
	nm.Message = core.CleanString(nm.Message)
}

type ResolveRoom struct {
	ReceiverID int `json:"receiver_id" validate:"required,gt=0"`
}
