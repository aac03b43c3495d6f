package chat

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// Room binds two users to a stable conversation key. SenderID and ReceiverID keep the roles of the first resolution.
type Room struct {
	ID         int       `json:"id"`
	Key        string    `json:"key"`
	SenderID   int       `json:"sender_id"`
	ReceiverID int       `json:"receiver_id"`
	CreatedAt  time.Time `json:"created_at"` // UTC
}

// Pair returns the ids of the room users, lowest first.
func (r Room) Pair() (int, int) {
	return sortPair(r.SenderID, r.ReceiverID)
}

func sortPair(a, b int) (int, int) {
	if a > b {
		return b, a
	}
	return a, b
}

type roomKeyData struct {
	SenderID   int `json:"sender_id"`
	ReceiverID int `json:"receiver_id"`
}

// RoomKey returns the hex encoded sha256 of the JSON encoded pair, lowest id first, so that
// RoomKey(a, b) == RoomKey(b, a).
func RoomKey(a, b int) string {
	low, high := sortPair(a, b)
	data, _ := json.Marshal(roomKeyData{SenderID: low, ReceiverID: high}) // cannot fail
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
