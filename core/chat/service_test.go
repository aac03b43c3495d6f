package chat

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hoopakid/HRMobileProjectBackend/core"
)

// memRepo keeps rooms and messages in memory, with the same pair uniqueness as the SQL schema.
type memRepo struct {
	mu       sync.Mutex
	rooms    []Room
	messages []Message
	inserts  int
}

func (r *memRepo) FindRoom(_ context.Context, a, b int) (Room, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, room := range r.rooms {
		if (room.SenderID == a && room.ReceiverID == b) || (room.SenderID == b && room.ReceiverID == a) {
			return room, true, nil
		}
	}
	return Room{}, false, nil
}

func (r *memRepo) InsertOrGetRoom(_ context.Context, room Room) (Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	low, high := room.Pair()
	for _, existing := range r.rooms {
		if l, h := existing.Pair(); l == low && h == high {
			return existing, nil
		}
	}
	r.inserts++
	room.ID = len(r.rooms) + 1
	r.rooms = append(r.rooms, room)
	return room, nil
}

func (r *memRepo) CreateMessage(_ context.Context, msg Message) (Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg.ID = len(r.messages) + 1
	r.messages = append(r.messages, msg)
	return msg, nil
}

func (r *memRepo) QueryMessages(_ context.Context, a, b int) ([]Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var msgs []Message
	for _, m := range r.messages {
		if (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a) {
			msgs = append(msgs, m)
		}
	}
	sort.SliceStable(msgs, func(i, j int) bool { return msgs[i].SentAt.Before(msgs[j].SentAt) })
	return msgs, nil
}

type knownUsers map[int]bool

func (u knownUsers) Exists(_ context.Context, id int) (bool, error) {
	return u[id], nil
}

func newTestService(repo Repository) *Service {
	validate := validator.New()
	core.InitValidators(validate, core.NewTranslator())
	return NewService(repo, knownUsers{5: true, 9: true, 12: true}, validate)
}

func TestService_ResolveRoom(t *testing.T) {
	ctx := context.Background()

	t.Run("symmetry", func(t *testing.T) {
		repo := new(memRepo)
		svc := newTestService(repo)

		r1, err := svc.ResolveRoom(ctx, 5, ResolveRoom{ReceiverID: 9})
		require.NoError(t, err)
		r2, err := svc.ResolveRoom(ctx, 9, ResolveRoom{ReceiverID: 5})
		require.NoError(t, err)

		assert.Equal(t, r1.ID, r2.ID)
		assert.Equal(t, RoomKey(5, 9), r1.Key)
		assert.Equal(t, 5, r1.SenderID, "roles of the first resolution are kept")
		assert.Equal(t, 9, r1.ReceiverID)
	})

	t.Run("created exactly once", func(t *testing.T) {
		repo := new(memRepo)
		svc := newTestService(repo)

		_, err := svc.ResolveRoom(ctx, 5, ResolveRoom{ReceiverID: 9})
		require.NoError(t, err)
		_, err = svc.ResolveRoom(ctx, 5, ResolveRoom{ReceiverID: 9})
		require.NoError(t, err)

		assert.Len(t, repo.rooms, 1)
		assert.Equal(t, 1, repo.inserts, "second resolution must not insert")
	})

	t.Run("concurrent first resolution", func(t *testing.T) {
		repo := new(memRepo)
		svc := newTestService(repo)

		var wg sync.WaitGroup
		ids := make([]int, 10)
		for i := range ids {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				sender, receiver := 5, 9
				if i%2 == 0 {
					sender, receiver = 9, 5
				}
				room, err := svc.ResolveRoom(ctx, sender, ResolveRoom{ReceiverID: receiver})
				assert.NoError(t, err)
				ids[i] = room.ID
			}(i)
		}
		wg.Wait()

		assert.Len(t, repo.rooms, 1)
		for _, id := range ids {
			assert.Equal(t, repo.rooms[0].ID, id)
		}
	})

	t.Run("validation", func(t *testing.T) {
		svc := newTestService(new(memRepo))

		_, err := svc.ResolveRoom(ctx, 5, ResolveRoom{})
		_, ok := err.(validator.ValidationErrors)
		assert.True(t, ok, "receiver_id required")

		_, err = svc.ResolveRoom(ctx, 5, ResolveRoom{ReceiverID: 5})
		assert.True(t, core.IsValidationError(err), "self chat")

		_, err = svc.ResolveRoom(ctx, 5, ResolveRoom{ReceiverID: 404})
		require.True(t, core.IsValidationError(err), "unknown receiver")
		assert.Equal(t, ErrReceiverNotFound.Error(), err.Error())
	})
}

func TestService_Messages(t *testing.T) {
	ctx := context.Background()
	repo := new(memRepo)
	svc := newTestService(repo)

	msg, err := svc.SendMessage(ctx, 5, NewMessage{Message: "  hi ", Receiver: 9})
	require.NoError(t, err)
	assert.Equal(t, "hi", msg.Message)
	_, err = svc.SendMessage(ctx, 9, NewMessage{Message: "hello", Receiver: 5})
	require.NoError(t, err)
	_, err = svc.SendMessage(ctx, 5, NewMessage{Message: "other", Receiver: 12})
	require.NoError(t, err)

	for _, pair := range [][2]int{{5, 9}, {9, 5}} {
		msgs, err := svc.History(ctx, pair[0], pair[1])
		require.NoError(t, err)
		require.Len(t, msgs, 2)
		assert.Equal(t, "hi", msgs[0].Message)
		assert.Equal(t, "hello", msgs[1].Message)
	}

	_, err = svc.SendMessage(ctx, 5, NewMessage{Message: "   ", Receiver: 9})
	_, ok := err.(validator.ValidationErrors)
	assert.True(t, ok, "blank message")

	_, err = svc.SendMessage(ctx, 5, NewMessage{Message: "hi", Receiver: 404})
	assert.True(t, core.IsValidationError(err), "unknown receiver")

	_, err = svc.History(ctx, 5, 0)
	assert.True(t, core.IsValidationError(err))
}
