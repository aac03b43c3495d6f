package chat

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"

	"github.com/pkg/errors"

	"github.com/Hoopakid/HRMobileProjectBackend/core"
)

var (
	// errors
	ErrCapacityExceeded = errors.New("chat capacity exceeded")
	ErrAlreadyConnected = errors.New("endpoint already connected")
)

type (
	// Endpoint is the sending half of a live relay connection.
	// Endpoints are compared by identity, so implementations should be pointers.
	Endpoint interface {
		Send(msg []byte) error
	}

	// Conn is a live relay connection. Receive blocks until the next inbound text frame arrives
	// and returns an error once the connection is closed.
	Conn interface {
		Endpoint
		Receive(ctx context.Context) ([]byte, error)
	}

	member struct {
		endpoint Endpoint
		room     string
	}

	// Registry tracks the live relay connections grouped by room, and fans messages out to them.
	Registry struct {
		mu       sync.RWMutex
		members  []member // in admission order
		capacity int
		logger   core.Logger
	}
)

// NewRegistry returns an empty Registry admitting at most capacity connections in total (<= 0: unlimited).
func NewRegistry(capacity int, logger core.Logger) *Registry {
	return &Registry{capacity: capacity, logger: logger}
}

func (r *Registry) full() bool {
	return r.capacity > 0 && len(r.members) >= r.capacity
}

// Connect admits ep in room. Membership is unchanged when an error is returned.
func (r *Registry) Connect(ep Endpoint, room string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.full() {
		return ErrCapacityExceeded
	}
	for _, m := range r.members {
		if m.endpoint == ep {
			return ErrAlreadyConnected
		}
	}
	r.members = append(r.members, member{endpoint: ep, room: room})
	return nil
}

// Disconnect removes ep. It is a no-op if ep is not a member.
func (r *Registry) Disconnect(ep Endpoint) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, m := range r.members {
		if m.endpoint == ep {
			r.members = append(r.members[:i:i], r.members[i+1:]...)
			return
		}
	}
}

// Broadcast sends msg to every member of room, in admission order, and returns the number of successful sends.
// A failing endpoint does not prevent delivery to the others.
func (r *Registry) Broadcast(msg []byte, room string) int {
	var delivered int
	for _, ep := range r.roomEndpoints(room) {
		if err := ep.Send(msg); err != nil {
			r.logger.Warn(fmt.Sprintf("chat: broadcasting to room %q", room), err)
			continue
		}
		delivered++
	}
	return delivered
}

// roomEndpoints returns a snapshot so that sends happen outside the lock.
func (r *Registry) roomEndpoints(room string) []Endpoint {
	r.mu.RLock()
	defer r.mu.RUnlock()

	eps := make([]Endpoint, 0, len(r.members))
	for _, m := range r.members {
		if m.room == room {
			eps = append(eps, m.endpoint)
		}
	}
	return eps
}

// SendFile broadcasts data to room as standard base64 text.
func (r *Registry) SendFile(room string, data []byte) int {
	return r.Broadcast([]byte(base64.StdEncoding.EncodeToString(data)), room)
}

// Serve runs the relay session of conn: every frame received is broadcast to room, until conn is closed or
// ctx is done. The admission error is returned; once admitted, conn is always disconnected and Serve returns nil.
func (r *Registry) Serve(ctx context.Context, conn Conn, room string) error {
	if err := r.Connect(conn, room); err != nil {
		return err
	}
	defer r.Disconnect(conn)

	for {
		msg, err := conn.Receive(ctx)
		if err != nil {
			return nil
		}
		r.Broadcast(msg, room)
	}
}

// Len returns the number of live connections across all rooms.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

// Full reports whether a new connection would be refused for capacity.
func (r *Registry) Full() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.full()
}

// Rooms returns the number of live connections per room.
func (r *Registry) Rooms() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms := make(map[string]int)
	for _, m := range r.members {
		rooms[m.room]++
	}
	return rooms
}
