package realtime

import (
	"context"
	"errors"
	"sync"
	"time"

	"bustix/internal/domain"

	"github.com/google/uuid"
)

const mailboxSize = 16

// Conn is one realtime connection. Events reach the transport through a
// bounded mailbox; a slow consumer loses messages rather than blocking the
// hub (delivery is at-most-once, best-effort).
type Conn struct {
	ID   string
	User string

	mailbox      chan Event
	joined       map[int64]bool
	lastActivity time.Time
	closed       bool
}

// Events is the receive side of the connection's mailbox. It closes when the
// connection is disconnected.
func (c *Conn) Events() <-chan Event {
	return c.mailbox
}

type HubConfig struct {
	IdleThreshold   time.Duration
	DisconnectGrace time.Duration
}

// Hub keeps one implicit room per trip and fans booking events out to the
// room's members. Admission is gated by the governor.
type Hub struct {
	cfg      HubConfig
	governor *Governor
	now      func() time.Time

	mu    sync.Mutex
	conns map[string]*Conn
	rooms map[int64]map[string]*Conn
}

func NewHub(cfg HubConfig, governor *Governor, now func() time.Time) *Hub {
	if now == nil {
		now = time.Now
	}
	if cfg.IdleThreshold <= 0 {
		cfg.IdleThreshold = 10 * time.Minute
	}
	if cfg.DisconnectGrace <= 0 {
		cfg.DisconnectGrace = 2 * time.Second
	}
	return &Hub{
		cfg:      cfg,
		governor: governor,
		now:      now,
		conns:    map[string]*Conn{},
		rooms:    map[int64]map[string]*Conn{},
	}
}

// Connect registers a new connection for the user, subject to the governor.
func (h *Hub) Connect(user string) (*Conn, error) {
	if err := h.governor.AllowConnect(user); err != nil {
		return nil, err
	}

	conn := &Conn{
		ID:           uuid.NewString(),
		User:         user,
		mailbox:      make(chan Event, mailboxSize),
		joined:       map[int64]bool{},
		lastActivity: h.now(),
	}

	h.mu.Lock()
	h.conns[conn.ID] = conn
	h.mu.Unlock()

	h.send(conn, Event{Name: EventConnected, Data: ConnectedPayload{ConnectionID: conn.ID}})
	return conn, nil
}

// Disconnect removes the connection from every room and closes its mailbox.
func (h *Hub) Disconnect(connID string) {
	h.mu.Lock()
	conn, ok := h.conns[connID]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(h.conns, connID)
	for tripID := range conn.joined {
		h.removeFromRoom(tripID, connID)
	}
	conn.closed = true
	close(conn.mailbox)
	h.mu.Unlock()

	h.governor.Disconnect(conn.User)
}

// Join admits the connection into a trip's room. A governor rejection sends
// the rejection events to the connection first, then schedules a forced
// disconnect after the grace delay so the client sees why it was dropped.
func (h *Hub) Join(connID string, tripID int64) (RoomJoinedPayload, error) {
	h.mu.Lock()
	conn, ok := h.conns[connID]
	if !ok {
		h.mu.Unlock()
		return RoomJoinedPayload{}, domain.NotFoundError{Resource: "connection"}
	}
	conn.lastActivity = h.now()
	if conn.joined[tripID] {
		// Rejoining the same room is idempotent and costs no join credit.
		payload := RoomJoinedPayload{TripID: tripID, JoinCount: 0, MaxJoins: h.governor.MaxRoomJoins()}
		h.mu.Unlock()
		h.send(conn, Event{Name: EventRoomJoined, Data: payload})
		return payload, nil
	}
	h.mu.Unlock()

	joinCount, err := h.governor.AllowJoin(conn.User)
	if err != nil {
		var throttle domain.ThrottleError
		if errors.As(err, &throttle) {
			if throttle.Kind == domain.KindRoomJoinThrottled {
				h.send(conn, Event{Name: EventRoomLimitExceeded, Data: RoomLimitPayload{
					TripID:   tripID,
					MaxJoins: h.governor.MaxRoomJoins(),
				}})
			}
			h.send(conn, Event{Name: EventUserBlocked, Data: BlockedPayload{
				Reason:           throttle.Reason,
				RemainingSeconds: throttle.RemainingSeconds,
			}})
			time.AfterFunc(h.cfg.DisconnectGrace, func() { h.Disconnect(connID) })
		}
		return RoomJoinedPayload{}, err
	}

	h.mu.Lock()
	if h.conns[connID] == nil {
		h.mu.Unlock()
		// The connection closed while the join was admitted; hand the
		// credit back so the user is not charged for a join that never
		// took effect.
		h.governor.RefundJoin(conn.User)
		return RoomJoinedPayload{}, domain.NotFoundError{Resource: "connection"}
	}
	room, ok := h.rooms[tripID]
	if !ok {
		room = map[string]*Conn{}
		h.rooms[tripID] = room
	}
	room[connID] = conn
	conn.joined[tripID] = true
	h.mu.Unlock()

	payload := RoomJoinedPayload{TripID: tripID, JoinCount: joinCount, MaxJoins: h.governor.MaxRoomJoins()}
	h.send(conn, Event{Name: EventRoomJoined, Data: payload})
	return payload, nil
}

// Leave removes the connection from a trip's room.
func (h *Hub) Leave(connID string, tripID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn, ok := h.conns[connID]
	if !ok {
		return
	}
	conn.lastActivity = h.now()
	delete(conn.joined, tripID)
	h.removeFromRoom(tripID, connID)
}

// Ping refreshes the connection's activity timestamp and answers with pong.
func (h *Hub) Ping(connID string) error {
	h.mu.Lock()
	conn, ok := h.conns[connID]
	if ok {
		conn.lastActivity = h.now()
	}
	h.mu.Unlock()

	if !ok {
		return domain.NotFoundError{Resource: "connection"}
	}
	h.send(conn, Event{Name: EventPong, Data: nil})
	return nil
}

// PublishBookingUpdate broadcasts a seat/booking snapshot to every member of
// the trip's room. Implements the coordinators' event sink.
func (h *Hub) PublishBookingUpdate(tripID int64, seatsAvailable int, assignedSeats []int) {
	ev := Event{Name: EventBookingUpdated, Data: BookingUpdatePayload{
		TripID:         tripID,
		SeatsAvailable: seatsAvailable,
		AssignedSeats:  assignedSeats,
	}}

	h.mu.Lock()
	members := make([]*Conn, 0, len(h.rooms[tripID]))
	for _, conn := range h.rooms[tripID] {
		members = append(members, conn)
	}
	h.mu.Unlock()

	for _, conn := range members {
		h.send(conn, ev)
	}
}

// EvictIdle removes idle connections from all their rooms and resets their
// join counters, regardless of whether the transport is still open.
func (h *Hub) EvictIdle() int {
	h.mu.Lock()
	cutoff := h.now().Add(-h.cfg.IdleThreshold)
	var evicted []*Conn
	for _, conn := range h.conns {
		if conn.lastActivity.Before(cutoff) && len(conn.joined) > 0 {
			for tripID := range conn.joined {
				h.removeFromRoom(tripID, conn.ID)
			}
			conn.joined = map[int64]bool{}
			evicted = append(evicted, conn)
		}
	}
	h.mu.Unlock()

	for _, conn := range evicted {
		h.governor.ResetJoins(conn.User)
	}
	return len(evicted)
}

// Run drives idle eviction and governor sweeps until the context ends.
func (h *Hub) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			h.EvictIdle()
			h.governor.Sweep()
		}
	}
}

// send delivers without blocking; a full mailbox drops the event.
func (h *Hub) send(conn *Conn, ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conn.closed {
		return
	}
	select {
	case conn.mailbox <- ev:
	default:
	}
}

// removeFromRoom deletes the membership and garbage-collects empty rooms.
// Callers hold h.mu.
func (h *Hub) removeFromRoom(tripID int64, connID string) {
	room, ok := h.rooms[tripID]
	if !ok {
		return
	}
	delete(room, connID)
	if len(room) == 0 {
		delete(h.rooms, tripID)
	}
}
