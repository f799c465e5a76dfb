package realtime

// Server→client event names carried over the stream.
const (
	EventConnected         = "connected"
	EventRoomJoined        = "room-joined"
	EventRoomLimitExceeded = "room-limit-exceeded"
	EventUserBlocked       = "user-blocked"
	EventBookingUpdated    = "booking-updated"
	EventPong              = "pong"
)

// Event is the typed message delivered through a connection's mailbox.
type Event struct {
	Name string `json:"event"`
	Data any    `json:"data"`
}

type ConnectedPayload struct {
	ConnectionID string `json:"connectionId"`
}

type RoomJoinedPayload struct {
	TripID    int64 `json:"tripId"`
	JoinCount int   `json:"joinCount"`
	MaxJoins  int   `json:"maxJoins"`
}

type RoomLimitPayload struct {
	TripID   int64 `json:"tripId"`
	MaxJoins int   `json:"maxJoins"`
}

type BlockedPayload struct {
	Reason           string `json:"reason"`
	RemainingSeconds int    `json:"remainingSeconds"`
}

type BookingUpdatePayload struct {
	TripID         int64 `json:"tripId"`
	SeatsAvailable int   `json:"seatsAvailable"`
	AssignedSeats  []int `json:"assignedSeats,omitempty"`
}
