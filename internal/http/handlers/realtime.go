package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"bustix/internal/domain"
	"bustix/internal/http/middleware"
	"bustix/internal/realtime"
	"bustix/internal/utils"
)

type roomPayload struct {
	ConnectionID string `json:"connectionId"`
	TripID       int64  `json:"tripId"`
}

type pingPayload struct {
	ConnectionID string `json:"connectionId"`
}

// RealtimeHandlers exposes the hub over SSE plus small control endpoints.
// The stream carries events down; join/leave/ping come up as plain POSTs
// keyed by the connection id announced in the "connected" event.
type RealtimeHandlers struct {
	Hub *realtime.Hub
}

// Stream opens a server-sent-events connection for the authenticated user.
func (h RealtimeHandlers) Stream(c *gin.Context) {
	requestID := middleware.GetRequestID(c)
	actor := middleware.GetActor(c)

	conn, err := h.Hub.Connect(actor.Email)
	if err != nil {
		RespondDomainError(c, requestID, "realtime", err)
		return
	}
	defer h.Hub.Disconnect(conn.ID)

	utils.LogEvent(requestID, "realtime", "connected", "user "+actor.Email+" conn "+conn.ID)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	clientGone := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-clientGone:
			return false
		case ev, ok := <-conn.Events():
			if !ok {
				return false
			}
			c.SSEvent(ev.Name, ev.Data)
			return true
		}
	})
}

// Join subscribes a connection to a trip's booking updates.
func (h RealtimeHandlers) Join(c *gin.Context) {
	requestID := middleware.GetRequestID(c)

	var payload roomPayload
	if !BindJSONOrError(c, &payload) {
		return
	}
	if payload.ConnectionID == "" || payload.TripID == 0 {
		RespondDomainError(c, requestID, "realtime",
			domain.ValidationError{Msg: "connectionId and tripId are required"})
		return
	}

	joined, err := h.Hub.Join(payload.ConnectionID, payload.TripID)
	if err != nil {
		RespondDomainError(c, requestID, "realtime", err)
		return
	}
	respondOK(c, http.StatusOK, joined)
}

// Leave unsubscribes a connection from a trip. Leaving does not return
// join credit; the per-user counter only resets on disconnect or idle
// eviction.
func (h RealtimeHandlers) Leave(c *gin.Context) {
	requestID := middleware.GetRequestID(c)

	var payload roomPayload
	if !BindJSONOrError(c, &payload) {
		return
	}
	if payload.ConnectionID == "" || payload.TripID == 0 {
		RespondDomainError(c, requestID, "realtime",
			domain.ValidationError{Msg: "connectionId and tripId are required"})
		return
	}

	h.Hub.Leave(payload.ConnectionID, payload.TripID)
	respondOK(c, http.StatusOK, gin.H{"left": payload.TripID})
}

// Ping refreshes a connection's activity clock; the pong arrives on the
// stream.
func (h RealtimeHandlers) Ping(c *gin.Context) {
	requestID := middleware.GetRequestID(c)

	var payload pingPayload
	if !BindJSONOrError(c, &payload) {
		return
	}
	if err := h.Hub.Ping(payload.ConnectionID); err != nil {
		RespondDomainError(c, requestID, "realtime", err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"ok": true})
}
