// Package ws fans bus events out to connected websocket clients. Each
// client gets the events addressed to it (notifications, watermark
// advances), the chat streams of trips it has subscribed to, and the
// broadcast trip lifecycle events the feed views react to.
package ws

import (
	"sync"

	"github.com/commutelink/rideshare-backend/internal/events"
	"github.com/commutelink/rideshare-backend/internal/observability"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// clientCommand is the only inbound frame clients send: subscribing to
// or leaving a trip's chat stream
type clientCommand struct {
	Action string `json:"action"` // "subscribe" or "unsubscribe"
	TripID string `json:"trip_id"`
}

// Session represents one connected client
type Session struct {
	conn   *websocket.Conn
	userID string

	writeMu sync.Mutex

	tripMu sync.RWMutex
	trips  map[string]bool
}

func (s *Session) send(e events.Event) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(e)
}

func (s *Session) subscribed(tripID string) bool {
	s.tripMu.RLock()
	defer s.tripMu.RUnlock()
	return s.trips[tripID]
}

func (s *Session) setSubscribed(tripID string, on bool) {
	s.tripMu.Lock()
	defer s.tripMu.Unlock()
	if on {
		s.trips[tripID] = true
	} else {
		delete(s.trips, tripID)
	}
}

// Hub holds connected sessions and routes bus events to them
type Hub struct {
	bus    *events.Bus
	logger *logrus.Logger

	mu       sync.RWMutex
	sessions map[*Session]bool

	stop func()
}

// NewHub creates a Hub. Call Run to start routing.
func NewHub(bus *events.Bus, logger *logrus.Logger) *Hub {
	return &Hub{
		bus:      bus,
		logger:   logger,
		sessions: make(map[*Session]bool),
	}
}

// Run subscribes to the bus and routes events until Stop is called
func (h *Hub) Run() {
	ch, cancel := h.bus.Subscribe(256)
	h.stop = cancel

	go func() {
		for event := range ch {
			h.dispatch(event)
		}
	}()
}

// Stop detaches the hub from the bus
func (h *Hub) Stop() {
	if h.stop != nil {
		h.stop()
	}
}

// HandleConn registers the upgraded connection and serves it until the
// client disconnects. Blocks; call from the HTTP handler goroutine.
func (h *Hub) HandleConn(userID string, conn *websocket.Conn) {
	session := &Session{
		conn:   conn,
		userID: userID,
		trips:  make(map[string]bool),
	}

	h.mu.Lock()
	h.sessions[session] = true
	h.mu.Unlock()
	observability.WSSessions.Inc()

	h.logger.WithField("user_id", userID).Debug("Websocket session opened")
	h.readLoop(session)

	h.mu.Lock()
	delete(h.sessions, session)
	h.mu.Unlock()
	observability.WSSessions.Dec()

	conn.Close()
	h.logger.WithField("user_id", userID).Debug("Websocket session closed")
}

// readLoop consumes subscribe/unsubscribe commands until the connection
// drops
func (h *Hub) readLoop(s *Session) {
	for {
		var cmd clientCommand
		if err := s.conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.WithError(err).Debug("Websocket read error")
			}
			return
		}
		switch cmd.Action {
		case "subscribe":
			if cmd.TripID != "" {
				s.setSubscribed(cmd.TripID, true)
			}
		case "unsubscribe":
			s.setSubscribed(cmd.TripID, false)
		}
	}
}

// dispatch routes one bus event to the sessions that should see it.
// Events addressed to a user go only to that user's sessions; chat
// messages go to trip subscribers; everything else is broadcast and
// filtered client-side.
func (h *Hub) dispatch(event events.Event) {
	h.mu.RLock()
	targets := make([]*Session, 0, len(h.sessions))
	for session := range h.sessions {
		if h.wants(session, event) {
			targets = append(targets, session)
		}
	}
	h.mu.RUnlock()

	for _, session := range targets {
		if err := session.send(event); err != nil {
			h.logger.WithError(err).WithField("user_id", session.userID).Debug("Websocket send failed")
		}
	}
}

func (h *Hub) wants(s *Session, event events.Event) bool {
	switch event.Type {
	case events.NotificationCreated, events.WatermarkAdvanced:
		return s.userID == event.UserID
	case events.ChatMessageSent:
		return s.subscribed(event.TripID)
	default:
		return true
	}
}
