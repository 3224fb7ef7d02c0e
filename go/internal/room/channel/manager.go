// Package channel owns the push subscription of a room view and decodes the
// room events it carries.
package channel

import (
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Manager is the session's connection manager. It is constructed once per
// session around a single transport and handed to every room view.
type Manager struct {
	transport Transport

	mu     sync.Mutex
	active map[string]string // subscription id -> room id
}

// NewManager creates a manager over transport. A nil transport yields
// subscriptions that never deliver.
func NewManager(transport Transport) *Manager {
	return &Manager{
		transport: transport,
		active:    make(map[string]string),
	}
}

// NewSubscription creates a closed subscription delivering to h.
func (m *Manager) NewSubscription(h Handlers) *Subscription {
	return &Subscription{
		id:       uuid.New().String(),
		manager:  m,
		handlers: h,
	}
}

func (m *Manager) track(subscriptionID, roomID string, live bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if live {
		m.active[subscriptionID] = roomID
	} else {
		delete(m.active, subscriptionID)
	}
}

// Stats returns the number of live subscriptions per room.
func (m *Manager) Stats() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	rooms := make(map[string]int)
	for _, roomID := range m.active {
		rooms[roomID]++
	}
	names := make([]string, 0, len(rooms))
	for room := range rooms {
		names = append(names, room)
	}
	sort.Strings(names)

	return map[string]interface{}{
		"total_subscriptions": len(m.active),
		"rooms":               names,
		"room_subscriptions":  rooms,
	}
}

// Subscription is one logical subscription to a room's channel. Open is
// idempotent per room id; opening another room releases the current one first.
// A transport failure is logged and leaves the subscription open but silent.
type Subscription struct {
	id       string
	manager  *Manager
	handlers Handlers

	mu          sync.Mutex
	roomID      string
	open        bool
	live        bool
	generation  uint64
	unsubscribe func()
}

// Open subscribes to roomID's channel.
func (s *Subscription) Open(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.open && s.roomID == roomID {
		return
	}
	if s.open {
		s.closeLocked()
	}

	s.generation++
	s.roomID = roomID
	s.open = true

	if s.manager.transport == nil {
		log.Warn().Str("room_id", roomID).Msg("no push transport configured, room will not update live")
		return
	}

	gen := s.generation
	unsubscribe, err := s.manager.transport.Subscribe(RoomChannel(roomID), func(event string, data []byte) {
		s.deliver(gen, roomID, event, data)
	})
	if err != nil {
		log.Warn().Err(err).Str("room_id", roomID).Msg("room subscription failed, continuing without live updates")
		return
	}

	s.unsubscribe = unsubscribe
	s.live = true
	s.manager.track(s.id, roomID, true)

	log.Info().Str("room_id", roomID).Str("subscription_id", s.id).Msg("room subscription opened")
}

// Close releases the subscription. It is safe to call when closed.
func (s *Subscription) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked()
}

func (s *Subscription) closeLocked() {
	if !s.open {
		return
	}
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	if s.live {
		s.manager.track(s.id, s.roomID, false)
	}

	log.Info().Str("room_id", s.roomID).Str("subscription_id", s.id).Msg("room subscription closed")

	s.generation++
	s.open = false
	s.live = false
	s.roomID = ""
}

func (s *Subscription) deliver(gen uint64, roomID, event string, data []byte) {
	s.mu.Lock()
	current := s.open && s.generation == gen
	s.mu.Unlock()
	if !current {
		log.Debug().Str("room_id", roomID).Str("event", event).Msg("event for released subscription, dropping")
		return
	}

	if err := Dispatch(event, data, s.handlers); err != nil {
		log.Warn().Err(err).Str("room_id", roomID).Str("event", event).Msg("ignoring room event")
	}
}

// RoomID returns the room currently subscribed, empty when closed.
func (s *Subscription) RoomID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roomID
}

// Live reports whether the transport accepted the subscription.
func (s *Subscription) Live() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live
}
