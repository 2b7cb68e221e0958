package hub

import (
	"sync"

	"go.uber.org/zap"
)

// Message kinds carried on the push channel.
type MessageType string

const (
	MsgSummaryUpdate     MessageType = "SUMMARY_UPDATE"
	MsgNudge             MessageType = "NUDGE"
	MsgPollSuggestion    MessageType = "POLL_SUGGESTION"
	MsgLeaderboardUpdate MessageType = "LEADERBOARD_UPDATE"
	MsgCoordinatorUpdate MessageType = "COORDINATOR_UPDATE"
	MsgNotesGenerated    MessageType = "NOTES_GENERATED"
	MsgNotesUpdated      MessageType = "NOTES_UPDATED"
)

// Subscriber roles.
const (
	RoleInstructor  = "instructor"
	RoleParticipant = "participant"
)

// Message is one push-channel frame. TargetUserID, when set, restricts
// delivery to that participant (or an instructor previewing as them); it is
// never serialized to clients.
type Message struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload"`

	TargetUserID string `json:"-"`
}

// Identity describes who is listening on a subscription.
type Identity struct {
	UserID    string
	Role      string
	PreviewAs string
}

// Subscription is one listener attached to a meeting.
type Subscription struct {
	id  Identity
	ch  chan Message
	hub *Hub
	key string

	once sync.Once
}

// C returns the receive channel.
func (s *Subscription) C() <-chan Message {
	return s.ch
}

// Close detaches the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.remove(s.key, s)
		close(s.ch)
	})
}

func (s *Subscription) wants(msg Message) bool {
	if msg.TargetUserID == "" {
		return true
	}
	if s.id.UserID == msg.TargetUserID {
		return true
	}
	// Instructor preview-as override: see the nudges one participant sees.
	return s.id.Role == RoleInstructor && s.id.PreviewAs == msg.TargetUserID
}

// Hub fans state-change messages out to the listeners subscribed to each
// meeting. Publishers must only publish values already written to the
// meeting state, so a pull immediately after a push returns the same data.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[*Subscription]struct{}
	logger *zap.Logger
}

// New creates an empty hub.
func New(logger *zap.Logger) *Hub {
	return &Hub{
		subs:   make(map[string]map[*Subscription]struct{}),
		logger: logger,
	}
}

// Subscribe attaches a listener to a meeting. buffer bounds the channel; a
// listener that falls behind loses frames rather than stalling publishers.
func (h *Hub) Subscribe(meetingID string, id Identity, buffer int) *Subscription {
	if buffer <= 0 {
		buffer = 16
	}
	sub := &Subscription{
		id:  id,
		ch:  make(chan Message, buffer),
		hub: h,
		key: meetingID,
	}
	h.mu.Lock()
	set, ok := h.subs[meetingID]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.subs[meetingID] = set
	}
	set[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

func (h *Hub) remove(meetingID string, sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.subs[meetingID]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(h.subs, meetingID)
		}
	}
}

// Publish delivers msg to every matching listener of the meeting. Sends
// never block; a full listener buffer drops the frame. Sending under the
// read lock keeps Close from closing a channel mid-publish.
func (h *Hub) Publish(meetingID string, msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs[meetingID] {
		if !sub.wants(msg) {
			continue
		}
		select {
		case sub.ch <- msg:
		default:
			if h.logger != nil {
				h.logger.Warn("hub.subscriber_lagging",
					zap.String("meeting_id", meetingID),
					zap.String("message_type", string(msg.Type)),
				)
			}
		}
	}
}

// SubscriberCount returns the number of listeners on a meeting.
func (h *Hub) SubscriberCount(meetingID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[meetingID])
}
