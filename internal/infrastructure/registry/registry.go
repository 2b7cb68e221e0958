package registry

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/classpulse-team/classpulse/errors"
	"github.com/classpulse-team/classpulse/internal/domain/entities"
	"github.com/classpulse-team/classpulse/pkg/config"
)

// holder wraps one meeting's state with its own lock so different meetings
// never contend. ticking guards against overlapping policy ticks: a
// concurrent trigger is dropped, not queued.
type holder struct {
	mu      sync.Mutex
	state   *entities.MeetingState
	ticking atomic.Bool
}

// Registry owns the process-wide map of meetingId -> MeetingState. All
// reads and writes of a meeting's state go through Update/View, which
// serialize per meeting; the registry-level lock only protects the map.
type Registry struct {
	mu       sync.RWMutex
	meetings map[string]*holder

	cfg    config.EngagementConfig
	logger *zap.Logger
	now    func() time.Time
}

// New creates an empty registry.
func New(cfg config.EngagementConfig, logger *zap.Logger) *Registry {
	return &Registry{
		meetings: make(map[string]*holder),
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// SetClock overrides the time source. Test hook.
func (r *Registry) SetClock(now func() time.Time) {
	r.now = now
}

func (r *Registry) get(meetingID string) (*holder, bool) {
	r.mu.RLock()
	h, ok := r.meetings[meetingID]
	r.mu.RUnlock()
	return h, ok
}

func (r *Registry) getOrCreate(meetingID string) *holder {
	if h, ok := r.get(meetingID); ok {
		return h
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if h, ok := r.meetings[meetingID]; ok {
		return h
	}
	h := &holder{state: entities.NewMeetingState(meetingID, r.now())}
	r.meetings[meetingID] = h
	if r.logger != nil {
		r.logger.Info("meeting.created", zap.String("meeting_id", meetingID))
	}
	return h
}

// Append normalizes and stores an event, creating the meeting lazily and
// trimming the log to the keep window. Transcript lines also land in the
// bounded transcript ring. Appends to an ended meeting are rejected.
func (r *Registry) Append(e entities.Event) (entities.Event, error) {
	if e.MeetingID == "" {
		return e, errors.ErrMissingMeetingID()
	}
	now := r.now()
	e.Normalize(now)

	h := r.getOrCreate(e.MeetingID)
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state.Ended() {
		return e, errors.ErrMeetingEnded(e.MeetingID)
	}

	h.state.AppendEvent(e, r.cfg.KeepWindow, now)
	if e.Type == entities.EventTypeTranscriptUpdate && e.Text != "" {
		h.state.AppendTranscript(entities.TranscriptSnippet{
			Text:      e.Text,
			Speaker:   e.Speaker,
			Timestamp: e.Ts,
		}, r.cfg.TranscriptLimit)
	}
	return e, nil
}

// Update runs fn with exclusive access to the meeting's state. Returns a
// not-found error for unknown meetings.
func (r *Registry) Update(meetingID string, fn func(*entities.MeetingState)) error {
	h, ok := r.get(meetingID)
	if !ok {
		return errors.ErrMeetingNotFound(meetingID)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	fn(h.state)
	return nil
}

// UpdateOrCreate is Update but creates the meeting when missing (used by
// topic/material endpoints that may precede the first event). An ended
// meeting is frozen and rejects the write like Append does.
func (r *Registry) UpdateOrCreate(meetingID string, fn func(*entities.MeetingState)) error {
	h := r.getOrCreate(meetingID)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state.Ended() {
		return errors.ErrMeetingEnded(meetingID)
	}
	fn(h.state)
	return nil
}

// View is Update for readers. fn must not retain references to mutable
// slices past the call.
func (r *Registry) View(meetingID string, fn func(*entities.MeetingState)) error {
	return r.Update(meetingID, fn)
}

// End marks the meeting ended. Idempotent; the first call wins the
// timestamp and everything after it is frozen.
func (r *Registry) End(meetingID string) error {
	return r.Update(meetingID, func(m *entities.MeetingState) {
		if m.EndedAt == nil {
			at := r.now()
			m.EndedAt = &at
			if r.logger != nil {
				r.logger.Info("meeting.ended", zap.String("meeting_id", meetingID))
			}
		}
	})
}

// Active returns the ids of meetings that have not ended, for the periodic
// scheduler.
func (r *Registry) Active() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.meetings))
	for id, h := range r.meetings {
		h.mu.Lock()
		ended := h.state.Ended()
		h.mu.Unlock()
		if !ended {
			ids = append(ids, id)
		}
	}
	return ids
}

// TryBeginTick reserves the meeting's tick slot. It returns false when a
// tick is already in flight (the caller should drop, not wait) or the
// meeting is unknown. The returned release must be called when the tick
// completes.
func (r *Registry) TryBeginTick(meetingID string) (release func(), ok bool) {
	h, found := r.get(meetingID)
	if !found {
		return nil, false
	}
	if !h.ticking.CompareAndSwap(false, true) {
		return nil, false
	}
	return func() { h.ticking.Store(false) }, true
}

// Exists reports whether the meeting is known.
func (r *Registry) Exists(meetingID string) bool {
	_, ok := r.get(meetingID)
	return ok
}
