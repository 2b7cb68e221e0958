package leaderboard

import (
	"math"
	"sort"
	"sync"

	"github.com/classpulse-team/classpulse/internal/domain/entities"
)

const (
	baseScore      = 10
	maxBonusPoints = 5
)

// Service is the per-meeting score ledger. It consumes the same quiz-answer
// events as the engagement pipeline but has no cooldown or state-machine
// behavior: just score arithmetic and ranking.
type Service struct {
	mu     sync.Mutex
	byRoom map[string][]entities.LeaderboardEntry
}

// NewService creates an empty ledger.
func NewService() *Service {
	return &Service{byRoom: make(map[string][]entities.LeaderboardEntry)}
}

// Update applies one answer event and returns the re-ranked list. A correct
// answer scores base + a speed bonus of round(max(0, 5 - seconds)); an
// incorrect answer scores nothing but still establishes the entry. Ties
// keep insertion order (stable sort).
func (s *Service) Update(meetingID string, e entities.Event) entities.RankedList {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.byRoom[meetingID]

	idx := -1
	for i := range list {
		if list[i].UserID == e.UserID {
			idx = i
			break
		}
	}
	if idx == -1 {
		list = append(list, entities.LeaderboardEntry{
			UserID:      e.UserID,
			DisplayName: e.DisplayName,
		})
		idx = len(list) - 1
	}

	if e.IsCorrect != nil && *e.IsCorrect {
		responseMs := 0
		if e.ResponseTimeMs != nil {
			responseMs = *e.ResponseTimeMs
		}
		bonus := math.Max(0, maxBonusPoints-float64(responseMs)/1000)
		list[idx].Score += baseScore + int(math.Round(bonus))
	}

	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Score > list[j].Score
	})
	for i := range list {
		list[i].Rank = i + 1
	}
	s.byRoom[meetingID] = list

	out := make([]entities.LeaderboardEntry, len(list))
	copy(out, list)
	return entities.RankedList{MeetingID: meetingID, Leaderboard: out}
}

// Get returns the current ranked list without mutating it.
func (s *Service) Get(meetingID string) entities.RankedList {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.byRoom[meetingID]
	out := make([]entities.LeaderboardEntry, len(list))
	copy(out, list)
	return entities.RankedList{MeetingID: meetingID, Leaderboard: out}
}
