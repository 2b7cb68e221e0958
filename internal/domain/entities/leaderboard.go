package entities

// LeaderboardEntry is one participant's score row.
type LeaderboardEntry struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	Score       int    `json:"score"`
	Rank        int    `json:"rank"`
}

// RankedList is a meeting's leaderboard sorted by descending score.
type RankedList struct {
	MeetingID   string             `json:"meetingId"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
}
