package domain

import "time"

// Difficulty is the trivia difficulty a score was achieved at.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid reports whether d is one of the known difficulties.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Identity is who a request acts for. Either field may be empty; a signed-in
// guest carries both.
type Identity struct {
	GuestID string
	UserID  string
}

// IsZero reports whether no identifier is present.
func (i Identity) IsZero() bool {
	return i.GuestID == "" && i.UserID == ""
}

// Owns reports whether a row stored with the given identifiers belongs to i.
// Any present identifier matching is enough.
func (i Identity) Owns(guestID, userID string) bool {
	if i.GuestID != "" && i.GuestID == guestID {
		return true
	}
	return i.UserID != "" && i.UserID == userID
}

// Score is a persisted leaderboard row. Empty strings mean absent.
type Score struct {
	ID          string
	GuestID     string
	UserID      string
	Points      int
	Category    string
	Difficulty  Difficulty
	DisplayName string
	IPHash      string
	UserAgent   string
	CreatedAt   time.Time
}

// ScoreSubmission is a validated score payload.
type ScoreSubmission struct {
	Points     int
	Category   string
	Difficulty Difficulty
}

// RequestMeta carries the client details stored with a score for abuse
// analysis, plus the signed-in user's profile name used when the caller has
// never chosen a display name.
type RequestMeta struct {
	IP          string
	UserAgent   string
	ProfileName string
}

// LeaderboardQuery filters and bounds a leaderboard read.
type LeaderboardQuery struct {
	Category   string
	Difficulty Difficulty
	Limit      int
}

// Matches reports whether a score with the given category and difficulty
// would be visible under q's filters.
func (q LeaderboardQuery) Matches(category string, difficulty Difficulty) bool {
	if q.Category != "" && q.Category != category {
		return false
	}
	return q.Difficulty == "" || q.Difficulty == difficulty
}

// LeaderboardEntry is the public projection of a score. Identity and IP hash
// never leave the service.
type LeaderboardEntry struct {
	Points      int       `json:"points"`
	DisplayName *string   `json:"displayName"`
	CreatedAt   time.Time `json:"createdAt"`
	Category    *string   `json:"category"`
	Difficulty  *string   `json:"difficulty"`
}

// EntryFromScore projects a score into its public form.
func EntryFromScore(s Score) LeaderboardEntry {
	return LeaderboardEntry{
		Points:      s.Points,
		DisplayName: optional(s.DisplayName),
		CreatedAt:   s.CreatedAt,
		Category:    optional(s.Category),
		Difficulty:  optional(string(s.Difficulty)),
	}
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

// ScoreEvent announces an accepted submission to live leaderboard listeners.
type ScoreEvent struct {
	Category   string
	Difficulty Difficulty
	Points     int
	CreatedAt  time.Time
}

// Profile is what an OAuth provider tells us about a signed-in person.
type Profile struct {
	Provider string
	Subject  string
	Name     string
	Email    string
	Image    string
}

// User is an account created at first OAuth sign-in.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Image     string    `json:"image"`
	CreatedAt time.Time `json:"-"`
}

// Session links a browser token to a user until it expires.
type Session struct {
	Token     string    `json:"token"`
	User      User      `json:"user"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether the session is no longer valid at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Question is one trivia question as served by the upstream API.
type Question struct {
	Category         string   `json:"category"`
	Type             string   `json:"type"`
	Difficulty       string   `json:"difficulty"`
	Question         string   `json:"question"`
	CorrectAnswer    string   `json:"correct_answer"`
	IncorrectAnswers []string `json:"incorrect_answers"`
}

// Category is a trivia category the upstream API can filter by.
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
