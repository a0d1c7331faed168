package app

import (
	"bytes"
	"encoding/json"
	"math"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"trivia-quiz-service/internal/domain"
)

const (
	MaxPoints               = 100000
	MaxDisplayNameLength    = 24
	DefaultLeaderboardLimit = 20
	MaxLeaderboardLimit     = 100
)

type scorePayload struct {
	Points     json.RawMessage `json:"points"`
	Category   json.RawMessage `json:"category"`
	Difficulty json.RawMessage `json:"difficulty"`
}

type namePayload struct {
	DisplayName json.RawMessage `json:"displayName"`
}

// ParseSubmission decodes and validates a score payload, reporting every
// failing field. A body that is not a JSON object is treated as empty.
func ParseSubmission(body []byte) (domain.ScoreSubmission, error) {
	var raw scorePayload
	_ = json.Unmarshal(body, &raw)

	verr := &domain.ValidationError{}
	var sub domain.ScoreSubmission

	if raw.Points == nil {
		verr.Add("points", "required")
	} else if points, problem := parsePoints(raw.Points); problem != "" {
		verr.Add("points", problem)
	} else {
		sub.Points = points
	}

	if raw.Category != nil {
		category, ok := decodeString(raw.Category)
		if !ok {
			verr.Add("category", "must be a string")
		}
		sub.Category = category
	}

	if raw.Difficulty != nil {
		difficulty, ok := decodeString(raw.Difficulty)
		switch {
		case !ok:
			verr.Add("difficulty", "must be a string")
		case difficulty != "" && !domain.Difficulty(difficulty).Valid():
			verr.Add("difficulty", "must be one of easy, medium, hard")
		default:
			sub.Difficulty = domain.Difficulty(difficulty)
		}
	}

	if err := verr.OrNil(); err != nil {
		return domain.ScoreSubmission{}, err
	}
	return sub, nil
}

// ParseDisplayName decodes a rename payload and returns the raw name.
// Length rules are applied by NormalizeDisplayName.
func ParseDisplayName(body []byte) (string, error) {
	var raw namePayload
	_ = json.Unmarshal(body, &raw)

	verr := &domain.ValidationError{}
	if raw.DisplayName == nil {
		verr.Add("displayName", "required")
		return "", verr
	}
	name, ok := decodeString(raw.DisplayName)
	if !ok {
		verr.Add("displayName", "must be a string")
		return "", verr
	}
	return name, nil
}

// NormalizeDisplayName trims name and checks its bounds. A name made only of
// whitespace trims to "" which clears the stored name.
func NormalizeDisplayName(name string) (string, error) {
	verr := &domain.ValidationError{}
	if name == "" {
		verr.Add("displayName", "must be at least 1 character")
		return "", verr
	}
	trimmed := strings.TrimSpace(name)
	if utf8.RuneCountInString(trimmed) > MaxDisplayNameLength {
		verr.Add("displayName", "must be at most "+strconv.Itoa(MaxDisplayNameLength)+" characters")
		return "", verr
	}
	return trimmed, nil
}

// ParseLeaderboardQuery reads the category, difficulty and limit filters.
func ParseLeaderboardQuery(values url.Values) (domain.LeaderboardQuery, error) {
	q := domain.LeaderboardQuery{
		Category: values.Get("category"),
		Limit:    ClampLimit(values.Get("limit")),
	}
	if d := values.Get("difficulty"); d != "" {
		if !domain.Difficulty(d).Valid() {
			verr := &domain.ValidationError{}
			verr.Add("difficulty", "must be one of easy, medium, hard")
			return domain.LeaderboardQuery{}, verr
		}
		q.Difficulty = domain.Difficulty(d)
	}
	return q, nil
}

// ClampLimit parses a requested row count. Missing or non-numeric values use
// the default; numbers are clamped to [1, MaxLeaderboardLimit].
func ClampLimit(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return DefaultLeaderboardLimit
	}
	return clamp(n)
}

func normalizeLimit(n int) int {
	if n == 0 {
		return DefaultLeaderboardLimit
	}
	return clamp(n)
}

func clamp(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxLeaderboardLimit {
		return MaxLeaderboardLimit
	}
	return n
}

func parsePoints(raw json.RawMessage) (int, string) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return 0, "must be a number"
	}
	num, ok := v.(json.Number)
	if !ok {
		return 0, "must be a number"
	}
	f, err := num.Float64()
	if err != nil {
		return 0, "must be a number"
	}
	if f != math.Trunc(f) {
		return 0, "must be an integer"
	}
	if f < 0 {
		return 0, "must be at least 0"
	}
	if f > MaxPoints {
		return 0, "must be at most " + strconv.Itoa(MaxPoints)
	}
	return int(f), ""
}

func decodeString(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}
