package app_test

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/domain"
)

func fieldsOf(t *testing.T, err error) map[string][]string {
	t.Helper()
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	return verr.Fields
}

func TestParseSubmissionBounds(t *testing.T) {
	_, err := app.ParseSubmission([]byte(`{"points":-1}`))
	assert.Equal(t, []string{"must be at least 0"}, fieldsOf(t, err)["points"])

	_, err = app.ParseSubmission([]byte(`{"points":100001}`))
	assert.Equal(t, []string{"must be at most 100000"}, fieldsOf(t, err)["points"])

	sub, err := app.ParseSubmission([]byte(`{"points":50}`))
	require.NoError(t, err)
	assert.Equal(t, domain.ScoreSubmission{Points: 50}, sub)

	for _, edge := range []string{`{"points":0}`, `{"points":100000}`, `{"points":7.0}`} {
		_, err := app.ParseSubmission([]byte(edge))
		assert.NoError(t, err, edge)
	}
}

func TestParseSubmissionReportsEveryField(t *testing.T) {
	_, err := app.ParseSubmission([]byte(`{"points":1.5,"category":["x"],"difficulty":"impossible"}`))
	fields := fieldsOf(t, err)
	assert.Equal(t, []string{"must be an integer"}, fields["points"])
	assert.Equal(t, []string{"must be a string"}, fields["category"])
	assert.Equal(t, []string{"must be one of easy, medium, hard"}, fields["difficulty"])

	_, err = app.ParseSubmission([]byte(`not json`))
	assert.Equal(t, []string{"required"}, fieldsOf(t, err)["points"])

	_, err = app.ParseSubmission([]byte(`{"points":"5"}`))
	assert.Equal(t, []string{"must be a number"}, fieldsOf(t, err)["points"])
}

func TestParseSubmissionOptionalFields(t *testing.T) {
	sub, err := app.ParseSubmission([]byte(`{"points":5,"category":"9","difficulty":"hard"}`))
	require.NoError(t, err)
	assert.Equal(t, domain.ScoreSubmission{Points: 5, Category: "9", Difficulty: domain.DifficultyHard}, sub)

	sub, err = app.ParseSubmission([]byte(`{"points":5,"category":null,"difficulty":null}`))
	require.NoError(t, err)
	assert.Equal(t, domain.ScoreSubmission{Points: 5}, sub)
}

func TestDisplayNameRules(t *testing.T) {
	name, err := app.ParseDisplayName([]byte(`{"displayName":"  Zoë  "}`))
	require.NoError(t, err)
	normalized, err := app.NormalizeDisplayName(name)
	require.NoError(t, err)
	assert.Equal(t, "Zoë", normalized)

	_, err = app.NormalizeDisplayName(strings.Repeat("é", 24))
	assert.NoError(t, err, "length counts characters, not bytes")
	_, err = app.NormalizeDisplayName(strings.Repeat("a", 25))
	assert.Error(t, err)
	_, err = app.NormalizeDisplayName("")
	assert.Error(t, err)

	cleared, err := app.NormalizeDisplayName("   ")
	require.NoError(t, err)
	assert.Empty(t, cleared)

	_, err = app.ParseDisplayName([]byte(`{"displayName":42}`))
	assert.Equal(t, []string{"must be a string"}, fieldsOf(t, err)["displayName"])
	_, err = app.ParseDisplayName([]byte(`{}`))
	assert.Equal(t, []string{"required"}, fieldsOf(t, err)["displayName"])
}

func TestParseLeaderboardQuery(t *testing.T) {
	q, err := app.ParseLeaderboardQuery(url.Values{"category": {"9"}, "difficulty": {"medium"}, "limit": {"250"}})
	require.NoError(t, err)
	assert.Equal(t, domain.LeaderboardQuery{Category: "9", Difficulty: domain.DifficultyMedium, Limit: 100}, q)

	q, err = app.ParseLeaderboardQuery(url.Values{})
	require.NoError(t, err)
	assert.Equal(t, app.DefaultLeaderboardLimit, q.Limit)

	_, err = app.ParseLeaderboardQuery(url.Values{"difficulty": {"EASY"}})
	assert.True(t, domain.IsValidation(err))
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 20, app.ClampLimit(""))
	assert.Equal(t, 20, app.ClampLimit("ten"))
	assert.Equal(t, 1, app.ClampLimit("0"))
	assert.Equal(t, 1, app.ClampLimit("-5"))
	assert.Equal(t, 42, app.ClampLimit(" 42 "))
	assert.Equal(t, 100, app.ClampLimit("1000"))
}
