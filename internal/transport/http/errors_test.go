package http

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"trivia-quiz-service/internal/auth"
	"trivia-quiz-service/internal/domain"
)

func TestToAPIError(t *testing.T) {
	verr := &domain.ValidationError{}
	verr.Add("points", "required")

	cases := []struct {
		err    error
		status int
		code   string
	}{
		{verr, http.StatusBadRequest, CodeValidation},
		{domain.ErrUnauthorized, http.StatusUnauthorized, CodeUnauthorized},
		{domain.ErrInvalidState, http.StatusBadRequest, CodeInvalidState},
		{auth.ErrNotConfigured, http.StatusNotFound, CodeNotConfigured},
		{fmt.Errorf("fetch: %w", domain.ErrUpstream), http.StatusBadGateway, CodeUpstream},
		{fmt.Errorf("insert: %w: %w", domain.ErrInternal, errors.New("conn reset")), http.StatusInternalServerError, CodeInternalError},
		{errors.New("boom"), http.StatusInternalServerError, CodeInternalError},
	}
	for _, tc := range cases {
		status, body := toAPIError(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
		assert.Equal(t, tc.code, body.Code, tc.err.Error())
	}

	_, body := toAPIError(fmt.Errorf("insert: %w: %w", domain.ErrInternal, errors.New("password=secret")))
	assert.NotContains(t, body.Message, "secret")
}

func TestOriginChecker(t *testing.T) {
	assert.Nil(t, OriginChecker(nil))

	check := OriginChecker([]string{"https://quiz.example"})
	req, _ := http.NewRequest(http.MethodGet, "/leaderboard/live", nil)
	assert.True(t, check(req))
	req.Header.Set("Origin", "https://quiz.example")
	assert.True(t, check(req))
	req.Header.Set("Origin", "https://evil.example")
	assert.False(t, check(req))
}
