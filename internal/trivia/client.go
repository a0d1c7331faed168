package trivia

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"trivia-quiz-service/internal/domain"
)

const (
	DefaultBaseURL   = "https://opentdb.com"
	DefaultUserAgent = "trivia-quiz-service/1.0"
	DefaultAmount    = 5
	MaxAmount        = 50
)

// Open Trivia DB response codes.
const (
	codeSuccess   = 0
	codeNoResults = 1
)

// QuestionQuery selects a batch of questions. Zero values take the defaults:
// five medium multiple-choice questions from any category.
type QuestionQuery struct {
	Amount     int
	Type       string
	Difficulty string
	Category   string
}

func (q QuestionQuery) normalize() QuestionQuery {
	switch {
	case q.Amount <= 0:
		q.Amount = DefaultAmount
	case q.Amount > MaxAmount:
		q.Amount = MaxAmount
	}
	if q.Type != "boolean" {
		q.Type = "multiple"
	}
	if q.Difficulty == "" {
		q.Difficulty = string(domain.DifficultyMedium)
	}
	return q
}

// Config configures the client.
type Config struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

// Client talks to the Open Trivia DB API.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	logger    *zap.Logger
	sf        singleflight.Group
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		baseURL:   cfg.BaseURL,
		userAgent: cfg.UserAgent,
		http:      &http.Client{Timeout: cfg.Timeout},
		logger:    logger,
	}
}

type questionsResponse struct {
	ResponseCode *int              `json:"response_code"`
	Results      []domain.Question `json:"results"`
}

// Questions fetches a batch of questions with HTML entities decoded.
func (c *Client) Questions(ctx context.Context, q QuestionQuery) ([]domain.Question, error) {
	q = q.normalize()
	params := url.Values{}
	params.Set("amount", strconv.Itoa(q.Amount))
	params.Set("type", q.Type)
	params.Set("difficulty", q.Difficulty)
	if q.Category != "" {
		params.Set("category", q.Category)
	}

	var body questionsResponse
	if err := c.getJSON(ctx, "/api.php?"+params.Encode(), &body); err != nil {
		return nil, err
	}

	code := codeSuccess
	if body.ResponseCode != nil {
		code = *body.ResponseCode
	}
	switch {
	case code == codeNoResults:
		return []domain.Question{}, nil
	case code != codeSuccess:
		return nil, fmt.Errorf("%w: trivia response code %d", domain.ErrUpstream, code)
	case body.Results == nil:
		return nil, fmt.Errorf("%w: trivia response without results", domain.ErrUpstream)
	}

	for i := range body.Results {
		decode(&body.Results[i])
	}
	return body.Results, nil
}

type categoriesResponse struct {
	Categories []domain.Category `json:"trivia_categories"`
}

// Categories lists the upstream categories. Concurrent callers share one request.
func (c *Client) Categories(ctx context.Context) ([]domain.Category, error) {
	v, err, _ := c.sf.Do("categories", func() (interface{}, error) {
		var body categoriesResponse
		if err := c.getJSON(ctx, "/api_category.php", &body); err != nil {
			return nil, err
		}
		if body.Categories == nil {
			return nil, fmt.Errorf("%w: category response without trivia_categories", domain.ErrUpstream)
		}
		return body.Categories, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Category), nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("trivia request", zap.String("url", req.URL.String()))
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: trivia status %d", domain.ErrUpstream, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode trivia response: %w", domain.ErrUpstream, err)
	}
	return nil
}

func decode(q *domain.Question) {
	q.Category = html.UnescapeString(q.Category)
	q.Question = html.UnescapeString(q.Question)
	q.CorrectAnswer = html.UnescapeString(q.CorrectAnswer)
	for i, a := range q.IncorrectAnswers {
		q.IncorrectAnswers[i] = html.UnescapeString(a)
	}
}
