// Package opentdb is a client for the Open Trivia Database HTTP API.
package opentdb

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/verte-zerg/triviadash/internal/logger"
	"github.com/verte-zerg/triviadash/internal/model"
)

const (
	// DefaultBaseURL is the public Open Trivia Database host.
	DefaultBaseURL = "https://opentdb.com"
	// DefaultRequestDelay spaces sequential count requests.
	DefaultRequestDelay = 200 * time.Millisecond
	// DefaultTimeout bounds a single request.
	DefaultTimeout = 15 * time.Second
	// MaxQuestionsPerRequest is the server-side cap on amount.
	MaxQuestionsPerRequest = 50

	categoriesPath = "/api_category.php"
	countPath      = "/api_count.php"
	questionsPath  = "/api.php"
)

// ProgressFunc receives the number of processed categories and the total.
type ProgressFunc func(completed, total int)

// Options configures a Client.
type Options struct {
	BaseURL      string
	Timeout      time.Duration
	RequestDelay time.Duration
	HTTPClient   *http.Client
	Logger       *logger.Logger
}

// Client talks to the trivia API. Requests are issued one at a time.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	delay   time.Duration
	log     *logger.Logger
}

type categoriesResponse struct {
	TriviaCategories []model.Category `json:"trivia_categories"`
}

type questionsResponse struct {
	ResponseCode int              `json:"response_code"`
	Results      []model.Question `json:"results"`
}

// New builds a Client. Zero-valued options fall back to the defaults;
// a negative delay or timeout disables it.
func New(opts Options) (*Client, error) {
	base := strings.TrimSpace(opts.BaseURL)
	if base == "" {
		base = DefaultBaseURL
	}
	parsed, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("invalid base url %q: scheme must be http or https", base)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout == 0 {
			timeout = DefaultTimeout
		}
		if timeout < 0 {
			timeout = 0
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	delay := opts.RequestDelay
	if delay == 0 {
		delay = DefaultRequestDelay
	}
	if delay < 0 {
		delay = 0
	}

	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}

	return &Client{
		baseURL: parsed,
		http:    httpClient,
		delay:   delay,
		log:     log.WithComponent("opentdb"),
	}, nil
}

// FetchCategories returns every category known to the service.
func (c *Client) FetchCategories(ctx context.Context) ([]model.Category, error) {
	var payload categoriesResponse
	if err := c.getJSON(ctx, "categories", categoriesPath, nil, &payload); err != nil {
		return nil, err
	}
	if payload.TriviaCategories == nil {
		return []model.Category{}, nil
	}
	return payload.TriviaCategories, nil
}

// FetchCategoryCount returns the difficulty breakdown for one category.
func (c *Client) FetchCategoryCount(ctx context.Context, categoryID int) (model.CategoryQuestionCount, error) {
	query := url.Values{}
	query.Set("category", strconv.Itoa(categoryID))
	var payload model.CategoryQuestionCount
	if err := c.getJSON(ctx, "category count", countPath, query, &payload); err != nil {
		return model.CategoryQuestionCount{}, err
	}
	return payload, nil
}

// FetchAllCategoryCounts fetches counts for every category in order, waiting at least
// the configured delay between requests. A failed category is logged and skipped.
// onProgress, when set, is called after each successful fetch with the 1-based
// position of that category. Cancellation returns the counts gathered so far.
func (c *Client) FetchAllCategoryCounts(ctx context.Context, categories []model.Category, onProgress ProgressFunc) ([]model.CategoryQuestionCount, error) {
	counts := make([]model.CategoryQuestionCount, 0, len(categories))
	total := len(categories)
	limiter := c.newLimiter()

	for i, category := range categories {
		if err := limiter.Wait(ctx); err != nil {
			return counts, err
		}
		count, err := c.FetchCategoryCount(ctx, category.ID)
		if err != nil {
			if ctx.Err() != nil {
				return counts, ctx.Err()
			}
			c.log.Warn("partial fetch failure, skipping category",
				logger.F("category", category.ID), logger.Err(err))
			continue
		}
		counts = append(counts, count)
		if onProgress != nil {
			onProgress(i+1, total)
		}
	}
	return counts, nil
}

// FetchQuestions fetches a random batch of questions. amount is capped at
// MaxQuestionsPerRequest; category 0 and an empty difficulty mean "any".
func (c *Client) FetchQuestions(ctx context.Context, amount, category int, difficulty model.Difficulty) ([]model.Question, error) {
	if amount <= 0 || amount > MaxQuestionsPerRequest {
		amount = MaxQuestionsPerRequest
	}
	query := url.Values{}
	query.Set("amount", strconv.Itoa(amount))
	if category > 0 {
		query.Set("category", strconv.Itoa(category))
	}
	if difficulty != model.DifficultyAny {
		query.Set("difficulty", string(difficulty))
	}

	var payload questionsResponse
	if err := c.getJSON(ctx, "questions", questionsPath, query, &payload); err != nil {
		return nil, err
	}

	switch payload.ResponseCode {
	case CodeSuccess:
	case CodeNoResults:
		c.log.Warn("not enough questions available",
			logger.F("amount", amount), logger.F("returned", len(payload.Results)))
	default:
		return nil, &APIError{Code: payload.ResponseCode}
	}

	questions := payload.Results
	if questions == nil {
		questions = []model.Question{}
	}
	for i := range questions {
		decodeQuestion(&questions[i])
	}
	return questions, nil
}

func (c *Client) newLimiter() *rate.Limiter {
	if c.delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(c.delay), 1)
}

func (c *Client) getJSON(ctx context.Context, endpoint, path string, query url.Values, out any) error {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.log.Debug("request", logger.F("url", u.String()))
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", endpoint, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &HTTPError{Endpoint: endpoint, StatusCode: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}
	return nil
}

// The questions endpoint HTML-encodes text fields by default.
func decodeQuestion(q *model.Question) {
	q.Category = html.UnescapeString(q.Category)
	q.Question = html.UnescapeString(q.Question)
	q.CorrectAnswer = html.UnescapeString(q.CorrectAnswer)
	for i, a := range q.IncorrectAnswers {
		q.IncorrectAnswers[i] = html.UnescapeString(a)
	}
}
