package jokeapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"daily-joke/internal/config"
	"daily-joke/internal/models"
	"daily-joke/pkg/logger"
)

const maxBodySize = 1 << 20

// RawJoke mirrors the JSON the joke API returns, for jokes and errors alike.
// Pointer fields distinguish absent values from zero values.
type RawJoke struct {
	Error          bool     `json:"error"`
	Category       *string  `json:"category,omitempty"`
	Type           *string  `json:"type,omitempty"`
	Setup          *string  `json:"setup,omitempty"`
	Delivery       *string  `json:"delivery,omitempty"`
	Joke           *string  `json:"joke,omitempty"`
	ID             *int     `json:"id,omitempty"`
	Safe           *bool    `json:"safe,omitempty"`
	Lang           *string  `json:"lang,omitempty"`
	Message        *string  `json:"message,omitempty"`
	CausedBy       []string `json:"causedBy,omitempty"`
	AdditionalInfo *string  `json:"additionalInfo,omitempty"`
	Code           *int     `json:"code,omitempty"`
}

type Response struct {
	StatusCode int
	Status     string
	Body       *RawJoke
}

func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// DecodeError means a successful HTTP response carried a body that is not a joke payload.
type DecodeError struct {
	StatusCode int
	Err        error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode joke response (status %d): %v", e.StatusCode, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

type queryKind int

const (
	queryRandom queryKind = iota
	queryCategory
	queryID
)

// Query selects one of the three request shapes the API supports.
type Query struct {
	kind     queryKind
	category string
	id       int
}

func Random() Query                   { return Query{kind: queryRandom} }
func ByCategory(category string) Query { return Query{kind: queryCategory, category: category} }
func ByID(id int) Query               { return Query{kind: queryID, id: id} }

func (q Query) String() string {
	switch q.kind {
	case queryCategory:
		return "category:" + q.category
	case queryID:
		return "id:" + strconv.Itoa(q.id)
	default:
		return "random"
	}
}

type Client struct {
	cfg       config.APIConfig
	baseURL   string
	userAgent string
	client    *http.Client
}

func New(cfg config.APIConfig, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		cfg:       cfg,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		client: &http.Client{
			Timeout: timeout,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

func (c *Client) endpoint(q Query) string {
	params := url.Values{}
	category := models.CategoryAny

	switch q.kind {
	case queryID:
		params.Set("idRange", strconv.Itoa(q.id))
	case queryCategory:
		if strings.TrimSpace(q.category) != "" {
			category = q.category
		}
		fallthrough
	default:
		if c.cfg.Type != "" {
			params.Set("type", c.cfg.Type)
		}
		params.Set("safe-mode", strconv.FormatBool(c.cfg.SafeMode))
		if c.cfg.Lang != "" {
			params.Set("lang", c.cfg.Lang)
		}
	}

	return fmt.Sprintf("%s/joke/%s?%s", c.baseURL, url.PathEscape(category), params.Encode())
}

// Fetch performs one GET. A returned *DecodeError comes with a non-nil Response;
// any other error is a transport failure. HTTP level failures are reported
// through Response.StatusCode.
func (c *Client) Fetch(ctx context.Context, q Query) (*Response, error) {
	endpoint := c.endpoint(q)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		logger.Warn("Joke API request failed", logger.String("query", q.String()), logger.Err(err))
		return nil, fmt.Errorf("joke api request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read joke api response: %w", err)
	}

	out := &Response{
		StatusCode: resp.StatusCode,
		Status:     http.StatusText(resp.StatusCode),
	}

	var raw RawJoke
	if err := json.Unmarshal(body, &raw); err != nil {
		if out.OK() {
			return out, &DecodeError{StatusCode: resp.StatusCode, Err: err}
		}
		logger.Debug("Non-JSON error body from joke API", logger.Int("status", resp.StatusCode))
		return out, nil
	}
	out.Body = &raw

	logger.Debug("Joke API response",
		logger.String("query", q.String()),
		logger.Int("status", resp.StatusCode),
	)
	return out, nil
}
