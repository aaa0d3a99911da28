// Package generate produces draft post bodies from a free-text topic using a
// hosted generative language model.
package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// PlaceholderText is returned instead of calling out when no credential is
// configured.
const PlaceholderText = "Gemini API key is not configured. Please set the API_KEY environment variable. For now, here is some placeholder content based on your prompt to demonstrate functionality. Lorem ipsum dolor sit amet, consectetur adipiscing elit."

const (
	defaultModel   = "gemini-2.5-flash"
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	maxErrorBody   = 4 << 10
)

// Sentinel errors for upstream calls.
var (
	ErrEmptyResponse = errors.New("generate: model returned no text")
	ErrRateLimited   = errors.New("generate: rate limited by server")
	ErrBadRequest    = errors.New("generate: request rejected")
	ErrServer        = errors.New("generate: server error")
)

// Generator turns a topic into prose.
type Generator interface {
	Generate(ctx context.Context, topic string) (string, error)
}

// Prompt builds the instruction sent to the model for topic.
func Prompt(topic string) string {
	return "Generate a blog post of about 3-4 paragraphs based on the following topic: \"" + topic + "\". " +
		"The tone should be informative and engaging for a tech audience. " +
		"Do not include a title, just the main content."
}

// FailureText is the inline message shown in place of generated content
// when generation fails.
func FailureText(err error) string {
	return "An error occurred while generating content. Please try again. \n\nDetails: " + err.Error()
}

// Config configures a Client.
type Config struct {
	APIKey        string
	Model         string
	BaseURL       string
	Timeout       time.Duration
	RatePerMinute int
}

// Client calls the generateContent REST endpoint.
type Client struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	logger      *slog.Logger

	apiKey  string
	model   string
	baseURL string
}

// NewClient creates a generation client. RatePerMinute bounds outbound calls
// with a burst of 5; zero disables the limit.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}

	limit := rate.Inf
	if cfg.RatePerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.RatePerMinute))
	}

	return &Client{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		rateLimiter: rate.NewLimiter(limit, 5),
		logger:      logger,
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// Configured reports whether a credential is set.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// Model returns the model name requests are sent to.
func (c *Client) Model() string {
	return c.model
}

func (c *Client) wait(ctx context.Context) error {
	return c.rateLimiter.Wait(ctx)
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Generate returns generated prose for topic. Without a credential it
// returns PlaceholderText. HTML output is converted to Markdown.
func (c *Client) Generate(ctx context.Context, topic string) (string, error) {
	if !c.Configured() {
		c.logger.Warn("generation API key not set, returning placeholder content")
		return PlaceholderText, nil
	}

	if err := c.wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit: %w", err)
	}

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: Prompt(topic)}}}},
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	endpoint := c.baseURL + "/v1beta/models/" + url.PathEscape(c.model) + ":generateContent"

	c.logger.Debug("requesting generation", "model", c.model, "topic_len", len(topic))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("generate request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", statusError(resp)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}

	if out.PromptFeedback != nil && out.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: prompt blocked (%s)", ErrBadRequest, out.PromptFeedback.BlockReason)
	}

	var sb strings.Builder
	for _, cand := range out.Candidates {
		for _, p := range cand.Content.Parts {
			sb.WriteString(p.Text)
		}
		if sb.Len() > 0 {
			break
		}
	}

	text := strings.TrimSpace(htmlToMarkdown(sb.String()))
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func statusError(resp *http.Response) error {
	var sentinel error
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		sentinel = ErrRateLimited
	case resp.StatusCode >= 500:
		sentinel = ErrServer
	default:
		sentinel = ErrBadRequest
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var er errorResponse
	if json.Unmarshal(raw, &er) == nil && er.Error.Message != "" {
		return fmt.Errorf("%w: status %d: %s", sentinel, resp.StatusCode, er.Error.Message)
	}
	return fmt.Errorf("%w: status %d", sentinel, resp.StatusCode)
}
