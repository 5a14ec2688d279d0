// Package telegram sends bot messages, photos and documents to one chat
package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"resty.dev/v3"
)

// Sentinel errors
var (
	ErrRequestFailed = errors.New("telegram request failed")
	ErrAPI           = errors.New("telegram api error")
	ErrMissingConfig = errors.New("telegram token and chat id are required")
)

const DefaultBaseURL = "https://api.telegram.org"

// Config holds the bot credentials and transport settings
type Config struct {
	BaseURL    string
	Token      string
	ChatID     string
	Timeout    time.Duration
	RateLimit  int // requests per minute, 0 disables limiting
	MaxRetries int
}

// Client is a Telegram Bot API client bound to a single chat
type Client struct {
	http   *resty.Client
	token  string
	chatID string
	log    *slog.Logger
}

// apiResponse is the envelope of every Bot API reply
type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// NewClient creates a client. Requests wait on a limiter derived from RateLimit.
func NewClient(cfg Config, log *slog.Logger) (*Client, error) {
	if cfg.Token == "" || cfg.ChatID == "" {
		return nil, ErrMissingConfig
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(float64(cfg.RateLimit) / 60)
	}
	limiter := rate.NewLimiter(limit, 1)

	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.MaxRetries).
		AddRequestMiddleware(func(_ *resty.Client, r *resty.Request) error {
			waitCtx, cancel := context.WithTimeout(r.Context(), cfg.Timeout)
			defer cancel()
			return limiter.Wait(waitCtx)
		})

	return &Client{http: httpClient, token: cfg.Token, chatID: cfg.ChatID, log: log}, nil
}

// Close releases idle connections
func (c *Client) Close() error {
	return c.http.Close()
}

// SendText sends message with MarkdownV2 formatting, escaping it first
func (c *Client) SendText(ctx context.Context, message string) error {
	req := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(sendMessageRequest{
			ChatID:    c.chatID,
			Text:      EscapeMarkdownV2(message),
			ParseMode: "MarkdownV2",
		})

	return c.do(req, "sendMessage")
}

// SendImage uploads the image at path as a photo
func (c *Client) SendImage(ctx context.Context, path string) error {
	return c.upload(ctx, "sendPhoto", "photo", path)
}

// SendFile uploads the file at path as a document
func (c *Client) SendFile(ctx context.Context, path string) error {
	return c.upload(ctx, "sendDocument", "document", path)
}

func (c *Client) upload(ctx context.Context, method, field, path string) error {
	req := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{"chat_id": c.chatID}).
		SetFile(field, path)

	if err := c.do(req, method); err != nil {
		return fmt.Errorf("%w (%s)", err, filepath.Base(path))
	}
	return nil
}

func (c *Client) do(req *resty.Request, method string) error {
	resp, err := req.Post("/bot" + c.token + "/" + method)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRequestFailed, method, redactedError{err: err, token: c.token})
	}

	var body apiResponse
	if err := json.Unmarshal([]byte(resp.String()), &body); err != nil {
		return fmt.Errorf("%w: %s: status %d: %w", ErrRequestFailed, method, resp.StatusCode(), err)
	}
	if !body.OK {
		c.log.Warn("Telegram rejected request",
			slog.String("method", method),
			slog.Int("status", resp.StatusCode()),
			slog.String("description", body.Description),
		)
		return fmt.Errorf("%w: %s: %d %s", ErrAPI, method, body.ErrorCode, body.Description)
	}

	c.log.Debug("Telegram request sent", slog.String("method", method))
	return nil
}

// redactedError hides the bot token that transport errors quote as part of the request URL
type redactedError struct {
	err   error
	token string
}

func (e redactedError) Error() string {
	return strings.ReplaceAll(e.err.Error(), e.token, "<redacted>")
}

func (e redactedError) Unwrap() error { return e.err }

// markdownV2Special lists the characters MarkdownV2 requires to be escaped
const markdownV2Special = "_*[]()~`>#+-=|{}.!\\"

// EscapeMarkdownV2 escapes every MarkdownV2 control character in s
func EscapeMarkdownV2(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if strings.ContainsRune(markdownV2Special, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
