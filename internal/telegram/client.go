// internal/telegram/client.go
package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrPermanentReject marks a delivery failure that will never succeed
// for this recipient (the user blocked the bot or the chat is gone).
// Callers prune the recipient on it.
var ErrPermanentReject = errors.New("recipient permanently rejected delivery")

const (
	defaultBaseURL = "https://api.telegram.org"

	// Telegram allows roughly 30 messages per second bot-wide; stay a
	// little under it.
	sendRate  = 25
	sendBurst = 5
)

// ClientConfig configures the Bot API client.
type ClientConfig struct {
	Token      string
	BaseURL    string       // override for tests; empty selects api.telegram.org
	HTTPClient *http.Client // optional
	Logger     *zap.Logger
}

// Client is a minimal Telegram Bot API client: sendMessage for outbound
// alerts and getUpdates long-polling for inbound commands.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{
		token:      cfg.Token,
		baseURL:    baseURL,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(sendRate), sendBurst),
		logger:     cfg.Logger.Named("telegram"),
	}
}

// SendOptions carries optional sendMessage parameters.
type SendOptions struct {
	// ThreadID targets a forum topic inside a group chat; zero means
	// the chat's main thread.
	ThreadID int64
}

// Update is one getUpdates entry.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message"`
}

// Message is an inbound chat message.
type Message struct {
	MessageID int64  `json:"message_id"`
	Text      string `json:"text"`
	Chat      Chat   `json:"chat"`
}

// Chat identifies a delivery endpoint.
type Chat struct {
	ID int64 `json:"id"`
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

// SendMessage delivers Markdown text to one chat. A 403 from the API
// wraps ErrPermanentReject; every other failure is transient and left
// to the caller's next natural send.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, opts *SendOptions) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	form := url.Values{}
	form.Set("chat_id", strconv.FormatInt(chatID, 10))
	form.Set("text", text)
	form.Set("parse_mode", "Markdown")
	if opts != nil && opts.ThreadID != 0 {
		form.Set("message_thread_id", strconv.FormatInt(opts.ThreadID, 10))
	}

	resp, err := c.call(ctx, "sendMessage", form)
	if err != nil {
		return err
	}
	if !resp.OK {
		if resp.ErrorCode == http.StatusForbidden {
			return fmt.Errorf("chat %d: %s: %w", chatID, resp.Description, ErrPermanentReject)
		}
		return fmt.Errorf("sendMessage to chat %d failed (%d): %s", chatID, resp.ErrorCode, resp.Description)
	}
	return nil
}

// Updates long-polls for inbound updates past offset. timeout is the
// server-side hold; the HTTP client must allow for it.
func (c *Client) Updates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	form := url.Values{}
	form.Set("offset", strconv.FormatInt(offset, 10))
	form.Set("timeout", strconv.Itoa(int(timeout.Seconds())))
	form.Set("allowed_updates", `["message"]`)

	resp, err := c.call(ctx, "getUpdates", form)
	if err != nil {
		return nil, err
	}
	if !resp.OK {
		return nil, fmt.Errorf("getUpdates failed (%d): %s", resp.ErrorCode, resp.Description)
	}

	var updates []Update
	if err := json.Unmarshal(resp.Result, &updates); err != nil {
		return nil, fmt.Errorf("decode updates: %w", err)
	}
	return updates, nil
}

func (c *Client) call(ctx context.Context, method string, form url.Values) (*apiResponse, error) {
	endpoint := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", method, err)
	}
	defer httpResp.Body.Close()

	var resp apiResponse
	if err := json.NewDecoder(io.LimitReader(httpResp.Body, 1<<20)).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", method, err)
	}
	return &resp, nil
}
