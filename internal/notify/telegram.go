package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/Can0Ngu1/bot-web/internal/model"
)

const (
	telegramAPIBase = "https://api.telegram.org"
	httpTimeout     = 15 * time.Second
)

// Credentials supplies the bot token and target chat. Read once per Notify
// call so a rewritten config file takes effect on the next cycle.
type Credentials func() (token string, chatID int64)

// Telegram dispatches digests through the Telegram Bot API. At most one
// sendMessage call is made per cycle.
type Telegram struct {
	// BaseURL is the API origin; tests point it at a local server.
	BaseURL string

	creds  Credentials
	client *http.Client
}

// NewTelegram constructs a notifier with a shared HTTP client.
func NewTelegram(creds Credentials) *Telegram {
	return &Telegram{
		BaseURL: telegramAPIBase,
		creds:   creds,
		client:  &http.Client{Timeout: httpTimeout},
	}
}

// sendMessageRequest mirrors the Bot API sendMessage payload.
type sendMessageRequest struct {
	ChatID                int64  `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

// sendMessageResponse mirrors the Bot API envelope.
type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Notify formats records into a digest and sends it. Any failure — missing
// credentials, network error, API rejection — comes back as an error for
// the caller to log; it is never fatal to the cycle.
func (t *Telegram) Notify(ctx context.Context, records []model.BidRecord) error {
	token, chatID := t.creds()
	if token == "" || chatID == 0 {
		return fmt.Errorf("telegram credentials not configured")
	}

	body, err := json.Marshal(sendMessageRequest{
		ChatID:                chatID,
		Text:                  Digest(records, time.Now()),
		ParseMode:             "Markdown",
		DisableWebPagePreview: true,
	})
	if err != nil {
		return fmt.Errorf("marshal sendMessage: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.BaseURL, token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("http POST: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	var apiResp sendMessageResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return fmt.Errorf("telegram returned %d: %s", resp.StatusCode, string(respBody))
	}
	if !apiResp.OK {
		return fmt.Errorf("telegram rejected message (%d): %s", resp.StatusCode, apiResp.Description)
	}

	log.Printf("[notify] Digest sent — %d record(s)", len(records))
	return nil
}
