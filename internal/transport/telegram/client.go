package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"regexp"
	"time"

	"github.com/espejelomar/starknet-advisor-bot/internal/transport"
	"github.com/sirupsen/logrus"
)

const defaultAPIBase = "https://api.telegram.org"

// Client is a minimal Bot API client covering what the bot needs:
// long-polling, message/document sends, callback acks, chat actions and
// webhook management.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	log        *logrus.Logger
}

func NewClient(token, baseURL string, log *logrus.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultAPIBase
	}
	return &Client{
		token:   token,
		baseURL: baseURL,
		// long-poll requests hold the connection open; leave room above
		// the poll timeout
		httpClient: &http.Client{Timeout: 90 * time.Second},
		log:        log,
	}
}

// Wire types, trimmed to the fields the bot reads.

type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
}

type Chat struct {
	ID int64 `json:"id"`
}

type Message struct {
	MessageID int64  `json:"message_id"`
	From      *User  `json:"from"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text"`
}

type CallbackQuery struct {
	ID      string   `json:"id"`
	From    *User    `json:"from"`
	Message *Message `json:"message"`
	Data    string   `json:"data"`
}

type Update struct {
	UpdateID      int64          `json:"update_id"`
	Message       *Message       `json:"message"`
	CallbackQuery *CallbackQuery `json:"callback_query"`
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description"`
}

func (c *Client) call(ctx context.Context, method string, payload any, result any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var out apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("telegram %s: decode: %w", method, err)
	}
	if !out.OK {
		return fmt.Errorf("telegram %s: %s", method, out.Description)
	}
	if result != nil {
		return json.Unmarshal(out.Result, result)
	}
	return nil
}

// GetUpdates long-polls for new updates past offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	var updates []Update
	err := c.call(ctx, "getUpdates", map[string]any{
		"offset":          offset,
		"timeout":         int(timeout.Seconds()),
		"allowed_updates": []string{"message", "callback_query"},
	}, &updates)
	return updates, err
}

type inlineKeyboardButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data"`
}

type inlineKeyboardMarkup struct {
	InlineKeyboard [][]inlineKeyboardButton `json:"inline_keyboard"`
}

func keyboardFrom(choices [][]transport.Choice) *inlineKeyboardMarkup {
	if len(choices) == 0 {
		return nil
	}
	rows := make([][]inlineKeyboardButton, len(choices))
	for i, row := range choices {
		rows[i] = make([]inlineKeyboardButton, len(row))
		for j, ch := range row {
			rows[i][j] = inlineKeyboardButton{Text: ch.Label, CallbackData: ch.Data}
		}
	}
	return &inlineKeyboardMarkup{InlineKeyboard: rows}
}

func (c *Client) sendMessage(ctx context.Context, chatID int64, text, parseMode string, choices [][]transport.Choice) error {
	payload := map[string]any{
		"chat_id":                  chatID,
		"text":                     text,
		"disable_web_page_preview": true,
	}
	if parseMode != "" {
		payload["parse_mode"] = parseMode
	}
	if kb := keyboardFrom(choices); kb != nil {
		payload["reply_markup"] = kb
	}
	return c.call(ctx, "sendMessage", payload, nil)
}

var htmlTags = regexp.MustCompile(`<[^>]+>`)

// Deliver sends a reply back on the chat that produced the event,
// acknowledging the originating callback tap first. HTML replies fall
// back to stripped plain text if Telegram rejects the markup.
func (c *Client) Deliver(ctx context.Context, ev transport.Event, reply *transport.Reply) error {
	if ev.CallbackID != "" {
		if err := c.call(ctx, "answerCallbackQuery", map[string]any{"callback_query_id": ev.CallbackID}, nil); err != nil {
			c.log.WithError(err).Warn("callback ack failed")
		}
	}

	if reply.Document != nil {
		if err := c.sendDocument(ctx, ev.ChatID, reply.Document); err != nil {
			return err
		}
	}

	if reply.Text == "" {
		return nil
	}

	mode := "Markdown"
	if reply.HTML {
		mode = "HTML"
	}
	err := c.sendMessage(ctx, ev.ChatID, reply.Text, mode, reply.Choices)
	if err != nil {
		c.log.WithError(err).Warn("formatted send failed, retrying plain")
		plain := htmlTags.ReplaceAllString(reply.Text, "")
		return c.sendMessage(ctx, ev.ChatID, plain, "", reply.Choices)
	}
	return nil
}

func (c *Client) sendDocument(ctx context.Context, chatID int64, doc *transport.Document) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.WriteField("chat_id", fmt.Sprintf("%d", chatID)); err != nil {
		return err
	}
	if doc.Caption != "" {
		if err := w.WriteField("caption", doc.Caption); err != nil {
			return err
		}
	}
	part, err := w.CreateFormFile("document", doc.Name)
	if err != nil {
		return err
	}
	if _, err := part.Write(doc.Content); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/sendDocument", c.baseURL, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var out apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("telegram sendDocument: decode: %w", err)
	}
	if !out.OK {
		return fmt.Errorf("telegram sendDocument: %s", out.Description)
	}
	return nil
}

// SendTyping shows the typing indicator while a completion is running.
func (c *Client) SendTyping(ctx context.Context, chatID int64) {
	err := c.call(ctx, "sendChatAction", map[string]any{
		"chat_id": chatID,
		"action":  "typing",
	}, nil)
	if err != nil {
		c.log.WithError(err).Debug("chat action failed")
	}
}

func (c *Client) SetWebhook(ctx context.Context, url, secret string) error {
	payload := map[string]any{
		"url":             url,
		"allowed_updates": []string{"message", "callback_query"},
	}
	if secret != "" {
		payload["secret_token"] = secret
	}
	return c.call(ctx, "setWebhook", payload, nil)
}

func (c *Client) DeleteWebhook(ctx context.Context) error {
	return c.call(ctx, "deleteWebhook", map[string]any{}, nil)
}
