package telegram

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"
)

// maxMessageLen keeps replies under the Bot API's 4096-char limit
// with headroom for entities.
const maxMessageLen = 3800

// RealClient talks to the Bot API over HTTPS.
type RealClient struct {
	baseURL string
	http    *http.Client
}

// NewRealClient creates a client for the given bot token.
func NewRealClient(token string) *RealClient {
	return &RealClient{
		baseURL: "https://api.telegram.org/bot" + token,
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

// apiResponse is the Bot API envelope.
type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
}

// call posts a JSON request and decodes the result into out (if
// non-nil).
func (c *RealClient) call(method string, req, out any) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", method, err)
	}

	resp, err := c.http.Post(c.baseURL+"/"+method, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s: read response: %w", method, err)
	}

	var envelope apiResponse
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("%s: decode response: %w", method, err)
	}
	if !envelope.OK {
		return fmt.Errorf("%s: api error: %s", method, envelope.Description)
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return fmt.Errorf("%s: decode result: %w", method, err)
		}
	}
	return nil
}

func truncate(text string) string {
	if len(text) <= maxMessageLen {
		return text
	}
	cut := maxMessageLen
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

// SendMessage posts text to a chat.
func (c *RealClient) SendMessage(chatID int64, text string, kb *InlineKeyboard) (int64, error) {
	req := map[string]any{
		"chat_id": chatID,
		"text":    truncate(text),
	}
	if kb != nil {
		req["reply_markup"] = kb
	}

	var sent Message
	if err := c.call("sendMessage", req, &sent); err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

// EditMessage replaces the text and keyboard of a sent message.
func (c *RealClient) EditMessage(chatID, messageID int64, text string, kb *InlineKeyboard) error {
	req := map[string]any{
		"chat_id":    chatID,
		"message_id": messageID,
		"text":       truncate(text),
	}
	if kb != nil {
		req["reply_markup"] = kb
	}
	return c.call("editMessageText", req, nil)
}

// GetUpdates long-polls for updates with IDs >= offset.
func (c *RealClient) GetUpdates(offset int64, timeoutSec int) ([]Update, error) {
	req := map[string]any{
		"offset":  offset,
		"timeout": timeoutSec,
	}

	var updates []Update
	if err := c.call("getUpdates", req, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// AnswerCallback acknowledges a button press.
func (c *RealClient) AnswerCallback(callbackID, text string) error {
	req := map[string]any{
		"callback_query_id": callbackID,
	}
	if text != "" {
		req["text"] = text
	}
	return c.call("answerCallbackQuery", req, nil)
}
