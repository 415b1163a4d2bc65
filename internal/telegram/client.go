// Package telegram provides the remote command channel with
// abstraction for testing. The real implementation talks to the Bot
// API over HTTPS; the fake allows driving the router in tests.
package telegram

// Update is one item from getUpdates.
type Update struct {
	UpdateID      int64          `json:"update_id"`
	Message       *Message       `json:"message,omitempty"`
	CallbackQuery *CallbackQuery `json:"callback_query,omitempty"`
}

// Message is an incoming or sent chat message.
type Message struct {
	MessageID int64  `json:"message_id"`
	From      *User  `json:"from,omitempty"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text,omitempty"`
}

// User identifies the sender.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username,omitempty"`
}

// Chat identifies the conversation.
type Chat struct {
	ID int64 `json:"id"`
}

// CallbackQuery is a button press on an inline keyboard.
type CallbackQuery struct {
	ID      string   `json:"id"`
	From    User     `json:"from"`
	Message *Message `json:"message,omitempty"`
	Data    string   `json:"data,omitempty"`
}

// Client is the subset of the Bot API the monitor uses.
type Client interface {
	// SendMessage posts text to a chat, optionally with an inline
	// keyboard. Returns the sent message ID.
	SendMessage(chatID int64, text string, kb *InlineKeyboard) (int64, error)

	// EditMessage replaces the text and keyboard of a sent message.
	EditMessage(chatID, messageID int64, text string, kb *InlineKeyboard) error

	// GetUpdates long-polls for updates with IDs >= offset.
	GetUpdates(offset int64, timeoutSec int) ([]Update, error)

	// AnswerCallback acknowledges a button press so the client
	// stops showing a spinner.
	AnswerCallback(callbackID, text string) error
}
