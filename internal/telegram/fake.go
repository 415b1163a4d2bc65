package telegram

// SentMessage records a SendMessage call.
type SentMessage struct {
	ChatID   int64
	Text     string
	Keyboard *InlineKeyboard
}

// EditedMessage records an EditMessage call.
type EditedMessage struct {
	ChatID    int64
	MessageID int64
	Text      string
	Keyboard  *InlineKeyboard
}

// AnsweredCallback records an AnswerCallback call.
type AnsweredCallback struct {
	CallbackID string
	Text       string
}

// FakeClient is a test double that scripts incoming updates and
// records outgoing calls.
type FakeClient struct {
	// Pending is returned (and cleared) by the next GetUpdates call,
	// filtered to IDs >= offset.
	Pending []Update

	// Sent, Edited and Answered record outgoing calls.
	Sent     []SentMessage
	Edited   []EditedMessage
	Answered []AnsweredCallback

	// Offsets records the offset of every GetUpdates call.
	Offsets []int64

	// SendError, if set, will be returned by SendMessage.
	SendError error

	// UpdatesError, if set, will be returned by GetUpdates.
	UpdatesError error

	nextMessageID int64
}

// NewFakeClient creates a FakeClient for testing.
func NewFakeClient() *FakeClient {
	return &FakeClient{}
}

// SendMessage records the message and returns a synthetic message ID.
func (f *FakeClient) SendMessage(chatID int64, text string, kb *InlineKeyboard) (int64, error) {
	if f.SendError != nil {
		return 0, f.SendError
	}
	f.nextMessageID++
	f.Sent = append(f.Sent, SentMessage{ChatID: chatID, Text: text, Keyboard: kb})
	return f.nextMessageID, nil
}

// EditMessage records the edit.
func (f *FakeClient) EditMessage(chatID, messageID int64, text string, kb *InlineKeyboard) error {
	f.Edited = append(f.Edited, EditedMessage{ChatID: chatID, MessageID: messageID, Text: text, Keyboard: kb})
	return nil
}

// GetUpdates returns the pending updates at or past offset and clears
// the queue.
func (f *FakeClient) GetUpdates(offset int64, timeoutSec int) ([]Update, error) {
	f.Offsets = append(f.Offsets, offset)
	if f.UpdatesError != nil {
		return nil, f.UpdatesError
	}

	var out []Update
	for _, u := range f.Pending {
		if u.UpdateID >= offset {
			out = append(out, u)
		}
	}
	f.Pending = nil
	return out, nil
}

// AnswerCallback records the acknowledgment.
func (f *FakeClient) AnswerCallback(callbackID, text string) error {
	f.Answered = append(f.Answered, AnsweredCallback{CallbackID: callbackID, Text: text})
	return nil
}
