package telegram

// Button is one inline keyboard button.
type Button struct {
	Text string `json:"text"`
	Data string `json:"callback_data"`
}

// InlineKeyboard is a grid of buttons attached to a message.
type InlineKeyboard struct {
	Rows [][]Button `json:"inline_keyboard"`
}

// Row appends a row of buttons and returns the keyboard for chaining.
func (k *InlineKeyboard) Row(buttons ...Button) *InlineKeyboard {
	k.Rows = append(k.Rows, buttons)
	return k
}

// MainMenuKeyboard is attached to the settings card.
func MainMenuKeyboard() *InlineKeyboard {
	kb := &InlineKeyboard{}
	kb.Row(
		Button{Text: "Thresholds", Data: "menu:thr"},
		Button{Text: "Quiet hours", Data: "menu:quiet"},
	)
	kb.Row(Button{Text: "Preset: home", Data: "preset:home"})
	return kb
}

// ThresholdsKeyboard adjusts alert thresholds in fixed steps.
func ThresholdsKeyboard() *InlineKeyboard {
	kb := &InlineKeyboard{}
	kb.Row(
		Button{Text: "warn −50", Data: "thr:warn:-"},
		Button{Text: "warn +50", Data: "thr:warn:+"},
	)
	kb.Row(
		Button{Text: "high −50", Data: "thr:high:-"},
		Button{Text: "high +50", Data: "thr:high:+"},
	)
	kb.Row(
		Button{Text: "remind −5", Data: "thr:remind:-"},
		Button{Text: "remind +5", Data: "thr:remind:+"},
	)
	kb.Row(Button{Text: "« back", Data: "menu:main"})
	return kb
}

// QuietKeyboard toggles quiet hours and shifts the window.
func QuietKeyboard() *InlineKeyboard {
	kb := &InlineKeyboard{}
	kb.Row(
		Button{Text: "quiet on", Data: "cfg:quiet:on"},
		Button{Text: "quiet off", Data: "cfg:quiet:off"},
	)
	kb.Row(
		Button{Text: "start −1h", Data: "cfg:qstart:-"},
		Button{Text: "start +1h", Data: "cfg:qstart:+"},
	)
	kb.Row(
		Button{Text: "end −1h", Data: "cfg:qend:-"},
		Button{Text: "end +1h", Data: "cfg:qend:+"},
	)
	kb.Row(Button{Text: "« back", Data: "menu:main"})
	return kb
}
