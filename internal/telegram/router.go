package telegram

import (
	"fmt"
	"log"

	"github.com/sweeney/co2-monitor/internal/logic"
	"github.com/sweeney/co2-monitor/internal/settings"
	"github.com/sweeney/co2-monitor/internal/status"
)

// Router dispatches incoming updates to command handlers and pushes
// outbound alert notifications. Not safe for concurrent use — the
// main loop owns it.
type Router struct {
	client        Client
	chatID        int64
	allowedUserID int64
	store         *settings.Store
	snapshot      func() status.Snapshot
	inlineKeys    bool

	// onCommand is called once per handled command, for counters.
	// May be nil.
	onCommand func()

	lastUpdateID int64
}

// RouterOptions configures a Router.
type RouterOptions struct {
	ChatID        int64
	AllowedUserID int64
	InlineKeys    bool
	OnCommand     func()
}

// NewRouter creates a Router. snapshot provides the current daemon
// state for /status and /diag.
func NewRouter(client Client, store *settings.Store, snapshot func() status.Snapshot, opts RouterOptions) *Router {
	return &Router{
		client:        client,
		chatID:        opts.ChatID,
		allowedUserID: opts.AllowedUserID,
		store:         store,
		snapshot:      snapshot,
		inlineKeys:    opts.InlineKeys,
		onCommand:     opts.OnCommand,
	}
}

// Notify delivers an alert notification to the configured chat.
func (r *Router) Notify(n logic.Notification) error {
	_, err := r.client.SendMessage(r.chatID, AlertText(n), nil)
	return err
}

// Poll fetches pending updates and handles each one. The cursor
// always advances past every fetched update, including unauthorized
// or malformed ones, so a poison update can never wedge the channel.
func (r *Router) Poll() error {
	updates, err := r.client.GetUpdates(r.lastUpdateID+1, 0)
	if err != nil {
		return fmt.Errorf("get updates: %w", err)
	}

	for _, u := range updates {
		if u.UpdateID > r.lastUpdateID {
			r.lastUpdateID = u.UpdateID
		}
		switch {
		case u.CallbackQuery != nil:
			r.handleCallback(*u.CallbackQuery)
		case u.Message != nil:
			r.handleMessage(*u.Message)
		}
	}
	return nil
}

func (r *Router) authorized(from *User) bool {
	return from != nil && from.ID == r.allowedUserID
}

func (r *Router) handleMessage(m Message) {
	if !r.authorized(m.From) {
		// Silent drop: replying would confirm the bot exists.
		log.Printf("telegram: dropping message from user %v", m.From)
		return
	}

	cmd, ok := ParseCommand(m.Text)
	if !ok {
		return
	}
	if r.onCommand != nil {
		r.onCommand()
	}

	text, kb := r.runCommand(cmd)
	if text == "" {
		return
	}
	if _, err := r.client.SendMessage(r.chatID, text, kb); err != nil {
		log.Printf("telegram: send reply: %v", err)
	}
}

// runCommand executes a command and returns the reply text and
// optional keyboard.
func (r *Router) runCommand(cmd Command) (string, *InlineKeyboard) {
	switch cmd.Kind {
	case CmdStatus:
		return StatusCard(r.snapshot()), nil

	case CmdSettings:
		var kb *InlineKeyboard
		if r.inlineKeys {
			kb = MainMenuKeyboard()
		}
		return SettingsCard(r.store.Current()), kb

	case CmdMenu:
		if r.inlineKeys {
			return SettingsCard(r.store.Current()), MainMenuKeyboard()
		}
		return HelpCard(), nil

	case CmdInfo:
		return InfoCard(r.snapshot()), nil

	case CmdThresholds:
		var kb *InlineKeyboard
		if r.inlineKeys {
			kb = ThresholdsKeyboard()
		}
		return ThresholdsCard(r.store.Current()), kb

	case CmdHealth:
		return HealthCard(r.snapshot()), nil

	case CmdEvents:
		return EventsCard(r.snapshot()), nil

	case CmdHelp:
		return HelpCard(), nil

	case CmdDiag:
		return DiagCard(r.snapshot()), nil

	case CmdSetWarn:
		return r.apply(func(s settings.Settings) settings.Settings {
			s.WarnOnPPM = cmd.Value
			return s
		}, fmt.Sprintf("Warn threshold set to %d ppm", cmd.Value))

	case CmdSetHigh:
		return r.apply(func(s settings.Settings) settings.Settings {
			s.HighOnPPM = cmd.Value
			return s
		}, fmt.Sprintf("High threshold set to %d ppm", cmd.Value))

	case CmdSetRemind:
		return r.apply(func(s settings.Settings) settings.Settings {
			s.RemindMin = cmd.Value
			return s
		}, fmt.Sprintf("Reminder interval set to %d min", cmd.Value))

	case CmdQuietOn:
		return r.apply(func(s settings.Settings) settings.Settings {
			s.QuietEnable = true
			return s
		}, "Quiet hours on")

	case CmdQuietOff:
		return r.apply(func(s settings.Settings) settings.Settings {
			s.QuietEnable = false
			return s
		}, "Quiet hours off")

	case CmdQuietWindow:
		return r.apply(func(s settings.Settings) settings.Settings {
			s.QuietEnable = true
			s.QuietStartHour = cmd.Start
			s.QuietEndHour = cmd.End
			return s
		}, fmt.Sprintf("Quiet window set to %02d:00-%02d:00", cmd.Start, cmd.End))

	case CmdPreset:
		return r.applyPreset(cmd.Preset)
	}
	return "", nil
}

// presets are named threshold bundles.
var presets = map[string]struct{ warn, high, remind int }{
	"home": {warn: 800, high: 1500, remind: 20},
}

func (r *Router) applyPreset(name string) (string, *InlineKeyboard) {
	p, ok := presets[name]
	if !ok {
		return fmt.Sprintf("Unknown preset %q", name), nil
	}
	return r.apply(func(s settings.Settings) settings.Settings {
		s.WarnOnPPM = p.warn
		s.HighOnPPM = p.high
		s.RemindMin = p.remind
		return s
	}, fmt.Sprintf("Preset %q applied", name))
}

// apply runs a settings mutation and converts the outcome into reply
// text. A rejected mutation keeps the old settings and the reply
// quotes the reason.
func (r *Router) apply(mutate func(settings.Settings) settings.Settings, okText string) (string, *InlineKeyboard) {
	if _, err := r.store.Apply(mutate); err != nil {
		return fmt.Sprintf("Rejected: %v", err), nil
	}
	return okText, nil
}

// applyCallback runs a settings mutation for a button press and
// returns the short toast text.
func (r *Router) applyCallback(mutate func(settings.Settings) settings.Settings) string {
	if _, err := r.store.Apply(mutate); err != nil {
		return fmt.Sprintf("Rejected: %v", err)
	}
	return "Saved"
}

func (r *Router) handleCallback(q CallbackQuery) {
	if !r.authorized(&q.From) {
		log.Printf("telegram: dropping callback from user %d", q.From.ID)
		return
	}

	action, ok := ParseCallback(q.Data)
	if !ok {
		// Stale button from a previous build. Ack so the client
		// stops spinning.
		r.answer(q.ID, "")
		return
	}
	if r.onCommand != nil {
		r.onCommand()
	}

	feedback := ""
	kb := MainMenuKeyboard()
	switch action.Kind {
	case ActMenuMain:
	case ActMenuThresholds:
		kb = ThresholdsKeyboard()
	case ActMenuQuiet:
		kb = QuietKeyboard()

	case ActQuietOn:
		feedback = r.applyCallback(func(s settings.Settings) settings.Settings {
			s.QuietEnable = true
			return s
		})
		kb = QuietKeyboard()
	case ActQuietOff:
		feedback = r.applyCallback(func(s settings.Settings) settings.Settings {
			s.QuietEnable = false
			return s
		})
		kb = QuietKeyboard()

	case ActAdjust:
		feedback = r.applyCallback(adjust(action.Field, action.Delta))
		if action.Field == "qstart" || action.Field == "qend" {
			kb = QuietKeyboard()
		} else {
			kb = ThresholdsKeyboard()
		}

	case ActPreset:
		text, _ := r.applyPreset(action.Preset)
		feedback = text
	}

	r.answer(q.ID, feedback)

	if q.Message != nil {
		err := r.client.EditMessage(q.Message.Chat.ID, q.Message.MessageID, SettingsCard(r.store.Current()), kb)
		if err != nil {
			log.Printf("telegram: edit settings card: %v", err)
		}
	}
}

// adjust returns a mutation stepping one settings field.
func adjust(field string, delta int) func(settings.Settings) settings.Settings {
	return func(s settings.Settings) settings.Settings {
		switch field {
		case "warn":
			s.WarnOnPPM += delta
		case "high":
			s.HighOnPPM += delta
		case "remind":
			s.RemindMin += delta
		case "qstart":
			s.QuietStartHour = wrapHour(s.QuietStartHour + delta)
		case "qend":
			s.QuietEndHour = wrapHour(s.QuietEndHour + delta)
		}
		return s
	}
}

func wrapHour(h int) int {
	return ((h % 24) + 24) % 24
}

func (r *Router) answer(callbackID, text string) {
	if err := r.client.AnswerCallback(callbackID, text); err != nil {
		log.Printf("telegram: answer callback: %v", err)
	}
}
