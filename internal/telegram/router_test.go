package telegram

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/co2-monitor/internal/logic"
	"github.com/sweeney/co2-monitor/internal/scd4x"
	"github.com/sweeney/co2-monitor/internal/settings"
	"github.com/sweeney/co2-monitor/internal/status"
)

const (
	ownerID    int64 = 1001
	chatID     int64 = 2002
	strangerID int64 = 666
)

func newTestRouter(t *testing.T) (*Router, *FakeClient, *settings.Store) {
	t.Helper()
	router, client, store, _ := newTestRouterFull(t)
	return router, client, store
}

func newTestRouterWithTracker(t *testing.T) (*Router, *FakeClient, *status.Tracker) {
	t.Helper()
	router, client, _, tracker := newTestRouterFull(t)
	return router, client, tracker
}

func newTestRouterFull(t *testing.T) (*Router, *FakeClient, *settings.Store, *status.Tracker) {
	t.Helper()
	store := settings.NewStore(filepath.Join(t.TempDir(), "state.json"))
	store.Load()

	tracker := status.NewTracker(time.Now(), status.Config{})
	now := time.Now()
	tracker.SetReading(scd4x.Reading{
		CO2PPM: 850, CO2Filtered: 845, TempFiltered: 21.5, HumidityFiltered: 46,
		SampledAt: now, Valid: true,
	}, scd4x.Health{Phase: scd4x.PhaseNormal, LastValidAt: now})
	tracker.SetAlert(logic.AlertState{Level: logic.LevelOK})
	tracker.SetClock("14:05", true, "", false)

	client := NewFakeClient()
	router := NewRouter(client, store, tracker.Snapshot, RouterOptions{
		ChatID:        chatID,
		AllowedUserID: ownerID,
		InlineKeys:    true,
	})
	return router, client, store, tracker
}

func messageUpdate(id int64, from int64, text string) Update {
	return Update{
		UpdateID: id,
		Message: &Message{
			MessageID: id * 10,
			From:      &User{ID: from},
			Chat:      Chat{ID: chatID},
			Text:      text,
		},
	}
}

func callbackUpdate(id int64, from int64, data string) Update {
	return Update{
		UpdateID: id,
		CallbackQuery: &CallbackQuery{
			ID:   "cb",
			From: User{ID: from},
			Message: &Message{
				MessageID: 99,
				Chat:      Chat{ID: chatID},
			},
			Data: data,
		},
	}
}

func TestStatusCommand(t *testing.T) {
	router, client, _ := newTestRouter(t)
	client.Pending = []Update{messageUpdate(1, ownerID, "/status")}

	if err := router.Poll(); err != nil {
		t.Fatal(err)
	}
	if len(client.Sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(client.Sent))
	}
	reply := client.Sent[0]
	if reply.ChatID != chatID {
		t.Errorf("reply chat = %d", reply.ChatID)
	}
	if !strings.Contains(reply.Text, "850 ppm") {
		t.Errorf("status reply %q missing reading", reply.Text)
	}
}

func TestUnauthorizedMessageSilentlyDropped(t *testing.T) {
	router, client, store := newTestRouter(t)
	client.Pending = []Update{messageUpdate(1, strangerID, "/warn 900")}

	if err := router.Poll(); err != nil {
		t.Fatal(err)
	}
	if len(client.Sent) != 0 {
		t.Errorf("replied to a stranger: %+v", client.Sent)
	}
	if store.Current().WarnOnPPM != 800 {
		t.Errorf("stranger changed settings: warn = %d", store.Current().WarnOnPPM)
	}
}

func TestCursorAdvancesPastUnauthorized(t *testing.T) {
	router, client, _ := newTestRouter(t)
	client.Pending = []Update{
		messageUpdate(7, strangerID, "/status"),
		messageUpdate(8, ownerID, "/status"),
	}

	if err := router.Poll(); err != nil {
		t.Fatal(err)
	}
	// Next poll must ask past the highest seen ID, stranger or not.
	if err := router.Poll(); err != nil {
		t.Fatal(err)
	}
	if got := client.Offsets[len(client.Offsets)-1]; got != 9 {
		t.Errorf("second poll offset = %d, want 9", got)
	}
}

func TestCursorAdvancesPastUnparsableCallback(t *testing.T) {
	router, client, _ := newTestRouter(t)
	client.Pending = []Update{callbackUpdate(4, ownerID, "thr:legacy:token")}

	if err := router.Poll(); err != nil {
		t.Fatal(err)
	}
	if len(client.Answered) != 1 {
		t.Fatalf("stale button not acknowledged: %+v", client.Answered)
	}
	router.Poll()
	if got := client.Offsets[len(client.Offsets)-1]; got != 5 {
		t.Errorf("offset = %d, want 5", got)
	}
}

func TestSetThreshold(t *testing.T) {
	router, client, store := newTestRouter(t)
	client.Pending = []Update{messageUpdate(1, ownerID, "/warn 900")}

	if err := router.Poll(); err != nil {
		t.Fatal(err)
	}
	if store.Current().WarnOnPPM != 900 {
		t.Errorf("warn = %d, want 900", store.Current().WarnOnPPM)
	}
	if len(client.Sent) != 1 || !strings.Contains(client.Sent[0].Text, "900") {
		t.Errorf("reply = %+v", client.Sent)
	}
}

func TestSetThresholdRejectedKeepsOld(t *testing.T) {
	router, client, store := newTestRouter(t)
	// 500 is below the warn floor.
	client.Pending = []Update{messageUpdate(1, ownerID, "/warn 500")}

	if err := router.Poll(); err != nil {
		t.Fatal(err)
	}
	if store.Current().WarnOnPPM != 800 {
		t.Errorf("warn = %d, want unchanged 800", store.Current().WarnOnPPM)
	}
	if len(client.Sent) != 1 || !strings.Contains(client.Sent[0].Text, "Rejected") {
		t.Errorf("reply = %+v", client.Sent)
	}
}

func TestGapViolationRejected(t *testing.T) {
	router, client, store := newTestRouter(t)
	// With warn at 900, high 1000 lands inside the minimum gap.
	client.Pending = []Update{
		messageUpdate(1, ownerID, "/warn 900"),
		messageUpdate(2, ownerID, "/high 1000"),
	}

	if err := router.Poll(); err != nil {
		t.Fatal(err)
	}
	if store.Current().HighOnPPM != 1500 {
		t.Errorf("high = %d, want unchanged 1500", store.Current().HighOnPPM)
	}
	if len(client.Sent) != 2 || !strings.Contains(client.Sent[1].Text, "Rejected") {
		t.Errorf("replies = %+v", client.Sent)
	}
}

func TestQuietWindowCommand(t *testing.T) {
	router, client, store := newTestRouter(t)
	client.Pending = []Update{messageUpdate(1, ownerID, "/quiet 22 7")}

	if err := router.Poll(); err != nil {
		t.Fatal(err)
	}
	s := store.Current()
	if !s.QuietEnable || s.QuietStartHour != 22 || s.QuietEndHour != 7 {
		t.Errorf("quiet = %+v", s)
	}
}

func TestPresetHome(t *testing.T) {
	router, client, store := newTestRouter(t)
	client.Pending = []Update{
		messageUpdate(1, ownerID, "/warn 1000"),
		messageUpdate(2, ownerID, "/preset home"),
	}

	if err := router.Poll(); err != nil {
		t.Fatal(err)
	}
	s := store.Current()
	if s.WarnOnPPM != 800 || s.HighOnPPM != 1500 || s.RemindMin != 20 {
		t.Errorf("settings after preset = %+v", s)
	}
}

func TestInfoCommand(t *testing.T) {
	router, client, _ := newTestRouter(t)
	client.Pending = []Update{messageUpdate(1, ownerID, "/info")}

	if err := router.Poll(); err != nil {
		t.Fatal(err)
	}
	if len(client.Sent) != 1 {
		t.Fatalf("sent = %+v", client.Sent)
	}
	reply := client.Sent[0].Text
	for _, want := range []string{"Uptime", "raw", "filtered", "synced", "Wi-Fi"} {
		if !strings.Contains(reply, want) {
			t.Errorf("info reply %q missing %q", reply, want)
		}
	}
}

func TestThresholdsCommand(t *testing.T) {
	router, client, _ := newTestRouter(t)
	client.Pending = []Update{messageUpdate(1, ownerID, "/thresholds")}

	if err := router.Poll(); err != nil {
		t.Fatal(err)
	}
	reply := client.Sent[0]
	if !strings.Contains(reply.Text, "800 ppm") || !strings.Contains(reply.Text, "1500 ppm") {
		t.Errorf("thresholds reply = %q", reply.Text)
	}
	if reply.Keyboard == nil {
		t.Error("thresholds reply missing adjustment keyboard")
	}
}

func TestMenuCommand(t *testing.T) {
	router, client, _ := newTestRouter(t)
	client.Pending = []Update{messageUpdate(1, ownerID, "/menu")}

	if err := router.Poll(); err != nil {
		t.Fatal(err)
	}
	if client.Sent[0].Keyboard == nil {
		t.Error("menu reply missing main menu keyboard")
	}
}

func TestHealthCommand(t *testing.T) {
	router, client, _ := newTestRouter(t)
	client.Pending = []Update{messageUpdate(1, ownerID, "/health")}

	if err := router.Poll(); err != nil {
		t.Fatal(err)
	}
	reply := client.Sent[0].Text
	for _, want := range []string{"Sensor: NORMAL", "Last sample", "Bus errors"} {
		if !strings.Contains(reply, want) {
			t.Errorf("health reply %q missing %q", reply, want)
		}
	}
}

func TestEventsCommand(t *testing.T) {
	router, client, tracker := newTestRouterWithTracker(t)
	tracker.AddEvent(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC), "sensor_stale", "no sample for 16s")
	client.Pending = []Update{messageUpdate(1, ownerID, "/events")}

	if err := router.Poll(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(client.Sent[0].Text, "sensor_stale") {
		t.Errorf("events reply = %q", client.Sent[0].Text)
	}
}

func TestEventsCommandEmptyJournal(t *testing.T) {
	router, client, _ := newTestRouter(t)
	client.Pending = []Update{messageUpdate(1, ownerID, "/events")}

	if err := router.Poll(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(client.Sent[0].Text, "No events") {
		t.Errorf("events reply = %q", client.Sent[0].Text)
	}
}

func TestSettingsCommandCarriesKeyboard(t *testing.T) {
	router, client, _ := newTestRouter(t)
	client.Pending = []Update{messageUpdate(1, ownerID, "/settings")}

	if err := router.Poll(); err != nil {
		t.Fatal(err)
	}
	if client.Sent[0].Keyboard == nil {
		t.Error("settings reply missing inline keyboard")
	}
}

func TestCallbackAdjustsThreshold(t *testing.T) {
	router, client, store := newTestRouter(t)
	client.Pending = []Update{callbackUpdate(1, ownerID, "thr:warn:+")}

	if err := router.Poll(); err != nil {
		t.Fatal(err)
	}
	if store.Current().WarnOnPPM != 850 {
		t.Errorf("warn = %d, want 850", store.Current().WarnOnPPM)
	}
	if len(client.Answered) != 1 || client.Answered[0].Text != "Saved" {
		t.Errorf("answered = %+v", client.Answered)
	}
	if len(client.Edited) != 1 || !strings.Contains(client.Edited[0].Text, "850") {
		t.Errorf("edited = %+v", client.Edited)
	}
}

func TestCallbackRejectionToast(t *testing.T) {
	router, client, store := newTestRouter(t)
	// Pin warn at its ceiling, then press + once more.
	store.Apply(func(s settings.Settings) settings.Settings {
		s.HighOnPPM = settings.HighMax
		s.WarnOnPPM = settings.WarnMax
		return s
	})
	client.Pending = []Update{callbackUpdate(1, ownerID, "thr:warn:+")}

	if err := router.Poll(); err != nil {
		t.Fatal(err)
	}
	if store.Current().WarnOnPPM != settings.WarnMax {
		t.Errorf("warn = %d, want pinned at %d", store.Current().WarnOnPPM, settings.WarnMax)
	}
	if !strings.Contains(client.Answered[0].Text, "Rejected") {
		t.Errorf("toast = %q", client.Answered[0].Text)
	}
}

func TestUnauthorizedCallbackDropped(t *testing.T) {
	router, client, store := newTestRouter(t)
	client.Pending = []Update{callbackUpdate(1, strangerID, "thr:warn:+")}

	if err := router.Poll(); err != nil {
		t.Fatal(err)
	}
	if len(client.Answered) != 0 || len(client.Edited) != 0 {
		t.Errorf("responded to stranger: answered=%+v edited=%+v", client.Answered, client.Edited)
	}
	if store.Current().WarnOnPPM != 800 {
		t.Errorf("warn = %d", store.Current().WarnOnPPM)
	}
}

func TestQuietHourWrapsAroundMidnight(t *testing.T) {
	router, client, store := newTestRouter(t)
	store.Apply(func(s settings.Settings) settings.Settings {
		s.QuietStartHour = 0
		return s
	})
	client.Pending = []Update{callbackUpdate(1, ownerID, "cfg:qstart:-")}

	if err := router.Poll(); err != nil {
		t.Fatal(err)
	}
	if got := store.Current().QuietStartHour; got != 23 {
		t.Errorf("quiet start = %d, want 23", got)
	}
}

func TestNotify(t *testing.T) {
	router, client, _ := newTestRouter(t)
	err := router.Notify(logic.Notification{
		Type:   logic.NotifyEnteredHigh,
		CO2PPM: 1620,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(client.Sent) != 1 {
		t.Fatalf("sent = %+v", client.Sent)
	}
	if !strings.Contains(client.Sent[0].Text, "Ventilate") || !strings.Contains(client.Sent[0].Text, "1620") {
		t.Errorf("alert text = %q", client.Sent[0].Text)
	}
}

func TestNotifySendFailure(t *testing.T) {
	router, client, _ := newTestRouter(t)
	client.SendError = errors.New("network down")

	if err := router.Notify(logic.Notification{Type: logic.NotifyReminder, CO2PPM: 1700}); err == nil {
		t.Error("expected send error")
	}
}

func TestOnCommandCounter(t *testing.T) {
	router, client, _ := newTestRouter(t)
	count := 0
	router.onCommand = func() { count++ }
	client.Pending = []Update{
		messageUpdate(1, ownerID, "/status"),
		messageUpdate(2, ownerID, "not a command"),
		messageUpdate(3, strangerID, "/status"),
	}

	if err := router.Poll(); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("command count = %d, want 1", count)
	}
}

func TestPollErrorPropagates(t *testing.T) {
	router, client, _ := newTestRouter(t)
	client.UpdatesError = errors.New("timeout")

	if err := router.Poll(); err == nil {
		t.Error("expected error")
	}
}
