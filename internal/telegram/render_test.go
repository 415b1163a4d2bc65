package telegram

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/sweeney/co2-monitor/internal/logic"
	"github.com/sweeney/co2-monitor/internal/settings"
)

func TestSettingsCard(t *testing.T) {
	s := settings.Defaults()
	card := SettingsCard(s)
	for _, want := range []string{"800 ppm", "1500 ppm", "20 min", "00:00-10:00"} {
		if !strings.Contains(card, want) {
			t.Errorf("card %q missing %q", card, want)
		}
	}

	s.QuietEnable = false
	if card := SettingsCard(s); !strings.Contains(card, "Quiet: off") {
		t.Errorf("card %q missing quiet-off line", card)
	}
}

func TestAlertText(t *testing.T) {
	tests := []struct {
		typ  logic.NotificationType
		want string
	}{
		{logic.NotifyEnteredHigh, "Ventilate now"},
		{logic.NotifyReminder, "Still high"},
		{logic.NotifyRecovered, "back to normal"},
	}
	for _, tt := range tests {
		got := AlertText(logic.Notification{Type: tt.typ, CO2PPM: 1500})
		if !strings.Contains(got, tt.want) {
			t.Errorf("AlertText(%s) = %q, missing %q", tt.typ, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("x", maxMessageLen+100)
	if got := truncate(long); len(got) != maxMessageLen {
		t.Errorf("truncated length = %d, want %d", len(got), maxMessageLen)
	}
	if got := truncate("short"); got != "short" {
		t.Errorf("truncate(short) = %q", got)
	}
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	// Pad so the cut lands inside a multi-byte rune.
	long := strings.Repeat("x", maxMessageLen-1) + strings.Repeat("⚠", 50)
	got := truncate(long)
	if !utf8.ValidString(got) {
		t.Errorf("truncated text is not valid UTF-8: %q", got[len(got)-8:])
	}
	if len(got) > maxMessageLen {
		t.Errorf("truncated length = %d, want <= %d", len(got), maxMessageLen)
	}
	if len(got) < maxMessageLen-utf8.UTFMax {
		t.Errorf("truncated length = %d, cut too far back", len(got))
	}
}
