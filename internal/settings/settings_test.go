package settings

import (
	"errors"
	"testing"
)

func TestValidateAcceptsDefaults(t *testing.T) {
	if err := Validate(Defaults()); err != nil {
		t.Fatalf("defaults should validate, got %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	base := Defaults()

	tests := []struct {
		name   string
		mutate func(Settings) Settings
	}{
		{"warn below floor", func(s Settings) Settings { s.WarnOnPPM = 500; return s }},
		{"warn above ceiling", func(s Settings) Settings { s.WarnOnPPM = 1500; return s }},
		{"high below floor", func(s Settings) Settings { s.HighOnPPM = 900; return s }},
		{"high above ceiling", func(s Settings) Settings { s.HighOnPPM = 3100; return s }},
		{"gap too small", func(s Settings) Settings { s.WarnOnPPM = 1300; s.HighOnPPM = 1400; return s }},
		{"warn equals high", func(s Settings) Settings { s.WarnOnPPM = 1200; s.HighOnPPM = 1200; return s }},
		{"reminder too short", func(s Settings) Settings { s.RemindMin = 1; return s }},
		{"reminder too long", func(s Settings) Settings { s.RemindMin = 300; return s }},
		{"quiet start out of range", func(s Settings) Settings { s.QuietStartHour = 24; return s }},
		{"quiet end negative", func(s Settings) Settings { s.QuietEndHour = -1; return s }},
		{"asc target low", func(s Settings) Settings { s.ASCTargetPPM = 100; return s }},
		{"pressure low", func(s Settings) Settings { s.AmbientPressurePa = 10_000; return s }},
		{"temp offset negative", func(s Settings) Settings { s.TempOffsetC = -1; return s }},
		{"temp offset too big", func(s Settings) Settings { s.TempOffsetC = 25; return s }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.mutate(base))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("error should wrap ErrInvalid, got %v", err)
			}
		})
	}
}

func TestNormalizeRepairsGap(t *testing.T) {
	s := Defaults()
	s.WarnOnPPM = 1300
	s.HighOnPPM = 1200

	out := Normalize(s)
	if out.HighOnPPM < out.WarnOnPPM+HighOverWarnGap {
		t.Errorf("gap not repaired: warn=%d high=%d", out.WarnOnPPM, out.HighOnPPM)
	}
	if err := Validate(out); err != nil {
		t.Errorf("normalized settings should validate, got %v", err)
	}
}

func TestNormalizeRepairsGapAtCeiling(t *testing.T) {
	s := Defaults()
	s.WarnOnPPM = WarnMax
	s.HighOnPPM = HighMin

	out := Normalize(s)
	if out.HighOnPPM > HighMax {
		t.Errorf("high pushed past ceiling: %d", out.HighOnPPM)
	}
	if out.HighOnPPM < out.WarnOnPPM+HighOverWarnGap {
		t.Errorf("gap not repaired at ceiling: warn=%d high=%d", out.WarnOnPPM, out.HighOnPPM)
	}
}

func TestNormalizeClampsEverything(t *testing.T) {
	s := Settings{
		WarnOnPPM:         0,
		HighOnPPM:         99_999,
		RemindMin:         0,
		QuietStartHour:    99,
		QuietEndHour:      -3,
		ASCTargetPPM:      1,
		AmbientPressurePa: 0,
		TempOffsetC:       100,
	}
	out := Normalize(s)
	if err := Validate(out); err != nil {
		t.Fatalf("normalize of garbage should validate, got %v", err)
	}
}
