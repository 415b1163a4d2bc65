package settings

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// Store owns the persisted Settings. Load never fails: a missing or
// corrupt state file falls back to Defaults, and the merged result is
// written back so the on-disk copy is always self-consistent.
//
// Saves go through a temp file and rename so a crash mid-write can at
// worst leave the previous state behind, never a truncated file.
type Store struct {
	path string

	mu      sync.Mutex
	current Settings
	loaded  bool
}

// NewStore creates a Store backed by the given file path. The file is
// created on first Load if it does not exist.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads the state file, merges it over Defaults field by field,
// clamps the result and re-saves it. It never returns an error; any
// unreadable content degrades to defaults.
func (s *Store) Load() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := Defaults()
	raw, err := os.ReadFile(s.path)
	if err == nil {
		merged = merge(merged, raw)
	} else if !os.IsNotExist(err) {
		log.Printf("settings: read %s: %v, using defaults", s.path, err)
	}
	merged = Normalize(merged)

	s.current = merged
	s.loaded = true

	if err := s.saveLocked(merged); err != nil {
		log.Printf("settings: re-save after load failed: %v", err)
	}
	return merged
}

// Current returns the in-memory value. It is authoritative even when a
// previous persist failed.
func (s *Store) Current() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		s.current = Defaults()
		s.loaded = true
	}
	return s.current
}

// Apply runs the pure mutator against the current value, validates the
// result and persists it. It is the only path by which Settings
// change. A validation failure leaves the previous value untouched and
// is returned to the caller; a persist failure keeps the new value
// in memory and is only logged (changes lost on reboot, not a crash).
func (s *Store) Apply(mutate func(Settings) Settings) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		s.current = Defaults()
		s.loaded = true
	}

	next := mutate(s.current)
	if err := Validate(next); err != nil {
		return s.current, err
	}

	s.current = next
	if err := s.saveLocked(next); err != nil {
		log.Printf("settings: persist failed: %v", err)
	}
	return next, nil
}

// Save validates and persists the given value directly. Used at
// startup for the post-merge re-save; everything else goes through
// Apply.
func (s *Store) Save(v Settings) error {
	if err := Validate(v); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = v
	s.loaded = true
	return s.saveLocked(v)
}

func (s *Store) saveLocked(v Settings) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}

// merge overlays persisted JSON onto base one field at a time. A field
// that is missing or fails to decode keeps the base value; a file that
// fails to parse entirely keeps all of them.
func merge(base Settings, raw []byte) Settings {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		log.Printf("settings: unparsable state file, using defaults: %v", err)
		return base
	}

	decodeInt(fields, "warn_on", &base.WarnOnPPM)
	decodeInt(fields, "high_on", &base.HighOnPPM)
	decodeInt(fields, "remind_min", &base.RemindMin)
	decodeBool(fields, "quiet_enable", &base.QuietEnable)
	decodeInt(fields, "quiet_start_h", &base.QuietStartHour)
	decodeInt(fields, "quiet_end_h", &base.QuietEndHour)
	decodeBool(fields, "asc_enabled", &base.ASCEnabled)
	decodeInt(fields, "asc_target_ppm", &base.ASCTargetPPM)
	decodeBool(fields, "alert_use_raw_co2", &base.AlertUseRawCO2)
	decodeInt(fields, "ambient_pressure_pa", &base.AmbientPressurePa)
	decodeFloat(fields, "temp_offset_c", &base.TempOffsetC)
	return base
}

func decodeInt(fields map[string]json.RawMessage, key string, dst *int) {
	raw, ok := fields[key]
	if !ok {
		return
	}
	var v int
	if err := json.Unmarshal(raw, &v); err != nil {
		log.Printf("settings: field %q unreadable, keeping default: %v", key, err)
		return
	}
	*dst = v
}

func decodeBool(fields map[string]json.RawMessage, key string, dst *bool) {
	raw, ok := fields[key]
	if !ok {
		return
	}
	var v bool
	if err := json.Unmarshal(raw, &v); err != nil {
		log.Printf("settings: field %q unreadable, keeping default: %v", key, err)
		return
	}
	*dst = v
}

func decodeFloat(fields map[string]json.RawMessage, key string, dst *float64) {
	raw, ok := fields[key]
	if !ok {
		return
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		log.Printf("settings: field %q unreadable, keeping default: %v", key, err)
		return
	}
	*dst = v
}
