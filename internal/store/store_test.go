package store_test

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/securedep/watchdog/internal/store"
)

func TestStore_Append(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alerts.log")

	s, err := store.New(path, nil)
	if err != nil {
		t.Fatalf("failed to create store: %s", err)
	}

	s.Append(store.Entry{
		Level:   "CRITICAL",
		Message: "system status is unhealthy",
		Source:  "securedep-watchdog",
	})
	s.Append(store.Entry{
		Timestamp: time.Date(2024, 7, 9, 12, 0, 0, 0, time.UTC),
		Level:     "WARNING",
		Message:   "response time 2500ms exceeded threshold",
		Data:      map[string]interface{}{"metric": "response_time", "value": 2500.0},
		Source:    "securedep-watchdog",
	})

	if err := s.Close(); err != nil {
		t.Fatalf("failed to close store: %s", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open log: %s", err)
	}
	defer f.Close()

	var entries []store.Entry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e store.Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			t.Fatalf("line is not valid JSON: %s", err)
		}
		entries = append(entries, e)
	}

	if len(entries) != 2 {
		t.Fatalf("expected 2 entries but got %d", len(entries))
	}

	if entries[0].Level != "CRITICAL" || entries[0].Timestamp.IsZero() {
		t.Errorf("unexpected first entry: %#v", entries[0])
	}
	if entries[1].Level != "WARNING" {
		t.Errorf("unexpected second entry: %#v", entries[1])
	}
	if m, ok := entries[1].Data.(map[string]interface{}); !ok || m["metric"] != "response_time" {
		t.Errorf("unexpected data of second entry: %#v", entries[1].Data)
	}

	healthy, messages := s.Errors()
	if !healthy {
		t.Errorf("expected the store stays healthy but got errors: %v", messages)
	}
}

func TestStore_Append_console(t *testing.T) {
	var console bytes.Buffer

	s, err := store.New("", &console)
	if err != nil {
		t.Fatalf("failed to create store: %s", err)
	}

	s.Append(store.Entry{Level: "WARNING", Message: "memory usage 90% exceeded threshold"})
	s.Close()

	if !strings.Contains(console.String(), "memory usage 90%") {
		t.Errorf("expected the entry mirrored to console but got %q", console.String())
	}
}

func TestStore_unwritablePath(t *testing.T) {
	dir := t.TempDir()

	if _, err := store.New(dir, nil); err == nil {
		t.Errorf("expected error when opening a directory as log but got nil")
	}
}

func TestStore_writeFailureIsReported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alerts.log")

	s, err := store.New(path, nil)
	if err != nil {
		t.Fatalf("failed to create store: %s", err)
	}

	// replace the log file with a directory so the writer cannot open it
	if err := os.Remove(path); err != nil {
		t.Fatalf("failed to remove log: %s", err)
	}
	if err := os.Mkdir(path, 0755); err != nil {
		t.Fatalf("failed to make directory: %s", err)
	}

	s.Append(store.Entry{Level: "WARNING", Message: "goes nowhere"})
	s.Close()

	healthy, messages := s.Errors()
	if healthy {
		t.Errorf("expected the store reports unhealthy")
	}
	if len(messages) == 0 || !strings.Contains(messages[0], "failed to open alert log") {
		t.Errorf("unexpected error messages: %v", messages)
	}
}
