package audit

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoggerWritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "audit.log")
	l := NewLogger(path)
	l.now = func() time.Time { return time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC) }

	if err := l.Log(Event{Action: ActionLogin, Actor: "waqastariq", Scope: "tab-1", Outcome: "success"}); err != nil {
		t.Fatalf("Log() error: %v", err)
	}
	if err := l.Log(Event{Action: ActionLogout, Scope: "tab-1", Outcome: "success"}); err != nil {
		t.Fatalf("Log() error: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open audit log: %v", err)
	}
	defer f.Close()

	var events []Event
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e Event
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("decode audit line: %v", err)
		}
		events = append(events, e)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 audit lines, got %d", len(events))
	}
	if events[0].Actor != "waqastariq" || events[0].Action != ActionLogin || events[0].At != "2026-10-16T09:00:00Z" {
		t.Fatalf("unexpected first event: %+v", events[0])
	}
	if events[1].Action != ActionLogout || events[1].Outcome != "success" {
		t.Fatalf("unexpected second event: %+v", events[1])
	}
}

func TestLoggerWithoutPathIsNoop(t *testing.T) {
	var nilLogger *Logger
	if err := nilLogger.Log(Event{Action: ActionLogin}); err != nil {
		t.Fatalf("nil logger Log() error: %v", err)
	}
	if err := NewLogger("").Log(Event{Action: ActionLogin}); err != nil {
		t.Fatalf("empty path Log() error: %v", err)
	}
}
