package ingest

import (
	"testing"
	"time"
)

func TestEntryTimeDecodesMicroseconds(t *testing.T) {
	// 2026-01-10 10:00:00 UTC in journal microseconds
	want := time.Date(2026, 1, 10, 10, 0, 0, 0, time.UTC)
	got := entryTime("1768039200000000")
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got.UTC(), want)
	}
}

func TestEntryTimeFallsBackOnGarbage(t *testing.T) {
	before := time.Now().Add(-time.Second)
	got := entryTime("not-a-number")
	if got.Before(before) {
		t.Errorf("expected fallback to roughly now, got %v", got)
	}
}

func TestFormatSyslogLineMatchesAuthShape(t *testing.T) {
	ts := time.Date(2026, 1, 10, 10, 0, 0, 0, time.UTC)
	entry := JournalEntry{
		Message:          "Failed password for root from 192.168.1.50 port 22 ssh2",
		SyslogIdentifier: "sshd",
		Hostname:         "bastion",
		PID:              "4122",
	}

	got := formatSyslogLine(ts, entry)
	want := "Jan 10 10:00:00 bastion sshd[4122]: Failed password for root from 192.168.1.50 port 22 ssh2"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFormatSyslogLineDefaultsHostname(t *testing.T) {
	ts := time.Date(2026, 1, 10, 10, 0, 0, 0, time.UTC)
	got := formatSyslogLine(ts, JournalEntry{SyslogIdentifier: "cron", PID: "1", Message: "job started"})
	want := "Jan 10 10:00:00 localhost cron[1]: job started"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
