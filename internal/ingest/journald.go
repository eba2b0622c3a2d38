package ingest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"time"

	"logsentinel/internal/logging"
)

// JournalEntry represents the JSON structure from journalctl
type JournalEntry struct {
	Timestamp        string `json:"__REALTIME_TIMESTAMP"` // microseconds as string
	Message          string `json:"MESSAGE"`
	SyslogIdentifier string `json:"SYSLOG_IDENTIFIER"`
	Hostname         string `json:"_HOSTNAME"`
	PID              string `json:"_PID"`
	UID              string `json:"_UID"`
}

// JournalReader follows the systemd journal via the journalctl CLI
type JournalReader struct {
	cmd *exec.Cmd
}

func NewJournalReader() *JournalReader {
	return &JournalReader{}
}

func (j *JournalReader) Start() (<-chan LogLine, error) {
	cmd := exec.Command("journalctl", "-f", "-o", "json")

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to pipe journalctl: %w", err)
	}

	if err := cmd.Start(); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("journalctl not found (not a systemd system?)")
		}
		return nil, fmt.Errorf("failed to start journalctl: %w", err)
	}
	j.cmd = cmd

	out := make(chan LogLine)

	go func() {
		defer close(out)
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			var entry JournalEntry
			if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
				// partial or malformed journal line, skip
				continue
			}

			// Anti-spoofing check: a "logger -t sshd" from an ordinary user
			// must not feed the brute-force counters
			if entry.SyslogIdentifier == "sshd" && entry.UID != "0" {
				logging.Log.Warnf("[SECURITY] dropped spoofed sshd entry from UID %s (PID %s)", entry.UID, entry.PID)
				continue
			}

			ts := entryTime(entry.Timestamp)
			out <- LogLine{
				Source:    "journald",
				Timestamp: ts.Unix(),
				Content:   formatSyslogLine(ts, entry),
			}
		}

		_ = cmd.Wait()
	}()

	return out, nil
}

func (j *JournalReader) Stop() error {
	if j.cmd != nil && j.cmd.Process != nil {
		return j.cmd.Process.Kill()
	}
	return nil
}

// entryTime decodes the journal realtime timestamp (microseconds since the
// epoch, as a decimal string), falling back to arrival time
func entryTime(micros string) time.Time {
	us, err := strconv.ParseInt(micros, 10, 64)
	if err != nil || us <= 0 {
		return time.Now()
	}
	return time.Unix(us/1e6, (us%1e6)*1e3)
}

// formatSyslogLine renders a journal entry in classic syslog shape so the
// downstream format descriptors match it like any auth.log line
func formatSyslogLine(ts time.Time, entry JournalEntry) string {
	host := entry.Hostname
	if host == "" {
		host = "localhost"
	}
	return fmt.Sprintf("%s %s %s[%s]: %s",
		ts.Format("Jan _2 15:04:05"), host, entry.SyslogIdentifier, entry.PID, entry.Message)
}
