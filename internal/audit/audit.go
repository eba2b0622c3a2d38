package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"logsentinel/internal/logging"
	"logsentinel/internal/types"
)

// Logger appends alerts to a JSON-lines audit file
type Logger struct {
	mu       sync.Mutex
	filePath string
}

// NewLogger creates a new audit logger
func NewLogger(filePath string) *Logger {
	return &Logger{
		filePath: filePath,
	}
}

// LogAlert writes one alert to the audit log in a thread-safe manner
func (l *Logger) LogAlert(alert *types.Alert) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	// strict JSON lines, one alert per line
	encoder := json.NewEncoder(f)
	if err := encoder.Encode(alert); err != nil {
		return fmt.Errorf("failed to encode alert: %w", err)
	}

	return nil
}

// Emit satisfies the pipeline emitter contract. Write failures are logged
// rather than propagated; a full disk must not stop detection.
func (l *Logger) Emit(alert *types.Alert) {
	if err := l.LogAlert(alert); err != nil {
		logging.Log.Errorf("[AUDIT] %v", err)
	}
}
