package types

import "time"

// Category identifies the kind of attack an alert reports
type Category string

const (
	CategorySSHBruteForce Category = "SSH Brute-force"
	CategoryWebScan       Category = "Web Scan"
	CategoryMLAttack      Category = "ML Attack"
)

// Tier identifies which stage of the pipeline produced an alert
type Tier string

const (
	TierRule       Tier = "rule"
	TierClassifier Tier = "classifier"
)

// Alert represents one detected attack. The pipeline creates it exactly once
// per triggering log line and never updates it afterwards; persistence and
// display belong to downstream consumers.
type Alert struct {
	ID         string            `json:"id"`
	Timestamp  time.Time         `json:"timestamp"`
	Category   Category          `json:"category"`
	Tier       Tier              `json:"tier"`
	Details    string            `json:"details"`
	IPAddress  string            `json:"ip_address"` // "N/A" when no source could be attributed
	Confidence float64           `json:"confidence"`
	Format     string            `json:"detected_log_type"`
	Record     map[string]string `json:"record"` // full normalized record for audit
}

// Config represents the application configuration
type Config struct {
	Input struct {
		AuthLogPath   string `yaml:"auth_log_path"`
		WebLogPath    string `yaml:"web_log_path"` // Nginx/Apache
		EnableJournal bool   `yaml:"enable_journald"`
	} `yaml:"input"`

	Rules struct {
		BruteForceThreshold int  `yaml:"bruteforce_threshold"`      // default 5
		BruteForceWindowSec int  `yaml:"bruteforce_window_seconds"` // default 60
		WebScanThreshold    int  `yaml:"webscan_threshold"`         // default 10
		WebScanWindowSec    int  `yaml:"webscan_window_seconds"`    // default 60
		Include403          bool `yaml:"include_403"`
		MaxTrackedKeys      int  `yaml:"max_tracked_keys"`
	} `yaml:"rules"`

	Classifier struct {
		Enabled             bool    `yaml:"enabled"`
		URL                 string  `yaml:"url"` // e.g. http://localhost:5000/predict
		TimeoutSec          int     `yaml:"timeout_seconds"`
		ConfidenceThreshold float64 `yaml:"confidence_threshold"` // default 0.60
		Temperature         float64 `yaml:"temperature"`          // 0 = plain entropy calibration
	} `yaml:"classifier"`

	Notification struct {
		WebhookURL         string   `yaml:"webhook_url"`
		Allowlist          []string `yaml:"allowlist"` // IPs that never produce notifications
		HumanizeConfidence bool     `yaml:"humanize_confidence"`
	} `yaml:"notification"`

	State struct {
		DBPath string `yaml:"db_path"`
	} `yaml:"state"`

	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Listen  string `yaml:"listen"`
	} `yaml:"metrics"`

	Output struct {
		AuditLogPath string `yaml:"audit_log_path"`
	} `yaml:"output"`

	Log struct {
		Level string `yaml:"level"`
		Path  string `yaml:"path"`
	} `yaml:"log"`
}
