package detect

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"logsentinel/internal/classify"
	"logsentinel/internal/correlate"
	"logsentinel/internal/feature"
	"logsentinel/internal/logging"
	"logsentinel/internal/metrics"
	"logsentinel/internal/parser"
	"logsentinel/internal/types"
)

// Emitter receives each alert exactly once. Persisting or displaying it is
// the emitter's concern; the engine never touches an alert after Emit.
type Emitter interface {
	Emit(alert *types.Alert)
}

// EmitterFunc adapts a function to the Emitter interface
type EmitterFunc func(alert *types.Alert)

func (f EmitterFunc) Emit(alert *types.Alert) { f(alert) }

// MultiEmitter fans one alert out to several sinks in order
type MultiEmitter []Emitter

func (m MultiEmitter) Emit(alert *types.Alert) {
	for _, e := range m {
		e.Emit(alert)
	}
}

// Rule names, used as the rule half of every tracker key
const (
	RuleSSHBruteForce = "ssh_bruteforce"
	RuleWebScan       = "web_scan"
)

// ipPattern is the fallback for records without a structured IP field:
// the first dotted quad found in the free text
var ipPattern = regexp.MustCompile(`from ([\d\.]+)|(\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3})`)

var authFailurePhrases = []string{
	"failed password",
	"authentication failure",
	"invalid user",
}

// Engine is the tiered dispatcher: deterministic correlation rules first,
// the statistical classifier only for lines the rules do not resolve.
type Engine struct {
	parser     *parser.Parser
	tracker    *correlate.Tracker
	classifier classify.Classifier // nil = rules-only degraded mode
	emitter    Emitter

	mu         sync.RWMutex
	bruteForce correlate.RuleSpec
	webScan    correlate.RuleSpec
	include403 bool
	calibrator classify.Calibrator
}

// NewEngine creates the dispatcher. A nil classifier puts the engine in
// rules-only mode; tier 2 is skipped entirely.
func NewEngine(cfg *types.Config, tracker *correlate.Tracker, classifier classify.Classifier, emitter Emitter) *Engine {
	e := &Engine{
		parser:     parser.New(),
		tracker:    tracker,
		classifier: classifier,
		emitter:    emitter,
	}
	e.UpdateConfig(cfg)
	return e
}

// UpdateConfig swaps the rule tunables and the confidence gate. Safe to call
// while Process is running; used for SIGHUP reloads.
func (e *Engine) UpdateConfig(cfg *types.Config) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.bruteForce = correlate.RuleSpec{
		Name:      RuleSSHBruteForce,
		Threshold: cfg.Rules.BruteForceThreshold,
		Window:    time.Duration(cfg.Rules.BruteForceWindowSec) * time.Second,
	}
	e.webScan = correlate.RuleSpec{
		Name:      RuleWebScan,
		Threshold: cfg.Rules.WebScanThreshold,
		Window:    time.Duration(cfg.Rules.WebScanWindowSec) * time.Second,
	}
	e.include403 = cfg.Rules.Include403
	e.calibrator = classify.Calibrator{
		Threshold:   cfg.Classifier.ConfidenceThreshold,
		Temperature: cfg.Classifier.Temperature,
	}
}

// Process runs one raw log line through the full pipeline. Safe for
// concurrent use; all shared state lives in the tracker, which serializes
// per key. Outcomes surface only through the emitter.
func (e *Engine) Process(rawLine string, now time.Time) {
	line := strings.TrimSpace(rawLine)
	if line == "" || !utf8.ValidString(line) {
		// total unreadability is the one hard skip
		return
	}
	metrics.LinesProcessed.Inc()

	rec := e.parser.Parse(line)
	if rec.Format == parser.FormatUnknown {
		metrics.LinesUnparsed.Inc()
	}

	e.mu.RLock()
	bruteForce, webScan := e.bruteForce, e.webScan
	include403 := e.include403
	calibrator := e.calibrator
	e.mu.RUnlock()

	// Tier 1: stateful rules in fixed precedence. A rule without an
	// attribution target is useless, so records with no resolvable IP skip
	// correlation entirely rather than fabricating a key.
	ip := resolveIP(rec)
	if ip != "" {
		if isAuthFailure(rec) {
			trig := e.tracker.Evaluate(bruteForce, ip, now)
			if trig.Fired {
				e.emit(rec, types.CategorySSHBruteForce, types.TierRule, ip, 1.0, now,
					fmt.Sprintf("%d failed logins within %ds from %s", trig.Threshold, int(trig.Window.Seconds()), ip))
				return
			}
		}

		if status := rec.Status(); status == "404" || (include403 && status == "403") {
			trig := e.tracker.Evaluate(webScan, ip, now)
			if trig.Fired {
				e.emit(rec, types.CategoryWebScan, types.TierRule, ip, 1.0, now,
					fmt.Sprintf("%d HTTP %s responses within %ds from %s", trig.Threshold, status, int(trig.Window.Seconds()), ip))
				return
			}
		}
	}

	// Tier 2: one stateless classifier call. Absent classifier means
	// rules-only mode; a failing call is logged and treated as suppressed,
	// never as a reason to drop subsequent lines.
	if e.classifier == nil {
		return
	}

	vec := feature.FromRecord(rec, line)
	probs, err := e.classifier.PredictProba(vec)
	if err != nil {
		metrics.ClassifierErrors.Inc()
		logging.Log.Warnf("[CLASSIFIER] prediction failed, suppressing record: %v", err)
		return
	}

	class, conf := calibrator.Decide(probs)
	metrics.ConfidenceScores.Observe(conf)
	if class == classify.ClassBenign {
		metrics.Suppressions.Inc()
		return
	}

	e.emit(rec, classify.CategoryForClass(class), types.TierClassifier, ip, conf, now, strings.TrimSpace(truncate(vec.FullLogText, 200)))
}

func (e *Engine) emit(rec *parser.Record, category types.Category, tier types.Tier, ip string, conf float64, now time.Time, detail string) {
	if ip == "" {
		ip = "N/A"
	}
	alert := &types.Alert{
		ID:         uuid.NewString(),
		Timestamp:  now,
		Category:   category,
		Tier:       tier,
		Details:    detail,
		IPAddress:  ip,
		Confidence: conf,
		Format:     rec.Format,
		Record:     rec.Fields,
	}
	metrics.AlertsGenerated.WithLabelValues(string(category), string(tier)).Inc()
	e.emitter.Emit(alert)
}

// truncate caps s at max bytes without splitting a multi-byte rune
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// resolveIP prefers the structured field and falls back to scanning the free
// text for a dotted quad
func resolveIP(rec *parser.Record) string {
	if ip := rec.IP(); ip != "" {
		return ip
	}
	m := ipPattern.FindStringSubmatch(rec.Message())
	if m == nil {
		return ""
	}
	if m[1] != "" {
		return m[1]
	}
	return m[2]
}

// isAuthFailure reports whether the record is an authentication failure the
// brute-force rule should count: an auth-format line whose message carries a
// failure phrase.
func isAuthFailure(rec *parser.Record) bool {
	if !strings.Contains(rec.Format, "auth") {
		return false
	}
	msg := strings.ToLower(rec.Message())
	for _, phrase := range authFailurePhrases {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}
