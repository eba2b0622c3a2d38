package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"logsentinel/internal/audit"
	"logsentinel/internal/classify"
	"logsentinel/internal/config"
	"logsentinel/internal/correlate"
	"logsentinel/internal/detect"
	"logsentinel/internal/ingest"
	"logsentinel/internal/logging"
	"logsentinel/internal/metrics"
	"logsentinel/internal/notify"
	"logsentinel/internal/state"
	"logsentinel/internal/types"
)

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		runCommand(os.Args[2:])
	case "audit":
		auditCommand(os.Args[2:])
	case "version":
		fmt.Printf("logsentinel %s\n", version)
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: logsentinel <command> [flags]")
	fmt.Println("Commands:")
	fmt.Println("  run       Start the detection pipeline")
	fmt.Println("  audit     Print the alert audit log")
	fmt.Println("  version   Print the version")
}

func runCommand(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", "/etc/logsentinel/config.yml", "Path to config file")
	fs.Parse(args)

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := logging.Init(cfg.Log.Level, cfg.Log.Path); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logging: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Starting logsentinel...")
	fmt.Printf("Monitoring: %s\n", cfg.Input.AuthLogPath)

	// Tracker plus persisted window state
	tracker := correlate.NewTracker(cfg.Rules.MaxTrackedKeys)
	stateStore, err := state.NewStore(cfg.State.DBPath)
	if err != nil {
		logging.Log.Errorf("[STATE] failed to open state store: %v", err)
		stateStore = nil
	} else {
		defer stateStore.Close()
		snap, err := stateStore.LoadSnapshot()
		if err != nil {
			logging.Log.Errorf("[STATE] restore failed: %v", err)
		} else if len(snap) > 0 {
			tracker.Restore(snap)
			logging.Log.Infof("[STATE] restored %d windows from database", len(snap))
		}
	}
	tracker.StartGC(10 * time.Minute)
	defer tracker.StopGC()

	// Classifier mode requires a live model server at startup. Operators who
	// want rules-only mode disable the classifier in config instead.
	var classifier classify.Classifier
	if cfg.Classifier.Enabled {
		hc := classify.NewHTTPClassifier(cfg.Classifier.URL, time.Duration(cfg.Classifier.TimeoutSec)*time.Second)
		if err := hc.Check(); err != nil {
			logging.Log.Fatalf("[CLASSIFIER] unreachable at %s, refusing to start in classifier mode: %v", cfg.Classifier.URL, err)
		}
		classifier = hc
		fmt.Printf("Classifier: %s\n", cfg.Classifier.URL)
	} else {
		fmt.Println("Classifier disabled, running rules-only.")
	}

	// Alert sinks
	auditLogger := audit.NewLogger(cfg.Output.AuditLogPath)
	notifier := notify.NewNotifier(cfg.Notification.WebhookURL, cfg.Notification.Allowlist)
	printer := detect.EmitterFunc(printAlert)

	// The humanized band applies to outward-facing sinks only; the audit
	// log always records the true score.
	var outward detect.Emitter = detect.MultiEmitter{notifier, printer}
	if cfg.Notification.HumanizeConfidence {
		outward = notify.NewHumanizedEmitter(outward)
	}
	emitter := detect.MultiEmitter{auditLogger, outward}

	engine := detect.NewEngine(cfg, tracker, classifier, emitter)

	if cfg.Metrics.Enabled {
		go func() {
			logging.Log.Infof("[METRICS] listening on %s", cfg.Metrics.Listen)
			if err := metrics.StartServer(cfg.Metrics.Listen); err != nil {
				logging.Log.Errorf("[METRICS] failed to start: %v", err)
			}
		}()
	}

	// Log sources. Every started source goes into the slice so shutdown can
	// stop them all; the aggregation goroutine only exits once each of its
	// channels has closed.
	var sources []ingest.Ingester

	tailer := ingest.NewFileTailer(cfg.Input.AuthLogPath)
	authChan, err := tailer.Start()
	if err != nil {
		logging.Log.Fatalf("failed to start auth tailer: %v", err)
	}
	sources = append(sources, tailer)

	var webChan <-chan ingest.LogLine
	if cfg.Input.WebLogPath != "" {
		webTailer := ingest.NewFileTailer(cfg.Input.WebLogPath)
		ch, err := webTailer.Start()
		if err != nil {
			logging.Log.Warnf("failed to start web tailer: %v", err)
		} else {
			webChan = ch
			sources = append(sources, webTailer)
		}
	}

	var journalChan <-chan ingest.LogLine
	if cfg.Input.EnableJournal {
		fmt.Println("Starting journald monitor...")
		j := ingest.NewJournalReader()
		ch, err := j.Start()
		if err != nil {
			logging.Log.Warnf("failed to start journald: %v", err)
		} else {
			journalChan = ch
			sources = append(sources, j)
		}
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {
			var msg ingest.LogLine
			var ok bool

			select {
			case msg, ok = <-authChan:
				if !ok {
					authChan = nil
				}
			case msg, ok = <-webChan:
				if !ok {
					webChan = nil
				}
			case msg, ok = <-journalChan:
				if !ok {
					journalChan = nil
				}
			}

			if authChan == nil && webChan == nil && journalChan == nil {
				return
			}
			if !ok {
				continue
			}

			engine.Process(msg.Content, time.Unix(msg.Timestamp, 0))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	for sig := range sigChan {
		if sig == syscall.SIGHUP {
			logging.Log.Info("[CONFIG] SIGHUP received, reloading configuration")
			newCfg, err := config.LoadConfig(*configPath)
			if err != nil {
				logging.Log.Errorf("[CONFIG] reload failed, keeping previous config: %v", err)
				continue
			}
			engine.UpdateConfig(newCfg)
			saveState(stateStore, tracker)
			cfg = newCfg
			logging.Log.Info("[CONFIG] reload successful")
			// Input path changes still require a restart; tailers keep
			// their original targets.
		} else {
			fmt.Println("\nShutting down...")
			saveState(stateStore, tracker)
			break
		}
	}

	for _, s := range sources {
		s.Stop()
	}
	wg.Wait()
	fmt.Println("Shutdown complete.")
}

func saveState(store *state.Store, tracker *correlate.Tracker) {
	if store == nil {
		return
	}
	if err := store.SaveSnapshot(tracker.Snapshot()); err != nil {
		logging.Log.Errorf("[STATE] save failed: %v", err)
	}
}

func printAlert(a *types.Alert) {
	fmt.Printf("\n[ALERT] %s | tier=%s | source=%s | confidence=%.2f\n",
		a.Category, a.Tier, sanitize(a.IPAddress), a.Confidence)
	fmt.Printf("Details: %s\n", sanitize(a.Details))
}

// sanitize strips control characters (except newline and tab) to prevent
// terminal injection from attacker-controlled log content
func sanitize(s string) string {
	var builder strings.Builder
	for _, r := range s {
		if r >= 32 || r == '\n' || r == '\t' {
			builder.WriteRune(r)
		}
	}
	return builder.String()
}

func auditCommand(args []string) {
	fs := flag.NewFlagSet("audit", flag.ExitOnError)
	configPath := fs.String("config", "/etc/logsentinel/config.yml", "Path to config file")
	fs.Parse(args)

	path := "alerts.jsonl"
	if cfg, err := config.LoadConfig(*configPath); err == nil {
		path = cfg.Output.AuditLogPath
	}

	f, err := os.Open(path)
	if err != nil {
		fmt.Printf("Error reading audit log: %v\n", err)
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fmt.Println(sanitize(scanner.Text()))
	}
}
