package classify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"logsentinel/internal/feature"
)

// HTTPClassifier talks to a model server speaking the predict_proba contract
// over JSON. The server is opaque: it may wrap a joblib pipeline, an ONNX
// runtime, anything that returns a probability vector in the agreed class
// ordering.
type HTTPClassifier struct {
	url    string
	client *http.Client
}

func NewHTTPClassifier(url string, timeout time.Duration) *HTTPClassifier {
	if url == "" {
		url = "http://localhost:5000/predict"
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPClassifier{
		url: url,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// predictRequest is the payload for the model server
type predictRequest struct {
	Features feature.Vector `json:"features"`
}

// predictResponse is the model server's reply
type predictResponse struct {
	Probabilities []float64 `json:"probabilities"`
}

// PredictProba implements the Classifier interface
func (c *HTTPClassifier) PredictProba(v feature.Vector) ([]float64, error) {
	body, err := json.Marshal(predictRequest{Features: v})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal predict request: %w", err)
	}

	resp, err := c.client.Post(c.url, "application/json", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("model server connection failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("model server returned status: %s", resp.Status)
	}

	var pr predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, fmt.Errorf("failed to decode predict response: %w", err)
	}
	if len(pr.Probabilities) < 2 {
		return nil, fmt.Errorf("model server returned %d probabilities, want at least 2", len(pr.Probabilities))
	}
	return pr.Probabilities, nil
}

// Check verifies the model server is reachable and answers the contract.
// Called once at startup: a failing check keeps the pipeline out of
// classifier mode rather than discovering the problem one record at a time.
func (c *HTTPClassifier) Check() error {
	probe := feature.Vector{
		FullLogText:     "startup probe",
		StatusCode:      feature.Missing,
		DetectedLogType: "unknown",
		ProcessInfo:     feature.Missing,
	}
	if _, err := c.PredictProba(probe); err != nil {
		return fmt.Errorf("classifier check failed: %w", err)
	}
	return nil
}
