package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/park63/lead-intake/pkg/logging"
)

// LeadSummary is the redacted view of a lead shared with downstream
// systems. Email addresses and message bodies never leave the database
// through this path.
type LeadSummary struct {
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

// Sink receives lead notifications. Failures are the sink's own problem:
// the dispatcher logs them and moves on.
type Sink interface {
	NotifyLead(ctx context.Context, summary LeadSummary) error
}

// CRMWebhook posts lead summaries to an external CRM endpoint.
type CRMWebhook struct {
	url    string
	client *http.Client
	logger *logging.Logger
}

// NewCRMWebhook creates a webhook sink for the given URL.
func NewCRMWebhook(url string, timeout time.Duration, logger *logging.Logger) *CRMWebhook {
	if url == "" {
		panic("notify: webhook url required")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &CRMWebhook{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// NotifyLead posts the summary as JSON. Any non-2xx response is an error.
func (w *CRMWebhook) NotifyLead(ctx context.Context, summary LeadSummary) error {
	body, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("notify: encode summary: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("notify: webhook post failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("notify: webhook returned status %d", resp.StatusCode)
	}

	w.logger.Debug("crm webhook delivered", "source", summary.Source)
	return nil
}

var _ Sink = (*CRMWebhook)(nil)
