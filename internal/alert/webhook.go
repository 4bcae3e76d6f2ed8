package alert

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"

	"github.com/securedep/watchdog/internal/wderr"
)

// webhookPayload is the chat webhook message shape. It follows the
// Slack incoming-webhook contract the ops channel expects.
type webhookPayload struct {
	Text        string              `json:"text"`
	Attachments []webhookAttachment `json:"attachments"`
}

type webhookAttachment struct {
	Color  string         `json:"color"`
	Title  string         `json:"title"`
	Text   string         `json:"text"`
	Fields []webhookField `json:"fields"`
	Footer string         `json:"footer"`
}

type webhookField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

// Webhook posts alerts to a chat webhook URL.
type Webhook struct {
	target *url.URL
	client *http.Client
}

// NewWebhook creates the chat webhook channel.
// A zero timeout means 10 seconds.
func NewWebhook(target string, timeout time.Duration) (*Webhook, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("webhook: unsupported scheme %q", u.Scheme)
	}

	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Webhook{
		target: u,
		client: &http.Client{Timeout: timeout},
	}, nil
}

func (w *Webhook) Name() string {
	return "webhook"
}

func (w *Webhook) Send(ctx context.Context, a Dispatched) error {
	color := "warning"
	if a.Type == SeverityCritical {
		color = "danger"
	}

	metric := a.Metric
	if metric == "" {
		metric = "general"
	}

	payload := webhookPayload{
		Text: fmt.Sprintf("[%s] %s", a.Type, a.Message),
		Attachments: []webhookAttachment{{
			Color: color,
			Title: fmt.Sprintf("%s: %s", a.Type, metric),
			Text:  a.Message,
			Fields: []webhookField{
				{Title: "Environment", Value: a.Environment, Short: true},
				{Title: "Timestamp", Value: a.Timestamp.Format(time.RFC3339), Short: true},
			},
			Footer: "securedep-watchdog",
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return wderr.New(wderr.ErrChannel, err, "webhook: failed to encode payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.target.String(), bytes.NewReader(body))
	if err != nil {
		return wderr.New(wderr.ErrChannel, err, "webhook")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return wderr.New(wderr.ErrChannel, err, "webhook")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return wderr.New(wderr.ErrChannel, nil, "webhook: unexpected status %s", resp.Status)
	}

	return nil
}
