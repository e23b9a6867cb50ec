package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// Notifier delivers job notifications. Implementations are best-effort: a
// delivery failure must never change the outcome of the job that sent it.
type Notifier interface {
	Notify(ctx context.Context, severity Severity, title, body string)
}

const notifyTimeout = 10 * time.Second

var severityEmoji = map[Severity]string{
	SeverityInfo:    "ℹ️",
	SeveritySuccess: "✅",
	SeverityError:   "❌",
}

// WebhookNotifier posts markdown messages to a WeCom-style webhook. With no
// URL configured every call is a no-op.
type WebhookNotifier struct {
	url    string
	client *http.Client
	log    *zap.Logger
	now    func() time.Time
}

func NewWebhookNotifier(url string, log *zap.Logger) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: notifyTimeout},
		log:    log,
		now:    time.Now,
	}
}

type webhookMessage struct {
	MsgType  string          `json:"msgtype"`
	Markdown webhookMarkdown `json:"markdown"`
}

type webhookMarkdown struct {
	Content string `json:"content"`
}

func (n *WebhookNotifier) Notify(ctx context.Context, severity Severity, title, body string) {
	if n.url == "" {
		return
	}

	emoji, ok := severityEmoji[severity]
	if !ok {
		emoji = severityEmoji[SeverityInfo]
	}

	msg := webhookMessage{
		MsgType: "markdown",
		Markdown: webhookMarkdown{
			Content: fmt.Sprintf("# %s %s\n\n%s\n\n**Time**: %s",
				emoji, title, body, n.now().Format("2006-01-02 15:04:05")),
		},
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		n.log.Warn("failed to encode notification", zap.Error(err))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		n.log.Warn("failed to build notification request", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		n.log.Warn("failed to deliver notification", zap.String("title", title), zap.Error(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		n.log.Warn("notification endpoint rejected message",
			zap.String("title", title), zap.Int("status", resp.StatusCode))
	}
}
