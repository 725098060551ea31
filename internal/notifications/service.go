package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"prama/internal/config"
	"prama/internal/textutil"
)

const userAgent = "Prama-Go/0.1.0"

// Service defines the notification surface exposed to generation pipelines.
type Service interface {
	NotifyGenerationCompleted(ctx context.Context, kind, id, output string, elapsed time.Duration) error
	NotifyGenerationFailed(ctx context.Context, kind, id string, err error) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:  topic,
		client:    &http.Client{Timeout: timeout},
		onSuccess: cfg.Notifications.OnSuccess,
		onFailure: cfg.Notifications.OnFailure,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint  string
	client    *http.Client
	onSuccess bool
	onFailure bool
}

func (n *ntfyService) NotifyGenerationCompleted(ctx context.Context, kind, id, output string, elapsed time.Duration) error {
	if !n.onSuccess {
		return nil
	}
	kind = strings.TrimSpace(kind)
	elapsed = elapsed.Round(time.Second)
	if elapsed < 0 {
		elapsed = 0
	}
	message := fmt.Sprintf("✅ %s finished in %s", displayKind(kind), elapsed)
	if output = strings.TrimSpace(output); output != "" {
		message = fmt.Sprintf("%s\nFile: %s", message, output)
	}
	if id = strings.TrimSpace(id); id != "" {
		message = fmt.Sprintf("%s\nRun: %s", message, id)
	}
	return n.send(ctx, payload{
		title:   "Prama - " + displayKind(kind) + " Ready",
		message: message,
		tags:    []string{"prama", kindTag(kind), "completed"},
	})
}

func (n *ntfyService) NotifyGenerationFailed(ctx context.Context, kind, id string, err error) error {
	if !n.onFailure {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("❌ ")
	builder.WriteString(displayKind(kind))
	builder.WriteString(" failed")
	if id = strings.TrimSpace(id); id != "" {
		builder.WriteString(" (")
		builder.WriteString(id)
		builder.WriteString(")")
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}
	return n.send(ctx, payload{
		title:    "Prama - Error",
		message:  builder.String(),
		tags:     []string{"prama", kindTag(kind), "error"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "Prama - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"prama", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func displayKind(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "talkinghead":
		return "Talking head"
	case "tts":
		return "Speech"
	case "studio":
		return "Vodcast"
	case "":
		return "Job"
	default:
		return kind
	}
}

func kindTag(kind string) string {
	if strings.TrimSpace(kind) == "" {
		return "job"
	}
	return textutil.SanitizeToken(kind)
}

type noopService struct{}

func (noopService) NotifyGenerationCompleted(context.Context, string, string, string, time.Duration) error {
	return nil
}

func (noopService) NotifyGenerationFailed(context.Context, string, string, error) error {
	return nil
}

func (noopService) TestNotification(context.Context) error { return nil }
