package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"curator/internal/config"
)

const userAgent = "Curator/0.1.0"

// Service defines the notification surface exposed to engine components.
type Service interface {
	NotifyFileMoved(ctx context.Context, filename, category, destination string) error
	NotifyDuplicateDetected(ctx context.Context, filename string, existingPaths []string) error
	NotifyFolderDegraded(ctx context.Context, folder string, reason error) error
	NotifyFolderRecovered(ctx context.Context, folder string) error
	NotifyPermanentFailure(ctx context.Context, path string, attempts int, lastErr error) error
	NotifyBatchCompleted(ctx context.Context, processed, errors int, duration time.Duration) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyFileMoved(ctx context.Context, filename, category, destination string) error {
	data := payload{
		title:   "Curator - File Organized",
		message: fmt.Sprintf("Moved %s to %s (%s)", filename, category, destination),
		tags:    []string{"curator", "move", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyDuplicateDetected(ctx context.Context, filename string, existingPaths []string) error {
	data := payload{
		title:   "Curator - Duplicate Detected",
		message: fmt.Sprintf("%s matches existing content: %s", filename, strings.Join(existingPaths, ", ")),
		tags:    []string{"curator", "duplicate"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyFolderDegraded(ctx context.Context, folder string, reason error) error {
	data := payload{
		title:    "Curator - Folder Unreachable",
		message:  fmt.Sprintf("Watching suspended for %s: %v", folder, reason),
		tags:     []string{"curator", "folder", "degraded"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyFolderRecovered(ctx context.Context, folder string) error {
	data := payload{
		title:   "Curator - Folder Recovered",
		message: fmt.Sprintf("Watching resumed for %s", folder),
		tags:    []string{"curator", "folder", "recovered"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyPermanentFailure(ctx context.Context, path string, attempts int, lastErr error) error {
	data := payload{
		title:    "Curator - Giving Up",
		message:  fmt.Sprintf("Failed after %d attempts: %s (%v)", attempts, path, lastErr),
		tags:     []string{"curator", "error"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyBatchCompleted(ctx context.Context, processed, errors int, duration time.Duration) error {
	data := payload{
		title:   "Curator - Batch Complete",
		message: fmt.Sprintf("Organized %d files (%d errors) in %s", processed, errors, duration.Round(time.Second)),
		tags:    []string{"curator", "batch", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:   "Curator - Test",
		message: "Notifications are configured correctly",
		tags:    []string{"curator", "test"},
	}
	return n.send(ctx, data)
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

type noopService struct{}

func (noopService) NotifyFileMoved(context.Context, string, string, string) error   { return nil }
func (noopService) NotifyDuplicateDetected(context.Context, string, []string) error { return nil }
func (noopService) NotifyFolderDegraded(context.Context, string, error) error       { return nil }
func (noopService) NotifyFolderRecovered(context.Context, string) error             { return nil }
func (noopService) NotifyPermanentFailure(context.Context, string, int, error) error {
	return nil
}
func (noopService) NotifyBatchCompleted(context.Context, int, int, time.Duration) error {
	return nil
}
func (noopService) TestNotification(context.Context) error { return nil }
