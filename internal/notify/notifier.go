// Package notify delivers reviewer-facing push notifications through an ntfy
// topic. When no topic is configured every notification is a no-op.
package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jonathangetonapod/getonapod-app-sub000/internal/feedback"
)

const userAgent = "GetOnAPod-Server/1.0"

// New builds a notifier backed by ntfy when a topic URL is configured,
// otherwise the shared no-op implementation.
func New(topicURL string, timeout time.Duration) feedback.Notifier {
	topicURL = strings.TrimSpace(topicURL)
	if topicURL == "" {
		return feedback.NoopNotifier{}
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyNotifier{
		endpoint: topicURL,
		client:   &http.Client{Timeout: timeout},
	}
}

type ntfyNotifier struct {
	endpoint string
	client   *http.Client
}

// ProspectApproved posts the celebratory approval event.
func (n *ntfyNotifier) ProspectApproved(ctx context.Context, podcastName string) error {
	podcastName = strings.TrimSpace(podcastName)
	if podcastName == "" {
		podcastName = "a podcast"
	}
	return n.send(ctx,
		"GetOnAPod - Prospect Approved",
		fmt.Sprintf("🎉 Prospect approved %s", podcastName),
		[]string{"getonapod", "feedback", "approved"})
}

func (n *ntfyNotifier) send(ctx context.Context, title, message string, tags []string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if title != "" {
		req.Header.Set("Title", title)
	}
	if len(tags) > 0 {
		req.Header.Set("Tags", strings.Join(tags, ","))
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("ntfy returned status %d", resp.StatusCode)
	}
	return nil
}
