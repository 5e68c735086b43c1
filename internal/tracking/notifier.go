// Package tracking records who looks at the site: resume download notifications sent to the
// collector and privacy-hashed page views.
package tracking

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
)

// Notifier sends fire-and-forget resume download events to a collector. Failures are logged
// and never reported to the caller.
type Notifier struct {
	client   *retryablehttp.Client
	endpoint string
	timeout  time.Duration
	log      logrus.FieldLogger
	wg       sync.WaitGroup
}

// NewNotifier posts to endpoint. An empty endpoint disables notifications.
func NewNotifier(endpoint string, retryMax int, timeout time.Duration, logger logrus.FieldLogger) *Notifier {
	client := retryablehttp.NewClient()
	client.Logger = log.New(io.Discard, "", 0)
	client.RetryMax = retryMax
	client.RetryWaitMin = 100 * time.Millisecond
	client.RetryWaitMax = time.Second
	client.HTTPClient.Timeout = timeout

	return &Notifier{
		client:   client,
		endpoint: endpoint,
		timeout:  timeout,
		log:      logger,
	}
}

// ResumeDownloaded reports a download in the background and returns immediately.
func (n *Notifier) ResumeDownloaded(userAgent string) {
	if n == nil || n.endpoint == "" {
		return
	}
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()

		// Overall budget across retries.
		ctx, cancel := context.WithTimeout(context.Background(), n.timeout*time.Duration(n.client.RetryMax+1))
		defer cancel()
		if err := n.send(ctx, userAgent); err != nil {
			n.log.WithError(err).Warn("resume download tracking failed")
			return
		}
		n.log.Debug("resume download tracked")
	}()
}

func (n *Notifier) send(ctx context.Context, userAgent string) error {
	u, err := url.Parse(n.endpoint)
	if err != nil {
		return fmt.Errorf("collector url: %w", err)
	}
	q := u.Query()
	q.Set("user_agent", userAgent)
	u.RawQuery = q.Encode()

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, u.String(), nil)
	if err != nil {
		return err
	}
	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("collector responded %s", resp.Status)
	}
	return nil
}

// Wait blocks until in-flight notifications finish.
func (n *Notifier) Wait() {
	if n != nil {
		n.wg.Wait()
	}
}
