package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/abdul-hamid-achik/hitreq/packages/http"
)

// WaitFor polls url until it answers with status or timeout elapses. Each
// probe uses a fresh request so no cookies leak into the run.
func WaitFor(ctx context.Context, client *http.Client, url string, status int, timeout, interval time.Duration) error {
	if client == nil {
		client = http.NewClient()
	}
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var lastErr error
	lastStatus := 0
	for {
		resp, err := client.Execute(ctx, http.New(url).SetTimeout(int(interval.Milliseconds())))
		if err == nil {
			lastStatus = resp.StatusCode
			if resp.StatusCode == status {
				return nil
			}
		} else {
			lastErr = err
		}

		select {
		case <-ctx.Done():
			if lastStatus != 0 {
				return fmt.Errorf("service %s not ready after %v: got status %d, expected %d", url, timeout, lastStatus, status)
			}
			return fmt.Errorf("service %s not ready after %v: %w", url, timeout, lastErr)
		case <-time.After(interval):
		}
	}
}
